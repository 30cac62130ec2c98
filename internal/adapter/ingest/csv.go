package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

// ReadCSV reads a delimited file. The delimiter is the most frequent of
// comma, semicolon and tab on the first line.
func ReadCSV(name string, r io.Reader) (*domain.Table, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(string(first))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return buildTable(name, records)
}

func sniffDelimiter(sample string) rune {
	if i := strings.IndexAny(sample, "\r\n"); i >= 0 {
		sample = sample[:i]
	}
	best, count := ',', strings.Count(sample, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(sample, string(d)); n > count {
			best, count = d, n
		}
	}
	return best
}
