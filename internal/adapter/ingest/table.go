// Package ingest reads uploaded CSV and XLSX files into raw tables.
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/internal/domain"
	"github.com/seu-repo/outlet-kpi/internal/ports"
)

// DefaultSheets maps a table kind to the sheet preferred when the caller
// names none. Without a match the first sheet is read.
var DefaultSheets = map[domain.TableKind]string{
	domain.KindRegistry: "database",
	domain.KindScanLog:  "scan",
}

// Reader dispatches on file extension.
type Reader struct {
	maxBytes int64
	log      *zap.Logger
}

// NewReader creates a reader. maxBytes <= 0 disables the size check.
func NewReader(maxBytes int64, log *zap.Logger) ports.TableReader {
	return &Reader{maxBytes: maxBytes, log: log}
}

func (r *Reader) Read(name string, src io.Reader, sheet string, kind domain.TableKind) (*domain.Table, error) {
	if r.maxBytes > 0 {
		src = io.LimitReader(src, r.maxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if r.maxBytes > 0 && int64(len(data)) > r.maxBytes {
		return nil, &domain.ConfigurationError{
			Field:  "limits.max_upload_bytes",
			Value:  name,
			Reason: fmt.Sprintf("file exceeds %d bytes", r.maxBytes),
		}
	}

	t, err := Read(name, bytes.NewReader(data), sheet, kind)
	if err != nil {
		return nil, err
	}
	r.log.Debug("Read source table",
		zap.String("source", t.Source),
		zap.String("kind", string(kind)),
		zap.Int("columns", len(t.Headers)),
		zap.Int("rows", t.Len()),
	)
	return t, nil
}

// Read parses name by extension: .csv and .txt as delimited text, .xlsx
// and .xlsm as workbooks.
func Read(name string, r io.Reader, sheet string, kind domain.TableKind) (*domain.Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return ReadCSV(name, r)
	case ".xlsx", ".xlsm":
		return readWorkbook(name, r, sheet, DefaultSheets[kind])
	default:
		return nil, &domain.ConfigurationError{
			Field:  "file",
			Value:  name,
			Reason: "unsupported file type, expected .csv or .xlsx",
		}
	}
}

// buildTable takes the first non-blank row as header and drops blank rows.
// Data rows are padded or cut to the header width.
func buildTable(source string, records [][]string) (*domain.Table, error) {
	start := 0
	for start < len(records) && blank(records[start]) {
		start++
	}
	if start == len(records) {
		return nil, fmt.Errorf("%s: no header row", source)
	}

	headers := make([]string, len(records[start]))
	for i, h := range records[start] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}

	rows := make([][]string, 0, len(records)-start-1)
	for _, rec := range records[start+1:] {
		if blank(rec) {
			continue
		}
		row := make([]string, len(headers))
		copy(row, rec)
		rows = append(rows, row)
	}
	return &domain.Table{Source: source, Headers: headers, Rows: rows}, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
