package schema

import (
	"errors"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

// DecodeRegistry turns a normalized registry into outlets. Rows without an
// outlet id are skipped.
func DecodeRegistry(n *Normalized) ([]domain.Outlet, error) {
	if n.Kind != domain.KindRegistry {
		return nil, fmt.Errorf("decode registry: got %s table", n.Kind)
	}
	outlets, err := decodeRows[domain.Outlet](n.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to decode registry %q: %w", n.Table.Source, err)
	}
	kept := outlets[:0]
	for _, o := range outlets {
		if o.ID != "" {
			kept = append(kept, o)
		}
	}
	return kept, nil
}

// DecodeScanLog turns a normalized scan log into events. Time and Week are
// left for the bucketer.
func DecodeScanLog(n *Normalized) ([]domain.ScanEvent, error) {
	if n.Kind != domain.KindScanLog {
		return nil, fmt.Errorf("decode scan log: got %s table", n.Kind)
	}
	events, err := decodeRows[domain.ScanEvent](n.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to decode scan log %q: %w", n.Table.Source, err)
	}
	return events, nil
}

func decodeRows[T any](t *domain.Table) ([]T, error) {
	dec, err := csvutil.NewDecoder(&rowReader{rows: t.Rows}, t.Headers...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(t.Rows))
	for {
		var v T
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// rowReader feeds table rows to csvutil.
type rowReader struct {
	rows [][]string
	next int
}

func (r *rowReader) Read() ([]string, error) {
	if r.next >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.next]
	r.next++
	return row, nil
}
