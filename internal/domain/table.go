package domain

import "strings"

// TableKind identifies which source a table was read from.
type TableKind string

const (
	KindRegistry TableKind = "registry"
	KindScanLog  TableKind = "scan_log"
)

// Table is a single sheet with a header row. Rows are padded or truncated
// to the header width by the readers.
type Table struct {
	Source  string     `json:"source"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns the index of the header equal to name, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Value returns the trimmed cell at (row, col), or "" when out of range.
func (t *Table) Value(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}
