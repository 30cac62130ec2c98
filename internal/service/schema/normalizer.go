package schema

import (
	"strings"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

// Normalized is a table reduced to its canonical columns.
type Normalized struct {
	Kind    domain.TableKind
	Table   *domain.Table
	Columns []domain.Field
	// Shadowed lists source headers that resolved to a field already taken
	// by a column further left. They only fill cells the left column
	// leaves empty.
	Shadowed []string
}

// Has reports whether the canonical column is present.
func (n *Normalized) Has(f domain.Field) bool {
	return containsField(n.Columns, f)
}

// Normalizer maps heterogeneous headers to canonical fields.
type Normalizer struct {
	headers HeaderMap
}

// NewNormalizer creates a normalizer; a nil map uses DefaultHeaderMap.
func NewNormalizer(headers HeaderMap) *Normalizer {
	if headers == nil {
		headers = DefaultHeaderMap()
	}
	return &Normalizer{headers: headers}
}

// Normalize keeps the canonical columns of t in canonical order, trims every
// value and canonicalizes identifier columns. It fails with a
// *domain.MissingColumnError naming the first absent required field.
func (n *Normalizer) Normalize(t *domain.Table, kind domain.TableKind) (*Normalized, error) {
	canonical := domain.CanonicalFields(kind)
	if canonical == nil {
		return nil, &domain.ConfigurationError{Field: "kind", Value: string(kind), Reason: "unknown table kind"}
	}

	sourceIdx := make(map[domain.Field][]int)
	var shadowed []string
	for i, h := range t.Headers {
		f, ok := n.headers.Lookup(kind, h)
		if !ok {
			continue
		}
		if len(sourceIdx[f]) > 0 {
			shadowed = append(shadowed, h)
		}
		sourceIdx[f] = append(sourceIdx[f], i)
	}

	for _, req := range domain.RequiredFields(kind) {
		if _, ok := sourceIdx[req]; !ok {
			return nil, &domain.MissingColumnError{
				Kind:    kind,
				Source:  t.Source,
				Column:  req,
				Headers: append([]string(nil), t.Headers...),
			}
		}
	}

	var columns []domain.Field
	var idx [][]int
	for _, f := range canonical {
		if i, ok := sourceIdx[f]; ok {
			columns = append(columns, f)
			idx = append(idx, i)
		}
	}

	headers := make([]string, len(columns))
	for i, f := range columns {
		headers[i] = string(f)
	}
	rows := make([][]string, len(t.Rows))
	for r := range t.Rows {
		row := make([]string, len(columns))
		for c, f := range columns {
			row[c] = normalizeValue(f, firstValue(t, r, idx[c]))
		}
		rows[r] = row
	}

	return &Normalized{
		Kind:     kind,
		Table:    &domain.Table{Source: t.Source, Headers: headers, Rows: rows},
		Columns:  columns,
		Shadowed: shadowed,
	}, nil
}

func normalizeValue(f domain.Field, v string) string {
	switch f {
	case domain.FieldOutletID, domain.FieldConsumerID:
		return domain.CanonicalID(v)
	default:
		return strings.TrimSpace(v)
	}
}

func firstValue(t *domain.Table, row int, cols []int) string {
	for _, c := range cols {
		if v := t.Value(row, c); v != "" {
			return v
		}
	}
	return ""
}
