package schema

import (
	"fmt"
	"strings"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

// HeaderMap maps normalized header spellings to canonical fields per table
// kind. Adding a spelling is a data change: extend the map or pass aliases
// through configuration.
type HeaderMap map[domain.TableKind]map[string]domain.Field

var defaultAliases = map[domain.TableKind]map[domain.Field][]string{
	domain.KindRegistry: {
		domain.FieldOutletID:    {"id outlet", "outlet id", "id_outlet", "kode outlet", "outlet code", "outlet"},
		domain.FieldDSO:         {"dso", "nama dso", "dso name"},
		domain.FieldPIC:         {"pic", "promoter", "nama pic", "pic name", "spg"},
		domain.FieldProgram:     {"program", "nama program", "program name"},
		domain.FieldDisplayName: {"nama outlet", "outlet name", "nama toko", "store name", "display name"},
	},
	domain.KindScanLog: {
		domain.FieldOutletID:       {"id outlet", "outlet id", "id_outlet", "kode outlet", "outlet code"},
		domain.FieldEventTimestamp: {"tanggal scan", "tanggal", "tgl scan", "scan date", "scan time", "waktu scan", "timestamp", "date"},
		domain.FieldProgramCode:    {"kode program", "program code", "program"},
		domain.FieldConsumerID:     {"no wa", "no hp", "nomor wa", "nomor hp", "no. wa", "no. hp", "phone", "phone number", "msisdn", "no telepon"},
	},
}

// DefaultHeaderMap returns a fresh copy of the built in lookup table.
func DefaultHeaderMap() HeaderMap {
	m := make(HeaderMap, len(defaultAliases))
	for kind, fields := range defaultAliases {
		byHeader := make(map[string]domain.Field)
		for field, aliases := range fields {
			byHeader[string(field)] = field
			for _, a := range aliases {
				byHeader[NormalizeHeader(a)] = field
			}
		}
		m[kind] = byHeader
	}
	return m
}

// With returns a copy of m extended with alias -> canonical field entries
// for kind. Unknown canonical names are rejected.
func (m HeaderMap) With(kind domain.TableKind, aliases map[string]string) (HeaderMap, error) {
	canonical := domain.CanonicalFields(kind)
	if canonical == nil {
		return nil, &domain.ConfigurationError{Field: "headers", Value: string(kind), Reason: "unknown table kind"}
	}
	out := make(HeaderMap, len(m))
	for k, byHeader := range m {
		cp := make(map[string]domain.Field, len(byHeader))
		for h, f := range byHeader {
			cp[h] = f
		}
		out[k] = cp
	}
	if out[kind] == nil {
		out[kind] = make(map[string]domain.Field)
	}
	for alias, target := range aliases {
		field := domain.Field(NormalizeHeader(target))
		if !containsField(canonical, field) {
			return nil, &domain.ConfigurationError{
				Field:  fmt.Sprintf("headers.%s", kind),
				Value:  target,
				Reason: fmt.Sprintf("not a canonical %s field %v", kind, canonical),
			}
		}
		out[kind][NormalizeHeader(alias)] = field
	}
	return out, nil
}

// Lookup resolves a raw header for a table kind.
func (m HeaderMap) Lookup(kind domain.TableKind, header string) (domain.Field, bool) {
	f, ok := m[kind][NormalizeHeader(header)]
	return f, ok
}

// NormalizeHeader lowercases, trims and collapses inner whitespace.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

func containsField(fields []domain.Field, f domain.Field) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}
