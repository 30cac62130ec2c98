package domain

import (
	"fmt"
	"strings"
)

// Field is a canonical column name.
type Field string

const (
	FieldOutletID       Field = "outlet_id"
	FieldDSO            Field = "dso"
	FieldPIC            Field = "pic"
	FieldProgram        Field = "program"
	FieldDisplayName    Field = "display_name"
	FieldEventTimestamp Field = "event_timestamp"
	FieldProgramCode    Field = "program_code"
	FieldConsumerID     Field = "consumer_id"
)

// RegistryFields lists the canonical registry columns in output order.
var RegistryFields = []Field{FieldOutletID, FieldDSO, FieldPIC, FieldProgram, FieldDisplayName}

// ScanLogFields lists the canonical scan log columns in output order.
var ScanLogFields = []Field{FieldOutletID, FieldEventTimestamp, FieldProgramCode, FieldConsumerID}

// CanonicalFields returns the canonical column set for a table kind.
func CanonicalFields(kind TableKind) []Field {
	switch kind {
	case KindRegistry:
		return RegistryFields
	case KindScanLog:
		return ScanLogFields
	default:
		return nil
	}
}

// RequiredFields returns the columns that must be present for a table kind.
func RequiredFields(kind TableKind) []Field {
	switch kind {
	case KindRegistry:
		return []Field{FieldOutletID}
	case KindScanLog:
		return []Field{FieldOutletID, FieldEventTimestamp}
	default:
		return nil
	}
}

// Dimension is a registry attribute outlets can be grouped or filtered by.
type Dimension string

const (
	DimensionDSO     Dimension = "dso"
	DimensionPIC     Dimension = "pic"
	DimensionProgram Dimension = "program"
)

// Dimensions lists every supported grouping dimension.
var Dimensions = []Dimension{DimensionDSO, DimensionPIC, DimensionProgram}

// Field returns the registry column backing the dimension.
func (d Dimension) Field() Field {
	return Field(d)
}

// Label is the column title used in pivots and exports.
func (d Dimension) Label() string {
	switch d {
	case DimensionDSO:
		return "DSO"
	case DimensionPIC:
		return "PIC"
	case DimensionProgram:
		return "PROGRAM"
	default:
		return strings.ToUpper(string(d))
	}
}

// ParseDimension accepts a dimension name in any case.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Dimensions {
		if d == known {
			return d, nil
		}
	}
	return "", &ConfigurationError{
		Field:  "group_by",
		Value:  s,
		Reason: fmt.Sprintf("unknown dimension, expected one of %v", Dimensions),
	}
}

// ParseDimensions parses a comma separated dimension list. Duplicates are
// dropped, order is kept.
func ParseDimensions(s string) ([]Dimension, error) {
	var out []Dimension
	seen := make(map[Dimension]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		d, err := ParseDimension(part)
		if err != nil {
			return nil, err
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out, nil
}
