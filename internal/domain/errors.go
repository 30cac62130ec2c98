package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema matches every *MissingColumnError.
	ErrSchema = errors.New("schema error")
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("configuration error")
	// ErrRowLimit matches every *RowLimitError.
	ErrRowLimit = errors.New("row limit exceeded")
	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
)

// MissingColumnError reports the first required canonical column that could
// not be located in a source table. It is fatal for the session.
type MissingColumnError struct {
	Kind    TableKind
	Source  string
	Column  Field
	Headers []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s %q: required column %q not found (headers: %q)", e.Kind, e.Source, e.Column, e.Headers)
}

func (e *MissingColumnError) Is(target error) bool { return target == ErrSchema }

// ParseError is a row scoped cell failure. The row is kept but excluded
// from time bucketed aggregates.
type ParseError struct {
	Row    int    `json:"row"`
	Field  Field  `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: cannot parse %s %q: %s", e.Row, e.Field, e.Value, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConfigurationError reports an option that references an unknown or absent
// field, or a malformed option value.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// RowLimitError rejects a source with more rows than the configured cap.
type RowLimitError struct {
	Source string
	Rows   int
	Limit  int
}

func (e *RowLimitError) Error() string {
	return fmt.Sprintf("%q has %d rows, limit is %d", e.Source, e.Rows, e.Limit)
}

func (e *RowLimitError) Is(target error) bool { return target == ErrRowLimit }
