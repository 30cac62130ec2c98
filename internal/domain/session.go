package domain

import "time"

// Session is the snapshot of one upload: both normalized sources plus the
// options they were bucketed with. Everything else is derived on demand.
type Session struct {
	ID              string       `json:"id"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	WeekPolicy      string       `json:"week_policy"`
	RegistrySource  string       `json:"registry_source"`
	ScanSource      string       `json:"scan_source"`
	RegistryColumns []Field      `json:"registry_columns"`
	ScanColumns     []Field      `json:"scan_columns"`
	Registry        []Outlet     `json:"registry"`
	Events          []ScanEvent  `json:"events"`
	ParseErrorCount int          `json:"parse_error_count"`
	ParseErrors     []ParseError `json:"parse_errors,omitempty"`
	Shadowed        []string     `json:"shadowed_headers,omitempty"`
}

// SessionSummary is returned after an upload and by the summary endpoint.
type SessionSummary struct {
	ID              string         `json:"session_id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	WeekPolicy      string         `json:"week_policy"`
	RegistrySource  string         `json:"registry_source"`
	ScanSource      string         `json:"scan_source"`
	RegistryColumns []Field        `json:"registry_columns"`
	ScanColumns     []Field        `json:"scan_columns"`
	Stats           ReconcileStats `json:"stats"`
	Weeks           []WeekBucket   `json:"weeks"`
	ParseErrorCount int            `json:"parse_error_count"`
	ParseErrors     []ParseError   `json:"parse_errors,omitempty"`
	Shadowed        []string       `json:"shadowed_headers,omitempty"`
}

// SessionInput is one upload: the raw registry and scan log plus an
// optional week policy override.
type SessionInput struct {
	Registry   *Table `json:"-"`
	ScanLog    *Table `json:"-"`
	WeekPolicy string `json:"week_policy,omitempty"`
}

// SessionEvent is published after a session has been computed.
type SessionEvent struct {
	Type       string         `json:"type"`
	SessionID  string         `json:"session_id"`
	WeekPolicy string         `json:"week_policy"`
	Stats      ReconcileStats `json:"stats"`
	Weeks      []WeekBucket   `json:"weeks"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// EventSessionComputed is the type of SessionEvent sent on create and replace.
const EventSessionComputed = "session.computed"

// Workbook is everything an export contains.
type Workbook struct {
	Pivots      []*PivotTable     `json:"pivots"`
	Inactive    []InactiveOutlet  `json:"inactive,omitempty"`
	MultiOutlet []MultiOutletScan `json:"multi_outlet,omitempty"`
}
