package domain

import "time"

// BlankValue is the group label used for outlets with an empty dimension.
const BlankValue = "(blank)"

// Outlet is one registry row.
type Outlet struct {
	ID          string `json:"outlet_id" csv:"outlet_id"`
	DSO         string `json:"dso,omitempty" csv:"dso"`
	PIC         string `json:"pic,omitempty" csv:"pic"`
	Program     string `json:"program,omitempty" csv:"program"`
	DisplayName string `json:"display_name,omitempty" csv:"display_name"`
}

// Key returns the join key of the outlet.
func (o Outlet) Key() string {
	return IDKey(o.ID)
}

// Value returns the outlet's value for a dimension, BlankValue when empty.
func (o Outlet) Value(d Dimension) string {
	var v string
	switch d {
	case DimensionDSO:
		v = o.DSO
	case DimensionPIC:
		v = o.PIC
	case DimensionProgram:
		v = o.Program
	}
	if v == "" {
		return BlankValue
	}
	return v
}

// ScanEvent is one scan log row. Time and Week are zero when the timestamp
// could not be parsed.
type ScanEvent struct {
	OutletID    string     `json:"outlet_id" csv:"outlet_id"`
	Timestamp   string     `json:"event_timestamp" csv:"event_timestamp"`
	ProgramCode string     `json:"program_code,omitempty" csv:"program_code"`
	ConsumerID  string     `json:"consumer_id,omitempty" csv:"consumer_id"`
	Time        time.Time  `json:"time,omitempty" csv:"-"`
	Week        WeekBucket `json:"week,omitempty" csv:"-"`
}

// OutletKey returns the join key of the referenced outlet.
func (e ScanEvent) OutletKey() string {
	return IDKey(e.OutletID)
}

// Dated reports whether the event has a week bucket.
func (e ScanEvent) Dated() bool {
	return e.Week.Valid()
}
