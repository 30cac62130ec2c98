package domain

// ActivationRecord marks an outlet active in one week. Records exist only
// for (outlet, week) pairs with at least one matched scan; an assigned
// outlet without a record is inactive that week.
type ActivationRecord struct {
	OutletKey string     `json:"outlet_key"`
	OutletID  string     `json:"outlet_id"`
	Week      WeekBucket `json:"week"`
	Active    bool       `json:"active"`
	Scans     int        `json:"scans"`
	Consumers []string   `json:"consumers,omitempty"`
}

// ReconcileStats counts how the two sources matched.
type ReconcileStats struct {
	RegistryRows     int `json:"registry_rows"`
	DistinctOutlets  int `json:"distinct_outlets"`
	ScanRows         int `json:"scan_rows"`
	MatchedEvents    int `json:"matched_events"`
	UnmatchedEvents  int `json:"unmatched_events"`
	UndatedEvents    int `json:"undated_events"`
	UnscannedOutlets int `json:"unscanned_outlets"`
}

// Reconciliation is the registry joined with the bucketed scan log.
type Reconciliation struct {
	Registry []Outlet
	// Columns holds the canonical registry columns present in the source.
	Columns map[Field]bool
	// Records is sorted by outlet key then week.
	Records []ActivationRecord
	// Scanned holds outlet keys with any matched event, dated or not.
	Scanned map[string]bool
	Weeks   []WeekBucket
	Stats   ReconcileStats
}

// HasColumn reports whether the registry carried the canonical column.
func (r *Reconciliation) HasColumn(f Field) bool {
	return r.Columns[f]
}
