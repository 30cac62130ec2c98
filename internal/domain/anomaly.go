package domain

// InactiveOutlet is a registry outlet with no active week in the window.
type InactiveOutlet struct {
	Outlet
	// EverScanned is true when the outlet has matched scans outside the
	// window.
	EverScanned bool       `json:"ever_scanned"`
	LastWeek    WeekBucket `json:"last_week,omitempty"`
}

// MultiOutletScan is a consumer seen at more than one distinct outlet.
type MultiOutletScan struct {
	ConsumerID string   `json:"consumer_id"`
	OutletIDs  []string `json:"outlet_ids"`
	Scans      int      `json:"scans"`
}
