// Package anomaly finds outlets without activity and consumers scanning at
// several outlets.
package anomaly

import (
	"github.com/seu-repo/outlet-kpi/internal/domain"
	"github.com/seu-repo/outlet-kpi/internal/service/aggregate"
)

// FindInactive lists registry outlets with no active record in the window,
// in registry order, one entry per outlet. With no window an outlet counts
// as active if it was ever scanned, undated scans included.
func FindInactive(rec *domain.Reconciliation, q domain.InactiveQuery) ([]domain.InactiveOutlet, error) {
	if err := aggregate.ValidateFilters(rec, q.Filters, q.Weeks); err != nil {
		return nil, err
	}
	window := make(map[domain.WeekBucket]bool, len(q.Weeks))
	for _, w := range q.Weeks {
		window[w] = true
	}

	activeInWindow := make(map[string]bool)
	lastWeek := make(map[string]domain.WeekBucket)
	for _, r := range rec.Records {
		if !r.Active {
			continue
		}
		if r.Week > lastWeek[r.OutletKey] {
			lastWeek[r.OutletKey] = r.Week
		}
		if window[r.Week] {
			activeInWindow[r.OutletKey] = true
		}
	}

	out := make([]domain.InactiveOutlet, 0)
	seen := make(map[string]bool)
	for _, o := range rec.Registry {
		k := o.Key()
		if k == "" || seen[k] || !q.Filters.Allows(o) {
			continue
		}
		seen[k] = true
		active := activeInWindow[k]
		if len(window) == 0 {
			active = rec.Scanned[k]
		}
		if active {
			continue
		}
		out = append(out, domain.InactiveOutlet{
			Outlet:      o,
			EverScanned: rec.Scanned[k],
			LastWeek:    lastWeek[k],
		})
	}
	return out, nil
}
