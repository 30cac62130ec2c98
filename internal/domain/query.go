package domain

import "strings"

// DimensionFilter restricts outlets to allowed values per dimension. A
// dimension without an entry allows everything.
type DimensionFilter map[Dimension][]string

// Allows reports whether the outlet passes every dimension filter.
func (f DimensionFilter) Allows(o Outlet) bool {
	for d, allowed := range f {
		if len(allowed) == 0 {
			continue
		}
		v := o.Value(d)
		ok := false
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimSpace(a), v) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// AggregateQuery selects grouping dimensions, a week window and filters.
// Weeks empty means every observed week.
type AggregateQuery struct {
	GroupBy []Dimension     `json:"group_by"`
	Weeks   []WeekBucket    `json:"weeks,omitempty"`
	Filters DimensionFilter `json:"filters,omitempty"`
}

// InactiveQuery selects the window and filters for the inactive list.
// Weeks empty means the full history, undated scans included.
type InactiveQuery struct {
	Weeks   []WeekBucket    `json:"weeks,omitempty"`
	Filters DimensionFilter `json:"filters,omitempty"`
}
