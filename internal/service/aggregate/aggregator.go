// Package aggregate rolls activation records up by registry dimensions.
package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

// Percent returns 100*active/assigned rounded to one decimal, 0 when
// nothing is assigned.
func Percent(active, assigned int) float64 {
	if assigned <= 0 {
		return 0
	}
	return math.Round(1000*float64(active)/float64(assigned)) / 10
}

// Validate checks grouping dimensions, filters and weeks against the
// registry columns of rec.
func Validate(rec *domain.Reconciliation, groupBy []domain.Dimension, filters domain.DimensionFilter, weeks []domain.WeekBucket) error {
	if len(groupBy) == 0 {
		return &domain.ConfigurationError{Field: "group_by", Reason: "at least one dimension is required"}
	}
	for _, d := range groupBy {
		if err := requireColumn(rec, "group_by", d); err != nil {
			return err
		}
	}
	return validateWindow(rec, filters, weeks)
}

func validateWindow(rec *domain.Reconciliation, filters domain.DimensionFilter, weeks []domain.WeekBucket) error {
	for d, values := range filters {
		if len(values) == 0 {
			continue
		}
		if err := requireColumn(rec, "filter", d); err != nil {
			return err
		}
	}
	for _, w := range weeks {
		if !w.Valid() {
			return &domain.ConfigurationError{Field: "weeks", Value: fmt.Sprint(int(w)), Reason: "week must be within 1..53"}
		}
	}
	return nil
}

// ValidateFilters checks filters and weeks only.
func ValidateFilters(rec *domain.Reconciliation, filters domain.DimensionFilter, weeks []domain.WeekBucket) error {
	return validateWindow(rec, filters, weeks)
}

func requireColumn(rec *domain.Reconciliation, option string, d domain.Dimension) error {
	known := false
	for _, x := range domain.Dimensions {
		if x == d {
			known = true
		}
	}
	if !known {
		return &domain.ConfigurationError{Field: option, Value: string(d), Reason: "unknown dimension"}
	}
	if !rec.HasColumn(d.Field()) {
		return &domain.ConfigurationError{Field: option, Value: string(d), Reason: "column not present in registry"}
	}
	return nil
}

type group struct {
	key     []string
	outlets map[string]bool
}

type cellKey struct {
	group string
	week  domain.WeekBucket
}

type cell struct {
	active    map[string]bool
	consumers map[string]bool
}

// Aggregate produces one row per (group key, week). The week set is q.Weeks,
// or every observed week when empty. Rows are sorted by key then week.
func Aggregate(rec *domain.Reconciliation, q domain.AggregateQuery) ([]domain.AggregateRow, error) {
	if err := Validate(rec, q.GroupBy, q.Filters, q.Weeks); err != nil {
		return nil, err
	}
	weeks := q.Weeks
	if len(weeks) == 0 {
		weeks = rec.Weeks
	}
	inWindow := make(map[domain.WeekBucket]bool, len(weeks))
	for _, w := range weeks {
		inWindow[w] = true
	}
	weeks = domain.SortedWeeks(inWindow)

	groups := make(map[string]*group)
	memberOf := make(map[string][]string)
	for _, o := range rec.Registry {
		k := o.Key()
		if k == "" || !q.Filters.Allows(o) {
			continue
		}
		key := make([]string, len(q.GroupBy))
		for i, d := range q.GroupBy {
			key[i] = o.Value(d)
		}
		gk := domain.GroupKey(key)
		g := groups[gk]
		if g == nil {
			g = &group{key: key, outlets: make(map[string]bool)}
			groups[gk] = g
		}
		if !g.outlets[k] {
			g.outlets[k] = true
			memberOf[k] = append(memberOf[k], gk)
		}
	}

	cells := make(map[cellKey]*cell)
	for _, r := range rec.Records {
		if !r.Active || !inWindow[r.Week] {
			continue
		}
		for _, gk := range memberOf[r.OutletKey] {
			ck := cellKey{group: gk, week: r.Week}
			c := cells[ck]
			if c == nil {
				c = &cell{active: make(map[string]bool), consumers: make(map[string]bool)}
				cells[ck] = c
			}
			c.active[r.OutletKey] = true
			for _, id := range r.Consumers {
				c.consumers[id] = true
			}
		}
	}

	rows := make([]domain.AggregateRow, 0, len(groups)*len(weeks))
	for gk, g := range groups {
		assigned := len(g.outlets)
		if assigned == 0 {
			continue
		}
		for _, w := range weeks {
			var active, consumers int
			if c := cells[cellKey{group: gk, week: w}]; c != nil {
				active, consumers = len(c.active), len(c.consumers)
			}
			rows = append(rows, domain.AggregateRow{
				Key:                 g.key,
				Week:                w,
				ActiveCount:         active,
				AssignedCount:       assigned,
				PercentActive:       Percent(active, assigned),
				UniqueConsumerCount: consumers,
			})
		}
	}
	SortRows(rows)
	return rows, nil
}

// SortRows orders rows by key tuple then week.
func SortRows(rows []domain.AggregateRow) {
	sort.Slice(rows, func(i, j int) bool {
		if c := CompareKeys(rows[i].Key, rows[j].Key); c != 0 {
			return c < 0
		}
		return rows[i].Week < rows[j].Week
	})
}

// CompareKeys compares key tuples element by element.
func CompareKeys(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}
