// Package pivot reshapes aggregate rows into a group x week grid.
package pivot

import (
	"sort"

	"github.com/seu-repo/outlet-kpi/internal/domain"
	"github.com/seu-repo/outlet-kpi/internal/service/aggregate"
)

// Build pivots rows on metric. Columns are the weeks found in rows plus
// any in weeks; rows are every distinct key, sorted. Missing cells are 0.
func Build(rows []domain.AggregateRow, dims []domain.Dimension, metric domain.Metric, weeks []domain.WeekBucket) *domain.PivotTable {
	weekSet := make(map[domain.WeekBucket]bool)
	for _, w := range weeks {
		weekSet[w] = true
	}
	keys := make(map[string][]string)
	values := make(map[string]map[domain.WeekBucket]float64)
	for _, r := range rows {
		weekSet[r.Week] = true
		gk := domain.GroupKey(r.Key)
		if _, ok := keys[gk]; !ok {
			keys[gk] = r.Key
			values[gk] = make(map[domain.WeekBucket]float64)
		}
		values[gk][r.Week] = metric.Of(r)
	}

	cols := domain.SortedWeeks(weekSet)
	ordered := make([][]string, 0, len(keys))
	for _, k := range keys {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return aggregate.CompareKeys(ordered[i], ordered[j]) < 0
	})

	table := &domain.PivotTable{
		Dimensions: dims,
		Metric:     metric,
		Weeks:      cols,
		Rows:       make([]domain.PivotRow, 0, len(ordered)),
	}
	for _, k := range ordered {
		byWeek := values[domain.GroupKey(k)]
		cells := make([]float64, len(cols))
		for i, w := range cols {
			cells[i] = byWeek[w]
		}
		table.Rows = append(table.Rows, domain.PivotRow{Key: k, Cells: cells})
	}
	return table
}
