package domain

import (
	"fmt"
	"strings"
)

// AggregateRow is the activation rollup of one group in one week.
// PercentActive is 100*ActiveCount/AssignedCount rounded to one decimal.
type AggregateRow struct {
	Key                 []string   `json:"key"`
	Week                WeekBucket `json:"week"`
	ActiveCount         int        `json:"active_count"`
	AssignedCount       int        `json:"assigned_count"`
	PercentActive       float64    `json:"percent_active"`
	UniqueConsumerCount int        `json:"unique_consumer_count"`
}

// GroupKey joins a key tuple for use as a map key.
func GroupKey(key []string) string {
	return strings.Join(key, "\x1f")
}

// Metric is an AggregateRow field a pivot can be built from.
type Metric string

const (
	MetricPercentActive  Metric = "percent_active"
	MetricActiveCount    Metric = "active_count"
	MetricAssignedCount  Metric = "assigned_count"
	MetricUniqueConsumer Metric = "unique_consumer_count"
)

// Metrics lists every pivotable metric.
var Metrics = []Metric{MetricPercentActive, MetricActiveCount, MetricAssignedCount, MetricUniqueConsumer}

// Label is the sheet/column title of the metric.
func (m Metric) Label() string {
	switch m {
	case MetricPercentActive:
		return "% Active Outlets"
	case MetricActiveCount:
		return "Total Active Outlets"
	case MetricAssignedCount:
		return "Total Assigned Outlets"
	case MetricUniqueConsumer:
		return "Unique Consumers"
	default:
		return string(m)
	}
}

// Of reads the metric from a row.
func (m Metric) Of(r AggregateRow) float64 {
	switch m {
	case MetricActiveCount:
		return float64(r.ActiveCount)
	case MetricAssignedCount:
		return float64(r.AssignedCount)
	case MetricUniqueConsumer:
		return float64(r.UniqueConsumerCount)
	default:
		return r.PercentActive
	}
}

// ParseMetric accepts a metric name; empty selects percent_active.
func ParseMetric(s string) (Metric, error) {
	v := Metric(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return MetricPercentActive, nil
	}
	for _, m := range Metrics {
		if v == m {
			return m, nil
		}
	}
	return "", &ConfigurationError{
		Field:  "metric",
		Value:  s,
		Reason: fmt.Sprintf("expected one of %v", Metrics),
	}
}

// ParseMetrics parses a comma separated metric list; empty selects
// percent_active.
func ParseMetrics(s string) ([]Metric, error) {
	var out []Metric
	seen := make(map[Metric]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		m, err := ParseMetric(part)
		if err != nil {
			return nil, err
		}
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		out = []Metric{MetricPercentActive}
	}
	return out, nil
}

// PivotRow is one group of a pivot; Cells align with PivotTable.Weeks.
type PivotRow struct {
	Key   []string  `json:"key"`
	Cells []float64 `json:"cells"`
}

// PivotTable is a group x week grid of one metric. Missing combinations
// hold 0.
type PivotTable struct {
	Dimensions []Dimension  `json:"dimensions"`
	Metric     Metric       `json:"metric"`
	Weeks      []WeekBucket `json:"weeks"`
	Rows       []PivotRow   `json:"rows"`
}

// Cell returns the value at (key, week), 0 when absent.
func (p *PivotTable) Cell(key []string, week WeekBucket) float64 {
	col := -1
	for i, w := range p.Weeks {
		if w == week {
			col = i
			break
		}
	}
	if col < 0 {
		return 0
	}
	k := GroupKey(key)
	for _, r := range p.Rows {
		if GroupKey(r.Key) == k {
			return r.Cells[col]
		}
	}
	return 0
}
