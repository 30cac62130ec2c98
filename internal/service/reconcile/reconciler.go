// Package reconcile joins the outlet registry with bucketed scan events.
package reconcile

import (
	"sort"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

type pair struct {
	key  string
	week domain.WeekBucket
}

type tally struct {
	id        string
	scans     int
	consumers map[string]bool
}

// Reconcile builds one activation record per (outlet, week) with at least
// one matched dated scan. Events for outlets missing from the registry are
// counted and dropped. columns lists the registry columns that were present.
func Reconcile(registry []domain.Outlet, columns []domain.Field, events []domain.ScanEvent) *domain.Reconciliation {
	rec := &domain.Reconciliation{
		Registry: registry,
		Columns:  make(map[domain.Field]bool, len(columns)),
		Scanned:  make(map[string]bool),
	}
	for _, c := range columns {
		rec.Columns[c] = true
	}

	known := make(map[string]bool, len(registry))
	for _, o := range registry {
		if k := o.Key(); k != "" {
			known[k] = true
		}
	}

	tallies := make(map[pair]*tally)
	weeks := make(map[domain.WeekBucket]bool)
	for _, e := range events {
		if !e.Dated() {
			rec.Stats.UndatedEvents++
		}
		k := e.OutletKey()
		if !known[k] {
			rec.Stats.UnmatchedEvents++
			continue
		}
		rec.Stats.MatchedEvents++
		rec.Scanned[k] = true
		if !e.Dated() {
			continue
		}
		weeks[e.Week] = true
		p := pair{key: k, week: e.Week}
		t := tallies[p]
		if t == nil {
			t = &tally{id: domain.CanonicalID(e.OutletID), consumers: make(map[string]bool)}
			tallies[p] = t
		}
		t.scans++
		if c := domain.CanonicalID(e.ConsumerID); c != "" {
			t.consumers[c] = true
		}
	}

	rec.Records = make([]domain.ActivationRecord, 0, len(tallies))
	for p, t := range tallies {
		consumers := make([]string, 0, len(t.consumers))
		for c := range t.consumers {
			consumers = append(consumers, c)
		}
		sort.Strings(consumers)
		rec.Records = append(rec.Records, domain.ActivationRecord{
			OutletKey: p.key,
			OutletID:  t.id,
			Week:      p.week,
			Active:    true,
			Scans:     t.scans,
			Consumers: consumers,
		})
	}
	sort.Slice(rec.Records, func(i, j int) bool {
		a, b := rec.Records[i], rec.Records[j]
		if a.OutletKey != b.OutletKey {
			return a.OutletKey < b.OutletKey
		}
		return a.Week < b.Week
	})

	rec.Weeks = domain.SortedWeeks(weeks)
	rec.Stats.RegistryRows = len(registry)
	rec.Stats.DistinctOutlets = len(known)
	rec.Stats.ScanRows = len(events)
	rec.Stats.UnscannedOutlets = len(known) - len(rec.Scanned)
	return rec
}
