package aggregate

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/seu-repo/outlet-kpi/internal/domain"
	"github.com/seu-repo/outlet-kpi/internal/service/reconcile"
)

var registryColumns = []domain.Field{domain.FieldOutletID, domain.FieldDSO, domain.FieldPIC, domain.FieldProgram}

func TestAggregate_ByDSOWithWeekFilter(t *testing.T) {
	// Arrange
	registry := []domain.Outlet{
		{ID: "O1", DSO: "A"},
		{ID: "O2", DSO: "A"},
		{ID: "O3", DSO: "B"},
	}
	events := []domain.ScanEvent{{OutletID: "O1", Week: 3}}
	rec := reconcile.Reconcile(registry, registryColumns, events)

	// Act
	rows, err := Aggregate(rec, domain.AggregateQuery{
		GroupBy: []domain.Dimension{domain.DimensionDSO},
		Weeks:   []domain.WeekBucket{3},
	})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []domain.AggregateRow{
		{Key: []string{"A"}, Week: 3, ActiveCount: 1, AssignedCount: 2, PercentActive: 50.0},
		{Key: []string{"B"}, Week: 3, ActiveCount: 0, AssignedCount: 1, PercentActive: 0.0},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("expected %+v, got %+v", want, rows)
	}
}

func TestAggregate_UniqueConsumersAndBlankGroup(t *testing.T) {
	registry := []domain.Outlet{
		{ID: "O1", DSO: "A", Program: "P1"},
		{ID: "O2", DSO: "A", Program: "P1"},
		{ID: "O3", DSO: "A"},
	}
	events := []domain.ScanEvent{
		{OutletID: "O1", ConsumerID: "C1", Week: 5},
		{OutletID: "O2", ConsumerID: "C1", Week: 5},
		{OutletID: "O2", ConsumerID: "C2", Week: 5},
		{OutletID: "O3", ConsumerID: "C3", Week: 6},
	}
	rec := reconcile.Reconcile(registry, registryColumns, events)

	rows, err := Aggregate(rec, domain.AggregateQuery{
		GroupBy: []domain.Dimension{domain.DimensionDSO, domain.DimensionProgram},
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []domain.AggregateRow{
		{Key: []string{"A", domain.BlankValue}, Week: 5, ActiveCount: 0, AssignedCount: 1, PercentActive: 0},
		{Key: []string{"A", domain.BlankValue}, Week: 6, ActiveCount: 1, AssignedCount: 1, PercentActive: 100, UniqueConsumerCount: 1},
		{Key: []string{"A", "P1"}, Week: 5, ActiveCount: 2, AssignedCount: 2, PercentActive: 100, UniqueConsumerCount: 2},
		{Key: []string{"A", "P1"}, Week: 6, ActiveCount: 0, AssignedCount: 2, PercentActive: 0},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("expected %+v, got %+v", want, rows)
	}
}

func TestAggregate_Filters(t *testing.T) {
	registry := []domain.Outlet{
		{ID: "O1", DSO: "A", PIC: "Budi"},
		{ID: "O2", DSO: "B", PIC: "Sari"},
	}
	rec := reconcile.Reconcile(registry, registryColumns, []domain.ScanEvent{{OutletID: "O2", Week: 2}})

	rows, err := Aggregate(rec, domain.AggregateQuery{
		GroupBy: []domain.Dimension{domain.DimensionPIC},
		Filters: domain.DimensionFilter{domain.DimensionDSO: {"b"}},
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(rows) != 1 || rows[0].Key[0] != "Sari" || rows[0].ActiveCount != 1 {
		t.Errorf("expected single Sari row, got %+v", rows)
	}
}

func TestAggregate_ConfigurationErrors(t *testing.T) {
	rec := reconcile.Reconcile([]domain.Outlet{{ID: "O1"}}, []domain.Field{domain.FieldOutletID, domain.FieldDSO}, nil)

	tests := []struct {
		name string
		q    domain.AggregateQuery
	}{
		{"empty group by", domain.AggregateQuery{}},
		{"absent column", domain.AggregateQuery{GroupBy: []domain.Dimension{domain.DimensionPIC}}},
		{"unknown dimension", domain.AggregateQuery{GroupBy: []domain.Dimension{"region"}}},
		{"filter on absent column", domain.AggregateQuery{
			GroupBy: []domain.Dimension{domain.DimensionDSO},
			Filters: domain.DimensionFilter{domain.DimensionProgram: {"P1"}},
		}},
		{"invalid week", domain.AggregateQuery{GroupBy: []domain.Dimension{domain.DimensionDSO}, Weeks: []domain.WeekBucket{54}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(rec, tt.q)
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestAggregate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	dsos := []string{"A", "B", "C", ""}
	pics := []string{"P", "Q"}

	for round := 0; round < 25; round++ {
		var registry []domain.Outlet
		for i := 0; i < 30; i++ {
			registry = append(registry, domain.Outlet{
				ID:  fmt.Sprintf("O%d", i),
				DSO: dsos[rng.Intn(len(dsos))],
				PIC: pics[rng.Intn(len(pics))],
			})
		}
		var events []domain.ScanEvent
		for i := 0; i < 80; i++ {
			events = append(events, domain.ScanEvent{
				OutletID:   fmt.Sprintf("O%d", rng.Intn(30)),
				ConsumerID: fmt.Sprintf("C%d", rng.Intn(40)),
				Week:       domain.WeekBucket(rng.Intn(6)),
			})
		}
		rec := reconcile.Reconcile(registry, registryColumns, events)

		rows, err := Aggregate(rec, domain.AggregateQuery{
			GroupBy: []domain.Dimension{domain.DimensionDSO, domain.DimensionPIC},
		})
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}

		assigned := make(map[string]int)
		for _, r := range rows {
			if r.ActiveCount > r.AssignedCount {
				t.Fatalf("round %d: active %d > assigned %d", round, r.ActiveCount, r.AssignedCount)
			}
			if r.AssignedCount == 0 && r.PercentActive != 0 {
				t.Fatalf("round %d: percent %v for empty group", round, r.PercentActive)
			}
			// Tenths of a percent, rounded half up in integer arithmetic.
			if r.AssignedCount > 0 && int(math.Round(r.PercentActive*10)) != (2000*r.ActiveCount+r.AssignedCount)/(2*r.AssignedCount) {
				t.Fatalf("round %d: percent %v for %d/%d", round, r.PercentActive, r.ActiveCount, r.AssignedCount)
			}
			gk := domain.GroupKey(r.Key)
			if prev, ok := assigned[gk]; ok && prev != r.AssignedCount {
				t.Fatalf("round %d: assigned count of %v varies across weeks", round, r.Key)
			}
			assigned[gk] = r.AssignedCount
		}

		// Partition: assigned counts over disjoint groups sum to the filtered registry.
		if len(rec.Weeks) > 0 {
			total := 0
			for _, n := range assigned {
				total += n
			}
			if total != rec.Stats.DistinctOutlets {
				t.Fatalf("round %d: assigned sum %d, distinct outlets %d", round, total, rec.Stats.DistinctOutlets)
			}
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		active, assigned int
		want             float64
	}{
		{1, 2, 50},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{0, 0, 0},
		{5, 5, 100},
		{1, 16, 6.3},
	}
	for _, tt := range tests {
		if got := Percent(tt.active, tt.assigned); got != tt.want {
			t.Errorf("Percent(%d, %d) = %v, want %v", tt.active, tt.assigned, got, tt.want)
		}
	}
}
