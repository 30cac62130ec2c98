package schema

import (
	"errors"
	"reflect"
	"testing"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

func TestNormalize_ScanLogHeaders(t *testing.T) {
	// Arrange
	table := &domain.Table{
		Source:  "scan.csv",
		Headers: []string{"ID Outlet", "Tanggal Scan", "No WA", "Catatan"},
		Rows: [][]string{
			{" 12345.0 ", "2024-01-05 10:00:00", "62811 ", "x"},
		},
	}
	n := NewNormalizer(nil)

	// Act
	got, err := n.Normalize(table, domain.KindScanLog)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	wantHeaders := []string{"outlet_id", "event_timestamp", "consumer_id"}
	if !reflect.DeepEqual(got.Table.Headers, wantHeaders) {
		t.Errorf("expected headers %v, got %v", wantHeaders, got.Table.Headers)
	}
	wantRow := []string{"12345", "2024-01-05 10:00:00", "62811"}
	if !reflect.DeepEqual(got.Table.Rows[0], wantRow) {
		t.Errorf("expected row %v, got %v", wantRow, got.Table.Rows[0])
	}
	if got.Has(domain.FieldProgramCode) {
		t.Error("expected program_code to be absent")
	}
}

func TestNormalize_ConsumerHeaderVariants(t *testing.T) {
	n := NewNormalizer(nil)
	wa := &domain.Table{
		Headers: []string{"ID Outlet", "Tanggal Scan", "No WA"},
		Rows:    [][]string{{"A1", "2024-01-01", "0811"}},
	}
	hp := &domain.Table{
		Headers: []string{"outlet id", "date", "NO  HP"},
		Rows:    [][]string{{"A1", "2024-01-01", "0812"}},
	}

	fromWA, err := n.Normalize(wa, domain.KindScanLog)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	fromHP, err := n.Normalize(hp, domain.KindScanLog)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !reflect.DeepEqual(fromWA.Table.Headers, fromHP.Table.Headers) {
		t.Errorf("expected identical canonical headers, got %v and %v", fromWA.Table.Headers, fromHP.Table.Headers)
	}
	if !fromHP.Has(domain.FieldConsumerID) || fromHP.Table.Rows[0][2] != "0812" {
		t.Errorf("expected consumer_id 0812, got %v", fromHP.Table.Rows[0])
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	// Arrange
	table := &domain.Table{
		Source:  "registry.xlsx",
		Headers: []string{"Nama Outlet", "ID Outlet", "DSO", "PIC", "Program"},
		Rows: [][]string{
			{"Toko A ", "001.00", " North", "Budi", "P1"},
			{"Toko B", "002", "South", "", "P2"},
		},
	}
	n := NewNormalizer(nil)

	// Act
	once, err := n.Normalize(table, domain.KindRegistry)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	twice, err := n.Normalize(once.Table, domain.KindRegistry)
	if err != nil {
		t.Fatalf("expected no error on second pass, got %v", err)
	}

	// Assert
	if !reflect.DeepEqual(once.Table, twice.Table) {
		t.Errorf("expected normalize to be idempotent\nfirst:  %+v\nsecond: %+v", once.Table, twice.Table)
	}
	if once.Table.Headers[0] != "outlet_id" {
		t.Errorf("expected canonical order starting with outlet_id, got %v", once.Table.Headers)
	}
}

func TestNormalize_MissingRequiredColumn(t *testing.T) {
	table := &domain.Table{
		Source:  "scan.csv",
		Headers: []string{"ID Outlet", "No WA"},
	}

	_, err := NewNormalizer(nil).Normalize(table, domain.KindScanLog)

	var mce *domain.MissingColumnError
	if !errors.As(err, &mce) {
		t.Fatalf("expected MissingColumnError, got %v", err)
	}
	if mce.Column != domain.FieldEventTimestamp {
		t.Errorf("expected missing event_timestamp, got %s", mce.Column)
	}
	if !errors.Is(err, domain.ErrSchema) {
		t.Error("expected error to match ErrSchema")
	}
}

func TestNormalize_ShadowedHeaders(t *testing.T) {
	table := &domain.Table{
		Headers: []string{"Outlet ID", "Kode Outlet", "Tanggal"},
		Rows:    [][]string{{"A", "B", "2024-01-01"}, {"", "C", "2024-01-02"}},
	}

	got, err := NewNormalizer(nil).Normalize(table, domain.KindScanLog)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Table.Rows[0][0] != "A" {
		t.Errorf("expected first matching column to win, got %q", got.Table.Rows[0][0])
	}
	if got.Table.Rows[1][0] != "C" {
		t.Errorf("expected shadowed column to fill an empty cell, got %q", got.Table.Rows[1][0])
	}
	if !reflect.DeepEqual(got.Shadowed, []string{"Kode Outlet"}) {
		t.Errorf("expected shadowed [Kode Outlet], got %v", got.Shadowed)
	}
}

func TestHeaderMap_With(t *testing.T) {
	m, err := DefaultHeaderMap().With(domain.KindRegistry, map[string]string{"Kode Toko": "outlet_id"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f, ok := m.Lookup(domain.KindRegistry, "KODE   toko"); !ok || f != domain.FieldOutletID {
		t.Errorf("expected alias to resolve to outlet_id, got %q %v", f, ok)
	}
	if _, ok := DefaultHeaderMap().Lookup(domain.KindRegistry, "kode toko"); ok {
		t.Error("expected default map to be unchanged")
	}

	_, err = DefaultHeaderMap().With(domain.KindRegistry, map[string]string{"x": "event_timestamp"})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected configuration error for foreign field, got %v", err)
	}
}

func TestDecode(t *testing.T) {
	// Arrange
	n := NewNormalizer(nil)
	reg, err := n.Normalize(&domain.Table{
		Headers: []string{"ID Outlet", "DSO"},
		Rows:    [][]string{{"O1", "A"}, {"", "A"}, {"O2.0", "B"}},
	}, domain.KindRegistry)
	if err != nil {
		t.Fatalf("normalize registry: %v", err)
	}
	scans, err := n.Normalize(&domain.Table{
		Headers: []string{"ID Outlet", "Tanggal Scan", "No WA"},
		Rows:    [][]string{{"O1", "2024-01-15", "C1"}},
	}, domain.KindScanLog)
	if err != nil {
		t.Fatalf("normalize scan log: %v", err)
	}

	// Act
	outlets, err := DecodeRegistry(reg)
	if err != nil {
		t.Fatalf("decode registry: %v", err)
	}
	events, err := DecodeScanLog(scans)
	if err != nil {
		t.Fatalf("decode scan log: %v", err)
	}

	// Assert
	want := []domain.Outlet{{ID: "O1", DSO: "A"}, {ID: "O2", DSO: "B"}}
	if !reflect.DeepEqual(outlets, want) {
		t.Errorf("expected %+v, got %+v", want, outlets)
	}
	if len(events) != 1 || events[0].ConsumerID != "C1" || events[0].Timestamp != "2024-01-15" {
		t.Errorf("unexpected events %+v", events)
	}
	if _, err := DecodeRegistry(scans); err == nil {
		t.Error("expected error decoding scan log as registry")
	}
}
