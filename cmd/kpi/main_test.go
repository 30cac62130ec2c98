package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testConfig(t *testing.T, dir string) string {
	return writeFile(t, dir, "config.yaml", "report:\n  week_policy: monday\n  group_by: dso\n")
}

func TestRun_PivotAndAnomalies(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	registry := writeFile(t, dir, "registry.csv", "Outlet ID,DSO,PIC,Program\nO1,A,p1,Gold\nO2,A,p2,Gold\nO3,B,p3,Silver\nO4,B,p4,Silver\n")
	scans := writeFile(t, dir, "scan.csv", "Outlet ID,No WA,Timestamp\nO1,C1,2024-01-08 10:00\nO2,C1,2024-01-09 11:00\nO3,C2,2024-01-15 09:00\n")
	out := filepath.Join(dir, "report.xlsx")
	var stdout bytes.Buffer

	// Act
	err := run([]string{
		"--config", testConfig(t, dir),
		"--registry", registry,
		"--scan", scans,
		"--group-by", "dso",
		"--metric", "percent_active,active_count",
		"--inactive",
		"--multi-outlet",
		"-o", out,
	}, &stdout)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	text := stdout.String()
	for _, want := range []string{
		"Matched: 3 | Unmatched: 0",
		"DSO | Week 2 | Week 3",
		"A | 100.0 | 0.0",
		"B | 0.0 | 50.0",
		"Total Active Outlets",
		"Inactive outlets: 1",
		"O4 | B | p4 | Silver | never",
		"C1 | 2 scans | O1, O2",
		"Workbook saved to",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q\n%s", want, text)
		}
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if len(f.GetSheetList()) != 4 {
		t.Errorf("expected 4 sheets, got %v", f.GetSheetList())
	}
}

func TestRun_RequiresInputs(t *testing.T) {
	dir := t.TempDir()
	err := run([]string{"--config", testConfig(t, dir)}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "--registry") {
		t.Errorf("expected missing input error, got %v", err)
	}
}

func TestRun_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	registry := writeFile(t, dir, "registry.csv", "DSO\nA\n")
	scans := writeFile(t, dir, "scan.csv", "Outlet ID,Timestamp\nO1,2024-01-08\n")

	err := run([]string{"--config", testConfig(t, dir), "--registry", registry, "--scan", scans}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "outlet_id") {
		t.Errorf("expected missing outlet_id column error, got %v", err)
	}
}
