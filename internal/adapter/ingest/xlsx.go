package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

// ReadXLSX reads one sheet of a workbook. sheet is matched case-insensitively,
// first exactly and then as a substring. An empty sheet reads the first one.
// Cells are read raw, so dates arrive as serial numbers.
func ReadXLSX(name string, r io.Reader, sheet string) (*domain.Table, error) {
	return readWorkbook(name, r, sheet, "")
}

// readWorkbook is ReadXLSX with a preferred sheet tried when sheet is empty.
func readWorkbook(name string, r io.Reader, sheet, preferred string) (*domain.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	selected, ok := selectSheet(sheets, sheet)
	if sheet == "" && preferred != "" {
		if s, found := selectSheet(sheets, preferred); found {
			selected = s
		}
	}
	if !ok {
		return nil, &domain.ConfigurationError{
			Field:  "sheet",
			Value:  sheet,
			Reason: fmt.Sprintf("%s has no such sheet (sheets: %s)", name, strings.Join(sheets, ", ")),
		}
	}

	records, err := f.GetRows(selected, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", selected, name, err)
	}
	return buildTable(fmt.Sprintf("%s[%s]", name, selected), records)
}

func selectSheet(sheets []string, want string) (string, bool) {
	if len(sheets) == 0 {
		return "", false
	}
	want = strings.TrimSpace(want)
	if want == "" {
		return sheets[0], true
	}
	for _, s := range sheets {
		if strings.EqualFold(s, want) {
			return s, true
		}
	}
	lw := strings.ToLower(want)
	for _, s := range sheets {
		if strings.Contains(strings.ToLower(s), lw) {
			return s, true
		}
	}
	return "", false
}
