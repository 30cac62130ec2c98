// Package export writes KPI workbooks.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/internal/domain"
	"github.com/seu-repo/outlet-kpi/internal/ports"
)

const (
	InactiveSheet    = "Inactive Outlets"
	MultiOutletSheet = "Multi-Outlet Consumers"
)

// XLSXEncoder renders one sheet per pivot plus optional anomaly sheets.
type XLSXEncoder struct {
	log *zap.Logger
}

func NewXLSXEncoder(log *zap.Logger) ports.WorkbookEncoder {
	return &XLSXEncoder{log: log}
}

func (e *XLSXEncoder) Encode(wb *domain.Workbook) ([]byte, error) {
	if len(wb.Pivots) == 0 {
		return nil, fmt.Errorf("failed to encode workbook: no pivots")
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	w := &sheetWriter{f: f, header: header}

	for _, p := range wb.Pivots {
		if err := w.pivot(p); err != nil {
			return nil, err
		}
	}
	if wb.Inactive != nil {
		if err := w.inactive(wb.Inactive); err != nil {
			return nil, err
		}
	}
	if wb.MultiOutlet != nil {
		if err := w.multiOutlet(wb.MultiOutlet); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	e.log.Debug("Encoded workbook", zap.Int("sheets", w.sheets), zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

type sheetWriter struct {
	f      *excelize.File
	header int
	sheets int
}

// open reuses the default sheet for the first call.
func (w *sheetWriter) open(name string) error {
	w.sheets++
	if w.sheets == 1 {
		return w.f.SetSheetName(w.f.GetSheetName(0), name)
	}
	_, err := w.f.NewSheet(name)
	return err
}

func (w *sheetWriter) row(sheet string, r int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, r)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &values)
}

func (w *sheetWriter) headerRow(sheet string, values []interface{}) error {
	if err := w.row(sheet, 1, values); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(values), 1)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(sheet, "A1", last, w.header); err != nil {
		return err
	}
	return w.f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func (w *sheetWriter) pivot(p *domain.PivotTable) error {
	sheet := p.Metric.Label()
	if err := w.open(sheet); err != nil {
		return fmt.Errorf("failed to add sheet %q: %w", sheet, err)
	}
	head := make([]interface{}, 0, len(p.Dimensions)+len(p.Weeks))
	for _, d := range p.Dimensions {
		head = append(head, d.Label())
	}
	for _, wk := range p.Weeks {
		head = append(head, wk.String())
	}
	if err := w.headerRow(sheet, head); err != nil {
		return fmt.Errorf("failed to write header of %q: %w", sheet, err)
	}
	for i, r := range p.Rows {
		values := make([]interface{}, 0, len(r.Key)+len(r.Cells))
		for _, k := range r.Key {
			values = append(values, k)
		}
		for _, c := range r.Cells {
			values = append(values, c)
		}
		if err := w.row(sheet, i+2, values); err != nil {
			return fmt.Errorf("failed to write %q row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func (w *sheetWriter) inactive(list []domain.InactiveOutlet) error {
	if err := w.open(InactiveSheet); err != nil {
		return fmt.Errorf("failed to add sheet %q: %w", InactiveSheet, err)
	}
	head := []interface{}{"Outlet ID", "Outlet Name", "DSO", "PIC", "PROGRAM", "Ever Scanned", "Last Active Week"}
	if err := w.headerRow(InactiveSheet, head); err != nil {
		return err
	}
	for i, o := range list {
		last := ""
		if o.LastWeek.Valid() {
			last = o.LastWeek.String()
		}
		values := []interface{}{o.ID, o.DisplayName, o.DSO, o.PIC, o.Program, o.EverScanned, last}
		if err := w.row(InactiveSheet, i+2, values); err != nil {
			return fmt.Errorf("failed to write inactive row %d: %w", i+2, err)
		}
	}
	return nil
}

func (w *sheetWriter) multiOutlet(list []domain.MultiOutletScan) error {
	if err := w.open(MultiOutletSheet); err != nil {
		return fmt.Errorf("failed to add sheet %q: %w", MultiOutletSheet, err)
	}
	head := []interface{}{"Consumer", "Outlets", "Outlet Count", "Scans"}
	if err := w.headerRow(MultiOutletSheet, head); err != nil {
		return err
	}
	for i, m := range list {
		values := []interface{}{m.ConsumerID, strings.Join(m.OutletIDs, ", "), len(m.OutletIDs), m.Scans}
		if err := w.row(MultiOutletSheet, i+2, values); err != nil {
			return fmt.Errorf("failed to write multi-outlet row %d: %w", i+2, err)
		}
	}
	return nil
}
