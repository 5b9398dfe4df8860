package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet   = "Summary"
	equipmentSheet = "Equipment"
)

// RenderXLSX writes the same report as a workbook with a Summary and an
// Equipment sheet.
func RenderXLSX(w io.Writer, d *Data) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(equipmentSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4788"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	labelStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E8F4F8"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create label style: %w", err)
	}
	numberStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("failed to create number style: %w", err)
	}

	// Summary sheet: upload header, blank line, metric table.
	row := 1
	for _, h := range headerRows(d) {
		if err := setRow(f, summarySheet, row, []any{h[0], h[1]}); err != nil {
			return err
		}
		if err := f.SetCellStyle(summarySheet, cellName(1, row), cellName(1, row), labelStyle); err != nil {
			return fmt.Errorf("failed to set label style: %w", err)
		}
		row++
	}
	row++
	if err := setRow(f, summarySheet, row, []any{"Metric", "Value"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, cellName(1, row), cellName(2, row), headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	row++
	averages := []float64{d.Upload.AvgFlowrate, d.Upload.AvgPressure, d.Upload.AvgTemperature}
	for i, s := range summaryRows(d) {
		if err := setRow(f, summarySheet, row, []any{s[0], averages[i]}); err != nil {
			return err
		}
		if err := f.SetCellStyle(summarySheet, cellName(2, row), cellName(2, row), numberStyle); err != nil {
			return fmt.Errorf("failed to set number style: %w", err)
		}
		row++
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 22); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 40); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	// Equipment sheet.
	header := make([]any, len(equipmentHeader))
	for i, h := range equipmentHeader {
		header[i] = h
	}
	if err := setRow(f, equipmentSheet, 1, header); err != nil {
		return err
	}
	if err := f.SetCellStyle(equipmentSheet, "A1", cellName(len(header), 1), headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	for i, eq := range d.Equipment {
		r := i + 2
		if err := setRow(f, equipmentSheet, r, []any{
			eq.EquipmentName, string(eq.EquipmentType), eq.Flowrate, eq.Pressure, eq.Temperature,
		}); err != nil {
			return err
		}
	}
	if len(d.Equipment) > 0 {
		last := len(d.Equipment) + 1
		if err := f.SetCellStyle(equipmentSheet, "C2", cellName(5, last), numberStyle); err != nil {
			return fmt.Errorf("failed to set number style: %w", err)
		}
	}
	if err := f.SetColWidth(equipmentSheet, "A", "B", 20); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(equipmentSheet, "C", "E", 14); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	if err := f.SetSheetRow(sheet, cellName(1, row), &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
