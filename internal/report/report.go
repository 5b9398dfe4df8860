// Package report renders the analysis report of one upload as PDF or XLSX.
package report

import (
	"fmt"
	"strconv"
	"time"

	"equipment-visualizer-backend/internal/model"
)

// Title is printed at the top of every report.
const Title = "Chemical Equipment Analysis Report"

// Data is everything a report shows. Equipment is already truncated by the caller.
type Data struct {
	Upload      model.Upload
	Equipment   []model.Equipment
	GeneratedAt time.Time
}

// Filename returns the attachment name, e.g. report_12_20240309.pdf.
func Filename(uploadID uint, t time.Time, ext string) string {
	return fmt.Sprintf("report_%d_%s.%s", uploadID, t.Format("20060102"), ext)
}

var equipmentHeader = []string{"Equipment Name", "Type", "Flowrate", "Pressure", "Temperature"}

func headerRows(d *Data) [][2]string {
	return [][2]string{
		{"Report Date:", d.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Upload File:", d.Upload.Filename},
		{"Total Records:", strconv.Itoa(d.Upload.TotalRecords)},
	}
}

func summaryRows(d *Data) [][2]string {
	return [][2]string{
		{"Average Flowrate", fixed2(d.Upload.AvgFlowrate)},
		{"Average Pressure", fixed2(d.Upload.AvgPressure)},
		{"Average Temperature", fixed2(d.Upload.AvgTemperature)},
	}
}

func fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
