package report

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"equipment-visualizer-backend/internal/model"
)

func sampleData(n int) *Data {
	d := &Data{
		Upload: model.Upload{
			ID:             12,
			Filename:       "plant_a.csv",
			TotalRecords:   n + 1,
			AvgFlowrate:    12.5,
			AvgPressure:    3.25,
			AvgTemperature: 80,
		},
		GeneratedAt: time.Date(2024, 3, 9, 14, 30, 5, 0, time.UTC),
	}
	for i := 0; i < n; i++ {
		d.Equipment = append(d.Equipment, model.Equipment{
			ID:            uint(i + 1),
			UploadID:      12,
			EquipmentName: fmt.Sprintf("Pump-%d", i),
			EquipmentType: model.TypePump,
			Flowrate:      float64(i) + 0.5,
			Pressure:      2,
			Temperature:   70,
		})
	}
	return d
}

func TestFilename(t *testing.T) {
	ts := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "report_12_20240309.pdf", Filename(12, ts, "pdf"))
	assert.Equal(t, "report_3_20240309.xlsx", Filename(3, ts, "xlsx"))
}

func TestRenderPDF(t *testing.T) {
	testCases := []struct {
		name string
		data *Data
	}{
		{name: "No equipment", data: sampleData(0)},
		{name: "One page", data: sampleData(5)},
		{name: "Spills onto a second page", data: sampleData(60)},
		{name: "Non-Latin names", data: func() *Data {
			d := sampleData(1)
			d.Upload.Filename = "Überdruck.csv"
			d.Equipment[0].EquipmentName = "Kühler €"
			return d
		}()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderPDF(&buf, tc.data))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
			assert.Contains(t, string(buf.Bytes()[buf.Len()-16:]), "%%EOF")
		})
	}
}

func TestRenderXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderXLSX(&buf, sampleData(3)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Equipment"}, f.GetSheetList())

	raw := excelize.Options{RawCellValue: true}
	cell := func(sheet, name string) string {
		v, err := f.GetCellValue(sheet, name, raw)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Report Date:", cell("Summary", "A1"))
	assert.Equal(t, "2024-03-09 14:30:05", cell("Summary", "B1"))
	assert.Equal(t, "plant_a.csv", cell("Summary", "B2"))
	assert.Equal(t, "4", cell("Summary", "B3"))
	assert.Equal(t, "Metric", cell("Summary", "A5"))
	assert.Equal(t, "Average Flowrate", cell("Summary", "A6"))
	assert.Equal(t, "12.5", cell("Summary", "B6"))
	assert.Equal(t, "3.25", cell("Summary", "B7"))
	assert.Equal(t, "80", cell("Summary", "B8"))

	rows, err := f.GetRows("Equipment")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, equipmentHeader, rows[0])
	assert.Equal(t, "Pump-2", cell("Equipment", "A4"))
	assert.Equal(t, "pump", cell("Equipment", "B4"))
	assert.Equal(t, "2.5", cell("Equipment", "C4"))
}
