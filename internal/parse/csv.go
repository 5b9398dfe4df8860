package parse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"equipment-visualizer-backend/internal/model"
)

// Normalized names of the required columns, in display order.
const (
	ColEquipmentName = "equipment_name"
	ColType          = "type"
	ColFlowrate      = "flowrate"
	ColPressure      = "pressure"
	ColTemperature   = "temperature"
)

var requiredColumns = []struct {
	key     string
	display string
}{
	{ColEquipmentName, "Equipment Name"},
	{ColType, "Type"},
	{ColFlowrate, "Flowrate"},
	{ColPressure, "Pressure"},
	{ColTemperature, "Temperature"},
}

// RequiredColumns returns the display names of the columns every upload must carry.
func RequiredColumns() []string {
	names := make([]string, len(requiredColumns))
	for i, c := range requiredColumns {
		names[i] = c.display
	}
	return names
}

var typeSynonyms = map[string]model.EquipmentType{
	"pump":           model.TypePump,
	"compressor":     model.TypeCompressor,
	"reactor":        model.TypeReactor,
	"heat exchanger": model.TypeHeatExchanger,
	"separator":      model.TypeSeparator,
	"mixer":          model.TypeMixer,
	"boiler":         model.TypeBoiler,
	"filter":         model.TypeFilter,
}

// NormalizeType maps a free-text type to the closed enumeration. Anything
// unknown, including the empty string, becomes "other".
func NormalizeType(raw string) model.EquipmentType {
	if t, ok := typeSynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t
	}
	return model.TypeOther
}

// NormalizeHeader turns "Equipment Name " into "equipment_name".
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// MissingColumnsError is returned when the header lacks required columns.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("CSV must contain columns: %s (missing: %s)",
		strings.Join(RequiredColumns(), ", "), strings.Join(e.Missing, ", "))
}

// Row is one successfully decoded data row.
type Row struct {
	Name        string
	Type        model.EquipmentType
	Flowrate    float64
	Pressure    float64
	Temperature float64
}

// Table is a parsed CSV file whose header has been validated.
type Table struct {
	columns map[string]int
	records [][]string
}

// TotalRows is the number of data rows, before any per-row validation.
func (t *Table) TotalRows() int {
	return len(t.records)
}

// ParseCSV reads the whole file and validates the header. Per-row problems are
// not reported here; see Decode.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no columns to parse from file")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := NormalizeHeader(h)
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := columns[c.key]; !ok {
			missing = append(missing, c.display)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv records: %w", err)
	}

	return &Table{columns: columns, records: records}, nil
}

// Decode converts every data row, dropping the ones DecodeRow rejects.
func (t *Table) Decode() (rows []Row, skipped []error) {
	rows = make([]Row, 0, len(t.records))
	for i, rec := range t.records {
		row, err := t.DecodeRow(rec)
		if err != nil {
			// line numbers are 1-based and the header is line 1
			skipped = append(skipped, fmt.Errorf("line %d: %w", i+2, err))
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped
}

// DecodeRow decodes a single record against the table's header.
func (t *Table) DecodeRow(rec []string) (Row, error) {
	field := func(key string) (string, error) {
		idx := t.columns[key]
		if idx >= len(rec) {
			return "", fmt.Errorf("missing field %q", key)
		}
		return rec[idx], nil
	}
	number := func(key string) (float64, error) {
		s, err := field(key)
		if err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
		if isHexOrUnderscored(s) {
			return 0, fmt.Errorf("invalid %s %q", key, s)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q", key, s)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%s %q is not a finite number", key, s)
		}
		return v, nil
	}

	var (
		row Row
		err error
		raw string
	)
	if raw, err = field(ColType); err != nil {
		return Row{}, err
	}
	row.Type = NormalizeType(raw)
	if raw, err = field(ColEquipmentName); err != nil {
		return Row{}, err
	}
	row.Name = strings.TrimSpace(raw)
	if row.Flowrate, err = number(ColFlowrate); err != nil {
		return Row{}, err
	}
	if row.Pressure, err = number(ColPressure); err != nil {
		return Row{}, err
	}
	if row.Temperature, err = number(ColTemperature); err != nil {
		return Row{}, err
	}
	return row, nil
}

// Averages returns the arithmetic means of the three measurements, or zeros
// when rows is empty.
func Averages(rows []Row) (flowrate, pressure, temperature float64) {
	var f, p, t Mean
	for _, r := range rows {
		f.Add(r.Flowrate)
		p.Add(r.Pressure)
		t.Add(r.Temperature)
	}
	return f.Value(), p.Value(), t.Value()
}

// Mean is a running arithmetic mean. The mean of finite values stays finite
// even when their sum would overflow.
type Mean struct {
	n    int
	mean float64
}

// Add folds x into the mean.
func (m *Mean) Add(x float64) {
	m.n++
	n := float64(m.n)
	m.mean += x/n - m.mean/n
}

// Value returns the current mean, zero when nothing was added.
func (m *Mean) Value() float64 {
	return m.mean
}

// isHexOrUnderscored reports forms ParseFloat accepts but a plain decimal
// reader does not: hex floats such as "0x1p4" and digit separators.
func isHexOrUnderscored(s string) bool {
	if strings.ContainsRune(s, '_') {
		return true
	}
	s = strings.TrimLeft(s, "+-")
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
}
