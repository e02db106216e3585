package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sales-dashboard/errors"

	"github.com/xuri/excelize/v2"
)

// numericColumns are always coerced to numbers, whatever their content.
var numericColumns = map[string]bool{
	ColSales:        true,
	ColUnitsSold:    true,
	ColSatisfaction: true,
}

// dateLayouts are tried in order when parsing the Month column.
var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	YearMonthLayout,
	"2006/01/02",
	"2006/01",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
	"Jan 2006",
	"January 2006",
	"Jan-2006",
	"Jan-06",
	"2006-Jan",
	"2006",
}

// excelEpoch is day zero of Excel's 1900 date system.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Load parses and cleans an uploaded file. The extension selects the reader.
func Load(content []byte, filename string) (*Frame, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		return ReadCSV(bytes.NewReader(content))
	case ".xlsx":
		return readXLSX(content)
	case ".xls":
		return nil, errors.WrapError(errors.ErrUnsupportedFile, "legacy .xls workbooks must be saved as .xlsx")
	default:
		return nil, errors.WrapErrorf(errors.ErrUnsupportedFile, "extension %q", ext)
	}
}

// ReadCSV reads a header row followed by records and runs the cleaning pipeline.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapError(errors.ErrInvalidInput, fmt.Sprintf("parse csv: %v", err))
	}
	if len(records) == 0 {
		return nil, errors.WrapError(errors.ErrInvalidInput, "file is empty")
	}
	return FromRecords(records[0], records[1:])
}

func readXLSX(content []byte) (*Frame, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, errors.WrapError(errors.ErrInvalidInput, fmt.Sprintf("open workbook: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.WrapError(errors.ErrInvalidInput, "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.WrapError(errors.ErrInvalidInput, fmt.Sprintf("read sheet %q: %v", sheets[0], err))
	}
	if len(rows) == 0 {
		return nil, errors.WrapError(errors.ErrInvalidInput, "first sheet is empty")
	}
	return FromRecords(rows[0], rows[1:])
}

// FromRecords builds a cleaned frame from raw string cells:
//   - Month is parsed to a date, unparseable values become missing
//   - Sales, Units Sold and Customer Satisfaction are coerced to numbers
//   - any other column whose values all parse as numbers is numeric too
//   - missing numeric values are filled with the column mean
//   - rows without Region, Product or Month are dropped
func FromRecords(header []string, rows [][]string) (*Frame, error) {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	var missing []string
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	for _, req := range RequiredColumns {
		if !present[req] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, errors.WrapErrorf(errors.ErrInvalidInput, "missing required columns: %s", strings.Join(missing, ", "))
	}

	cell := func(row []string, i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	columns := make([]*Column, 0, len(names))
	for ci, name := range names {
		if name == "" {
			continue
		}
		raw := make([]string, len(rows))
		for ri, row := range rows {
			raw[ri] = cell(row, ci)
		}
		switch {
		case name == ColMonth:
			columns = append(columns, NewTimeColumn(name, parseDates(raw)))
		case numericColumns[name] || looksNumeric(raw):
			columns = append(columns, NewNumberColumn(name, fillMean(parseNumbers(raw))))
		default:
			columns = append(columns, NewStringColumn(name, raw))
		}
	}

	frame, err := NewFrame(columns...)
	if err != nil {
		return nil, errors.WrapError(errors.ErrInvalidInput, err.Error())
	}

	month, _ := frame.Column(ColMonth)
	region, _ := frame.Column(ColRegion)
	product, _ := frame.Column(ColProduct)
	return frame.Filter(func(i int) bool {
		return !month.Missing(i) && !region.Missing(i) && !product.Missing(i)
	}), nil
}

// ParseDate parses a single Month cell. The boolean is false when no layout
// matched.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	// Excel serial day numbers, as left behind by unformatted date cells.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && serial < 2958466 {
		return excelEpoch.AddDate(0, 0, int(serial)), true
	}
	return time.Time{}, false
}

func parseDates(raw []string) []time.Time {
	out := make([]time.Time, len(raw))
	for i, s := range raw {
		out[i], _ = ParseDate(s)
	}
	return out
}

func parseNumbers(raw []string) []float64 {
	out := make([]float64, len(raw))
	for i, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(v, 0) {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

// looksNumeric reports whether every non-empty cell parses as a number and at
// least one cell is non-empty.
func looksNumeric(raw []string) bool {
	seen := false
	for _, s := range raw {
		if s == "" {
			continue
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

func fillMean(values []float64) []float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 || n == len(values) {
		return values
	}
	mean := sum / float64(n)
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = mean
		}
	}
	return values
}

// WriteCSV writes the frame in the format ReadCSV reads back.
func (f *Frame) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.Columns()); err != nil {
		return err
	}
	record := make([]string, len(f.columns))
	for r := 0; r < f.rows; r++ {
		for i, c := range f.columns {
			switch {
			case c.Missing(r):
				record[i] = ""
			case c.kind == KindNumber:
				record[i] = strconv.FormatFloat(c.nums[r], 'g', -1, 64)
			default:
				record[i] = c.Text(r)
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
