package dataset

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"sales-dashboard/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const header = "Month,Region,Product,Sales,Units Sold,Customer Satisfaction\n"

func TestReadCSVCleaning(t *testing.T) {
	input := header +
		"2024-01-01,North,Widget,100,10,4\n" +
		"2024-02-01,South,Widget,,20,5\n" +
		"2024-03-01,,Widget,300,30,3\n" +
		"not a date,East,Gadget,400,40,2\n" +
		"2024-04-01,West,Gadget,abc,40,\n"

	f, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	// The row without Region and the one with an unparseable Month are gone.
	assert.Equal(t, 3, f.Len())

	sales, ok := f.Column(ColSales)
	require.True(t, ok)
	assert.Equal(t, KindNumber, sales.Kind())
	// Mean is taken before rows are dropped: (100+300+400)/3.
	mean := (100.0 + 300.0 + 400.0) / 3
	assert.InDelta(t, 100, sales.Float(0), 1e-9)
	assert.InDelta(t, mean, sales.Float(1), 1e-9)
	assert.InDelta(t, mean, sales.Float(2), 1e-9)

	month, _ := f.Column(ColMonth)
	assert.Equal(t, KindTime, month.Kind())
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), month.Time(1))

	region, _ := f.Column(ColRegion)
	assert.Equal(t, KindString, region.Kind())
	assert.Equal(t, "West", region.Text(2))

	for _, name := range []string{ColSales, ColUnitsSold, ColSatisfaction} {
		col, _ := f.Column(name)
		for i := 0; i < f.Len(); i++ {
			assert.False(t, math.IsNaN(col.Float(i)), "%s row %d", name, i)
		}
	}
}

func TestReadCSVStripsBOMAndSpaces(t *testing.T) {
	input := "\ufeffMonth, Region ,Product,Sales,Units Sold,Customer Satisfaction\n" +
		"2024-01,North,Widget,100,10,4\n"
	f, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, RequiredColumns, f.Columns())
	assert.Equal(t, []string{"2024-01"}, f.YearMonths())
}

func TestReadCSVMissingColumns(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Month,Region,Sales\n2024-01-01,North,1\n"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "Product")
	assert.Contains(t, err.Error(), "Customer Satisfaction")
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.True(t, errors.IsInvalidInput(err))
}

func TestExtraNumericColumnDetected(t *testing.T) {
	input := "Month,Region,Product,Sales,Units Sold,Customer Satisfaction,Discount,Channel\n" +
		"2024-01-01,North,Widget,100,10,4,0.1,Online\n" +
		"2024-02-01,North,Widget,100,10,4,,Retail\n"
	f, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	discount, _ := f.Column("Discount")
	assert.Equal(t, KindNumber, discount.Kind())
	assert.InDelta(t, 0.1, discount.Float(1), 1e-9)

	channel, _ := f.Column("Channel")
	assert.Equal(t, KindString, channel.Kind())
}

func TestLoadUnsupportedExtension(t *testing.T) {
	tests := []struct {
		name     string
		filename string
	}{
		{"text file", "data.txt"},
		{"legacy excel", "data.xls"},
		{"no extension", "data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(header), tt.filename)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrUnsupportedFile))
		})
	}
}

func TestLoadCSVExtensionIsCaseInsensitive(t *testing.T) {
	f, err := Load([]byte(header+"2024-01-01,North,Widget,1,1,1\n"), "SALES.CSV")
	require.NoError(t, err)
	assert.Equal(t, 1, f.Len())
}

func TestLoadXLSX(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)
	rows := [][]interface{}{
		{"Month", "Region", "Product", "Sales", "Units Sold", "Customer Satisfaction"},
		{"2024-01-01", "North", "Widget", 100, 10, 4.5},
		{"2024-02-01", "South", "Gadget", 250, 25, 3.5},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	f, err := Load(buf.Bytes(), "sales.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	sales, _ := f.Column(ColSales)
	assert.InDelta(t, 250, sales.Float(1), 1e-9)
	assert.Equal(t, []string{"2024-01", "2024-02"}, f.YearMonths())
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in string
		ok bool
	}{
		{"2024-03-01", true},
		{"2024-03", true},
		{"2024/03/01", true},
		{"03/01/2024", true},
		{"Mar 2024", true},
		{"March 2024", true},
		{"2024-03-01T00:00:00Z", true},
		{"45352", true}, // Excel serial for 2024-03-01
		{"", false},
		{"soon", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, want.Equal(got), "got %v", got)
			}
		})
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	input := header +
		"2024-01-01,North,Widget,100.5,10,4.25\n" +
		"2024-02-01,South,\"Gadget, Pro\",200,20,3\n"
	f, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.WriteCSV(&buf))
	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.True(t, f.Equal(back))
	assert.Equal(t, f.Fingerprint(), back.Fingerprint())
}
