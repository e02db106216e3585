package dataset

import (
	"strings"
	"unicode/utf8"
)

// Table is a rendered result grid: a header and rows of display strings.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// String lays the table out as right-aligned text columns separated by two
// spaces, without a row index.
func (t Table) String() string {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range t.Rows {
		for i := 0; i < len(widths) && i < len(row); i++ {
			if n := utf8.RuneCountInString(row[i]); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, w := range widths {
			if i > 0 {
				b.WriteString("  ")
			}
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(strings.Repeat(" ", w-utf8.RuneCountInString(cell)))
			b.WriteString(cell)
		}
	}
	writeRow(t.Columns)
	for _, row := range t.Rows {
		b.WriteByte('\n')
		writeRow(row)
	}
	return b.String()
}

// ToTable renders the whole frame, one table row per frame row.
func (f *Frame) ToTable() Table {
	t := Table{Columns: f.Columns(), Rows: make([][]string, f.rows)}
	for r := 0; r < f.rows; r++ {
		row := make([]string, len(f.columns))
		for i, c := range f.columns {
			row[i] = c.Text(r)
		}
		t.Rows[r] = row
	}
	return t
}
