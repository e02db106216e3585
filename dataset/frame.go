package dataset

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Well-known column names of the sales dataset.
const (
	ColMonth        = "Month"
	ColRegion       = "Region"
	ColProduct      = "Product"
	ColSales        = "Sales"
	ColUnitsSold    = "Units Sold"
	ColSatisfaction = "Customer Satisfaction"
)

// RequiredColumns lists the columns every upload must carry.
var RequiredColumns = []string{ColMonth, ColRegion, ColProduct, ColSales, ColUnitsSold, ColSatisfaction}

// DateLayout is the canonical on-disk and display format of temporal values.
const DateLayout = "2006-01-02"

// YearMonthLayout formats a temporal value as a monthly period.
const YearMonthLayout = "2006-01"

// Kind is the storage type of a column.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindTime:
		return "datetime"
	default:
		return "string"
	}
}

// Column is a typed, immutable vector of values. Missing values are "" for
// strings, NaN for numbers and the zero time for temporal columns.
type Column struct {
	name  string
	kind  Kind
	strs  []string
	nums  []float64
	times []time.Time
}

func NewStringColumn(name string, values []string) *Column {
	return &Column{name: name, kind: KindString, strs: values}
}

func NewNumberColumn(name string, values []float64) *Column {
	return &Column{name: name, kind: KindNumber, nums: values}
}

func NewTimeColumn(name string, values []time.Time) *Column {
	return &Column{name: name, kind: KindTime, times: values}
}

func (c *Column) Name() string { return c.name }
func (c *Column) Kind() Kind   { return c.kind }

func (c *Column) Len() int {
	switch c.kind {
	case KindNumber:
		return len(c.nums)
	case KindTime:
		return len(c.times)
	default:
		return len(c.strs)
	}
}

// Missing reports whether row i holds no value.
func (c *Column) Missing(i int) bool {
	switch c.kind {
	case KindNumber:
		return math.IsNaN(c.nums[i])
	case KindTime:
		return c.times[i].IsZero()
	default:
		return c.strs[i] == ""
	}
}

// Float returns the numeric value of row i, or NaN for non-numeric columns.
func (c *Column) Float(i int) float64 {
	if c.kind != KindNumber {
		return math.NaN()
	}
	return c.nums[i]
}

// Time returns the temporal value of row i, or the zero time.
func (c *Column) Time(i int) time.Time {
	if c.kind != KindTime {
		return time.Time{}
	}
	return c.times[i]
}

// Text returns the display form of row i.
func (c *Column) Text(i int) string {
	switch c.kind {
	case KindNumber:
		return FormatNumber(c.nums[i])
	case KindTime:
		if c.times[i].IsZero() {
			return "NaT"
		}
		return c.times[i].Format(DateLayout)
	default:
		return c.strs[i]
	}
}

// Numbers returns a copy of the numeric values.
func (c *Column) Numbers() []float64 {
	out := make([]float64, len(c.nums))
	copy(out, c.nums)
	return out
}

func (c *Column) take(rows []int) *Column {
	out := &Column{name: c.name, kind: c.kind}
	switch c.kind {
	case KindNumber:
		out.nums = make([]float64, len(rows))
		for j, i := range rows {
			out.nums[j] = c.nums[i]
		}
	case KindTime:
		out.times = make([]time.Time, len(rows))
		for j, i := range rows {
			out.times[j] = c.times[i]
		}
	default:
		out.strs = make([]string, len(rows))
		for j, i := range rows {
			out.strs[j] = c.strs[i]
		}
	}
	return out
}

// FormatNumber renders a float without trailing zeros.
func FormatNumber(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Frame is an in-memory table. Frames are never mutated after construction;
// every derived frame shares or copies the columns it was built from.
type Frame struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewFrame builds a frame from equally sized columns.
func NewFrame(columns ...*Column) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(columns))}
	for i, c := range columns {
		if _, dup := f.index[c.name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.name)
		}
		if i == 0 {
			f.rows = c.Len()
		} else if c.Len() != f.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.name, c.Len(), f.rows)
		}
		f.index[c.name] = i
	}
	f.columns = columns
	return f, nil
}

func (f *Frame) Len() int { return f.rows }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.name
	}
	return names
}

func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.columns[i], true
}

func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Select returns a frame holding only the given rows, in the given order.
func (f *Frame) Select(rows []int) *Frame {
	cols := make([]*Column, len(f.columns))
	for i, c := range f.columns {
		cols[i] = c.take(rows)
	}
	out, _ := NewFrame(cols...)
	if len(cols) == 0 {
		out.rows = len(rows)
	}
	return out
}

// Filter keeps the rows for which keep returns true.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	rows := make([]int, 0, f.rows)
	for i := 0; i < f.rows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return f.Select(rows)
}

// Head returns the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n > f.rows {
		n = f.rows
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return f.Select(rows)
}

// WithColumn returns a new frame with c appended, or replacing the column of
// the same name. The receiver is left untouched.
func (f *Frame) WithColumn(c *Column) (*Frame, error) {
	cols := make([]*Column, 0, len(f.columns)+1)
	replaced := false
	for _, existing := range f.columns {
		if existing.name == c.name {
			cols = append(cols, c)
			replaced = true
			continue
		}
		cols = append(cols, existing)
	}
	if !replaced {
		cols = append(cols, c)
	}
	return NewFrame(cols...)
}

// YearMonths returns the sorted distinct YYYY-MM periods of the Month column.
func (f *Frame) YearMonths() []string {
	col, ok := f.Column(ColMonth)
	if !ok || col.kind != KindTime {
		return nil
	}
	seen := make(map[string]struct{})
	for _, t := range col.times {
		if t.IsZero() {
			continue
		}
		seen[t.Format(YearMonthLayout)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for ym := range seen {
		out = append(out, ym)
	}
	sort.Strings(out)
	return out
}

// Fingerprint identifies the frame's content; equal frames share a fingerprint.
func (f *Frame) Fingerprint() string {
	var buf bytes.Buffer
	if err := f.WriteCSV(&buf); err != nil {
		return ""
	}
	sum := sha256.Sum256(buf.Bytes())
	return fmt.Sprintf("%x", sum[:8])
}

// Equal reports whether both frames hold the same columns, kinds and values.
func (f *Frame) Equal(o *Frame) bool {
	if f == nil || o == nil {
		return f == o
	}
	if f.rows != o.rows || len(f.columns) != len(o.columns) {
		return false
	}
	for i, c := range f.columns {
		oc := o.columns[i]
		if c.name != oc.name || c.kind != oc.kind {
			return false
		}
		for r := 0; r < f.rows; r++ {
			switch c.kind {
			case KindNumber:
				a, b := c.nums[r], oc.nums[r]
				if a != b && !(math.IsNaN(a) && math.IsNaN(b)) {
					return false
				}
			case KindTime:
				if !c.times[r].Equal(oc.times[r]) {
					return false
				}
			default:
				if c.strs[r] != oc.strs[r] {
					return false
				}
			}
		}
	}
	return true
}

// Matches reports whether row i equals value. Numbers compare numerically and
// temporal values match either a full date or a YYYY-MM period.
func (c *Column) Matches(i int, value string) bool {
	value = strings.TrimSpace(value)
	switch c.kind {
	case KindNumber:
		v, err := strconv.ParseFloat(value, 64)
		return err == nil && c.nums[i] == v
	case KindTime:
		t := c.times[i]
		if t.IsZero() {
			return false
		}
		if len(value) == len(YearMonthLayout) {
			return t.Format(YearMonthLayout) == value
		}
		if want, ok := ParseDate(value); ok {
			return t.Equal(want)
		}
		return false
	default:
		return c.strs[i] == value
	}
}

// Distinct returns the distinct display values of the column in first-seen
// order, at most limit of them (no limit when limit <= 0).
func (c *Column) Distinct(limit int) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := 0; i < c.Len(); i++ {
		if c.Missing(i) {
			continue
		}
		v := c.Text(i)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
