package query

import (
	"math"
	"strconv"

	"sales-dashboard/dataset"
)

// Kind classifies the outcome of a plan.
type Kind int

const (
	KindScalar Kind = iota
	KindTable
	KindPlot
)

func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindPlot:
		return "plot"
	default:
		return "scalar"
	}
}

// Value is the result of evaluating a plan: a ScalarValue, a TableValue or a
// PlotValue.
type Value interface {
	Kind() Kind
	String() string
	value()
}

// ScalarValue is a single number or a piece of text.
type ScalarValue struct {
	Text string
}

func (ScalarValue) Kind() Kind       { return KindScalar }
func (s ScalarValue) String() string { return s.Text }
func (ScalarValue) value()           {}

// NumberValue formats v as a scalar.
func NumberValue(v float64) ScalarValue {
	return ScalarValue{Text: FormatScalar(v)}
}

// FormatScalar writes the shortest decimal that round-trips to v;
// integral values carry no fraction.
func FormatScalar(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// TableValue is a grid of rows.
type TableValue struct {
	Table dataset.Table
}

func (TableValue) Kind() Kind       { return KindTable }
func (t TableValue) String() string { return t.Table.String() }
func (TableValue) value()           {}

// PlotValue is a rendered chart image, base64 encoded.
type PlotValue struct {
	Image string
	MIME  string
}

func (PlotValue) Kind() Kind     { return KindPlot }
func (PlotValue) String() string { return "" }
func (PlotValue) value()         {}
