// Package chart describes dashboard and chat charts independently of how
// they are drawn: as plotly figures for the browser or as PNG images.
package chart

import "math"

type Kind string

const (
	KindBar        Kind = "bar"
	KindStackedBar Kind = "stacked_bar"
	KindPie        Kind = "pie"
	KindScatter    Kind = "scatter"
	KindLine       Kind = "line"
	KindHeatmap    Kind = "heatmap"
	KindHist       Kind = "hist"
)

// Series is one trace of a chart. Categorical charts fill Categories, numeric
// ones fill X. Hist charts only use Y.
type Series struct {
	Name       string    `json:"name,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	X          []float64 `json:"x,omitempty"`
	Y          []float64 `json:"y"`
	Size       []float64 `json:"size,omitempty"`
	Hover      []string  `json:"hover,omitempty"`
}

// Grid is the cell matrix of a heatmap. Z is indexed [row][column]; NaN marks
// an empty cell.
type Grid struct {
	Columns []string    `json:"columns"`
	Rows    []string    `json:"rows"`
	Z       [][]float64 `json:"z"`
}

type Spec struct {
	ID     string   `json:"id"`
	Kind   Kind     `json:"kind"`
	Title  string   `json:"title"`
	XLabel string   `json:"x_label,omitempty"`
	YLabel string   `json:"y_label,omitempty"`
	ZLabel string   `json:"z_label,omitempty"`
	Series []Series `json:"series,omitempty"`
	Grid   *Grid    `json:"grid,omitempty"`
	// Hole is the donut hole ratio of pie charts.
	Hole float64 `json:"hole,omitempty"`
}

// Empty reports whether the chart has nothing to draw.
func (s Spec) Empty() bool {
	if s.Kind == KindHeatmap {
		return s.Grid == nil || len(s.Grid.Columns) == 0 || len(s.Grid.Rows) == 0
	}
	for _, series := range s.Series {
		if len(series.Y) > 0 {
			return false
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
