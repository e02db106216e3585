package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Default image size used by the chat plot tool and the PDF report.
const (
	DefaultWidth  = 7 * vg.Inch
	DefaultHeight = 4.5 * vg.Inch
)

// ErrEmpty is returned when a chart has no values to draw.
var ErrEmpty = errors.New("chart has no data to draw")

// RenderPNG draws the chart as a PNG image. Pie charts are drawn as bars.
func RenderPNG(s Spec, width, height vg.Length) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, s, width, height); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePNG streams the PNG image of the chart to w.
func WritePNG(w io.Writer, s Spec, width, height vg.Length) error {
	if s.Empty() {
		return ErrEmpty
	}
	p := plot.New()
	p.Title.Text = s.Title
	p.X.Label.Text = s.XLabel
	p.Y.Label.Text = s.YLabel

	var err error
	switch s.Kind {
	case KindBar, KindPie:
		err = addBars(p, s.Series, false)
	case KindStackedBar:
		err = addBars(p, s.Series, true)
	case KindScatter:
		err = addPoints(p, s.Series, false)
	case KindLine:
		err = addPoints(p, s.Series, true)
	case KindHist:
		err = addHist(p, s.Series)
	case KindHeatmap:
		err = addHeatMap(p, s.Grid)
	default:
		err = fmt.Errorf("unsupported chart kind %q", s.Kind)
	}
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("prepare png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func zeroNaN(values []float64) plotter.Values {
	out := make(plotter.Values, len(values))
	for i, v := range values {
		if finite(v) {
			out[i] = v
		}
	}
	return out
}

func addBars(p *plot.Plot, series []Series, stacked bool) error {
	if len(series) == 0 {
		return ErrEmpty
	}
	n := len(series)
	width := vg.Points(40)
	if !stacked && n > 1 {
		width = vg.Points(40 / float64(n))
	}
	var below *plotter.BarChart
	for i, s := range series {
		bars, err := plotter.NewBarChart(zeroNaN(s.Y), width)
		if err != nil {
			return fmt.Errorf("bar series %q: %w", s.Name, err)
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = vg.Length(0)
		if stacked {
			if below != nil {
				bars.StackOn(below)
			}
			below = bars
		} else if n > 1 {
			bars.Offset = width * vg.Length(float64(i)-float64(n-1)/2)
		}
		p.Add(bars)
		if s.Name != "" {
			p.Legend.Add(s.Name, bars)
		}
	}
	p.NominalX(series[0].Categories...)
	p.Legend.Top = true
	return nil
}

func addPoints(p *plot.Plot, series []Series, line bool) error {
	var nominal []string
	for i, s := range series {
		xys := make(plotter.XYs, 0, len(s.Y))
		for j, y := range s.Y {
			x := float64(j)
			if len(s.Categories) == 0 && j < len(s.X) {
				x = s.X[j]
			}
			if !finite(x) || !finite(y) {
				continue
			}
			xys = append(xys, plotter.XY{X: x, Y: y})
		}
		if len(xys) == 0 {
			continue
		}
		if len(s.Categories) > len(nominal) {
			nominal = s.Categories
		}
		c := plotutil.Color(i)
		if line {
			l, err := plotter.NewLine(xys)
			if err != nil {
				return fmt.Errorf("line series %q: %w", s.Name, err)
			}
			l.LineStyle.Color = c
			l.LineStyle.Width = vg.Points(1.5)
			p.Add(l)
			if s.Name != "" {
				p.Legend.Add(s.Name, l)
			}
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("scatter series %q: %w", s.Name, err)
		}
		sc.GlyphStyle.Color = c
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)
		if s.Name != "" {
			p.Legend.Add(s.Name, sc)
		}
	}
	if len(nominal) > 0 {
		p.NominalX(nominal...)
	}
	p.Add(plotter.NewGrid())
	return nil
}

func addHist(p *plot.Plot, series []Series) error {
	for i, s := range series {
		values := make(plotter.Values, 0, len(s.Y))
		for _, v := range s.Y {
			if finite(v) {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		h, err := plotter.NewHist(values, 10)
		if err != nil {
			return fmt.Errorf("histogram %q: %w", s.Name, err)
		}
		h.FillColor = plotutil.Color(i)
		p.Add(h)
	}
	if p.Y.Label.Text == "" {
		p.Y.Label.Text = "Count"
	}
	return nil
}

// heatGrid adapts Grid to plotter.GridXYZ.
type heatGrid struct{ g *Grid }

func (h heatGrid) Dims() (c, r int)   { return len(h.g.Columns), len(h.g.Rows) }
func (h heatGrid) Z(c, r int) float64 { return h.g.Z[r][c] }
func (h heatGrid) X(c int) float64    { return float64(c) }
func (h heatGrid) Y(r int) float64    { return float64(r) }

func addHeatMap(p *plot.Plot, g *Grid) error {
	if g == nil {
		return ErrEmpty
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range g.Z {
		for _, v := range row {
			if finite(v) {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
	}
	if math.IsInf(lo, 1) {
		return ErrEmpty
	}
	if lo == hi {
		hi = lo + 1
	}
	hm := plotter.NewHeatMap(heatGrid{g}, palette.Heat(12, 1))
	hm.Min, hm.Max = lo, hi
	hm.NaN = color.Transparent
	p.Add(hm)
	p.NominalX(g.Columns...)
	p.NominalY(g.Rows...)
	return nil
}
