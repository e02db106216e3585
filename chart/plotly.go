package chart

import (
	"encoding/json"
	"math"
)

// darkTemplate mirrors the colours of plotly's "plotly_dark" template.
var darkTemplate = map[string]any{
	"layout": map[string]any{
		"paper_bgcolor": "rgb(17,17,17)",
		"plot_bgcolor":  "rgb(17,17,17)",
		"font":          map[string]any{"color": "#f2f5fa"},
		"colorway": []string{
			"#636efa", "#EF553B", "#00cc96", "#ab63fa", "#FFA15A",
			"#19d3f3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
		},
		"xaxis": map[string]any{"gridcolor": "#283442", "zerolinecolor": "#283442"},
		"yaxis": map[string]any{"gridcolor": "#283442", "zerolinecolor": "#283442"},
	},
}

// nullable converts NaN and infinities to JSON nulls.
func nullable(values []float64) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if finite(v) {
			out[i] = v
		}
	}
	return out
}

// markerSizes scales bubble sizes into a readable pixel range.
func markerSizes(sizes []float64) []float64 {
	maxSize := 0.0
	for _, s := range sizes {
		if finite(s) && s > maxSize {
			maxSize = s
		}
	}
	out := make([]float64, len(sizes))
	for i, s := range sizes {
		if maxSize <= 0 || !finite(s) || s < 0 {
			out[i] = 6
			continue
		}
		out[i] = 6 + 30*math.Sqrt(s/maxSize)
	}
	return out
}

// Figure returns the plotly figure (data and layout) for the chart.
func (s Spec) Figure() map[string]any {
	layout := map[string]any{
		"title":    map[string]any{"text": s.Title},
		"template": darkTemplate,
		"xaxis":    map[string]any{"title": map[string]any{"text": s.XLabel}},
		"yaxis":    map[string]any{"title": map[string]any{"text": s.YLabel}},
	}
	var data []map[string]any

	switch s.Kind {
	case KindPie:
		for _, series := range s.Series {
			data = append(data, map[string]any{
				"type":   "pie",
				"labels": series.Categories,
				"values": nullable(series.Y),
				"hole":   s.Hole,
			})
		}
	case KindBar, KindStackedBar:
		for _, series := range s.Series {
			trace := map[string]any{
				"type": "bar",
				"x":    series.Categories,
				"y":    nullable(series.Y),
			}
			if series.Name != "" {
				trace["name"] = series.Name
			}
			data = append(data, trace)
		}
		if s.Kind == KindStackedBar {
			layout["barmode"] = "stack"
		}
	case KindScatter, KindLine:
		mode := "markers"
		if s.Kind == KindLine {
			mode = "lines+markers"
		}
		for _, series := range s.Series {
			trace := map[string]any{
				"type": "scatter",
				"mode": mode,
				"y":    nullable(series.Y),
			}
			if len(series.Categories) > 0 {
				trace["x"] = series.Categories
			} else {
				trace["x"] = nullable(series.X)
			}
			if series.Name != "" {
				trace["name"] = series.Name
			}
			if len(series.Hover) > 0 {
				trace["hovertext"] = series.Hover
			}
			if len(series.Size) > 0 {
				trace["marker"] = map[string]any{"size": markerSizes(series.Size)}
			}
			data = append(data, trace)
		}
	case KindHist:
		for _, series := range s.Series {
			data = append(data, map[string]any{
				"type": "histogram",
				"x":    nullable(series.Y),
				"name": series.Name,
			})
		}
	case KindHeatmap:
		if s.Grid != nil {
			z := make([][]any, len(s.Grid.Z))
			for i, row := range s.Grid.Z {
				z[i] = nullable(row)
			}
			data = append(data, map[string]any{
				"type":       "heatmap",
				"x":          s.Grid.Columns,
				"y":          s.Grid.Rows,
				"z":          z,
				"colorscale": "Viridis",
				"colorbar":   map[string]any{"title": map[string]any{"text": s.ZLabel}},
			})
		}
	}
	if data == nil {
		data = []map[string]any{}
	}
	return map[string]any{"data": data, "layout": layout}
}

// Plotly returns the figure serialised as a JSON document.
func (s Spec) Plotly() (string, error) {
	b, err := json.Marshal(s.Figure())
	if err != nil {
		return "", err
	}
	return string(b), nil
}
