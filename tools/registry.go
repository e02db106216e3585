package tools

import (
	"sales-dashboard/chart"
	"sales-dashboard/dataset"
)

// Tool describes a helper the language model may ask for.
type Tool struct {
	Name        string
	Description string
}

// Registry is the fixed set of helpers available to query plans. It holds no
// state; a single value can be shared by concurrent evaluations.
type Registry struct {
	forecast func(*dataset.Frame, string, int, Filters) string
	plot     func(chart.Spec) (PlotResult, error)
}

func NewRegistry() *Registry {
	return &Registry{forecast: Forecast, plot: RenderPlot}
}

// Tools lists the helpers in the order they are presented to the model.
func (r *Registry) Tools() []Tool {
	return []Tool{
		{
			Name:        "forecast",
			Description: `Predict future monthly totals. Fields: "target_column" (default "Sales"), "periods" (default 3), optional "forecast_filters" object such as {"Region": "North"}.`,
		},
		{
			Name:        "plot",
			Description: `Draw a chart. Fields: "chart" (bar, line, scatter or hist), "x", "y", optional "agg", "filters", "title".`,
		},
	}
}

func (r *Registry) Names() []string {
	tools := r.Tools()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
}

func (r *Registry) Forecast(f *dataset.Frame, target string, periods int, filters Filters) string {
	return r.forecast(f, target, periods, filters)
}

func (r *Registry) Plot(spec chart.Spec) (PlotResult, error) {
	return r.plot(spec)
}
