// Package report renders the dashboard as a downloadable document.
package report

import (
	"time"

	"sales-dashboard/chart"
	"sales-dashboard/dataset"
	"sales-dashboard/errors"
	"sales-dashboard/insights"

	"go.uber.org/zap"
)

const (
	Title = "Sales Dashboard Report"

	// SampleRows is how many dataset rows the report reproduces.
	SampleRows = 10
)

// Chart is one rendered dashboard chart.
type Chart struct {
	ID    string
	Title string
	PNG   []byte
}

// Report is everything a rendered report shows.
type Report struct {
	Title       string
	GeneratedAt time.Time
	KPIs        insights.KPIs
	Summary     string
	Charts      []Chart
	Sample      dataset.Table
}

// Build renders the chart images and collects the report content. Charts
// without data are left out.
func Build(f *dataset.Frame, kpis insights.KPIs, summary string, specs []chart.Spec, logger *zap.Logger) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Report{
		Title:       Title,
		GeneratedAt: time.Now(),
		KPIs:        kpis,
		Summary:     summary,
		Sample:      f.Head(SampleRows).ToTable(),
	}
	for _, s := range specs {
		png, err := chart.RenderPNG(s, chart.DefaultWidth, chart.DefaultHeight)
		if err != nil {
			if errors.Is(err, chart.ErrEmpty) {
				logger.Debug("Skipping empty chart", zap.String("chart", s.ID))
				continue
			}
			return nil, errors.WrapErrorf(errors.ErrReport, "render chart %s: %v", s.ID, err)
		}
		r.Charts = append(r.Charts, Chart{ID: s.ID, Title: s.Title, PNG: png})
	}
	logger.Info("Report built", zap.Int("charts", len(r.Charts)), zap.Int("sample_rows", len(r.Sample.Rows)))
	return r, nil
}

type kpiRow struct {
	label string
	value string
}

func (r *Report) kpiRows() []kpiRow {
	return []kpiRow{
		{"Total Sales", r.KPIs.TotalSales},
		{"Total Units Sold", r.KPIs.TotalUnitsSold},
		{"Average Satisfaction", r.KPIs.AverageSatisfaction},
	}
}

func (r *Report) timestamp() string {
	return r.GeneratedAt.Format("2006-01-02 15:04:05")
}
