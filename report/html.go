package report

import (
	"context"
	"encoding/base64"
	"io"

	"sales-dashboard/web/templates/components"
	"sales-dashboard/web/templates/pages"

	"github.com/a-h/templ"
)

// Page is the HTML rendition of the report.
func (r *Report) Page() templ.Component {
	kpis := make([]components.KPI, 0, 3)
	for _, k := range r.kpiRows() {
		kpis = append(kpis, components.KPI{Label: k.label, Value: k.value})
	}
	figures := make([]components.Figure, 0, len(r.Charts))
	for _, c := range r.Charts {
		figures = append(figures, components.Figure{
			ID:    c.ID,
			Title: c.Title,
			Src:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(c.PNG),
		})
	}
	return pages.Report(r.Title, r.timestamp(), kpis, SummaryHTML(r.Summary), figures, r.Sample)
}

// RenderHTML writes the HTML page to w.
func (r *Report) RenderHTML(ctx context.Context, w io.Writer) error {
	return r.Page().Render(ctx, w)
}
