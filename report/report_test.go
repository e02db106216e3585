package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sales-dashboard/chart"
	"sales-dashboard/dataset/datasettest"
	"sales-dashboard/insights"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const summary = "Sales grew steadily.\n**Top performer:** Widget in the North.\n- Restock Widgets\n- Watch satisfaction"

func buildReport(t *testing.T) *Report {
	t.Helper()
	f := datasettest.Frame(t, 14, []string{"North", "South"}, []string{"Widget", "Gadget"})
	kpis, err := insights.Compute(f)
	require.NoError(t, err)
	specs, err := chart.Dashboard(f)
	require.NoError(t, err)
	r, err := Build(f, kpis, summary, specs, zap.NewNop())
	require.NoError(t, err)
	r.GeneratedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return r
}

func TestBuild(t *testing.T) {
	r := buildReport(t)
	assert.Len(t, r.Charts, 7)
	assert.Len(t, r.Sample.Rows, SampleRows)
	for _, c := range r.Charts {
		assert.True(t, bytes.HasPrefix(c.PNG, []byte("\x89PNG")), c.ID)
	}
}

func TestBuildSkipsEmptyCharts(t *testing.T) {
	f := datasettest.Single(t)
	empty := chart.Spec{ID: "nothing", Kind: chart.KindBar, Title: "Nothing"}
	r, err := Build(f, insights.KPIs{}, "", []chart.Spec{empty}, nil)
	require.NoError(t, err)
	assert.Empty(t, r.Charts)
}

func TestRenderHTML(t *testing.T) {
	r := buildReport(t)
	r.Summary = summary + "\n<script>alert(1)</script>"
	r.KPIs.TotalSales = "<b>$1</b>"

	var buf bytes.Buffer
	require.NoError(t, r.RenderHTML(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, "<h1>Sales Dashboard Report</h1>")
	assert.Contains(t, html, "Generated on 2024-06-01 12:00:00")
	assert.Contains(t, html, "&lt;b&gt;$1&lt;/b&gt;")
	assert.Contains(t, html, "<strong>Top performer:</strong>")
	assert.Contains(t, html, "<li>Restock Widgets</li>")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, `id="sales_by_product"`)
	assert.Contains(t, html, "data:image/png;base64,")
	assert.Equal(t, SampleRows+1, strings.Count(html, "<tr>")-len(r.kpiRows()))
}

func TestSummaryHTMLNormalizesLists(t *testing.T) {
	html := SummaryHTML("Next steps:\n1. Restock\n2. Advertise")
	assert.Contains(t, html, "<ol>")
	assert.Contains(t, html, "<li>Restock</li>")
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Overview\nTop: Widget\n- item", plainText("## Overview\n**Top:** Widget\n- item"))
}

func TestWritePDF(t *testing.T) {
	r := buildReport(t)
	data, err := r.PDF()
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	f, reader, err := pdf.Open(path)
	require.NoError(t, err)
	defer f.Close()
	require.GreaterOrEqual(t, reader.NumPage(), 2)

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		s, err := page.GetPlainText(nil)
		require.NoError(t, err)
		text.WriteString(s)
	}
	assert.Contains(t, text.String(), "Summary")
	assert.Contains(t, text.String(), "Widget")
}
