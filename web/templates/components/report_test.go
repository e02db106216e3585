package components

import (
	"bytes"
	"context"
	"testing"

	"sales-dashboard/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataTableEscapesCells(t *testing.T) {
	var buf bytes.Buffer
	table := dataset.Table{
		Columns: []string{"Region", "Sales"},
		Rows:    [][]string{{"<North>", "100"}, {"South", "200"}},
	}
	require.NoError(t, DataTable(table).Render(context.Background(), &buf))

	html := buf.String()
	assert.Contains(t, html, "<th>Region</th><th>Sales</th>")
	assert.Contains(t, html, "<tr><td>&lt;North&gt;</td><td>100</td></tr>")
	assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("<tr>")))
}

func TestKPITableAndFigure(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, KPITable([]KPI{{Label: "Total Sales", Value: "$1,500"}}).Render(context.Background(), &buf))
	assert.Equal(t, `<table class="kpi"><tr><td>Total Sales</td><td>$1,500</td></tr></table>`, buf.String())

	buf.Reset()
	fig := Figure{ID: "sales_by_region", Title: `Sales "by" Region`, Src: "data:image/png;base64,aW1n"}
	require.NoError(t, ChartFigure(fig).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), `<figure id="sales_by_region">`)
	assert.Contains(t, buf.String(), `alt="Sales &#34;by&#34; Region"`)
	assert.Contains(t, buf.String(), `src="data:image/png;base64,aW1n"`)
}

func TestRenderStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := DataTable(dataset.Table{}).Render(ctx, &buf)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}
