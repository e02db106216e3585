package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryPlan(t *testing.T) {
	out, err := QueryPlan(QueryPlanData{
		Columns: []Column{
			{Name: "Month", Kind: "datetime"},
			{Name: "Region", Kind: "string", Samples: []string{"North", "South"}},
		},
		Aggregations:  []string{"sum", "mean"},
		Tools:         []Tool{{Name: "forecast", Description: "Predict."}},
		LatestMonth:   "2024-05",
		PreviousMonth: "2024-04",
		History:       "User: total sales?\n",
		Fallback:      "Error: cannot answer.",
	})
	require.NoError(t, err)
	assert.Contains(t, out, `- "Region" (string), values such as: North, South`)
	assert.Contains(t, out, `- "Month" (datetime)`)
	assert.Contains(t, out, "- forecast: Predict.")
	assert.Contains(t, out, "latest month in the data is 2024-05; the previous month is 2024-04")
	assert.Contains(t, out, `"last month" or "previous month" means 2024-04`)
	assert.Contains(t, out, `"latest month", "this month" or "current month" means 2024-05`)
	assert.Contains(t, out, `units last month"
- Assistant Plan: {"tool":"query","op":"aggregate","column":"Units Sold","agg":"sum","group_by":["Region"],"filters":[{"column":"Month","op":"==","value":"2024-04"}]`)
	assert.Contains(t, out, `latest month"
- Assistant Plan: {"tool":"query","op":"aggregate","column":"Sales","agg":"sum","filters":[{"column":"Month","op":"==","value":"2024-05"}]}`)
	assert.Contains(t, out, "(sum | mean)")
	assert.Contains(t, out, "User: total sales?\n")
	assert.Contains(t, out, `return: "Error: cannot answer."`)
}

func TestExecutiveSummary(t *testing.T) {
	out, err := ExecutiveSummary(SummaryData{KPIs: "total_sales: $10", Schema: "6 columns", Sample: "rows", MaxWords: 400})
	require.NoError(t, err)
	assert.Contains(t, out, "under 400 words")
	assert.Contains(t, out, "**KPIs:**\ntotal_sales: $10")
}
