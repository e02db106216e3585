package query

import (
	"context"
	"strings"
	"testing"

	"sales-dashboard/chart"
	"sales-dashboard/dataset"
	"sales-dashboard/dataset/datasettest"
	"sales-dashboard/errors"
	"sales-dashboard/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTools struct {
	target  string
	periods int
	filters tools.Filters
	spec    chart.Spec
}

func (s *stubTools) Forecast(_ *dataset.Frame, target string, periods int, filters tools.Filters) string {
	s.target, s.periods, s.filters = target, periods, filters
	return "forecast text"
}

func (s *stubTools) Plot(spec chart.Spec) (tools.PlotResult, error) {
	s.spec = spec
	return tools.PlotResult{Kind: "plot", Image: "aW1n", MIME: tools.PlotMIME}, nil
}

func sample(t *testing.T) *dataset.Frame {
	return datasettest.Frame(t, 2, []string{"North", "South"}, []string{"Gadget", "Widget"})
}

func run(t *testing.T, f *dataset.Frame, expr string) (Value, error) {
	t.Helper()
	plan, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return NewEvaluator(&stubTools{}).Eval(context.Background(), f, plan)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"aggregate", `{"tool":"query","op":"aggregate","column":"Sales","agg":"sum"}`, false},
		{"op inferred from agg", `{"column":"Sales","agg":"mean"}`, false},
		{"plot", `{"tool":"plot","chart":"bar","x":"Product","y":"Sales"}`, false},
		{"forecast", `{"tool":"forecast","periods":6,"forecast_filters":{"Region":"North"}}`, false},
		{"empty", ``, true},
		{"not json", `df['Sales'].sum()`, true},
		{"unknown field", `{"tool":"query","op":"count","exec":"rm -rf /"}`, true},
		{"trailing data", `{"tool":"query","op":"count"} {"tool":"query"}`, true},
		{"unknown tool", `{"tool":"shell"}`, true},
		{"bad agg", `{"column":"Sales","agg":"product"}`, true},
		{"bad filter op", `{"op":"count","filters":[{"column":"Sales","op":"~","value":1}]}`, true},
		{"in needs list", `{"op":"count","filters":[{"column":"Region","op":"in","value":"North"}]}`, true},
		{"plot without y", `{"tool":"plot","chart":"bar","x":"Product"}`, true},
		{"bad chart", `{"tool":"plot","chart":"pie","x":"Product","y":"Sales"}`, true},
		{"negative limit", `{"op":"rows","limit":-1}`, true},
		{"bad derive op", `{"op":"count","derive":{"name":"x","left":"Sales","op":"^","right":2}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.expr)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsExecution(err))
				var evalErr *EvalError
				assert.True(t, errors.As(err, &evalErr))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestScalarAnswers(t *testing.T) {
	f := sample(t)
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"total sales", `{"tool":"query","op":"aggregate","column":"Sales","agg":"sum"}`, "1244"},
		{"month filter", `{"op":"aggregate","column":"Sales","agg":"sum","filters":[{"column":"Month","op":"==","value":"2023-02"}]}`, "822"},
		{"numeric filter", `{"op":"count","filters":[{"column":"Sales","op":">","value":200}]}`, "3"},
		{"in filter", `{"op":"count","filters":[{"column":"Region","op":"in","value":["North"]}]}`, "4"},
		{"contains filter", `{"op":"count","filters":[{"column":"Product","op":"contains","value":"widg"}]}`, "4"},
		{"month range", `{"op":"count","filters":[{"column":"Month","op":">=","value":"2023-02"}]}`, "4"},
		{"not equal", `{"op":"count","filters":[{"column":"Region","op":"!=","value":"North"}]}`, "4"},
		{"mean", `{"column":"Customer Satisfaction","agg":"mean","filters":[{"column":"Region","op":"==","value":"South"}]}`, "3.625"},
		{"nunique on text", `{"column":"Product","agg":"nunique"}`, "2"},
		{"derived column", `{"column":"Sales per Unit","agg":"max","derive":{"name":"Sales per Unit","left":"Sales","op":"/","right":"Units Sold"}}`, "10.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := run(t, f, tt.expr)
			require.NoError(t, err)
			assert.Equal(t, KindScalar, v.Kind())
			assert.Equal(t, tt.want, v.String())
		})
	}
	assert.False(t, f.HasColumn("Sales per Unit"))
}

func TestScalarKeepsFullPrecision(t *testing.T) {
	f, err := dataset.ReadCSV(strings.NewReader(
		"Month,Region,Product,Sales,Units Sold,Customer Satisfaction\n" +
			"2024-01-01,North,Widget,100,10,4\n" +
			"2024-02-01,North,Widget,200,20,4\n" +
			"2024-03-01,North,Widget,300,30,3\n"))
	require.NoError(t, err)

	v, err := run(t, f, `{"tool":"query","op":"aggregate","column":"Customer Satisfaction","agg":"mean"}`)
	require.NoError(t, err)
	assert.Equal(t, KindScalar, v.Kind())
	assert.Equal(t, "3.6666666666666665", v.String())

	v, err = run(t, f, `{"column":"Sales","agg":"sum"}`)
	require.NoError(t, err)
	assert.Equal(t, "600", v.String())
}

func TestTableAnswers(t *testing.T) {
	f := sample(t)

	v, err := run(t, f, `{"op":"aggregate","column":"Sales","agg":"sum","group_by":["Region"],"sort":"desc"}`)
	require.NoError(t, err)
	require.Equal(t, KindTable, v.Kind())
	table := v.(TableValue).Table
	assert.Equal(t, []string{"Region", "Sales"}, table.Columns)
	assert.Equal(t, [][]string{{"South", "642"}, {"North", "602"}}, table.Rows)
	assert.Equal(t, "Region  Sales\n South    642\n North    602", v.String())

	v, err = run(t, f, `{"op":"top","column":"Sales","limit":2,"columns":["Region","Product","Sales"]}`)
	require.NoError(t, err)
	table = v.(TableValue).Table
	assert.Equal(t, [][]string{{"South", "Widget", "211"}, {"South", "Gadget", "210"}}, table.Rows)

	v, err = run(t, f, `{"op":"unique","column":"Region"}`)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"North"}, {"South"}}, v.(TableValue).Table.Rows)

	v, err = run(t, f, `{"op":"rows","limit":3}`)
	require.NoError(t, err)
	assert.Len(t, v.(TableValue).Table.Rows, 3)
}

func TestEvalErrors(t *testing.T) {
	f := sample(t)
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"unknown column", `{"column":"Profit","agg":"sum"}`, "column 'Profit' does not exist"},
		{"text mean", `{"column":"Region","agg":"mean"}`, "cannot compute mean of column 'Region': it is not numeric"},
		{"text ordering", `{"op":"count","filters":[{"column":"Region","op":">","value":"N"}]}`, "operator > needs a numeric or date column, 'Region' holds text"},
		{"bad number", `{"op":"count","filters":[{"column":"Sales","op":">","value":"lots"}]}`, `filter value "lots" for column 'Sales' is not a number`},
		{"unknown filter column", `{"op":"count","filters":[{"column":"Country","op":"==","value":"Peru"}]}`, "column 'Country' does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, f, tt.expr)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrExecution))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestForecastPlanCallsTool(t *testing.T) {
	stub := &stubTools{}
	plan, err := Parse(`{"tool":"forecast","target_column":"Units Sold","periods":6,"forecast_filters":{"Region":"North","Product":"Widget"}}`)
	require.NoError(t, err)

	v, err := NewEvaluator(stub).Eval(context.Background(), sample(t), plan)
	require.NoError(t, err)
	assert.Equal(t, KindScalar, v.Kind())
	assert.Equal(t, "forecast text", v.String())
	assert.Equal(t, "Units Sold", stub.target)
	assert.Equal(t, 6, stub.periods)
	assert.Equal(t, tools.Filters{{Column: "Region", Value: "North"}, {Column: "Product", Value: "Widget"}}, stub.filters)
}

func TestPlotPlan(t *testing.T) {
	stub := &stubTools{}
	plan, err := Parse(`{"tool":"plot","chart":"line","x":"Month","y":"Sales","title":"Monthly sales"}`)
	require.NoError(t, err)

	v, err := NewEvaluator(stub).Eval(context.Background(), sample(t), plan)
	require.NoError(t, err)
	require.Equal(t, KindPlot, v.Kind())
	assert.Equal(t, "aW1n", v.(PlotValue).Image)

	assert.Equal(t, chart.KindLine, stub.spec.Kind)
	assert.Equal(t, "Monthly sales", stub.spec.Title)
	require.Len(t, stub.spec.Series, 1)
	assert.Equal(t, []string{"2023-01", "2023-02"}, stub.spec.Series[0].Categories)
	assert.Equal(t, []float64{422, 822}, stub.spec.Series[0].Y)
}

func TestPlotWithRealRenderer(t *testing.T) {
	plan, err := Parse(`{"tool":"plot","chart":"bar","x":"Product","y":"Sales","agg":"mean"}`)
	require.NoError(t, err)
	v, err := NewEvaluator(tools.NewRegistry()).Eval(context.Background(), sample(t), plan)
	require.NoError(t, err)
	assert.NotEmpty(t, v.(PlotValue).Image)
	assert.Equal(t, "image/png", v.(PlotValue).MIME)
}

func TestEvalCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plan, err := Parse(`{"op":"count"}`)
	require.NoError(t, err)
	_, err = NewEvaluator(&stubTools{}).Eval(ctx, sample(t), plan)
	assert.True(t, errors.IsExecution(err))
}
