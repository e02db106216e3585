package query

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"sales-dashboard/chart"
	"sales-dashboard/dataset"
	"sales-dashboard/tools"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Toolset is the set of helpers a plan may call.
type Toolset interface {
	Forecast(f *dataset.Frame, target string, periods int, filters tools.Filters) string
	Plot(spec chart.Spec) (tools.PlotResult, error)
}

// Evaluator runs plans against a dataset. The dataset is only read; derived
// columns are added to a copy.
type Evaluator struct {
	Tools Toolset
}

func NewEvaluator(t Toolset) *Evaluator {
	return &Evaluator{Tools: t}
}

// Eval runs the plan. Every failure is an *EvalError.
func (e *Evaluator) Eval(ctx context.Context, f *dataset.Frame, p *Plan) (Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, evalErrorf("evaluation cancelled: %v", err)
	}
	if p == nil {
		return nil, evalErrorf("no query plan")
	}
	if f == nil {
		return nil, evalErrorf("no dataset")
	}

	frame := f
	if p.Derive != nil {
		var err error
		if frame, err = derive(frame, p.Derive); err != nil {
			return nil, err
		}
	}

	if p.Tool == ToolForecast {
		return ScalarValue{Text: e.Tools.Forecast(frame, p.TargetColumn, p.Periods, p.ForecastFilters)}, nil
	}

	subset, err := applyFilters(frame, p.Filters)
	if err != nil {
		return nil, err
	}
	if p.Tool == ToolPlot {
		return e.plot(subset, p)
	}
	return runQuery(subset, p)
}

func column(f *dataset.Frame, name string) (*dataset.Column, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, evalErrorf("column '%s' does not exist", name)
	}
	return c, nil
}

func numericColumn(f *dataset.Frame, name string) (*dataset.Column, error) {
	c, err := column(f, name)
	if err != nil {
		return nil, err
	}
	if c.Kind() != dataset.KindNumber {
		return nil, evalErrorf("column '%s' is not numeric", name)
	}
	return c, nil
}

func derive(f *dataset.Frame, d *Derive) (*dataset.Frame, error) {
	left, err := numericColumn(f, d.Left)
	if err != nil {
		return nil, err
	}
	right := func(int) float64 { return math.NaN() }
	switch r := d.Right.(type) {
	case float64:
		right = func(int) float64 { return r }
	case string:
		if f.HasColumn(r) {
			rc, err := numericColumn(f, r)
			if err != nil {
				return nil, err
			}
			right = rc.Float
		} else if v, err := strconv.ParseFloat(r, 64); err == nil {
			right = func(int) float64 { return v }
		} else {
			return nil, evalErrorf("column '%s' does not exist", r)
		}
	default:
		return nil, evalErrorf("derive right side must be a column or a number")
	}

	values := make([]float64, f.Len())
	for i := range values {
		a, b := left.Float(i), right(i)
		switch d.Op {
		case "+":
			values[i] = a + b
		case "-":
			values[i] = a - b
		case "*":
			values[i] = a * b
		case "/":
			if b == 0 {
				values[i] = math.NaN()
			} else {
				values[i] = a / b
			}
		}
	}
	out, err := f.WithColumn(dataset.NewNumberColumn(d.Name, values))
	if err != nil {
		return nil, evalErrorf("derive %s: %v", d.Name, err)
	}
	return out, nil
}

func valueString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func applyFilters(f *dataset.Frame, filters []Filter) (*dataset.Frame, error) {
	out := f
	for _, filter := range filters {
		keep, err := predicate(out, filter)
		if err != nil {
			return nil, err
		}
		out = out.Filter(keep)
	}
	return out, nil
}

func predicate(f *dataset.Frame, filter Filter) (func(int) bool, error) {
	c, err := column(f, filter.Column)
	if err != nil {
		return nil, err
	}
	switch filter.Op {
	case "==":
		want := valueString(filter.Value)
		return func(i int) bool { return c.Matches(i, want) }, nil
	case "!=":
		want := valueString(filter.Value)
		return func(i int) bool { return !c.Missing(i) && !c.Matches(i, want) }, nil
	case "in":
		items := filter.Value.([]any)
		wants := make([]string, len(items))
		for j, item := range items {
			wants[j] = valueString(item)
		}
		return func(i int) bool {
			for _, w := range wants {
				if c.Matches(i, w) {
					return true
				}
			}
			return false
		}, nil
	case "contains":
		needle := strings.ToLower(valueString(filter.Value))
		return func(i int) bool {
			return !c.Missing(i) && strings.Contains(strings.ToLower(c.Text(i)), needle)
		}, nil
	}
	return orderPredicate(c, filter)
}

func orderPredicate(c *dataset.Column, filter Filter) (func(int) bool, error) {
	holds := func(cmp int) bool {
		switch filter.Op {
		case ">":
			return cmp > 0
		case ">=":
			return cmp >= 0
		case "<":
			return cmp < 0
		default:
			return cmp <= 0
		}
	}
	raw := valueString(filter.Value)

	switch c.Kind() {
	case dataset.KindNumber:
		want, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, evalErrorf("filter value %q for column '%s' is not a number", raw, c.Name())
		}
		return func(i int) bool {
			v := c.Float(i)
			if math.IsNaN(v) {
				return false
			}
			switch {
			case v < want:
				return holds(-1)
			case v > want:
				return holds(1)
			}
			return holds(0)
		}, nil
	case dataset.KindTime:
		raw = strings.TrimSpace(raw)
		if len(raw) == len(dataset.YearMonthLayout) {
			return func(i int) bool {
				if c.Missing(i) {
					return false
				}
				return holds(strings.Compare(c.Time(i).Format(dataset.YearMonthLayout), raw))
			}, nil
		}
		want, ok := dataset.ParseDate(raw)
		if !ok {
			return nil, evalErrorf("filter value %q for column '%s' is not a date", raw, c.Name())
		}
		return func(i int) bool {
			return !c.Missing(i) && holds(c.Time(i).Compare(want))
		}, nil
	default:
		return nil, evalErrorf("operator %s needs a numeric or date column, '%s' holds text", filter.Op, c.Name())
	}
}

func runQuery(f *dataset.Frame, p *Plan) (Value, error) {
	switch p.Op {
	case OpCount:
		return NumberValue(float64(f.Len())), nil
	case OpAggregate:
		if len(p.GroupBy) > 0 {
			return groupedAggregate(f, p)
		}
		v, err := aggregateRows(f, p.Column, p.Agg, f.AllRows())
		if err != nil {
			return nil, err
		}
		return NumberValue(v), nil
	case OpTop:
		desc := p.Sort != "asc"
		limit := p.Limit
		if limit == 0 {
			limit = DefaultTopLimit
		}
		return sortedRows(f, p.Column, desc, limit, p.Columns)
	case OpUnique:
		c, err := column(f, p.Column)
		if err != nil {
			return nil, err
		}
		values := c.Distinct(0)
		if p.Sort != "" {
			sort.Strings(values)
			if p.Sort == "desc" {
				sort.Sort(sort.Reverse(sort.StringSlice(values)))
			}
		}
		values = limitStrings(values, p.Limit)
		table := dataset.Table{Columns: []string{p.Column}, Rows: make([][]string, len(values))}
		for i, v := range values {
			table.Rows[i] = []string{v}
		}
		return TableValue{Table: table}, nil
	default:
		if p.Column != "" && p.Sort != "" {
			return sortedRows(f, p.Column, p.Sort == "desc", p.Limit, p.Columns)
		}
		return sortedRows(f, "", false, p.Limit, p.Columns)
	}
}

func limitStrings(values []string, limit int) []string {
	if limit > 0 && limit < len(values) {
		return values[:limit]
	}
	return values
}

// aggregateRows reduces one column over rows. Text columns only support
// count and nunique.
func aggregateRows(f *dataset.Frame, name, agg string, rows []int) (float64, error) {
	c, err := column(f, name)
	if err != nil {
		return 0, err
	}
	if c.Kind() != dataset.KindNumber {
		sub := f.Select(rows)
		sc, _ := sub.Column(name)
		switch agg {
		case dataset.AggCount:
			n := 0
			for i := 0; i < sub.Len(); i++ {
				if !sc.Missing(i) {
					n++
				}
			}
			return float64(n), nil
		case dataset.AggNUnique:
			return float64(len(sc.Distinct(0))), nil
		}
		return 0, evalErrorf("cannot compute %s of column '%s': it is not numeric", agg, name)
	}
	values, err := f.Values(name, rows)
	if err != nil {
		return 0, evalErrorf("%v", err)
	}
	v, err := dataset.Aggregate(agg, values)
	if err != nil {
		return 0, evalErrorf("%v", err)
	}
	return v, nil
}

func groupedAggregate(f *dataset.Frame, p *Plan) (Value, error) {
	for _, k := range p.GroupBy {
		if _, err := column(f, k); err != nil {
			return nil, err
		}
	}
	if _, err := column(f, p.Column); err != nil {
		return nil, err
	}
	groups, err := f.GroupBy(p.GroupBy...)
	if err != nil {
		return nil, evalErrorf("%v", err)
	}

	type row struct {
		keys  []string
		value float64
	}
	rows := make([]row, len(groups))
	for i, g := range groups {
		v, err := aggregateRows(f, p.Column, p.Agg, g.Rows)
		if err != nil {
			return nil, err
		}
		rows[i] = row{keys: g.Keys, value: v}
	}
	if p.Sort != "" {
		desc := p.Sort == "desc"
		sort.SliceStable(rows, func(a, b int) bool {
			if desc {
				return rows[a].value > rows[b].value
			}
			return rows[a].value < rows[b].value
		})
	}
	if p.Limit > 0 && p.Limit < len(rows) {
		rows = rows[:p.Limit]
	}
	if len(rows) > MaxRows {
		rows = rows[:MaxRows]
	}

	table := dataset.Table{Columns: append(append([]string{}, p.GroupBy...), p.Column)}
	for _, r := range rows {
		table.Rows = append(table.Rows, append(append([]string{}, r.keys...), FormatScalar(r.value)))
	}
	return TableValue{Table: table}, nil
}

// sortedRows returns the rows of f, ordered by the named column when given,
// limited and projected onto columns.
func sortedRows(f *dataset.Frame, by string, desc bool, limit int, columns []string) (Value, error) {
	order := f.AllRows()
	if by != "" {
		c, err := column(f, by)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(order, func(a, b int) bool {
			ra, rb := order[a], order[b]
			// Missing values stay last in both directions.
			if c.Missing(ra) != c.Missing(rb) {
				return c.Missing(rb)
			}
			cmp := c.Compare(ra, rb)
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if limit <= 0 || limit > MaxRows {
		limit = MaxRows
	}
	if limit < len(order) {
		order = order[:limit]
	}
	out := f.Select(order)

	if len(columns) > 0 {
		cols := make([]*dataset.Column, len(columns))
		for i, name := range columns {
			c, err := column(out, name)
			if err != nil {
				return nil, err
			}
			cols[i] = c
		}
		projected, err := dataset.NewFrame(cols...)
		if err != nil {
			return nil, evalErrorf("%v", err)
		}
		out = projected
	}
	return TableValue{Table: out.ToTable()}, nil
}

// labelGroups groups rows by the x column. Temporal columns are grouped by
// calendar month.
func labelGroups(f *dataset.Frame, x string) ([]string, [][]int, error) {
	c, err := column(f, x)
	if err != nil {
		return nil, nil, err
	}
	if c.Kind() == dataset.KindTime {
		index := map[string]int{}
		var labels []string
		var rows [][]int
		for i := 0; i < f.Len(); i++ {
			if c.Missing(i) {
				continue
			}
			label := c.Time(i).Format(dataset.YearMonthLayout)
			j, ok := index[label]
			if !ok {
				j = len(labels)
				index[label] = j
				labels = append(labels, label)
				rows = append(rows, nil)
			}
			rows[j] = append(rows[j], i)
		}
		order := make([]int, len(labels))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool { return labels[order[a]] < labels[order[b]] })
		sortedLabels := make([]string, len(order))
		sortedRows := make([][]int, len(order))
		for i, j := range order {
			sortedLabels[i], sortedRows[i] = labels[j], rows[j]
		}
		return sortedLabels, sortedRows, nil
	}
	groups, err := f.GroupBy(x)
	if err != nil {
		return nil, nil, evalErrorf("%v", err)
	}
	labels := make([]string, len(groups))
	rows := make([][]int, len(groups))
	for i, g := range groups {
		labels[i], rows[i] = g.Keys[0], g.Rows
	}
	return labels, rows, nil
}

func (e *Evaluator) plot(f *dataset.Frame, p *Plan) (Value, error) {
	spec := chart.Spec{ID: "chat_plot", Title: p.Title, XLabel: p.X, YLabel: p.Y}
	agg := p.Agg
	if agg == "" {
		agg = dataset.AggSum
	}

	switch p.Chart {
	case ChartBar, ChartLine:
		if _, err := numericColumn(f, p.Y); err != nil {
			return nil, err
		}
		labels, groups, err := labelGroups(f, p.X)
		if err != nil {
			return nil, err
		}
		values := make([]float64, len(labels))
		for i, rows := range groups {
			if values[i], err = aggregateRows(f, p.Y, agg, rows); err != nil {
				return nil, err
			}
		}
		if p.Chart == ChartBar && p.Sort != "" {
			idx := make([]int, len(labels))
			for i := range idx {
				idx[i] = i
			}
			desc := p.Sort == "desc"
			sort.SliceStable(idx, func(a, b int) bool {
				if desc {
					return values[idx[a]] > values[idx[b]]
				}
				return values[idx[a]] < values[idx[b]]
			})
			sl, sv := make([]string, len(idx)), make([]float64, len(idx))
			for i, j := range idx {
				sl[i], sv[i] = labels[j], values[j]
			}
			labels, values = sl, sv
		}
		if p.Limit > 0 && p.Limit < len(labels) {
			labels, values = labels[:p.Limit], values[:p.Limit]
		}
		spec.Kind = chart.KindBar
		if p.Chart == ChartLine {
			spec.Kind = chart.KindLine
		}
		if spec.Title == "" {
			spec.Title = fmt.Sprintf("%s of %s by %s", cases.Title(language.English).String(agg), p.Y, p.X)
		}
		spec.Series = []chart.Series{{Name: p.Y, Categories: labels, Y: values}}
	case ChartScatter:
		if _, err := numericColumn(f, p.X); err != nil {
			return nil, err
		}
		if _, err := numericColumn(f, p.Y); err != nil {
			return nil, err
		}
		xs, _ := f.Values(p.X, f.AllRows())
		ys, _ := f.Values(p.Y, f.AllRows())
		spec.Kind = chart.KindScatter
		if spec.Title == "" {
			spec.Title = fmt.Sprintf("%s vs %s", p.Y, p.X)
		}
		spec.Series = []chart.Series{{X: xs, Y: ys}}
	case ChartHist:
		name := p.Y
		if name == "" {
			name = p.X
		}
		if _, err := numericColumn(f, name); err != nil {
			return nil, err
		}
		values, _ := f.Values(name, f.AllRows())
		spec.Kind = chart.KindHist
		spec.XLabel, spec.YLabel = name, "Count"
		if spec.Title == "" {
			spec.Title = "Distribution of " + name
		}
		spec.Series = []chart.Series{{Name: name, Y: values}}
	}

	res, err := e.Tools.Plot(spec)
	if err != nil {
		return nil, evalErrorf("could not draw the chart: %v", err)
	}
	return PlotValue{Image: res.Image, MIME: res.MIME}, nil
}
