package tools

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"sales-dashboard/dataset"
)

// Forecast defaults.
const (
	DefaultTarget  = dataset.ColSales
	DefaultPeriods = 3
	// MinHistory is the number of monthly periods needed before forecasting.
	MinHistory = 12
	// maxPeriods bounds how far ahead a forecast may reach.
	maxPeriods = 60
)

// Forecast projects the monthly totals of target for the next periods months.
// The answer is always user-facing text: failures are reported as messages
// starting with "Error:" instead of Go errors.
func Forecast(f *dataset.Frame, target string, periods int, filters Filters) string {
	if target == "" {
		target = DefaultTarget
	}
	if periods <= 0 {
		periods = DefaultPeriods
	}

	subset := f
	for _, filter := range filters {
		col, ok := subset.Column(filter.Column)
		if !ok {
			return fmt.Sprintf("Error: Cannot filter by '%s' as it does not exist.", filter.Column)
		}
		value := filter.Value
		subset = subset.Filter(func(i int) bool { return col.Matches(i, value) })
	}
	if subset.Len() == 0 {
		return fmt.Sprintf("Error: No data found for the specified filters %s.", filtersRepr(filters))
	}

	month, ok := subset.Column(dataset.ColMonth)
	if !ok || month.Kind() != dataset.KindTime {
		return "Error: Forecasting requires a datetime 'Month' column."
	}

	months, totals, err := monthlyTotals(subset, month, target)
	if err != nil {
		return fmt.Sprintf("Error: Failed to generate forecast. Details: %v", err)
	}
	if len(totals) < MinHistory {
		return "Error: Not enough historical data (at least 12 months required) to generate a reliable forecast for the given filters."
	}
	if periods > maxPeriods {
		return fmt.Sprintf("Error: Failed to generate forecast. Details: at most %d periods can be forecast", maxPeriods)
	}

	model, err := fitARIMA111(totals)
	if err != nil {
		return fmt.Sprintf("Error: Failed to generate forecast. Details: %v", err)
	}
	predicted := model.forecast(periods)

	table := dataset.Table{
		Columns: []string{"Forecasted Month", "Predicted " + target},
		Rows:    make([][]string, periods),
	}
	last := months[len(months)-1]
	for i, v := range predicted {
		table.Rows[i] = []string{
			last.AddDate(0, i+1, 0).Format(dataset.YearMonthLayout),
			strconv.FormatFloat(v, 'f', 2, 64),
		}
	}

	filterStr := ""
	if len(filters) > 0 {
		filterStr = " for " + filters.String()
	}
	return fmt.Sprintf("Here is the forecast for the next %d months%s:\n\n%s", periods, filterStr, table.String())
}

func filtersRepr(filters Filters) string {
	if filters == nil {
		return "None"
	}
	return filters.String()
}

// monthlyTotals sums target per calendar month over the full span of the
// subset. Months without rows contribute a total of 0.
func monthlyTotals(f *dataset.Frame, month *dataset.Column, target string) ([]time.Time, []float64, error) {
	values, err := f.Values(target, f.AllRows())
	if err != nil {
		return nil, nil, err
	}
	sums := make(map[time.Time]float64)
	var first, last time.Time
	for i, v := range values {
		t := month.Time(i)
		if t.IsZero() {
			continue
		}
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		if first.IsZero() || start.Before(first) {
			first = start
		}
		if last.IsZero() || start.After(last) {
			last = start
		}
		if !math.IsNaN(v) {
			sums[start] += v
		}
	}
	if first.IsZero() {
		return nil, nil, fmt.Errorf("column %q has no dates", dataset.ColMonth)
	}
	var months []time.Time
	var totals []float64
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
		totals = append(totals, sums[m])
	}
	return months, totals, nil
}
