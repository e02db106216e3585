// Package insights computes the headline figures of a sales dataset.
package insights

import (
	"fmt"
	"math"
	"strings"

	"sales-dashboard/dataset"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// KPIs are the dashboard's key figures, already formatted for display.
type KPIs struct {
	TotalSales          string `json:"total_sales"`
	TotalUnitsSold      string `json:"total_units_sold"`
	AverageSatisfaction string `json:"average_satisfaction"`
}

// Compute derives the KPIs of f. Sums skip missing values.
func Compute(f *dataset.Frame) (KPIs, error) {
	sales, err := f.Values(dataset.ColSales, f.AllRows())
	if err != nil {
		return KPIs{}, err
	}
	units, err := f.Values(dataset.ColUnitsSold, f.AllRows())
	if err != nil {
		return KPIs{}, err
	}
	csat, err := f.Values(dataset.ColSatisfaction, f.AllRows())
	if err != nil {
		return KPIs{}, err
	}

	totalSales, _ := dataset.Aggregate(dataset.AggSum, sales)
	totalUnits, _ := dataset.Aggregate(dataset.AggSum, units)
	avg, _ := dataset.Aggregate(dataset.AggMean, csat)

	p := message.NewPrinter(language.English)
	return KPIs{
		TotalSales:          p.Sprintf("$%.0f", totalSales),
		TotalUnitsSold:      p.Sprintf("%.0f", totalUnits),
		AverageSatisfaction: p.Sprintf("%.2f / 5", avg),
	}, nil
}

// String lists the KPIs one per line, as they are shown to the summary model.
func (k KPIs) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "total_sales: %s\n", k.TotalSales)
	fmt.Fprintf(&sb, "total_units_sold: %s\n", k.TotalUnitsSold)
	fmt.Fprintf(&sb, "average_satisfaction: %s", k.AverageSatisfaction)
	return sb.String()
}

// Record is one dataset row keyed by column name.
type Record map[string]any

// Findings groups rows that stand out. Anomalies sell well but score low on
// satisfaction; opportunities sell well and score high.
type Findings struct {
	Anomaly     []Record `json:"anomaly"`
	Opportunity []Record `json:"opportunity"`
}

// AnomaliesAndOpportunities compares every row against the upper quartile of
// Sales and the lower and upper quartiles of Customer Satisfaction.
func AnomaliesAndOpportunities(f *dataset.Frame) (Findings, error) {
	sales, err := f.Values(dataset.ColSales, f.AllRows())
	if err != nil {
		return Findings{}, err
	}
	csat, err := f.Values(dataset.ColSatisfaction, f.AllRows())
	if err != nil {
		return Findings{}, err
	}

	highSales := dataset.Quantile(sales, 0.75)
	lowCSAT := dataset.Quantile(csat, 0.25)
	highCSAT := dataset.Quantile(csat, 0.75)

	out := Findings{Anomaly: []Record{}, Opportunity: []Record{}}
	for i := range sales {
		if !(sales[i] >= highSales) {
			continue
		}
		if csat[i] <= lowCSAT {
			out.Anomaly = append(out.Anomaly, record(f, i))
		}
		if csat[i] >= highCSAT {
			out.Opportunity = append(out.Opportunity, record(f, i))
		}
	}
	return out, nil
}

func record(f *dataset.Frame, row int) Record {
	r := make(Record, len(f.Columns()))
	for _, name := range f.Columns() {
		c, _ := f.Column(name)
		switch {
		case c.Missing(row):
			r[name] = nil
		case c.Kind() == dataset.KindNumber:
			v := c.Float(row)
			if math.IsInf(v, 0) {
				r[name] = nil
			} else {
				r[name] = v
			}
		case c.Kind() == dataset.KindTime:
			r[name] = c.Time(row).Format(dataset.DateLayout)
		default:
			r[name] = c.Text(row)
		}
	}
	return r
}
