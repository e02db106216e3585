// Package datasettest builds deterministic sales datasets for tests.
package datasettest

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"sales-dashboard/dataset"
)

// Start is the first month of every generated dataset.
var Start = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// CSV returns a sales CSV with one row per month, region and product. Sales
// grow linearly per month so aggregates are easy to compute by hand:
// Sales = 100*(m+1) + 10*r + p for month m, region index r, product index p.
func CSV(months int, regions, products []string) string {
	var b strings.Builder
	b.WriteString("Month,Region,Product,Sales,Units Sold,Customer Satisfaction\n")
	for m := 0; m < months; m++ {
		month := Start.AddDate(0, m, 0).Format(dataset.DateLayout)
		for r, region := range regions {
			for p, product := range products {
				sales := 100*(m+1) + 10*r + p
				units := 10*(m+1) + r
				csat := 3.0 + float64((m+r+p)%3)*0.5
				fmt.Fprintf(&b, "%s,%s,%s,%d,%d,%.1f\n", month, region, product, sales, units, csat)
			}
		}
	}
	return b.String()
}

// Frame loads CSV(months, regions, products) through the cleaning pipeline.
func Frame(t testing.TB, months int, regions, products []string) *dataset.Frame {
	t.Helper()
	f, err := dataset.ReadCSV(bytes.NewBufferString(CSV(months, regions, products)))
	if err != nil {
		t.Fatalf("build sample frame: %v", err)
	}
	return f
}

// Single is the scenario dataset: 14 months of one region and one product.
func Single(t testing.TB) *dataset.Frame {
	return Frame(t, 14, []string{"North"}, []string{"Widget"})
}
