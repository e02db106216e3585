package chart

import (
	"fmt"
	"math"
	"sort"

	"sales-dashboard/dataset"
)

// SalesPerUnit is the derived efficiency column of the heatmap.
const SalesPerUnit = "Sales per Unit"

// Dashboard builds the seven standard charts, in display order. The frame is
// not modified; derived columns live on a copy.
func Dashboard(f *dataset.Frame) ([]Spec, error) {
	builders := []func(*dataset.Frame) (Spec, error){
		salesByProduct,
		salesByRegion,
		satisfactionVsUnits,
		unitsByRegionProduct,
		avgSatisfactionByProduct,
		salesVsUnits,
		salesEfficiencyHeatmap,
	}
	specs := make([]Spec, 0, len(builders))
	for _, build := range builders {
		spec, err := build(f)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// aggregateBy reduces value per distinct key. With desc set the result is
// ordered by value, largest first; otherwise by key.
func aggregateBy(f *dataset.Frame, key, value, agg string, desc bool) ([]string, []float64, error) {
	groups, err := f.GroupBy(key)
	if err != nil {
		return nil, nil, err
	}
	cats := make([]string, len(groups))
	vals := make([]float64, len(groups))
	for i, g := range groups {
		v, err := f.Values(value, g.Rows)
		if err != nil {
			return nil, nil, err
		}
		if vals[i], err = dataset.Aggregate(agg, v); err != nil {
			return nil, nil, err
		}
		cats[i] = g.Keys[0]
	}
	if desc {
		idx := make([]int, len(cats))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool { return vals[idx[a]] > vals[idx[b]] })
		sc, sv := make([]string, len(idx)), make([]float64, len(idx))
		for i, j := range idx {
			sc[i], sv[i] = cats[j], vals[j]
		}
		cats, vals = sc, sv
	}
	return cats, vals, nil
}

func salesByProduct(f *dataset.Frame) (Spec, error) {
	cats, vals, err := aggregateBy(f, dataset.ColProduct, dataset.ColSales, dataset.AggSum, true)
	if err != nil {
		return Spec{}, err
	}
	return Spec{
		ID:     "sales_by_product",
		Kind:   KindBar,
		Title:  "Total Sales by Product",
		XLabel: "Product Name",
		YLabel: "Total Sales ($)",
		Series: []Series{{Categories: cats, Y: vals}},
	}, nil
}

func salesByRegion(f *dataset.Frame) (Spec, error) {
	cats, vals, err := aggregateBy(f, dataset.ColRegion, dataset.ColSales, dataset.AggSum, true)
	if err != nil {
		return Spec{}, err
	}
	return Spec{
		ID:     "sales_by_region",
		Kind:   KindPie,
		Title:  "Sales Distribution by Region",
		Series: []Series{{Categories: cats, Y: vals}},
		Hole:   0.3,
	}, nil
}

// scatterByProduct emits one series per product of x against y.
func scatterByProduct(f *dataset.Frame, x, y, size string) ([]Series, error) {
	groups, err := f.GroupBy(dataset.ColProduct)
	if err != nil {
		return nil, err
	}
	region, _ := f.Column(dataset.ColRegion)
	series := make([]Series, 0, len(groups))
	for _, g := range groups {
		xs, err := f.Values(x, g.Rows)
		if err != nil {
			return nil, err
		}
		ys, err := f.Values(y, g.Rows)
		if err != nil {
			return nil, err
		}
		s := Series{Name: g.Keys[0], X: xs, Y: ys}
		if size != "" {
			if s.Size, err = f.Values(size, g.Rows); err != nil {
				return nil, err
			}
		}
		if region != nil {
			s.Hover = make([]string, len(g.Rows))
			for i, r := range g.Rows {
				s.Hover[i] = region.Text(r)
			}
		}
		series = append(series, s)
	}
	return series, nil
}

func satisfactionVsUnits(f *dataset.Frame) (Spec, error) {
	series, err := scatterByProduct(f, dataset.ColUnitsSold, dataset.ColSatisfaction, dataset.ColSales)
	if err != nil {
		return Spec{}, err
	}
	return Spec{
		ID:     "satisfaction_vs_units",
		Kind:   KindScatter,
		Title:  "Satisfaction vs. Units Sold",
		XLabel: "Units Sold",
		YLabel: "Customer Satisfaction (1-5)",
		Series: series,
	}, nil
}

func unitsByRegionProduct(f *dataset.Frame) (Spec, error) {
	groups, err := f.GroupBy(dataset.ColRegion, dataset.ColProduct)
	if err != nil {
		return Spec{}, err
	}
	var regions, products []string
	seenRegion, seenProduct := map[string]bool{}, map[string]bool{}
	totals := make(map[[2]string]float64, len(groups))
	for _, g := range groups {
		v, err := f.Values(dataset.ColUnitsSold, g.Rows)
		if err != nil {
			return Spec{}, err
		}
		sum, _ := dataset.Aggregate(dataset.AggSum, v)
		totals[[2]string{g.Keys[0], g.Keys[1]}] = sum
		if !seenRegion[g.Keys[0]] {
			seenRegion[g.Keys[0]] = true
			regions = append(regions, g.Keys[0])
		}
		if !seenProduct[g.Keys[1]] {
			seenProduct[g.Keys[1]] = true
			products = append(products, g.Keys[1])
		}
	}
	sort.Strings(products)

	series := make([]Series, len(products))
	for i, p := range products {
		ys := make([]float64, len(regions))
		for j, r := range regions {
			ys[j] = totals[[2]string{r, p}]
		}
		series[i] = Series{Name: p, Categories: regions, Y: ys}
	}
	return Spec{
		ID:     "units_by_region_product",
		Kind:   KindStackedBar,
		Title:  "Units Sold by Region and Product",
		XLabel: "Region",
		YLabel: "Units Sold",
		Series: series,
	}, nil
}

func avgSatisfactionByProduct(f *dataset.Frame) (Spec, error) {
	cats, vals, err := aggregateBy(f, dataset.ColProduct, dataset.ColSatisfaction, dataset.AggMean, true)
	if err != nil {
		return Spec{}, err
	}
	return Spec{
		ID:     "avg_satisfaction_by_product",
		Kind:   KindBar,
		Title:  "Average Customer Satisfaction by Product",
		XLabel: "Product",
		YLabel: "Average Satisfaction (1-5)",
		Series: []Series{{Categories: cats, Y: vals}},
	}, nil
}

func salesVsUnits(f *dataset.Frame) (Spec, error) {
	series, err := scatterByProduct(f, dataset.ColUnitsSold, dataset.ColSales, "")
	if err != nil {
		return Spec{}, err
	}
	return Spec{
		ID:     "sales_vs_units_scatter",
		Kind:   KindScatter,
		Title:  "Sales vs Units Sold by Product",
		XLabel: "Units Sold",
		YLabel: "Sales ($)",
		Series: series,
	}, nil
}

// WithSalesPerUnit returns a copy of f carrying Sales / Units Sold. A zero
// unit count yields NaN rather than an infinite ratio.
func WithSalesPerUnit(f *dataset.Frame) (*dataset.Frame, error) {
	sales, err := f.Values(dataset.ColSales, f.AllRows())
	if err != nil {
		return nil, err
	}
	units, err := f.Values(dataset.ColUnitsSold, f.AllRows())
	if err != nil {
		return nil, err
	}
	ratio := make([]float64, len(sales))
	for i := range sales {
		if units[i] == 0 {
			ratio[i] = math.NaN()
			continue
		}
		ratio[i] = sales[i] / units[i]
	}
	return f.WithColumn(dataset.NewNumberColumn(SalesPerUnit, ratio))
}

func salesEfficiencyHeatmap(f *dataset.Frame) (Spec, error) {
	derived, err := WithSalesPerUnit(f)
	if err != nil {
		return Spec{}, fmt.Errorf("derive %s: %w", SalesPerUnit, err)
	}
	groups, err := derived.GroupBy(dataset.ColRegion, dataset.ColProduct)
	if err != nil {
		return Spec{}, err
	}

	grid := &Grid{}
	colIdx, rowIdx := map[string]int{}, map[string]int{}
	means := make(map[[2]string]float64, len(groups))
	for _, g := range groups {
		region, product := g.Keys[0], g.Keys[1]
		if _, ok := colIdx[region]; !ok {
			colIdx[region] = len(grid.Columns)
			grid.Columns = append(grid.Columns, region)
		}
		if _, ok := rowIdx[product]; !ok {
			rowIdx[product] = len(grid.Rows)
			grid.Rows = append(grid.Rows, product)
		}
		v, err := derived.Values(SalesPerUnit, g.Rows)
		if err != nil {
			return Spec{}, err
		}
		means[[2]string{region, product}], _ = dataset.Aggregate(dataset.AggMean, v)
	}
	sort.Strings(grid.Rows)
	grid.Z = make([][]float64, len(grid.Rows))
	for i, product := range grid.Rows {
		grid.Z[i] = make([]float64, len(grid.Columns))
		for j, region := range grid.Columns {
			v, ok := means[[2]string{region, product}]
			if !ok {
				v = math.NaN()
			}
			grid.Z[i][j] = v
		}
	}
	return Spec{
		ID:     "sales_efficiency_heatmap",
		Kind:   KindHeatmap,
		Title:  "Sales Efficiency (Sales per Unit Sold) by Region and Product",
		XLabel: "Region",
		YLabel: "Product",
		ZLabel: "Sales per Unit Sold ($)",
		Grid:   grid,
	}, nil
}
