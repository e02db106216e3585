package components

// KPI is one labelled indicator row.
type KPI struct {
	Label string
	Value string
}

// Figure is a chart image addressed by a data or web URL.
type Figure struct {
	ID    string
	Title string
	Src   string
}
