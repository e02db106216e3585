// Package prompts holds the language model prompt templates.
package prompts

import (
	_ "embed"
	"strings"
	"text/template"
)

//go:embed query_plan.txt
var queryPlan string

//go:embed executive_summary.txt
var executiveSummary string

var funcs = template.FuncMap{"join": strings.Join}

var (
	queryPlanTmpl        = template.Must(template.New("query_plan").Funcs(funcs).Parse(queryPlan))
	executiveSummaryTmpl = template.Must(template.New("executive_summary").Funcs(funcs).Parse(executiveSummary))
)

// Column describes one dataset column to the model.
type Column struct {
	Name    string
	Kind    string
	Samples []string
}

type Tool struct {
	Name        string
	Description string
}

// QueryPlanData fills the query plan prompt.
type QueryPlanData struct {
	Columns       []Column
	Aggregations  []string
	Tools         []Tool
	LatestMonth   string
	PreviousMonth string
	History       string
	Fallback      string
}

// SummaryData fills the executive summary prompt.
type SummaryData struct {
	KPIs     string
	Schema   string
	Sample   string
	MaxWords int
}

func QueryPlan(d QueryPlanData) (string, error) {
	var b strings.Builder
	if err := queryPlanTmpl.Execute(&b, d); err != nil {
		return "", err
	}
	return b.String(), nil
}

func ExecutiveSummary(d SummaryData) (string, error) {
	var b strings.Builder
	if err := executiveSummaryTmpl.Execute(&b, d); err != nil {
		return "", err
	}
	return b.String(), nil
}
