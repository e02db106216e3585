// Package query parses and evaluates the JSON query plans the language model
// writes in answer to a chat message. A plan can only read the current
// dataset and call the registered tools.
package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"sales-dashboard/dataset"
	"sales-dashboard/errors"
	"sales-dashboard/tools"
)

const (
	ToolQuery    = "query"
	ToolPlot     = "plot"
	ToolForecast = "forecast"
)

const (
	OpAggregate = "aggregate"
	OpTop       = "top"
	OpRows      = "rows"
	OpUnique    = "unique"
	OpCount     = "count"
)

const (
	ChartBar     = "bar"
	ChartLine    = "line"
	ChartScatter = "scatter"
	ChartHist    = "hist"
)

// DefaultTopLimit is used by "top" plans that give no limit.
const DefaultTopLimit = 5

// MaxRows caps how many rows a table answer may carry.
const MaxRows = 200

// Plan is one query against the current dataset.
type Plan struct {
	Tool    string   `json:"tool"`
	Op      string   `json:"op,omitempty"`
	Column  string   `json:"column,omitempty"`
	Agg     string   `json:"agg,omitempty"`
	GroupBy []string `json:"group_by,omitempty"`
	Filters []Filter `json:"filters,omitempty"`
	Derive  *Derive  `json:"derive,omitempty"`
	Sort    string   `json:"sort,omitempty"`
	Limit   int      `json:"limit,omitempty"`
	Columns []string `json:"columns,omitempty"`

	Chart string `json:"chart,omitempty"`
	X     string `json:"x,omitempty"`
	Y     string `json:"y,omitempty"`
	Title string `json:"title,omitempty"`

	TargetColumn    string        `json:"target_column,omitempty"`
	Periods         int           `json:"periods,omitempty"`
	ForecastFilters tools.Filters `json:"forecast_filters,omitempty"`
}

// Filter restricts the rows a plan sees. Value is a string or number, or a
// list of them for the "in" operator.
type Filter struct {
	Column string `json:"column"`
	Op     string `json:"op"`
	Value  any    `json:"value"`
}

// Derive adds an arithmetic column, computed on a private copy of the data.
// Right names a column or holds a number.
type Derive struct {
	Name  string `json:"name"`
	Left  string `json:"left"`
	Op    string `json:"op"`
	Right any    `json:"right"`
}

var filterOps = map[string]bool{
	"==": true, "!=": true, ">": true, ">=": true, "<": true, "<=": true,
	"in": true, "contains": true,
}

var deriveOps = map[string]bool{"+": true, "-": true, "*": true, "/": true}

// EvalError is a failure to parse or run a plan. It matches
// errors.ErrExecution.
type EvalError struct {
	Reason string
}

func (e *EvalError) Error() string { return e.Reason }

func (e *EvalError) Is(target error) bool { return target == errors.ErrExecution }

func evalErrorf(format string, args ...any) error {
	return &EvalError{Reason: fmt.Sprintf(format, args...)}
}

// Parse decodes and validates a single JSON plan. Unknown fields are
// rejected.
func Parse(expr string) (*Plan, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, evalErrorf("empty query plan")
	}
	dec := json.NewDecoder(strings.NewReader(expr))
	dec.DisallowUnknownFields()
	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, evalErrorf("invalid query plan: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, evalErrorf("invalid query plan: unexpected data after the plan")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the plan's shape without looking at the data.
func (p *Plan) Validate() error {
	if p.Tool == "" {
		p.Tool = ToolQuery
	}
	for _, f := range p.Filters {
		if f.Column == "" {
			return evalErrorf("filter without a column")
		}
		if !filterOps[f.Op] {
			return evalErrorf("unsupported filter operator %q", f.Op)
		}
		if _, isList := f.Value.([]any); isList != (f.Op == "in") {
			if f.Op == "in" {
				return evalErrorf("filter %q with operator \"in\" needs a list value", f.Column)
			}
			return evalErrorf("filter %q with operator %q needs a single value", f.Column, f.Op)
		}
	}
	if d := p.Derive; d != nil {
		if d.Name == "" || d.Left == "" || d.Right == nil {
			return evalErrorf("derive needs name, left and right")
		}
		if !deriveOps[d.Op] {
			return evalErrorf("unsupported derive operator %q", d.Op)
		}
	}
	if p.Limit < 0 {
		return evalErrorf("limit must not be negative")
	}
	if p.Sort != "" && p.Sort != "asc" && p.Sort != "desc" {
		return evalErrorf("sort must be \"asc\" or \"desc\"")
	}
	if p.Agg != "" && !validAgg(p.Agg) {
		return evalErrorf("unsupported aggregation %q", p.Agg)
	}

	switch p.Tool {
	case ToolQuery:
		return p.validateQuery()
	case ToolPlot:
		return p.validatePlot()
	case ToolForecast:
		if p.Periods < 0 {
			return evalErrorf("periods must not be negative")
		}
		return nil
	default:
		return evalErrorf("unknown tool %q", p.Tool)
	}
}

func (p *Plan) validateQuery() error {
	if p.Op == "" {
		if p.Agg != "" {
			p.Op = OpAggregate
		} else {
			p.Op = OpRows
		}
	}
	switch p.Op {
	case OpAggregate:
		if p.Column == "" || p.Agg == "" {
			return evalErrorf("aggregate needs column and agg")
		}
	case OpTop, OpUnique:
		if p.Column == "" {
			return evalErrorf("%s needs a column", p.Op)
		}
	case OpRows, OpCount:
	default:
		return evalErrorf("unknown op %q", p.Op)
	}
	return nil
}

func (p *Plan) validatePlot() error {
	switch p.Chart {
	case ChartBar, ChartLine, ChartScatter:
		if p.X == "" || p.Y == "" {
			return evalErrorf("%s chart needs x and y", p.Chart)
		}
	case ChartHist:
		if p.X == "" && p.Y == "" {
			return evalErrorf("hist chart needs a column in x or y")
		}
	case "":
		return evalErrorf("plot needs a chart type")
	default:
		return evalErrorf("unsupported chart type %q", p.Chart)
	}
	return nil
}

func validAgg(agg string) bool {
	for _, a := range dataset.Aggregations {
		if a == agg {
			return true
		}
	}
	return false
}

// String renders the plan back to compact JSON.
func (p *Plan) String() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}
