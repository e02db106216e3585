package agent

import "sales-dashboard/query"

// PlotPlaceholder is recorded in the history instead of plot images.
const PlotPlaceholder = "Here is the plot you requested."

// Result is one classified chat answer.
type Result struct {
	Kind query.Kind
	// Text is the answer for scalar and table results.
	Text  string
	Image string
	MIME  string
	// BridgeError marks answers the model returned instead of a plan.
	BridgeError bool
}

// IsPlot reports whether the answer carries an image.
func (r Result) IsPlot() bool { return r.Kind == query.KindPlot }

func classify(v query.Value) Result {
	switch v := v.(type) {
	case query.PlotValue:
		return Result{Kind: query.KindPlot, Image: v.Image, MIME: v.MIME}
	case query.TableValue:
		return Result{Kind: query.KindTable, Text: v.String()}
	default:
		return Result{Kind: query.KindScalar, Text: v.String()}
	}
}

// historyText is what the assistant turn records for r.
func (r Result) historyText() string {
	if r.IsPlot() {
		return PlotPlaceholder
	}
	return r.Text
}

func remediation(cause error) string {
	return "An error occurred: " + cause.Error() + ". I couldn't generate that. Please try rephrasing your request."
}
