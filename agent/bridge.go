package agent

import (
	"context"
	"regexp"
	"strings"
	"time"

	"sales-dashboard/dataset"
	"sales-dashboard/history"
	"sales-dashboard/prompts"
	"sales-dashboard/tools"

	"go.uber.org/zap"
)

const (
	// ErrorMarker prefixes every answer the bridge produces instead of a plan.
	ErrorMarker = "Error:"

	// FallbackSentinel is what the model is told to return for questions it
	// cannot map onto the dataset.
	FallbackSentinel = "Error: I cannot answer that question with the available data. Please try rephrasing."

	notAvailable = "N/A"

	// maxSamples bounds how many distinct values of a text column go into the prompt.
	maxSamples = 10
)

// Completer turns a prompt into model text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Bridge asks the language model for a query plan.
type Bridge struct {
	llm     Completer
	tools   []tools.Tool
	timeout time.Duration
	logger  *zap.Logger
}

func NewBridge(llm Completer, registry *tools.Registry, timeout time.Duration, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{llm: llm, tools: registry.Tools(), timeout: timeout, logger: logger}
}

// GenerateExpression returns a single-line plan for the last user turn in
// turns, or a string starting with ErrorMarker. It never fails.
func (b *Bridge) GenerateExpression(ctx context.Context, f *dataset.Frame, turns []history.Turn) string {
	prompt, err := b.BuildPrompt(f, turns)
	if err != nil {
		b.logger.Error("Failed to build query plan prompt", zap.Error(err))
		return "Error: LLM failed to generate code. " + err.Error()
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := b.llm.Complete(ctx, prompt)
	if err != nil {
		b.logger.Error("LLM plan generation failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return "Error: LLM failed to generate code. " + err.Error()
	}

	expr := CleanExpression(raw)
	if expr == "" {
		b.logger.Warn("LLM returned an empty plan")
		return FallbackSentinel
	}
	b.logger.Debug("Generated query plan", zap.String("plan", expr), zap.Duration("elapsed", time.Since(start)))
	return expr
}

// BuildPrompt renders the plan prompt for f and the conversation so far.
func (b *Bridge) BuildPrompt(f *dataset.Frame, turns []history.Turn) (string, error) {
	data := prompts.QueryPlanData{
		Aggregations:  dataset.Aggregations,
		LatestMonth:   notAvailable,
		PreviousMonth: notAvailable,
		History:       FormatHistory(turns),
		Fallback:      FallbackSentinel,
	}
	for _, t := range b.tools {
		data.Tools = append(data.Tools, prompts.Tool{Name: t.Name, Description: t.Description})
	}
	for _, name := range f.Columns() {
		c, _ := f.Column(name)
		col := prompts.Column{Name: name, Kind: c.Kind().String()}
		if c.Kind() == dataset.KindString {
			col.Samples = c.Distinct(maxSamples)
		}
		data.Columns = append(data.Columns, col)
	}
	months := f.YearMonths()
	if n := len(months); n > 0 {
		data.LatestMonth = months[n-1]
		if n > 1 {
			data.PreviousMonth = months[n-2]
		}
	}
	return prompts.QueryPlan(data)
}

// FormatHistory renders turns as "User:" and "Assistant:" lines.
func FormatHistory(turns []history.Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		if t.Role == history.RoleUser {
			sb.WriteString("User: ")
		} else {
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(t.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

var (
	fenceRegex   = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	langTagRegex = regexp.MustCompile(`(?i)^(json|python)\s+`)
	quoteFixer   = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")
)

// CleanExpression strips code fences, language tags and typographic quotes
// from model output.
func CleanExpression(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fenceRegex.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = strings.Trim(s, "`")
	s = strings.TrimSpace(s)
	s = langTagRegex.ReplaceAllString(s, "")
	s = quoteFixer.Replace(s)
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `"`+ErrorMarker) && strings.HasSuffix(s, `"`) && len(s) > 1 {
		s = strings.Trim(s, `"`)
	}
	return s
}
