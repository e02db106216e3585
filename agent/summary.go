package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sales-dashboard/dataset"
	"sales-dashboard/insights"
	"sales-dashboard/prompts"

	lru "github.com/hashicorp/golang-lru"
	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"
)

// SummaryErrorPrefix starts every summary that could not be generated.
const SummaryErrorPrefix = "Error generating summary: "

const sampleRows = 5

// Summarizer writes the dashboard's executive summary. Summaries are cached
// per dataset fingerprint, so a dataset is only summarized once.
type Summarizer struct {
	llm      Completer
	cache    *lru.Cache
	maxWords int
	timeout  time.Duration
	logger   *zap.Logger
}

func NewSummarizer(llm Completer, cacheSize, maxWords int, timeout time.Duration, logger *zap.Logger) (*Summarizer, error) {
	if cacheSize <= 0 {
		cacheSize = 16
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create summary cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{llm: llm, cache: cache, maxWords: maxWords, timeout: timeout, logger: logger}, nil
}

// Summarize returns the executive summary of f. Failures are reported in the
// returned text, prefixed with SummaryErrorPrefix, and are not cached.
func (s *Summarizer) Summarize(ctx context.Context, f *dataset.Frame, kpis insights.KPIs) string {
	key := f.Fingerprint()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(string)
	}

	prompt, err := prompts.ExecutiveSummary(prompts.SummaryData{
		KPIs:     kpis.String(),
		Schema:   schema(f),
		Sample:   f.Head(sampleRows).ToTable().String(),
		MaxWords: s.maxWords,
	})
	if err != nil {
		s.logger.Error("Failed to build summary prompt", zap.Error(err))
		return SummaryErrorPrefix + err.Error()
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	text, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		s.logger.Error("Summary generation failed", zap.Error(err))
		return SummaryErrorPrefix + err.Error()
	}

	summary := s.trim(strings.TrimSpace(text))
	s.cache.Add(key, summary)
	return summary
}

func schema(f *dataset.Frame) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d rows\n", f.Len())
	for _, name := range f.Columns() {
		c, _ := f.Column(name)
		fmt.Fprintf(&sb, "%s: %s\n", name, c.Kind())
	}
	return strings.TrimRight(sb.String(), "\n")
}

// trim cuts text to at most maxWords words, ending on a sentence boundary
// whenever one fits.
func (s *Summarizer) trim(text string) string {
	if s.maxWords <= 0 || len(strings.Fields(text)) <= s.maxWords {
		return text
	}

	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		s.logger.Warn("Sentence segmentation failed, truncating by words", zap.Error(err))
		return truncateWords(text, s.maxWords)
	}

	var kept []string
	words := 0
	for _, sent := range doc.Sentences() {
		n := len(strings.Fields(sent.Text))
		if words+n > s.maxWords {
			break
		}
		kept = append(kept, sent.Text)
		words += n
	}
	if len(kept) == 0 {
		return truncateWords(text, s.maxWords)
	}
	s.logger.Info("Trimmed summary at sentence boundary", zap.Int("words", words))
	return strings.Join(kept, " ")
}

func truncateWords(text string, n int) string {
	fields := strings.Fields(text)
	if len(fields) <= n {
		return text
	}
	return strings.Join(fields[:n], " ")
}
