package handlers

import (
	"context"
	"strings"
	"time"

	"sales-dashboard/agent"
	"sales-dashboard/chart"
	"sales-dashboard/dataset"
	"sales-dashboard/errors"
	"sales-dashboard/insights"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"go.uber.org/zap"
)

// Summarizer writes the dashboard's executive summary.
type Summarizer interface {
	Summarize(ctx context.Context, f *dataset.Frame, kpis insights.KPIs) string
}

type Options struct {
	Chat       *agent.Chat
	Datasets   *dataset.Store
	Summarizer Summarizer
	// CacheTTL is how long dashboard content is reused for an unchanged dataset.
	CacheTTL       time.Duration
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// Handler serves the dashboard API.
type Handler struct {
	chat       *agent.Chat
	datasets   *dataset.Store
	summarizer Summarizer
	cache      *cache.Cache
	maxUpload  int64
	logger     *zap.Logger
}

func New(opts Options) *Handler {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chat:       opts.Chat,
		datasets:   opts.Datasets,
		summarizer: opts.Summarizer,
		cache:      cache.New(ttl, 2*ttl),
		maxUpload:  opts.MaxUploadBytes,
		logger:     logger,
	}
}

// dashboard is everything derived from one dataset for the dashboard and
// the report.
type dashboard struct {
	kpis     insights.KPIs
	specs    []chart.Spec
	charts   map[string]string
	summary  string
	findings insights.Findings
}

// dashboardFor computes the dashboard content of f, reusing a cached copy
// for the same dataset content. KPIs and summary, charts, and findings are
// computed concurrently.
func (h *Handler) dashboardFor(ctx context.Context, f *dataset.Frame) (*dashboard, error) {
	key := f.Fingerprint()
	if cached, ok := h.cache.Get(key); ok {
		return cached.(*dashboard), nil
	}

	d := &dashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		kpis, err := insights.Compute(f)
		if err != nil {
			return errors.WrapError(err, "compute kpis")
		}
		d.kpis = kpis
		if h.summarizer != nil {
			d.summary = h.summarizer.Summarize(gctx, f, kpis)
		}
		return nil
	})
	g.Go(func() error {
		specs, err := chart.Dashboard(f)
		if err != nil {
			return errors.WrapError(err, "build charts")
		}
		charts := make(map[string]string, len(specs))
		for _, s := range specs {
			fig, err := s.Plotly()
			if err != nil {
				return errors.WrapErrorf(err, "encode chart %s", s.ID)
			}
			charts[s.ID] = fig
		}
		d.specs, d.charts = specs, charts
		return nil
	})
	g.Go(func() error {
		findings, err := insights.AnomaliesAndOpportunities(f)
		if err != nil {
			return errors.WrapError(err, "find anomalies")
		}
		d.findings = findings
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !strings.HasPrefix(d.summary, agent.SummaryErrorPrefix) {
		h.cache.SetDefault(key, d)
	}
	return d, nil
}

// invalidate drops every cached dashboard.
func (h *Handler) invalidate() {
	h.cache.Flush()
}
