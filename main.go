package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"sales-dashboard/agent"
	"sales-dashboard/chart"
	"sales-dashboard/config"
	"sales-dashboard/database"
	"sales-dashboard/dataset"
	"sales-dashboard/errors"
	"sales-dashboard/history"
	"sales-dashboard/insights"
	"sales-dashboard/llmclient"
	"sales-dashboard/query"
	"sales-dashboard/report"
	"sales-dashboard/tools"
	"sales-dashboard/utils"
	"sales-dashboard/web"
	"sales-dashboard/web/handlers"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		RunE:  runServe,
	}

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Build the dashboard report for a local CSV or XLSX file",
		RunE:  runReport,
	}
	reportCmd.Flags().String("file", "", "dataset to report on (.csv or .xlsx)")
	reportCmd.Flags().String("out", "dashboard_report.pdf", "output file; a .html extension writes the HTML preview")
	reportCmd.Flags().Bool("no-summary", false, "skip the language model executive summary")
	_ = reportCmd.MarkFlagRequired("file")

	root := &cobra.Command{
		Use:           "sales-dashboard",
		Short:         "Sales dashboard backend with natural-language data chat",
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(serveCmd, reportCmd)
	return root
}

// setup loads the configuration and the logger configured by it.
func setup() (*config.Config, *zap.Logger, error) {
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	cfg := config.Load(tempLogger)

	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to re-initialize logger with configured level: %w", err)
	}
	return cfg, logger, nil
}

func newCompleter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (agent.Completer, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return llmclient.NewGemini(ctx, cfg.GoogleAPIKey, cfg.LLMModel, "", logger)
	case config.ProviderOpenAI:
		return llmclient.New(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer config.Cleanup()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var persister dataset.Persister = dataset.NewFilePersister(cfg.DataDir)
	var pg *database.PostgresStore
	if cfg.DatasetDSN != "" {
		pg, err = database.NewPostgresStore(ctx, cfg.DatasetDSN)
		if err != nil {
			logger.Error("Failed to connect to database", zap.Error(err))
			return err
		}
		defer pg.Close()
		persister = pg
		logger.Info("Persisting dataset in Postgres")
	}

	var conversation history.Store = history.NewMemory()
	switch {
	case cfg.HistoryPath != "":
		b, err := history.OpenBadger(cfg.HistoryPath)
		if err != nil {
			logger.Error("Failed to open history store", zap.String("path", cfg.HistoryPath), zap.Error(err))
			return err
		}
		defer b.Close()
		conversation = b
		logger.Info("Keeping conversation history on disk", zap.String("path", cfg.HistoryPath))
	case pg != nil:
		conversation = pg
	}

	completer, err := newCompleter(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize LLM client", zap.Error(err))
		return err
	}

	datasets := dataset.NewStore(persister, logger)
	if f, err := datasets.Current(ctx); err != nil {
		if errors.IsNotFound(err) {
			logger.Info("No persisted dataset found, waiting for an upload")
		} else {
			logger.Warn("Failed to preload persisted dataset", zap.Error(err))
		}
	} else {
		logger.Info("Preloaded persisted dataset", zap.Int("rows", f.Len()))
	}

	registry := tools.NewRegistry()
	bridge := agent.NewBridge(completer, registry, cfg.LLMRequestTimeout, logger)
	chat := agent.NewChat(datasets, conversation, bridge, query.NewEvaluator(registry), cfg.HistoryWindow, logger)
	summarizer, err := agent.NewSummarizer(completer, cfg.SummaryCacheSize, cfg.SummaryMaxWords, cfg.LLMRequestTimeout, logger)
	if err != nil {
		return err
	}

	h := handlers.New(handlers.Options{
		Chat:           chat,
		Datasets:       datasets,
		Summarizer:     summarizer,
		CacheTTL:       cfg.DashboardCacheTTL,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
		Logger:         logger,
	})
	server := web.NewServer(h, logger, cfg)

	addr := fmt.Sprintf(":%d", cfg.WebPort)
	if err := server.Start(ctx, addr); err != nil {
		logger.Error("Web server error", zap.Error(err))
		return err
	}
	return nil
}

func runReport(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("file")
	out, _ := cmd.Flags().GetString("out")
	noSummary, _ := cmd.Flags().GetBool("no-summary")

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer config.Cleanup()
	ctx := cmd.Context()

	if !utils.VerifyFileExists(file) {
		return fmt.Errorf("dataset %q does not exist", file)
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	f, err := dataset.Load(content, filepath.Base(file))
	if err != nil {
		return err
	}

	kpis, err := insights.Compute(f)
	if err != nil {
		return err
	}
	specs, err := chart.Dashboard(f)
	if err != nil {
		return err
	}

	summary := ""
	if !noSummary {
		completer, err := newCompleter(ctx, cfg, logger)
		if err != nil {
			return err
		}
		summarizer, err := agent.NewSummarizer(completer, 1, cfg.SummaryMaxWords, cfg.LLMRequestTimeout, logger)
		if err != nil {
			return err
		}
		summary = summarizer.Summarize(ctx, f, kpis)
	}

	r, err := report.Build(f, kpis, summary, specs, logger)
	if err != nil {
		return err
	}

	dst, err := os.Create(out)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(out), ".html") {
		err = r.RenderHTML(ctx, dst)
	} else {
		err = r.WritePDF(dst)
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	logger.Info("Report written", zap.String("path", out), zap.Int("rows", f.Len()))
	return nil
}
