package agent

import (
	"context"
	"strings"
	"sync"
	"time"

	"sales-dashboard/dataset"
	"sales-dashboard/errors"
	"sales-dashboard/history"
	"sales-dashboard/query"

	"go.uber.org/zap"
)

// ExpressionGenerator produces a query plan, or an ErrorMarker answer, for
// the latest turn of a conversation.
type ExpressionGenerator interface {
	GenerateExpression(ctx context.Context, f *dataset.Frame, turns []history.Turn) string
}

// Chat answers questions about the current dataset and owns the
// conversation that goes with it. Runs are serialized: the dataset and the
// history are shared by every request of the process.
type Chat struct {
	mu        sync.Mutex
	datasets  *dataset.Store
	history   history.Store
	generator ExpressionGenerator
	evaluator *query.Evaluator
	window    int
	logger    *zap.Logger
}

func NewChat(datasets *dataset.Store, hist history.Store, generator ExpressionGenerator, evaluator *query.Evaluator, window int, logger *zap.Logger) *Chat {
	if window <= 0 {
		window = history.DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chat{
		datasets:  datasets,
		history:   hist,
		generator: generator,
		evaluator: evaluator,
		window:    window,
		logger:    logger,
	}
}

// Run answers message. It fails with errors.ErrNotFound when no dataset has
// been uploaded, and with an error matching errors.ErrExecution when the plan
// could not be evaluated; in that case the remediation text is recorded in
// the history and returned in the Result.
func (c *Chat) Run(ctx context.Context, message string) (Result, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Result{}, errors.WrapError(errors.ErrInvalidInput, "message is empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	frame, err := c.datasets.Current(ctx)
	if err != nil {
		return Result{}, err
	}

	if err := c.history.Append(ctx, history.NewTurn(history.RoleUser, message)); err != nil {
		return Result{}, errors.WrapError(err, "failed to record message")
	}
	turns, err := c.history.LastN(ctx, c.window)
	if err != nil {
		return Result{}, errors.WrapError(err, "failed to read history")
	}

	expr := c.generator.GenerateExpression(ctx, frame, turns)
	if strings.HasPrefix(expr, ErrorMarker) {
		c.logger.Info("Model declined to produce a plan", zap.String("answer", expr))
		res := Result{Kind: query.KindScalar, Text: expr, BridgeError: true}
		return res, c.record(ctx, res)
	}

	start := time.Now()
	value, err := c.execute(ctx, frame, expr)
	if err != nil {
		c.logger.Warn("Query plan failed",
			zap.String("plan", expr),
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)))
		res := Result{Kind: query.KindScalar, Text: remediation(err)}
		if recErr := c.record(ctx, res); recErr != nil {
			c.logger.Error("Failed to record remediation", zap.Error(recErr))
		}
		return res, errors.WrapError(errors.ErrExecution, err.Error())
	}

	res := classify(value)
	c.logger.Info("Query plan executed",
		zap.String("plan", expr),
		zap.Stringer("kind", res.Kind),
		zap.Duration("elapsed", time.Since(start)))
	return res, c.record(ctx, res)
}

func (c *Chat) execute(ctx context.Context, frame *dataset.Frame, expr string) (query.Value, error) {
	plan, err := query.Parse(expr)
	if err != nil {
		return nil, err
	}
	return c.evaluator.Eval(ctx, frame, plan)
}

func (c *Chat) record(ctx context.Context, res Result) error {
	if err := c.history.Append(ctx, history.NewTurn(history.RoleAssistant, res.historyText())); err != nil {
		return errors.WrapError(err, "failed to record answer")
	}
	return nil
}

// ReplaceDataset makes f the current dataset and starts a new conversation.
func (c *Chat) ReplaceDataset(ctx context.Context, f *dataset.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.datasets.SetCurrent(ctx, f); err != nil {
		return err
	}
	if err := c.history.Clear(ctx); err != nil {
		return errors.WrapError(err, "failed to clear history")
	}
	c.logger.Info("Conversation cleared for new dataset")
	return nil
}

// History returns every recorded turn.
func (c *Chat) History(ctx context.Context) ([]history.Turn, error) {
	return c.history.All(ctx)
}
