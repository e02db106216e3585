package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"sales-dashboard/agent"
	"sales-dashboard/config"
	"sales-dashboard/dataset"
	"sales-dashboard/dataset/datasettest"
	"sales-dashboard/history"
	"sales-dashboard/query"
	"sales-dashboard/tools"
	"sales-dashboard/web/handlers"
	"sales-dashboard/web/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedLLM answers summary prompts with a fixed summary and every other
// prompt with plan.
type scriptedLLM struct {
	mu   sync.Mutex
	plan string
}

func (s *scriptedLLM) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.Contains(prompt, "Executive Summary:") {
		return "Sales grew every month. **Widget** leads.", nil
	}
	return s.plan, nil
}

func (s *scriptedLLM) setPlan(plan string) {
	s.mu.Lock()
	s.plan = plan
	s.mu.Unlock()
}

func newTestServer(t *testing.T, llm agent.Completer, tweak func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	if tweak != nil {
		tweak(cfg)
	}
	logger := zap.NewNop()
	store := dataset.NewStore(dataset.NewFilePersister(t.TempDir()), logger)
	registry := tools.NewRegistry()
	bridge := agent.NewBridge(llm, registry, time.Second, logger)
	chat := agent.NewChat(store, history.NewMemory(), bridge, query.NewEvaluator(registry), cfg.HistoryWindow, logger)
	summarizer, err := agent.NewSummarizer(llm, cfg.SummaryCacheSize, cfg.SummaryMaxWords, time.Second, logger)
	require.NoError(t, err)

	h := handlers.New(handlers.Options{
		Chat:           chat,
		Datasets:       store,
		Summarizer:     summarizer,
		CacheTTL:       cfg.DashboardCacheTTL,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
		Logger:         logger,
	})
	s := NewServer(h, logger, cfg)
	t.Cleanup(s.Close)
	return s
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, s *Server, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return do(s, req)
}

func chat(s *Server, message string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(types.ChatRequest{Message: message})
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(s, req)
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	msg, _ := body["error"].(string)
	return msg
}

var scenarioCSV = datasettest.CSV(14, []string{"North", "South"}, []string{"Widget", "Gadget"})

func TestPing(t *testing.T) {
	s := newTestServer(t, &scriptedLLM{}, nil)

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(s, httptest.NewRequest(http.MethodHead, "/api/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, &scriptedLLM{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := do(s, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestEndpointsWithoutData(t *testing.T) {
	s := newTestServer(t, &scriptedLLM{plan: `{"tool":"query","op":"count"}`}, nil)

	for _, path := range []string{"/api/dashboard", "/api/export-pdf", "/api/report"} {
		w := do(s, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, handlers.NoDataMessage, errorOf(t, w), path)
	}

	w := chat(s, "how many rows")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadRejectsBadFiles(t *testing.T) {
	s := newTestServer(t, &scriptedLLM{}, nil)

	w := upload(t, s, "notes.txt", "hello")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.HasPrefix(errorOf(t, w), "Error processing file: "))

	w = upload(t, s, "sales.csv", "Month,Region\n2024-01-01,North\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.HasPrefix(errorOf(t, w), "Error processing file: "))

	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	w = do(s, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadAndDashboard(t *testing.T) {
	s := newTestServer(t, &scriptedLLM{}, nil)

	w := upload(t, s, "sales.csv", scenarioCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var up types.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &up))
	assert.Equal(t, "File uploaded and processed successfully.", up.Message)
	assert.Equal(t, 56, up.Rows)

	w = do(s, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var dash types.DashboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	assert.True(t, strings.HasPrefix(dash.KPIs.TotalSales, "$"))
	assert.Equal(t, "Sales grew every month. **Widget** leads.", dash.Summary)
	assert.Len(t, dash.Charts, 7)
	for id, fig := range dash.Charts {
		assert.True(t, json.Valid([]byte(fig)), id)
	}
	assert.Contains(t, dash.Charts, "sales_by_product")
	assert.NotNil(t, dash.Insights.Anomaly)
}

func TestChatFlow(t *testing.T) {
	llm := &scriptedLLM{}
	s := newTestServer(t, llm, nil)
	require.Equal(t, http.StatusOK, upload(t, s, "sales.csv", scenarioCSV).Code)

	w := chat(s, "   ")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	llm.setPlan(`{"tool":"query","op":"count"}`)
	w = chat(s, "how many rows")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"type":"text","answer":"56"}`, w.Body.String())

	llm.setPlan(`{"tool":"plot","chart":"bar","x":"Region","y":"Sales"}`)
	w = chat(s, "Plot sales by region")
	require.Equal(t, http.StatusOK, w.Code)
	var plot types.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plot))
	assert.Equal(t, types.AnswerPlot, plot.Type)
	assert.NotEmpty(t, plot.Image)
	assert.Empty(t, plot.Answer)

	llm.setPlan(`{"tool":"query","op":"aggregate","column":"Profit","agg":"sum"}`)
	w = chat(s, "total profit")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, handlers.ExecutionFailedMessage, errorOf(t, w))

	w = do(s, httptest.NewRequest(http.MethodGet, "/api/chat/history", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var hist types.HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	require.Len(t, hist.Messages, 6)
	assert.Equal(t, agent.PlotPlaceholder, hist.Messages[3].Content)
	assert.True(t, strings.HasPrefix(hist.Messages[5].Content, "An error occurred: "))

	// A new upload starts a new conversation.
	require.Equal(t, http.StatusOK, upload(t, s, "sales.csv", scenarioCSV).Code)
	w = do(s, httptest.NewRequest(http.MethodGet, "/api/chat/history", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	assert.Empty(t, hist.Messages)
}

func TestExportPDFAndReport(t *testing.T) {
	s := newTestServer(t, &scriptedLLM{}, nil)
	require.Equal(t, http.StatusOK, upload(t, s, "sales.csv", scenarioCSV).Code)

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/export-pdf", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment;filename=dashboard_report.pdf", w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = do(s, httptest.NewRequest(http.MethodGet, "/api/report", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<strong>Widget</strong>")
}

func TestChatRateLimit(t *testing.T) {
	llm := &scriptedLLM{plan: `{"tool":"query","op":"count"}`}
	s := newTestServer(t, llm, func(c *config.Config) {
		c.RateLimitBurstSize = 1
		c.RateLimitMessagesPerMin = 1
	})
	require.Equal(t, http.StatusOK, upload(t, s, "sales.csv", scenarioCSV).Code)

	assert.Equal(t, http.StatusOK, chat(s, "how many rows").Code)
	w := chat(s, "how many rows")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}
