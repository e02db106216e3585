package types

import (
	"sales-dashboard/history"
	"sales-dashboard/insights"
)

// Chat response types.
const (
	AnswerText = "text"
	AnswerPlot = "plot"
)

type ChatRequest struct {
	Message string `json:"message" form:"message"`
}

// ChatResponse carries either a text answer or a base64 PNG image.
type ChatResponse struct {
	Type   string `json:"type"`
	Answer string `json:"answer,omitempty"`
	Image  string `json:"image,omitempty"`
}

type UploadResponse struct {
	Message  string   `json:"message"`
	Filename string   `json:"filename"`
	Rows     int      `json:"rows"`
	Columns  []string `json:"columns"`
}

// DashboardResponse is the dashboard payload. Charts maps chart IDs to
// plotly figure JSON.
type DashboardResponse struct {
	KPIs     insights.KPIs     `json:"kpis"`
	Charts   map[string]string `json:"charts"`
	Summary  string            `json:"summary"`
	Insights insights.Findings `json:"insights"`
}

type HistoryResponse struct {
	Messages []history.Turn `json:"messages"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
