package handlers

import (
	"bytes"
	"net/http"

	"sales-dashboard/report"
	"sales-dashboard/web/middleware"

	"github.com/gin-gonic/gin"
)

const pdfFilename = "dashboard_report.pdf"

func (h *Handler) buildReport(c *gin.Context) (*report.Report, bool) {
	ctx := c.Request.Context()
	f, err := h.datasets.Current(ctx)
	if err != nil {
		if !respondNoData(c, err) {
			respondWithError(c, http.StatusInternalServerError, err, "Failed to load the dataset.")
		}
		return nil, false
	}
	d, err := h.dashboardFor(ctx, f)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Failed to build the report.")
		return nil, false
	}
	r, err := report.Build(f, d.kpis, d.summary, d.specs, middleware.Logger(c))
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Failed to build the report.")
		return nil, false
	}
	return r, true
}

// ExportPDF downloads the dashboard as a PDF report.
func (h *Handler) ExportPDF(c *gin.Context) {
	r, ok := h.buildReport(c)
	if !ok {
		return
	}
	data, err := r.PDF()
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Failed to generate the PDF.")
		return
	}
	c.Header("Content-Disposition", "attachment;filename="+pdfFilename)
	c.Data(http.StatusOK, "application/pdf", data)
}

// ReportPreview shows the report as an HTML page.
func (h *Handler) ReportPreview(c *gin.Context) {
	r, ok := h.buildReport(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := r.RenderHTML(c.Request.Context(), &buf); err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Failed to render the report.")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
