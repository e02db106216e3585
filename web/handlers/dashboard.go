package handlers

import (
	"net/http"

	"sales-dashboard/web/types"

	"github.com/gin-gonic/gin"
)

// Dashboard returns KPIs, chart figures, the executive summary and the
// anomaly/opportunity findings of the current dataset.
func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	f, err := h.datasets.Current(ctx)
	if err != nil {
		if respondNoData(c, err) {
			return
		}
		respondWithError(c, http.StatusInternalServerError, err, "Failed to load the dataset.")
		return
	}

	d, err := h.dashboardFor(ctx, f)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Failed to build the dashboard.")
		return
	}
	c.JSON(http.StatusOK, types.DashboardResponse{
		KPIs:     d.kpis,
		Charts:   d.charts,
		Summary:  d.summary,
		Insights: d.findings,
	})
}
