package handlers

import (
	"net/http"
	"strings"

	"sales-dashboard/errors"
	"sales-dashboard/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExecutionFailedMessage is the detail of a chat request whose plan failed.
const ExecutionFailedMessage = "Error executing the request."

// Chat answers a question about the current dataset.
func (h *Handler) Chat(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondWithClientError(c, http.StatusBadRequest, "Message cannot be empty.")
		return
	}

	res, err := h.chat.Run(c.Request.Context(), req.Message)
	if err != nil {
		if respondNoData(c, err) {
			return
		}
		switch {
		case errors.IsExecution(err):
			respondWithError(c, http.StatusInternalServerError, err, ExecutionFailedMessage,
				zap.String("remediation", res.Text))
		case errors.IsInvalidInput(err):
			respondWithClientError(c, http.StatusBadRequest, "Message cannot be empty.")
		default:
			respondWithError(c, http.StatusInternalServerError, err, ExecutionFailedMessage)
		}
		return
	}

	if res.IsPlot() {
		c.JSON(http.StatusOK, types.ChatResponse{Type: types.AnswerPlot, Image: res.Image})
		return
	}
	c.JSON(http.StatusOK, types.ChatResponse{Type: types.AnswerText, Answer: res.Text})
}

// History lists the conversation about the current dataset.
func (h *Handler) History(c *gin.Context) {
	turns, err := h.chat.History(c.Request.Context())
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Failed to load the conversation.")
		return
	}
	c.JSON(http.StatusOK, types.HistoryResponse{Messages: turns})
}
