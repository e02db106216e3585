package handlers

import (
	"net/http"

	"sales-dashboard/web/types"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Ping(c *gin.Context) {
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, types.MessageResponse{Message: "pong"})
}
