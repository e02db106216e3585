package handlers

import (
	"net/http"

	"sales-dashboard/errors"
	"sales-dashboard/web/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NoDataMessage is returned whenever an endpoint needs a dataset and none
// has been uploaded.
const NoDataMessage = "No data has been uploaded yet. Please upload a file first."

// respondWithError logs the technical error and returns a user-friendly message
func respondWithError(c *gin.Context, statusCode int, technicalError error, userMessage string, fields ...zap.Field) {
	fields = append(fields, zap.Error(technicalError), zap.Int("status", statusCode))
	middleware.Logger(c).Error("Request failed", fields...)
	c.JSON(statusCode, gin.H{"error": userMessage})
}

// respondWithClientError returns a client error (no logging needed for validation errors)
func respondWithClientError(c *gin.Context, statusCode int, userMessage string) {
	c.JSON(statusCode, gin.H{"error": userMessage})
}

// respondNoData answers 404 when err says no dataset exists and reports
// whether it did.
func respondNoData(c *gin.Context, err error) bool {
	if !errors.IsNotFound(err) {
		return false
	}
	respondWithClientError(c, http.StatusNotFound, NoDataMessage)
	return true
}
