package handlers

import (
	"io"
	"net/http"

	"sales-dashboard/dataset"
	"sales-dashboard/errors"
	"sales-dashboard/utils"
	"sales-dashboard/web/middleware"
	"sales-dashboard/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const uploadSuccess = "File uploaded and processed successfully."

// Upload replaces the current dataset with the uploaded CSV or XLSX file and
// starts a new conversation.
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Error processing file: no file provided")
		return
	}

	name, err := utils.ValidateUpload(file.Filename, file.Size, h.maxUpload)
	if err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Error processing file: "+err.Error())
		return
	}

	src, err := file.Open()
	if err != nil {
		respondWithError(c, http.StatusBadRequest, err, "Error processing file: could not read upload")
		return
	}
	defer src.Close()
	content, err := io.ReadAll(src)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, err, "Error processing file: could not read upload")
		return
	}

	frame, err := dataset.Load(content, name)
	if err != nil {
		middleware.Logger(c).Warn("Rejected upload", zap.String("filename", name), zap.Error(err))
		respondWithClientError(c, http.StatusBadRequest, "Error processing file: "+err.Error())
		return
	}

	if err := h.chat.ReplaceDataset(c.Request.Context(), frame); err != nil {
		status := http.StatusInternalServerError
		if errors.IsInvalidInput(err) {
			status = http.StatusBadRequest
		}
		respondWithError(c, status, err, "Error processing file: "+err.Error(), zap.String("filename", name))
		return
	}
	h.invalidate()

	middleware.Logger(c).Info("Dataset uploaded",
		zap.String("filename", name),
		zap.Int("rows", frame.Len()))
	c.JSON(http.StatusOK, types.UploadResponse{
		Message:  uploadSuccess,
		Filename: name,
		Rows:     frame.Len(),
		Columns:  frame.Columns(),
	})
}
