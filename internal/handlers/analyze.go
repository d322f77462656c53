package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/0xSandiem/peek-api/internal/media/sniffer"
	"github.com/0xSandiem/peek-api/internal/service"
)

type submitResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Analyze accepts a multipart image upload, validates it synchronously and
// enqueues the analysis job. Returns 202 with the job id on success.
func (h HandlerSet) Analyze(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image file provided"})
		return
	}
	defer file.Close()

	if header.Size > h.cfg.Pipeline.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.Pipeline.MaxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}

	record, err := h.submitService.Submit(
		c.Request.Context(),
		data,
		header.Filename,
		sniffer.MimeTypeFromHTTP(http.Header(header.Header)),
	)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Msg})
			return
		}
		h.log.Error().Err(err).Msg("submit failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusAccepted, submitResponse{
		ID:        record.ID,
		Status:    string(record.Status),
		CreatedAt: record.CreatedAt,
	})
}
