package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/0xSandiem/peek-api/internal/models"
	"github.com/0xSandiem/peek-api/internal/repository"
)

type resultResponse struct {
	ID       string           `json:"id"`
	Status   string           `json:"status"`
	Reason   string           `json:"reason,omitempty"`
	Insights *models.Insights `json:"insights,omitempty"`
}

// GetResults serves polled insight records: 202 while processing, 200 once
// terminal, 404 for unknown job ids.
func (h HandlerSet) GetResults(c *gin.Context) {
	record, err := h.resultService.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		h.log.Error().Err(err).Msg("get result failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := resultResponse{
		ID:       record.ID,
		Status:   string(record.Status),
		Reason:   record.Reason,
		Insights: record.Insights,
	}

	if record.Status == models.RecordStatusProcessing {
		c.JSON(http.StatusAccepted, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
