package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/0xSandiem/peek-api/internal/repository"
	"github.com/0xSandiem/peek-api/internal/storage"
)

func (h HandlerSet) GetOriginalImage(c *gin.Context) {
	data, contentType, err := h.resultService.GetOriginal(c.Request.Context(), c.Param("id"))
	h.serveImage(c, data, contentType, err)
}

// GetAnnotatedImage serves the derived artifact; 404 until the renderer has
// produced one, or forever when rendering was skipped for a face-less image.
func (h HandlerSet) GetAnnotatedImage(c *gin.Context) {
	data, contentType, err := h.resultService.GetAnnotated(c.Request.Context(), c.Param("id"))
	h.serveImage(c, data, contentType, err)
}

func (h HandlerSet) serveImage(c *gin.Context, data []byte, contentType string, err error) {
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) || errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		h.log.Error().Err(err).Msg("serve image failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Data(http.StatusOK, contentType, data)
}
