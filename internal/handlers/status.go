package handlers

import (
	"errors"
	"net/http"

	"gluco_watch/internal/service"

	"github.com/gin-gonic/gin"
)

const statusOK = "ok"

func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error) {
	if h.log != nil && err != nil {
		h.log.Errorw(logKey, "err", err)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Latest reading
// @Description  The document last written to users/{identity}.
// @Tags         readings
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/readings/latest [get]
// @Security     BearerAuth
func (h *Handler) getLatestReading(c *gin.Context) {
	doc, err := h.services.Monitoring.Latest(c.Request.Context())
	switch {
	case errors.Is(err, service.ErrNoIdentity), errors.Is(err, service.ErrNoReading):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load reading", "latest_reading_failed", err)
	default:
		c.JSON(http.StatusOK, doc)
	}
}

// @Summary      Poller status
// @Tags         system
// @Produce      json
// @Success      200  {object}  service.LoopStatus
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.Status())
}
