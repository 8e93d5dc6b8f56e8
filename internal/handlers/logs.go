package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gluco_watch/internal/models"
	"gluco_watch/internal/service"

	"github.com/gin-gonic/gin"
)

const maxLogLimit = 1000

var (
	errFromInvalid = errors.New("invalid 'from' time; use RFC3339, 'YYYY-MM-DD HH:MM:SS' or YYYY-MM-DD")
	errToInvalid   = errors.New("invalid 'to' time; use RFC3339, 'YYYY-MM-DD HH:MM:SS' or YYYY-MM-DD")
	errLimit       = fmt.Errorf("invalid 'limit'; use an integer between 1 and %d", maxLogLimit)
	errRange       = errors.New("'from' must be <= 'to'")
)

var queryTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// logQuery is the parsed form of the /logs query string.
type logQuery struct {
	filter service.LogFilter
	limit  int // 0 means all
}

// @Summary      Tick history
// @Description  Poller tick events filtered by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD') and type. A date-only 'to' covers the whole day.
// @Tags         logs
// @Produce      json
// @Param        from  query   string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"  example(2025-08-01)
// @Param        to    query   string  false  "End of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). Date-only treated as end of day."  example(2025-08-31)
// @Param        type  query   string  false  "Event type"  Enums(TICK_OK,TICK_FAILED,REAUTH,SETUP_FAILED)
// @Param        limit query   int     false  "Return only the newest N events (1-1000)"
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	q, err := parseLogQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), q.filter)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("tick_log_list_failed", "err", err,
				"from", q.filter.From, "to", q.filter.To, "type", q.filter.Type)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tick history"})
		return
	}

	events = newest(events, q.limit)
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

func parseLogQuery(c *gin.Context) (logQuery, error) {
	var q logQuery
	q.filter.Type = strings.ToUpper(strings.TrimSpace(c.Query("type")))

	if s := c.Query("from"); s != "" {
		t, ok := parseQueryTime(s)
		if !ok {
			return q, errFromInvalid
		}
		q.filter.From = t
	}
	if s := c.Query("to"); s != "" {
		t, ok := parseQueryTime(s)
		if !ok {
			return q, errToInvalid
		}
		if !strings.ContainsAny(s, "T ") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		q.filter.To = t
	}
	if !q.filter.From.IsZero() && !q.filter.To.IsZero() && q.filter.From.After(q.filter.To) {
		return q, errRange
	}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxLogLimit {
			return q, errLimit
		}
		q.limit = n
	}
	return q, nil
}

func parseQueryTime(s string) (time.Time, bool) {
	for _, layout := range queryTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// newest keeps the last n events; the list is ordered oldest first.
func newest(events []models.TickEvent, n int) []models.TickEvent {
	if n > 0 && len(events) > n {
		return events[len(events)-n:]
	}
	return events
}
