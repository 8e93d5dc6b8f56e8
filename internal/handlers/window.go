package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"gluco_watch/internal/window"

	"github.com/gin-gonic/gin"
)

const (
	defaultWindowTZ    = 1
	defaultWindowHours = 24
)

// WindowResponse describes a request window in both epoch and readable form.
type WindowResponse struct {
	Start         int64  `json:"start"`
	End           int64  `json:"end"`
	TZOffsetHours int    `json:"tz"`
	StartUTC      string `json:"start_utc"`
	EndUTC        string `json:"end_utc"`
	Token         string `json:"token"`
}

// @Summary      Request window
// @Description  Decodes a status request token, or computes the current one from tz and hours.
// @Tags         system
// @Produce      json
// @Param        token  query  string  false  "Token to decode; takes precedence over tz/hours"
// @Param        tz     query  int     false  "Timezone offset in hours (default 1)"
// @Param        hours  query  int     false  "Window length in hours (default 24)"
// @Success      200  {object}  WindowResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/window [get]
// @Security     BearerAuth
func (h *Handler) getWindow(c *gin.Context) {
	var (
		w   window.Window
		err error
	)
	if token := c.Query("token"); token != "" {
		// gin already unescaped the query value once.
		w, err = window.Decode(url.QueryEscape(token))
	} else {
		tz, terr := intQuery(c, "tz", defaultWindowTZ)
		hours, herr := intQuery(c, "hours", defaultWindowHours)
		if terr != nil || herr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tz and hours must be integers"})
			return
		}
		w, err = window.Compute(time.Now(), tz, hours)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, WindowResponse{
		Start:         w.Start,
		End:           w.End,
		TZOffsetHours: w.TZOffsetHours,
		StartUTC:      time.Unix(w.Start, 0).UTC().Format(time.RFC3339),
		EndUTC:        time.Unix(w.End, 0).UTC().Format(time.RFC3339),
		Token:         w.Encode(),
	})
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
