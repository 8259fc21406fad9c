package handlers

import (
	"errors"
	"net/http"
	"time"

	"wan_failover/internal/models"
	"wan_failover/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errSetMode   = "failed to set mode"
	errGetStatus = "failed to load status"
	errGetEvents = "failed to load events"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"success": false, "error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List control modes
// @Tags         control
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /modes [get]
func (h *Handler) getModes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"modes": models.ModeOptions(),
	})
}

// @Summary      Set control mode
// @Description  Forces the plug on/off or returns it to automatic control.
// @Tags         control
// @Produce      json
// @Param        mode   query  string  true  "auto | on | off"
// @Param        token  query  string  true  "API token"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      429  {object}  map[string]string
// @Router       /control [get]
func (h *Handler) control(c *gin.Context) {
	mode := c.Query("mode")

	st, err := h.services.Control.SetMode(c.Request.Context(), mode)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMode) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errSetMode, "set_mode_failed", err, "mode", mode)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"mode":    st.Mode,
		"message": "Successfully set mode to '" + st.Mode + "'",
		"status":  st,
	})
}

// @Summary      Current status
// @Tags         control
// @Produce      json
// @Param        token  query  string  true  "API token"
// @Success      200  {object}  models.MonitorState
// @Failure      401  {object}  map[string]string
// @Failure      429  {object}  map[string]string
// @Router       /status [get]
func (h *Handler) getStatus(c *gin.Context) {
	st, err := h.services.Status.GetStatus(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "get_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Event history
// @Description  Relay transitions and mode changes, filterable by time range and type.
// @Tags         control
// @Produce      json
// @Param        token  query  string  true   "API token"
// @Param        from   query  string  false  "RFC3339 lower bound"
// @Param        to     query  string  false  "RFC3339 upper bound"
// @Param        type   query  string  false  "RELAY_ON | RELAY_OFF | MODE_CHANGE | ERROR"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /events [get]
func (h *Handler) getEvents(c *gin.Context) {
	var f service.LogFilter
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid from: " + err.Error()})
			return
		}
		f.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid to: " + err.Error()})
			return
		}
		f.To = t
	}
	f.Type = c.Query("type")

	events, err := h.services.EventLog.List(c.Request.Context(), f)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetEvents, "get_events_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
