package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saker-ai/sonar-bridge/internal/metrics"
	"github.com/saker-ai/sonar-bridge/internal/preset"
	"github.com/saker-ai/sonar-bridge/internal/ws"
	"github.com/saker-ai/sonar-bridge/pkg/sonar"
)

type handlers struct {
	ctl        Controller
	hub        *ws.Hub
	metrics    *metrics.Metrics
	presetsDir string
	logger     *zap.Logger
}

var errBadRequest = errors.New("bad request")

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) channels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"channels": sonar.Channels, "sliders": sonar.Sliders})
}

func (h *handlers) getMode(c *gin.Context) {
	streamer, err := h.ctl.IsStreamerMode(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, modeBody(streamer))
}

func (h *handlers) setMode(c *gin.Context) {
	mode, err := sonar.ParseMode(c.Param("mode"))
	if err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	streamer, err := h.ctl.SetStreamerMode(c.Request.Context(), mode.IsStreamer())
	if err != nil {
		h.fail(c, err)
		return
	}
	body := modeBody(streamer)
	h.broadcast(c, ws.EventMode, body)
	c.JSON(http.StatusOK, body)
}

func (h *handlers) getVolume(c *gin.Context) {
	data, err := h.ctl.VolumeData(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	writeRaw(c, data)
}

func (h *handlers) setVolume(c *gin.Context) {
	volume, err := queryFloat(c, "volume")
	if err != nil {
		h.fail(c, err)
		return
	}
	channel := sonar.Channel(c.Param("channel"))
	slider := sonar.Slider(c.Query("slider"))
	data, err := h.ctl.SetVolume(c.Request.Context(), channel, volume, slider)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.broadcast(c, ws.EventVolume, gin.H{"channel": channel, "volume": volume, "slider": slider, "result": data})
	writeRaw(c, data)
}

func (h *handlers) mute(c *gin.Context) {
	raw := c.Query("muted")
	muted, err := strconv.ParseBool(raw)
	if err != nil {
		h.fail(c, fmt.Errorf("%w: muted=%q is not a boolean", errBadRequest, raw))
		return
	}
	channel := sonar.Channel(c.Param("channel"))
	slider := sonar.Slider(c.Query("slider"))
	data, err := h.ctl.MuteChannel(c.Request.Context(), channel, muted, slider)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.broadcast(c, ws.EventMute, gin.H{"channel": channel, "muted": muted, "slider": slider, "result": data})
	writeRaw(c, data)
}

func (h *handlers) getChatMix(c *gin.Context) {
	data, err := h.ctl.ChatMixData(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	writeRaw(c, data)
}

func (h *handlers) setChatMix(c *gin.Context) {
	balance, err := queryFloat(c, "balance")
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := h.ctl.SetChatMix(c.Request.Context(), balance)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.broadcast(c, ws.EventChatMix, gin.H{"balance": balance, "result": data})
	writeRaw(c, data)
}

func (h *handlers) listPresets(c *gin.Context) {
	presets, err := preset.Scan(h.presetsDir)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"presets": presets})
}

func (h *handlers) applyPreset(c *gin.Context) {
	p, err := preset.Find(h.presetsDir, c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "request_id": c.GetString(requestIDKey)})
		return
	}
	result, err := preset.Apply(c.Request.Context(), h.ctl, p)
	if err != nil {
		status := statusFor(err)
		h.metrics.RecordError(c.FullPath(), errorType(status))
		h.logger.Warn("preset apply failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("preset", p.Name),
			zap.Int("steps_applied", len(result.Steps)),
			zap.Error(err),
		)
		if len(result.Steps) > 0 {
			h.broadcast(c, ws.EventPreset, result)
		}
		c.JSON(status, gin.H{"error": err.Error(), "request_id": c.GetString(requestIDKey), "result": result})
		return
	}
	h.broadcast(c, ws.EventPreset, result)
	c.JSON(http.StatusOK, result)
}

func (h *handlers) broadcast(c *gin.Context, eventType string, payload any) {
	if h.hub == nil {
		return
	}
	h.hub.Broadcast(eventType, c.GetString(requestIDKey), payload)
	h.metrics.RecordEvent(eventType)
}

func (h *handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	h.metrics.RecordError(c.FullPath(), errorType(status))
	if status >= http.StatusInternalServerError {
		h.logger.Warn("sonar call failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": err.Error(), "request_id": c.GetString(requestIDKey)})
}

// statusFor maps library errors onto bridge responses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), sonar.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, sonar.ErrServerNotAccessible):
		return http.StatusBadGateway
	case sonar.IsDiscovery(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation"
	case http.StatusBadGateway:
		return "upstream"
	case http.StatusServiceUnavailable:
		return "discovery"
	default:
		return "internal"
	}
}

func modeBody(streamer bool) gin.H {
	return gin.H{"mode": sonar.ModeFromBool(streamer), "streamer": streamer}
}

func queryFloat(c *gin.Context, name string) (float64, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", errBadRequest, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", errBadRequest, name, raw)
	}
	return v, nil
}

func writeRaw(c *gin.Context, data json.RawMessage) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}
