package http

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appconfig "github.com/saker-ai/sonar-bridge/internal/config"
	"github.com/saker-ai/sonar-bridge/internal/metrics"
	"github.com/saker-ai/sonar-bridge/internal/ws"
	"github.com/saker-ai/sonar-bridge/pkg/sonar"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// Controller is the Sonar surface the bridge exposes. *sonar.Client implements it.
type Controller interface {
	Mode() sonar.Mode
	IsStreamerMode(ctx context.Context) (bool, error)
	SetStreamerMode(ctx context.Context, enable bool) (bool, error)
	VolumeData(ctx context.Context) (json.RawMessage, error)
	SetVolume(ctx context.Context, channel sonar.Channel, volume float64, slider sonar.Slider) (json.RawMessage, error)
	MuteChannel(ctx context.Context, channel sonar.Channel, muted bool, slider sonar.Slider) (json.RawMessage, error)
	ChatMixData(ctx context.Context) (json.RawMessage, error)
	SetChatMix(ctx context.Context, balance float64) (json.RawMessage, error)
}

// NewRouter builds the bridge's gin engine. hub and m may be nil.
func NewRouter(cfg appconfig.Config, ctl Controller, hub *ws.Hub, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{
		ctl:        ctl,
		hub:        hub,
		metrics:    m,
		presetsDir: cfg.PresetsDir,
		logger:     logger,
	}

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(logger))
	router.Use(requestMetrics(m))

	router.GET("/health", h.health)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := router.Group("/api")
	api.GET("/channels", h.channels)
	api.GET("/mode", h.getMode)
	api.PUT("/mode/:mode", h.setMode)
	api.GET("/volume", h.getVolume)
	api.PUT("/volume/:channel", h.setVolume)
	api.PUT("/mute/:channel", h.mute)
	api.GET("/chatmix", h.getChatMix)
	api.PUT("/chatmix", h.setChatMix)
	api.GET("/presets", h.listPresets)
	api.POST("/presets/:name/apply", h.applyPreset)

	if hub != nil {
		router.GET("/events", func(c *gin.Context) {
			hub.Handle(c.Writer, c.Request)
		})
	}

	return router
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", latency),
		)
	}
}

func requestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
