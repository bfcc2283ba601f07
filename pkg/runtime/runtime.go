package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	appconfig "github.com/saker-ai/sonar-bridge/internal/config"
	apphttp "github.com/saker-ai/sonar-bridge/internal/http"
	applogger "github.com/saker-ai/sonar-bridge/internal/logger"
	"github.com/saker-ai/sonar-bridge/internal/metrics"
	"github.com/saker-ai/sonar-bridge/internal/ws"
	"github.com/saker-ai/sonar-bridge/pkg/sonar"
)

const readHeaderTimeout = 10 * time.Second

// Server is the local REST bridge in front of one Sonar client.
type Server struct {
	cfg    appconfig.Config
	logger *zap.Logger
	hub    *ws.Hub
	server *http.Server

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// New loads configuration, builds the logger and discovers Sonar.
func New(ctx context.Context, configPath string, flags *pflag.FlagSet) (*Server, error) {
	cfg, err := appconfig.Load(configPath, flags)
	if err != nil {
		return nil, fmt.Errorf("load sonar config: %w", err)
	}

	logger, err := applogger.New(cfg.Log)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	logger.Info("sonar logger configured",
		zap.String("level", cfg.Log.Level),
		zap.Bool("stdout", cfg.Log.Stdout),
		zap.Bool("file_enabled", cfg.Log.File.Enabled),
		zap.String("file_path", cfg.Log.File.Path),
		zap.String("file_name", cfg.Log.File.Name),
	)
	logger.Info("sonar config loaded",
		zap.String("config_file", cfg.ConfigFile),
		zap.String("root_dir", cfg.RootDir),
		zap.String("core_props_path", cfg.CorePropsPath),
		zap.String("bridge_addr", cfg.Bridge.Addr),
	)

	client, err := sonar.New(ctx, cfg.SonarConfig(), logger.Named("sonar"))
	if err != nil {
		return nil, fmt.Errorf("connect to sonar: %w", err)
	}
	logger.Info("sonar client ready",
		zap.String("base_url", client.BaseURL()),
		zap.String("mode", string(client.Mode())),
	)
	return NewWithController(cfg, client, logger), nil
}

// NewWithController builds a server around an existing controller.
func NewWithController(cfg appconfig.Config, ctl apphttp.Controller, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	hub := ws.NewHub(logger.Named("ws"))
	m := metrics.New("", hub.Subscribers)
	router := apphttp.NewRouter(cfg, ctl, hub, m, logger.Named("http"))
	return &Server{
		cfg:    cfg,
		logger: logger,
		hub:    hub,
		server: &http.Server{
			Addr:              cfg.Bridge.Addr,
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		ready: make(chan struct{}),
	}
}

// Run listens on the configured address and serves until Shutdown.
func (s *Server) Run() error {
	if s == nil || s.server == nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.ready)

	s.logger.Info("starting http server", zap.String("addr", ln.Addr().String()))
	return ignoreServerClosed(s.server.Serve(ln))
}

// Ready is closed once Run has bound its listener.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, or the configured one before Run.
func (s *Server) Addr() string {
	if s == nil || s.server == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Shutdown closes websocket subscribers and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.hub.Close()
	err := ignoreServerClosed(s.server.Shutdown(ctx))
	_ = s.logger.Sync()
	return err
}

func ignoreServerClosed(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
