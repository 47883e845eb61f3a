package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	appconfig "github.com/saker-ai/armscript/internal/config"
	"github.com/saker-ai/armscript/internal/export"
	apphttp "github.com/saker-ai/armscript/internal/http"
	applogger "github.com/saker-ai/armscript/internal/logger"
	"github.com/saker-ai/armscript/internal/session"
	"github.com/saker-ai/armscript/internal/ws"
)

// Server wires config, logging, the session manager and the HTTP/ws surfaces.
type Server struct {
	cfg     appconfig.Config
	logger  *zap.Logger
	manager *session.Manager
	server  *http.Server
}

// New loads configPath (or the discovered conf.yaml when empty) and builds
// the server.
func New(configPath string) (*Server, error) {
	cfg, err := appconfig.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load armscript config: %w", err)
	}

	logger, err := applogger.New(cfg.Log)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	logger.Info("armscript logger configured",
		zap.String("level", cfg.Log.Level),
		zap.Bool("stdout", cfg.Log.Stdout),
		zap.Bool("file_enabled", cfg.Log.File.Enabled),
		zap.String("file_path", cfg.Log.File.Path),
		zap.String("file_name", cfg.Log.File.Name),
	)
	logger.Info("armscript config loaded",
		zap.String("config_path", configPath),
		zap.String("root_dir", cfg.RootDir),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("data_dir", cfg.DataDir),
	)

	exporter, err := NewExporter(cfg)
	if err != nil {
		return nil, err
	}
	manager := session.NewManager(SessionOptions(cfg), exporter, logger)

	wsHandler := ws.NewHandler(logger, manager)
	router := apphttp.NewRouter(manager, wsHandler, logger)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	return &Server{
		cfg:     cfg,
		logger:  logger,
		manager: manager,
		server:  httpServer,
	}, nil
}

// NewExporter builds the artifact exporter described by cfg.
func NewExporter(cfg appconfig.Config) (*export.Exporter, error) {
	format, err := export.ParseFormat(cfg.Output.StructuredFormat)
	if err != nil {
		return nil, err
	}
	preamble := export.Preamble{
		RobotModel:  cfg.Robot.Model,
		GroupName:   cfg.Robot.Group,
		GripperName: cfg.Robot.Gripper,
	}
	return export.New(preamble, format), nil
}

// SessionOptions maps cfg onto server-side session options. Artifacts inside
// a session directory use the base names of the configured output paths.
func SessionOptions(cfg appconfig.Config) session.Options {
	return session.Options{
		DataDir:        cfg.DataDir,
		StructuredName: filepath.Base(cfg.Output.StructuredPath),
		ExecutableName: filepath.Base(cfg.Output.ExecutablePath),
		Mode:           cfg.Session.ExportMode,
		MaxActive:      cfg.Session.MaxActive,
	}
}

// Logger returns the configured logger.
func (s *Server) Logger() *zap.Logger {
	if s == nil || s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	if s == nil || s.server == nil {
		return nil
	}

	err := listen(s.server, s.cfg, s.logger)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	if s == nil || s.server == nil {
		return ""
	}
	return s.server.Addr
}

// Shutdown stops the HTTP server and closes every active session.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	err := ignoreServerClosed(s.server.Shutdown(ctx))
	if s.manager != nil {
		s.manager.CloseAll()
	}
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
