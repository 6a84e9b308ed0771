package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/yukyra-eren/flarum-ext-money/internal/domain"
	"github.com/yukyra-eren/flarum-ext-money/internal/platform/config"
)

type appService interface {
	GetBalance(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)
	EditBalance(ctx context.Context, actorID, accountID uuid.UUID, balance float64) (*domain.Account, error)
	HandleForumEvent(ctx context.Context, event domain.Event) error
	RuleConfig() domain.RuleConfig
}

type balanceHub interface {
	Register(accountID uuid.UUID, conn *websocket.Conn) error
	Unregister(accountID uuid.UUID, conn *websocket.Conn)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app appService
	hub balanceHub

	upgrader     websocket.Upgrader
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, app appService, hub balanceHub, checkOrigin func(r *http.Request) bool, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		hub:          hub,
		upgrader:     websocket.Upgrader{CheckOrigin: checkOrigin},
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
