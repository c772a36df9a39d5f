package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"mention_tracker/internal/config"
	"mention_tracker/internal/domain"
)

// Cycler defines the interface for check cycle operations.
type Cycler interface {
	Run(ctx context.Context) (*domain.CycleStats, error)
}

type Server struct {
	cycler Cycler
	cfg    config.HTTPConfig
	track  config.TrackerConfig
	logger *slog.Logger
}

func NewServer(cycler Cycler, cfg config.HTTPConfig, track config.TrackerConfig, logger *slog.Logger) *Server {
	return &Server{
		cycler: cycler,
		cfg:    cfg,
		track:  track,
		logger: logger,
	}
}

type triggerRequest struct {
	Secret string `json:"secret" form:"secret" query:"secret"`
}

type checkResponse struct {
	Success    bool   `json:"success"`
	Checked    int    `json:"checked"`
	New        int    `json:"new"`
	Duplicates int    `json:"duplicates"`
	Errors     int    `json:"errors"`
	Timestamp  string `json:"timestamp"`
}

func (s *Server) Start(ctx context.Context) error {
	e := s.router()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("web server shutdown failed", "error", err)
		}
	}()

	s.logger.Info("web server started", "addr", s.cfg.Addr)

	if err := e.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start web server: %w", err)
	}

	s.logger.Info("web server stopped")
	return nil
}

func (s *Server) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())

	e.GET("/", s.handleStatus)
	e.GET("/check-mentions", s.handleCheck)
	e.POST("/trigger", s.handleCheck)

	return e
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "running",
		"service":        "mention-tracker",
		"tracking":       s.track.Handle,
		"check_interval": s.track.Interval.String(),
	})
}

func (s *Server) handleCheck(c echo.Context) error {
	var req triggerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
	}

	if req.Secret != s.cfg.WebhookSecret {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	stats, err := s.cycler.Run(c.Request().Context())
	if err != nil {
		s.logger.Error("triggered check cycle failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(http.StatusOK, checkResponse{
		Success:    true,
		Checked:    stats.Relevant,
		New:        stats.New,
		Duplicates: stats.Duplicates,
		Errors:     stats.Errors,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}
