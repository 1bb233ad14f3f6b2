package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shaneah/infyemailer-sub010/internal/config"
	"github.com/shaneah/infyemailer-sub010/internal/domain"
)

// subscriberRegistry is the subset of the broadcaster used by the WebSocket
// handler: connection lifecycle only, never direct fan-out.
type subscriberRegistry interface {
	Register(conn *websocket.Conn, snapshotFn func() domain.Snapshot) error
	Unregister(conn *websocket.Conn)
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	tracker   domain.Tracker
	registry  subscriberRegistry
	upgrader  websocket.Upgrader
	startTime time.Time
}

func NewServer(cfg *config.Config, tracker domain.Tracker, registry subscriberRegistry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:     e,
		config:   cfg,
		tracker:  tracker,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     newCheckOrigin(cfg.AppURL, cfg.IsDevelopment()),
		},
		startTime: time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
