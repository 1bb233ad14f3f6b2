package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Metrics subscriber socket (dedicated path, separate from the REST API)
	s.echo.GET("/metrics-ws", s.handleMetricsSocket)

	// Tracking endpoints called from sent emails
	s.echo.GET("/track/open/:campaign", s.handleTrackOpen)
	s.echo.GET("/track/click/:campaign", s.handleTrackClick)

	// Snapshot REST access
	s.echo.GET("/api/metrics", s.handleGetMetrics)
	s.echo.PATCH("/api/metrics", s.handleUpdateMetrics)
}
