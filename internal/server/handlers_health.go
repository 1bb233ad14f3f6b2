package server

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shaneah/infyemailer-sub010/internal/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := time.Since(s.startTime).Seconds()
	return c.JSON(200, map[string]any{
		"status":  "ok",
		"uptime":  uptime,
		"version": version.Get(),
	})
}

// handleReadiness has no external dependencies to probe: the metrics state
// lives in process memory, so the service is ready as soon as it listens.
func (s *Server) handleReadiness(c echo.Context) error {
	return c.JSON(200, map[string]string{"status": "ready"})
}
