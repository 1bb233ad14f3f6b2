package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/shaneah/infyemailer-sub010/internal/broadcast"
	"github.com/shaneah/infyemailer-sub010/internal/domain"
	"github.com/shaneah/infyemailer-sub010/internal/metrics"
)

// trackingPixel is a 1x1 transparent GIF served by the open-tracking endpoint.
var trackingPixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, // GIF89a
	0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00,
	0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF,
	0x21, 0xF9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00,
	0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00,
	0x02, 0x02, 0x44, 0x01, 0x00,
	0x3B,
}

// --- WebSocket handler ---

// handleMetricsSocket upgrades the connection, registers it with the
// broadcaster (which sends the on-connect snapshot) and then runs the read
// pump until the client goes away. Inbound messages are advisory only.
func (s *Server) handleMetricsSocket(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("Failed to upgrade WebSocket", "error", err, "remote_addr", c.Request().RemoteAddr)
		return nil
	}

	if err := s.registry.Register(conn, s.tracker.Snapshot); err != nil {
		slog.Warn("Failed to register subscriber", "error", err)
		conn.Close()
		return nil
	}

	// Read pump (blocks until disconnect)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.handleInbound(data)
	}

	s.registry.Unregister(conn)
	return nil
}

// handleInbound parses a client message. Only a subscribe request for the
// metrics channel is recognized, and even that is a logged no-op: every
// subscriber receives every update. Malformed JSON is counted and dropped,
// never answered and never fatal to the connection.
func (s *Server) handleInbound(data []byte) {
	var msg broadcast.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		metrics.WebSocketMalformedMessages.Inc()
		slog.Warn("Ignoring malformed WebSocket message", "error", err)
		return
	}

	if msg.Type == "subscribe" && msg.Channel == broadcast.SubscribeChannel {
		slog.Debug("Subscriber confirmed metrics channel")
		return
	}

	slog.Debug("Ignoring unrecognized WebSocket message", "type", msg.Type, "channel", msg.Channel)
}

// --- Tracking handlers ---

func (s *Server) handleTrackOpen(c echo.Context) error {
	s.tracker.RecordOpen(c.QueryParam("hour"))
	slog.Debug("Open recorded", "campaign_id", c.Param("campaign"))

	c.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	return c.Blob(http.StatusOK, "image/gif", trackingPixel)
}

func (s *Server) handleTrackClick(c echo.Context) error {
	target := c.QueryParam("url")
	if !isRedirectable(target) {
		return c.String(http.StatusBadRequest, "Missing or invalid url parameter")
	}

	s.tracker.RecordClick(c.QueryParam("hour"))
	slog.Debug("Click recorded", "campaign_id", c.Param("campaign"), "target", target)

	return c.Redirect(http.StatusFound, target)
}

// isRedirectable keeps the click redirect to absolute http(s) targets.
func isRedirectable(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// --- Snapshot REST handlers ---

func (s *Server) handleGetMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) handleUpdateMetrics(c echo.Context) error {
	var patch domain.Patch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid patch body"})
	}

	s.tracker.Update(patch)
	return c.JSON(http.StatusOK, s.tracker.Snapshot())
}
