package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shaneah/infyemailer-sub010/internal/config"
	"github.com/shaneah/infyemailer-sub010/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTracker records entry-point calls for handler unit tests.
type mockTracker struct {
	mu      sync.Mutex
	opens   []string
	clicks  []string
	patches []domain.Patch
	snap    domain.Snapshot
}

func newMockTracker() *mockTracker {
	return &mockTracker{snap: domain.NewSnapshot()}
}

func (m *mockTracker) RecordOpen(hour string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opens = append(m.opens, hour)
}

func (m *mockTracker) RecordClick(hour string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks = append(m.clicks, hour)
}

func (m *mockTracker) RecordActivity(domain.ActivityDelta) {}

func (m *mockTracker) Update(patch domain.Patch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patches = append(m.patches, patch)
}

func (m *mockTracker) Snapshot() domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Clone()
}

func newTestServer(tracker domain.Tracker) *Server {
	cfg := &config.Config{AppEnv: "test", Port: "0"}
	return NewServer(cfg, tracker, nil)
}

func TestHandleTrackOpen_ServesPixelAndRecords(t *testing.T) {
	tracker := newMockTracker()
	srv := newTestServer(tracker)

	req := httptest.NewRequest(http.MethodGet, "/track/open/42?hour=5:00", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/gif", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, trackingPixel, rec.Body.Bytes())
	assert.Equal(t, []string{"5:00"}, tracker.opens)
}

func TestHandleTrackOpen_WithoutHourParam(t *testing.T) {
	tracker := newMockTracker()
	srv := newTestServer(tracker)

	req := httptest.NewRequest(http.MethodGet, "/track/open/42", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{""}, tracker.opens)
}

func TestHandleTrackClick_RedirectsAndRecords(t *testing.T) {
	tracker := newMockTracker()
	srv := newTestServer(tracker)

	req := httptest.NewRequest(http.MethodGet, "/track/click/42?url=https%3A%2F%2Fexample.com%2Fsale&hour=9:00", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/sale", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, []string{"9:00"}, tracker.clicks)
}

func TestHandleTrackClick_RejectsBadTargets(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"missing url", "/track/click/42"},
		{"relative url", "/track/click/42?url=%2Flocal"},
		{"javascript scheme", "/track/click/42?url=javascript%3Aalert(1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := newMockTracker()
			srv := newTestServer(tracker)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()
			srv.echo.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, tracker.clicks, "rejected click must not be recorded")
		})
	}
}

func TestHandleGetMetrics(t *testing.T) {
	tracker := newMockTracker()
	tracker.snap.Opens = 12
	tracker.snap.EngagementScore = 33.5
	srv := newTestServer(tracker)

	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"opens":12`)
	assert.Contains(t, rec.Body.String(), `"engagementScore":33.5`)
	assert.Contains(t, rec.Body.String(), `"hourlyActivity"`)
}

func TestHandleUpdateMetrics(t *testing.T) {
	tracker := newMockTracker()
	srv := newTestServer(tracker)

	body := strings.NewReader(`{"bounces":7,"delivered":120}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/metrics", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, tracker.patches, 1)
	patch := tracker.patches[0]
	require.NotNil(t, patch.Bounces)
	assert.Equal(t, 7, *patch.Bounces)
	require.NotNil(t, patch.Delivered)
	assert.Equal(t, 120, *patch.Delivered)
	assert.Nil(t, patch.Opens, "absent fields must stay nil")
}

func TestHandleUpdateMetrics_InvalidBody(t *testing.T) {
	tracker := newMockTracker()
	srv := newTestServer(tracker)

	req := httptest.NewRequest(http.MethodPatch, "/api/metrics", strings.NewReader(`{not json`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, tracker.patches)
}

func TestHandleLiveness(t *testing.T) {
	srv := newTestServer(newMockTracker())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandleReadiness(t *testing.T) {
	srv := newTestServer(newMockTracker())

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}
