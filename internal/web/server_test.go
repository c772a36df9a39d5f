package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mention_tracker/internal/config"
	"mention_tracker/internal/domain"
)

type stubCycler struct {
	stats *domain.CycleStats
	err   error
	calls int
}

func (c *stubCycler) Run(ctx context.Context) (*domain.CycleStats, error) {
	c.calls++
	return c.stats, c.err
}

func newTestServer(cycler Cycler) *Server {
	return NewServer(
		cycler,
		config.HTTPConfig{Addr: ":0", WebhookSecret: "s3cret"},
		config.TrackerConfig{Handle: "@bracketology.tv", Interval: 120 * time.Minute},
		slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})),
	)
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(&stubCycler{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, "@bracketology.tv", body["tracking"])
	assert.Equal(t, "2h0m0s", body["check_interval"])
}

func TestCheckRequiresSecret(t *testing.T) {
	cycler := &stubCycler{stats: &domain.CycleStats{}}
	srv := newTestServer(cycler)

	for _, target := range []string{
		"/check-mentions",
		"/check-mentions?secret=wrong",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		srv.router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "unauthorized", body["error"])
	}

	assert.Equal(t, 0, cycler.calls, "unauthorized requests must not run a cycle")
}

func TestCheckRunsCycle(t *testing.T) {
	cycler := &stubCycler{stats: &domain.CycleStats{
		Fetched:    5,
		Relevant:   3,
		New:        2,
		Duplicates: 1,
	}}
	srv := newTestServer(cycler)

	req := httptest.NewRequest(http.MethodGet, "/check-mentions?secret=s3cret", nil)
	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, cycler.calls)

	var body checkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 3, body.Checked)
	assert.Equal(t, 2, body.New)
	assert.Equal(t, 1, body.Duplicates)
	assert.NotEmpty(t, body.Timestamp)
}

func TestTriggerWithBodySecret(t *testing.T) {
	cycler := &stubCycler{stats: &domain.CycleStats{New: 1, Relevant: 1}}
	srv := newTestServer(cycler)

	req := httptest.NewRequest(http.MethodPost, "/trigger", strings.NewReader(`{"secret":"s3cret"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, cycler.calls)
}

func TestCheckCycleFailure(t *testing.T) {
	cycler := &stubCycler{err: errors.New("api error")}
	srv := newTestServer(cycler)

	req := httptest.NewRequest(http.MethodGet, "/check-mentions?secret=s3cret", nil)
	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "api error", body["error"])
}
