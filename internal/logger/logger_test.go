package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDAndMiddleware(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	e := echo.New()
	e.Use(RequestID(base), Middleware())
	e.GET("/ping", func(c echo.Context) error {
		FromEcho(c).Info("inside")
		return c.String(http.StatusOK, "pong")
	})
	e.GET("/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "nope")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	id := rec.Header().Get(HeaderRequestID)
	assert.NotEmpty(t, id)

	entries := logs.FilterField(zap.String("request_id", id)).All()
	require.Len(t, entries, 2)
	assert.Equal(t, "inside", entries[0].Message)
	assert.Equal(t, "http request", entries[1].Message)
	assert.Equal(t, int64(http.StatusOK), entries[1].ContextMap()["status"])

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(HeaderRequestID, "client-supplied")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "client-supplied", rec.Header().Get(HeaderRequestID))
	warn := logs.FilterField(zap.String("request_id", "client-supplied")).All()
	require.Len(t, warn, 1)
	assert.Equal(t, zap.WarnLevel, warn[0].Level)
}

func TestFromEchoFallsBackToGlobal(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Same(t, zap.L(), FromEcho(c))
}

func TestNew(t *testing.T) {
	l, err := New("production", "warn", "store-inventory")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Core().Enabled(zap.WarnLevel))
}
