package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/store-inventory/internal/config"
	"github.com/iliyamo/store-inventory/internal/model"
)

func limiterConfig(capacity int) config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
}

func limitedEcho(cfg config.RateLimitConfig, rdb redis.UniversalClient) *echo.Echo {
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, rdb))
	return e
}

func ping(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTokenBucketLimitsPerKey(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	e := limitedEcho(limiterConfig(2), rdb)

	first := ping(e, "10.0.0.1")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, http.StatusOK, ping(e, "10.0.0.1").Code)

	limited := ping(e, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "rate limit exceeded")

	// a different client has its own bucket
	assert.Equal(t, http.StatusOK, ping(e, "10.0.0.2").Code)
}

func TestTokenBucketPassThrough(t *testing.T) {
	cfg := limiterConfig(1)
	cfg.Enabled = false
	e := limitedEcho(cfg, nil)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, ping(e, "10.0.0.1").Code)
	}
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	e := limitedEcho(limiterConfig(1), rdb)
	mr.Close()

	assert.Equal(t, http.StatusOK, ping(e, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, ping(e, "10.0.0.1").Code)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/items/1", nil)
	req.Header.Set(echo.HeaderXRealIP, "1.2.3.4")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/items/:id")

	cfg := limiterConfig(1)
	cfg.KeyStrategy = "ip_manager_route"
	assert.Equal(t, "rl:ip:1.2.3.4:manager:anon:route:GET /v1/items/:id", buildRateKey(cfg, c))

	id := uuid.MustParse("7f0c6a4e-8f5a-4d3c-9c8e-2f1f4a0c1b2d")
	SetIdentity(c, &model.Manager{ID: id}, nil)
	cfg.KeyStrategy = "manager"
	assert.Equal(t, "rl:manager:"+id.String(), buildRateKey(cfg, c))
	cfg.KeyStrategy = "ip_route"
	assert.Equal(t, "rl:ip:1.2.3.4:route:GET /v1/items/:id", buildRateKey(cfg, c))
}
