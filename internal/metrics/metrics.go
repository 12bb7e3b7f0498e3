// Package metrics exposes Prometheus collectors for HTTP traffic and the
// authentication flow.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes.
const (
	LoginSuccess       = "success"
	LoginBadCredential = "invalid_credentials"
	LoginError         = "error"
)

// Metrics bundles every collector of the service.  A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	service string

	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	statusCategory  *prometheus.CounterVec
	logins          *prometheus.CounterVec
	logouts         prometheus.Counter
	guardRejections *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer, service string) *Metrics {
	m := &Metrics{
		service: service,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path", "status"}),
		statusCategory: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_status_category_total",
			Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
		}, []string{"service", "category"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Token requests by outcome",
		}, []string{"service", "outcome"}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "auth_logouts_total",
			Help:        "Tokens revoked through logout",
			ConstLabels: prometheus.Labels{"service": service},
		}),
		guardRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_guard_rejections_total",
			Help: "Requests rejected by the authentication guard by reason",
		}, []string{"service", "reason"}),
	}
	reg.MustRegister(m.requests, m.duration, m.statusCategory, m.logins, m.logouts, m.guardRejections)
	return m
}

// Middleware records request count, duration and status category.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			m.requests.WithLabelValues(m.service, method, path, statusStr).Inc()
			m.duration.WithLabelValues(m.service, method, path, statusStr).Observe(time.Since(start).Seconds())
			if cat := category(status); cat != "" {
				m.statusCategory.WithLabelValues(m.service, cat).Inc()
			}
			return err
		}
	}
}

func category(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}

// ObserveLogin counts one token request.
func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(m.service, outcome).Inc()
}

// ObserveLogout counts one revoked token.
func (m *Metrics) ObserveLogout() {
	if m == nil {
		return
	}
	m.logouts.Inc()
}

// ObserveRejection counts one request refused by the guard.
func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.guardRejections.WithLabelValues(m.service, reason).Inc()
}

// Handler serves the exposition format for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
