// Package metrics holds the Prometheus collectors for the auth flows.
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

type Metrics struct {
	LoginsTotal         *prometheus.CounterVec
	RegistrationsTotal  *prometheus.CounterVec
	AuthFailuresTotal   *prometheus.CounterVec
	RateLimitRejections prometheus.Counter
	SessionsSweptTotal  prometheus.Counter
	registry            *prometheus.Registry
}

// New creates and registers all collectors on registry
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gameplan_auth_logins_total",
				Help: "Total number of login attempts",
			},
			[]string{"result"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gameplan_auth_registrations_total",
				Help: "Total number of registration attempts",
			},
			[]string{"result"},
		),
		AuthFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gameplan_auth_failures_total",
				Help: "Total number of rejected authentication and authorization checks",
			},
			[]string{"code"},
		),
		RateLimitRejections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gameplan_ratelimit_rejections_total",
				Help: "Total number of requests rejected by the per-user rate limit",
			},
		),
		SessionsSweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gameplan_sessions_swept_total",
				Help: "Total number of expired sessions removed by the sweeper",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.LoginsTotal,
		m.RegistrationsTotal,
		m.AuthFailuresTotal,
		m.RateLimitRejections,
		m.SessionsSweptTotal,
	)

	return m
}

// Login records a login attempt. Safe on a nil receiver.
func (m *Metrics) Login(success bool) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result(success)).Inc()
}

func (m *Metrics) Registration(success bool) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(result(success)).Inc()
}

func (m *Metrics) AuthFailure(code string) {
	if m == nil {
		return
	}
	m.AuthFailuresTotal.WithLabelValues(code).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.RateLimitRejections.Inc()
}

func (m *Metrics) SessionsSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsSweptTotal.Add(float64(n))
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func result(success bool) string {
	if success {
		return ResultSuccess
	}
	return ResultFailure
}
