package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Astrocyte74/jeopardy-sub000/internal/action"
	"github.com/Astrocyte74/jeopardy-sub000/internal/editor"
)

// metrics has its own registry so each Server can be built in tests.
type metrics struct {
	reg *prometheus.Registry

	generate       *prometheus.CounterVec
	rateLimited    prometheus.Counter
	patches        *prometheus.CounterVec
	undo           *prometheus.CounterVec
	autosaves      prometheus.Counter
	snapshotsSwept prometheus.Counter
	activeSessions prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &metrics{
		reg: reg,
		generate: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trivia_generate_requests_total",
			Help: "Proxy generation requests by action and outcome.",
		}, []string{"action", "outcome"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "trivia_generate_rate_limited_total",
			Help: "Generation requests rejected by the per-client limiter.",
		}),
		patches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trivia_ai_patches_total",
			Help: "Editor AI actions by action and outcome.",
		}, []string{"action", "outcome"}),
		undo: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trivia_undo_total",
			Help: "Undo requests by outcome.",
		}, []string{"outcome"}),
		autosaves: f.NewCounter(prometheus.CounterOpts{
			Name: "trivia_autosaves_total",
			Help: "Session documents written back to the library.",
		}),
		snapshotsSwept: f.NewCounter(prometheus.CounterOpts{
			Name: "trivia_snapshots_expired_total",
			Help: "Undo snapshots removed by the expiry sweep.",
		}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "trivia_editor_sessions",
			Help: "Open editor sessions.",
		}),
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *metrics) observeOutcome(id action.ID, out editor.Outcome, err error) {
	outcome := "advisory"
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = "abandoned"
	case err != nil:
		outcome = editor.ErrorCode(err)
	case out.Applied:
		outcome = "applied"
	case out.Cancelled:
		outcome = "cancelled"
	}
	m.patches.WithLabelValues(string(id), outcome).Inc()
}
