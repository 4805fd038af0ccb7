package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	processStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskshell",
			Subsystem: "process",
			Name:      "starts_total",
			Help:      "Number of successful process starts.",
		}, []string{"role"},
	)
	processStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskshell",
			Subsystem: "process",
			Name:      "stops_total",
			Help:      "Number of process terminations (exit or kill).",
		}, []string{"role"},
	)
	processRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskshell",
			Subsystem: "process",
			Name:      "restarts_total",
			Help:      "Number of caller-initiated restarts.",
		}, []string{"role"},
	)
	eventsForwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskshell",
			Subsystem: "bridge",
			Name:      "events_total",
			Help:      "Events forwarded upstream, by role and kind.",
		}, []string{"role", "kind"},
	)
	probeResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskshell",
			Subsystem: "probe",
			Name:      "results_total",
			Help:      "Debug-endpoint probe outcomes.",
		}, []string{"outcome"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{processStarts, processStops, processRestarts, eventsForwarded, probeResults}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// RegisterDefault registers against the default Prometheus registry.
func RegisterDefault() error { return Register(prometheus.DefaultRegisterer) }

// Handler returns an http.Handler serving metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Helpers below no-op until Register has been called.

func IncStart(role string) {
	if regOK.Load() {
		processStarts.WithLabelValues(role).Inc()
	}
}

func IncStop(role string) {
	if regOK.Load() {
		processStops.WithLabelValues(role).Inc()
	}
}

func IncRestart(role string) {
	if regOK.Load() {
		processRestarts.WithLabelValues(role).Inc()
	}
}

func IncEvent(role, kind string) {
	if regOK.Load() {
		eventsForwarded.WithLabelValues(role, kind).Inc()
	}
}

func IncProbe(outcome string) {
	if regOK.Load() {
		probeResults.WithLabelValues(outcome).Inc()
	}
}
