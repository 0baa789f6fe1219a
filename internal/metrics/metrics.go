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

	reconcileCleaned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "procward",
			Subsystem: "reconcile",
			Name:      "cleaned_total",
			Help:      "Registry entries pruned (dead or killed) by reconciliation passes.",
		},
	)
	reconcileFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "procward",
			Subsystem: "reconcile",
			Name:      "failed_total",
			Help:      "Registry entries whose process survived forced termination.",
		},
	)
	orphansFound = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "procward",
			Subsystem: "scan",
			Name:      "orphans_found_total",
			Help:      "Unregistered orphan processes discovered by signature scans.",
		},
	)
	orphansKilled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "procward",
			Subsystem: "scan",
			Name:      "orphans_killed_total",
			Help:      "Unregistered orphan processes successfully terminated.",
		},
	)
	killEscalations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "procward",
			Subsystem: "kill",
			Name:      "escalations_total",
			Help:      "Kill sequences that needed the forced signal after the graceful window.",
		},
	)
	stuckAlive = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "procward",
			Subsystem: "kill",
			Name:      "stuck_alive_total",
			Help:      "Processes that survived both graceful and forced termination.",
		},
	)
	lastTick = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "procward",
			Subsystem: "supervisor",
			Name:      "last_tick_timestamp_seconds",
			Help:      "Unix time of the last completed periodic supervision tick.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{reconcileCleaned, reconcileFailed, orphansFound, orphansKilled, killEscalations, stuckAlive, lastTick}
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

// Handler returns an http.Handler serving Prometheus metrics for the
// DefaultGatherer. The caller wires the route.
func Handler() http.Handler { return promhttp.Handler() }

// Helpers used by internal packages. They no-op until Register is called.

func AddReconcileCleaned(n int) {
	if regOK.Load() && n > 0 {
		reconcileCleaned.Add(float64(n))
	}
}

func AddReconcileFailed(n int) {
	if regOK.Load() && n > 0 {
		reconcileFailed.Add(float64(n))
	}
}

func AddOrphansFound(n int) {
	if regOK.Load() && n > 0 {
		orphansFound.Add(float64(n))
	}
}

func AddOrphansKilled(n int) {
	if regOK.Load() && n > 0 {
		orphansKilled.Add(float64(n))
	}
}

func IncKillEscalation() {
	if regOK.Load() {
		killEscalations.Inc()
	}
}

func IncStuckAlive() {
	if regOK.Load() {
		stuckAlive.Inc()
	}
}

func SetLastTick(unixSeconds float64) {
	if regOK.Load() {
		lastTick.Set(unixSeconds)
	}
}
