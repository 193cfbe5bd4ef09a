package solver

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	solveDuration prometheus.Histogram
	solveTotal    *prometheus.CounterVec
	solveNodes    prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Histogram, *prometheus.CounterVec, prometheus.Histogram) {
	dur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rota_solve_duration_seconds",
		Help:    "Wall-clock duration of schedule solves",
		Buckets: prometheus.DefBuckets,
	})
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rota_solve_total",
		Help: "Number of schedule solves by outcome",
	}, []string{"outcome"})
	nodes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rota_solve_nodes",
		Help:    "Branch and bound nodes explored per solve",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
	return dur, total, nodes
}

func init() {
	solveDuration, solveTotal, solveNodes = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers solver metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(solveDuration, solveTotal, solveNodes)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	solveDuration, solveTotal, solveNodes = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

// Outcome classifies a solve error for metrics and logs.
func Outcome(err error) string {
	var cerr *ConfigurationError
	switch {
	case err == nil:
		return "optimal"
	case errors.As(err, &cerr):
		return "invalid"
	case errors.Is(err, ErrInfeasible):
		return "infeasible"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	}
	return "error"
}

func observe(res Result, err error) {
	solveDuration.Observe(res.Duration.Seconds())
	solveNodes.Observe(float64(res.Nodes))
	solveTotal.WithLabelValues(Outcome(err)).Inc()
}
