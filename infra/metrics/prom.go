package metrics

import (
	"strconv"

	coremetrics "github.com/kilianp07/rota/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records solver and board activity in Prometheus metrics.
type PromSink struct {
	solves    *prometheus.CounterVec
	objective *prometheus.GaugeVec
	edits     *prometheus.CounterVec
	fill      *prometheus.GaugeVec
}

// NewPromSink registers metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rota_workspace_solves_total",
		Help: "Solves requested per workspace and outcome",
	}, []string{"workspace", "outcome"})
	objective := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rota_workspace_objective",
		Help: "Objective of the last successful solve",
	}, []string{"workspace"})
	edits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rota_edits_total",
		Help: "Operator actions by kind and whether they changed the assignment",
	}, []string{"kind", "applied"})
	fill := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rota_session_assigned",
		Help: "Members currently assigned per session",
	}, []string{"workspace", "session"})

	var err error
	if solves, err = register(reg, solves); err != nil {
		return nil, err
	}
	if objective, err = register(reg, objective); err != nil {
		return nil, err
	}
	if edits, err = register(reg, edits); err != nil {
		return nil, err
	}
	if fill, err = register(reg, fill); err != nil {
		return nil, err
	}
	return &PromSink{solves: solves, objective: objective, edits: edits, fill: fill}, nil
}

// register returns the already registered collector when one exists.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSolve counts the solve and tracks the objective of successful ones.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.solves.WithLabelValues(ev.WorkspaceID, ev.Outcome).Inc()
	if ev.Outcome == "optimal" {
		s.objective.WithLabelValues(ev.WorkspaceID).Set(ev.Objective)
	}
	return nil
}

// RecordEdit counts operator actions.
func (s *PromSink) RecordEdit(ev coremetrics.EditEvent) error {
	s.edits.WithLabelValues(ev.Kind, strconv.FormatBool(ev.Applied)).Inc()
	return nil
}

// RecordAssignment sets the per-session fill gauges.
func (s *PromSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	for _, f := range ev.Sessions {
		s.fill.WithLabelValues(ev.WorkspaceID, f.Session).Set(float64(f.Assigned))
	}
	return nil
}
