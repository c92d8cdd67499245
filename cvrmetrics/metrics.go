// Package cvrmetrics provides optional Prometheus instrumentation for
// the cvrdt core: counters for vector-clock bumps and merges, and for
// CRDT-level merges by kind. Nothing in cvrdt requires this package —
// it is wired in only when a caller sets cvrdt.Metrics, keeping the
// core free of I/O and side effects by default.
package cvrmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors bundles the counters this package registers. A nil
// *Collectors is valid and every method on it is a no-op, so callers
// that never opt in (cvrdt.Metrics left nil) pay no cost. cvrdt's own
// call sites additionally guard each call with a cvrdt.Metrics != nil
// check.
type Collectors struct {
	bumps   *prometheus.CounterVec
	merges  *prometheus.CounterVec
	domCalc prometheus.Counter
}

// NewCollectors registers the cvrdt counters against reg and returns
// the bundle. Use prometheus.DefaultRegisterer for the global
// registry, or a fresh prometheus.NewRegistry() in tests that don't
// want to pollute the default one.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)
	return &Collectors{
		bumps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cvrdt_vclock_bumps_total",
				Help: "Total number of vector clock Bump calls, by process name.",
			},
			[]string{"process"},
		),
		merges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cvrdt_merges_total",
				Help: "Total number of CRDT Merge calls, by concrete kind.",
			},
			[]string{"kind"},
		),
		domCalc: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cvrdt_dominance_checks_total",
				Help: "Total number of vector clock dominance/descends comparisons performed.",
			},
		),
	}
}

// ObserveBump records a VClock.Bump call for process.
func (c *Collectors) ObserveBump(process string) {
	if c == nil {
		return
	}
	c.bumps.WithLabelValues(process).Inc()
}

// ObserveMerge records a Merge call for the given CRDT kind (e.g.
// "GCounter", "vclock").
func (c *Collectors) ObserveMerge(kind string) {
	if c == nil {
		return
	}
	c.merges.WithLabelValues(kind).Inc()
}

// ObserveDominanceCheck records a Descends/Dominates/Concurrent
// comparison. Wiring this into the hot comparison path is left to the
// caller (cvrdt itself only calls ObserveBump/ObserveMerge); exposed
// for callers instrumenting their own comparison-heavy code paths,
// e.g. a synchronization scheduler deciding who to sync with next.
func (c *Collectors) ObserveDominanceCheck() {
	if c == nil {
		return
	}
	c.domCalc.Inc()
}
