package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/sunnyysetia/patrolsim/core/metrics"
)

// PromSink records dispatch decisions in Prometheus metrics.
type PromSink struct {
	dispatches *prometheus.CounterVec
	conflicts  prometheus.Counter
	distance   prometheus.Histogram
	busy       prometheus.Gauge
	fleet      prometheus.Gauge
}

// NewPromSink registers dispatch metrics on the default Prometheus
// registerer. The Prometheus server is started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "patrol_dispatch_total",
		Help: "Total number of dispatch decisions",
	}, []string{"outcome"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "patrol_dispatch_conflicts_total",
		Help: "Conditional assignment writes lost to concurrent dispatches",
	})
	distance := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "patrol_dispatch_distance_metres",
		Help:    "Distance between the chosen unit and the incident",
		Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000},
	})
	busy := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "patrol_units_busy",
		Help: "Units currently holding an open assignment",
	})
	fleet := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "patrol_fleet_size",
		Help: "Configured number of patrol units",
	})

	if err := reg.Register(dispatches); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			dispatches = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(conflicts); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			conflicts = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(distance); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			distance = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(busy); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			busy = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(fleet); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			fleet = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{dispatches: dispatches, conflicts: conflicts, distance: distance, busy: busy, fleet: fleet}, nil
}

// RecordDispatchResult increments the decision counters.
func (s *PromSink) RecordDispatchResult(res coremetrics.DispatchResult) error {
	outcome := "unassigned"
	if res.Assigned {
		outcome = "assigned"
		s.distance.Observe(res.DistanceMetres)
	}
	s.dispatches.WithLabelValues(outcome).Inc()
	if res.Conflicts > 0 {
		s.conflicts.Add(float64(res.Conflicts))
	}
	return nil
}

// RecordUnitStates is a no-op for Prometheus; per-unit positions belong in a
// time series store, not labelled gauges.
func (s *PromSink) RecordUnitStates([]coremetrics.UnitStateEvent) error { return nil }

// RecordBusyUnits sets the busy and fleet gauges.
func (s *PromSink) RecordBusyUnits(busy, fleet int) error {
	s.busy.Set(float64(busy))
	s.fleet.Set(float64(fleet))
	return nil
}
