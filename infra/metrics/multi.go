package metrics

import (
	"errors"

	coremetrics "github.com/sunnyysetia/patrolsim/core/metrics"
)

// MultiSink fans records out to several sinks, collecting every error.
type MultiSink struct {
	sinks []coremetrics.Sink
}

// NewMultiSink combines the given sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordDispatchResult(res coremetrics.DispatchResult) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordDispatchResult(res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordUnitStates(states []coremetrics.UnitStateEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordUnitStates(states); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordBusyUnits(busy, fleet int) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordBusyUnits(busy, fleet); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
