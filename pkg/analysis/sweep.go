// Package analysis layers convenience drivers over pkg/modeller's builder
// surface: an operating-point runner and a static-pin sweep. Neither adds
// a new external interface — both are ordinary callers of
// ModellerFilter's exported methods.
package analysis

import (
	"fmt"

	"github.com/guthmanny/atk-modelling-lite/pkg/modeller"
)

// OperatingPoint is a thin convenience wrapper that runs Setup and
// reports the resulting DC dynamic-pin voltages.
type OperatingPoint struct {
	DynamicState []float64
}

// RunOperatingPoint calls m.Setup and snapshots the resulting state.
func RunOperatingPoint(m *modeller.ModellerFilter) (*OperatingPoint, error) {
	if err := m.Setup(); err != nil {
		return nil, fmt.Errorf("analysis: operating point: %w", err)
	}
	return &OperatingPoint{DynamicState: m.GetDynamicState()}, nil
}

// SweepPoint is one sample of a StaticSweep: the static value that was
// set and the DC dynamic state it produced.
type SweepPoint struct {
	StaticValue  float64
	DynamicState []float64
}

// StaticSweep sweeps a single static pin across a range of values and
// records the DC operating point at each step. ModellerFilter's
// initialized latch makes Setup a one-shot operation per instance, so
// each sweep point gets its own freshly built aggregate rather than
// reusing one across values.
type StaticSweep struct {
	StaticPin int
	Values    []float64
	Results   []SweepPoint
}

// NewStaticSweep builds a sweep over staticPin from start to stop
// (inclusive) in steps of increment.
func NewStaticSweep(staticPin int, start, stop, increment float64) *StaticSweep {
	var values []float64
	for v := start; v <= stop; v += increment {
		values = append(values, v)
	}
	return &StaticSweep{StaticPin: staticPin, Values: values}
}

// Run calls build once per sweep value to obtain a freshly wired, not-yet
// set-up aggregate, overrides StaticPin in baseStatic, sets it, runs
// Setup, and records the resulting dynamic state.
func (s *StaticSweep) Run(build func() *modeller.ModellerFilter, baseStatic []float64) error {
	s.Results = s.Results[:0]
	for _, v := range s.Values {
		m := build()

		static := append([]float64(nil), baseStatic...)
		static[s.StaticPin] = v
		if err := m.SetStaticState(static); err != nil {
			return fmt.Errorf("analysis: sweep static state: %w", err)
		}

		if err := m.Setup(); err != nil {
			return fmt.Errorf("analysis: sweep at static[%d]=%g: %w", s.StaticPin, v, err)
		}

		s.Results = append(s.Results, SweepPoint{StaticValue: v, DynamicState: m.GetDynamicState()})
	}
	return nil
}
