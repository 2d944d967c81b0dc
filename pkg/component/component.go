// Package component defines the contract every circuit element implements
// to plug into pkg/modeller, plus a small reference library (resistor,
// capacitor, ideal voltage source, diode, current source, voltage gain)
// used to exercise that contract and the solver's test scenarios.
package component

import "github.com/guthmanny/atk-modelling-lite/pkg/pin"

// States is the read-only view of the three state vectors a component may
// consult while contributing its equations. Constant time, indices are
// programmer error if out of bounds.
type States interface {
	Voltage(p pin.Pin) float64
}

// Registrar lets a component claim the Kirchhoff-equation override at one
// of its own dynamic pins during Precompute. The latest claim for a given
// dynamic pin wins; conflicting claims across components on the same
// sample are a modelling error the caller is expected to avoid, not one
// the solver detects.
type Registrar interface {
	ClaimEquation(dynamicPinIndex int, localPin int)
}

// ResidualRow accumulates the scalar Kirchhoff (or override) residual for
// the single dynamic pin currently being assembled. Every component whose
// contribution is being asked for the same pin sees the same row, so a
// plain Add is enough to implement both "sum incident currents" and
// "assign the override residual" (the row is guaranteed freshly zeroed
// before the first — and, for an override, the only — contributor runs).
type ResidualRow interface {
	Add(value float64)
}

// JacobianRow accumulates partial derivatives of the residual current
// being assembled with respect to every dynamic pin voltage a component's
// contribution depends on.
type JacobianRow interface {
	Add(dynamicColumn int, value float64)
}

// Component is the abstract capability set every circuit element
// implements. The solver only ever talks to this interface — it has no
// notion of what kind of device it is driving.
type Component interface {
	// NbPins returns this component's fixed pin count.
	NbPins() int
	// Pins returns the pin addresses this component was wired with, in
	// the order add_component received them.
	Pins() []pin.Pin
	// SetPins is called exactly once, by the aggregate, at add_component
	// time.
	SetPins(pins []pin.Pin)
	// Precompute runs once per sample, before the Newton-Raphson solve.
	// A component may read its pins' present voltages (via states) to
	// compute local quantities (a capacitor's Norton equivalent for the
	// coming sample) and may claim an equation override through reg.
	//
	// states and reg are passed explicitly rather than held as a
	// back-pointer to the aggregate.
	Precompute(steadyState bool, states States, reg Registrar)
	// AddCurrent contributes, for local pin k, the current flowing into
	// that pin to the residual row for its dynamic index.
	AddCurrent(k int, row ResidualRow, states States, steadyState bool)
	// AddJacobian contributes the partial derivatives of that current
	// with respect to every dynamic pin voltage it depends on.
	AddJacobian(k int, row JacobianRow, states States, steadyState bool)
	// UpdateState runs once per sample, after the solve converges, so a
	// component can advance internal state (a capacitor's stored charge)
	// from the now-settled pin voltages.
	UpdateState(states States)
}

// Parameterized is implemented by components exposing tunable values
// through the aggregate's flattened parameter list.
type Parameterized interface {
	NumParameters() int
	ParameterName(i int) string
	Parameter(i int) float64
	SetParameter(i int, value float64)
}

// SampleRateAware is implemented by components whose equations depend on
// the block's sample period (Capacitor's trapezoidal Norton equivalent).
// The aggregate calls SetTimeStep once, whenever the sample rate is set or
// changed, not on every sample.
type SampleRateAware interface {
	SetTimeStep(dt float64)
}

// ClockAware is implemented by components whose equations depend on
// absolute simulation time (VoltageSource's waveform generators). The
// aggregate calls SetTime once per sample, before Precompute.
type ClockAware interface {
	SetTime(t float64)
}

// Base implements the pin bookkeeping shared by every component and
// no-op defaults for Precompute/UpdateState, so concrete components only
// need to implement the equations that matter to them.
type Base struct {
	nbPins int
	pins   []pin.Pin
}

// NewBase constructs a Base fixed at nbPins terminals.
func NewBase(nbPins int) Base {
	return Base{nbPins: nbPins}
}

func (b *Base) NbPins() int        { return b.nbPins }
func (b *Base) Pins() []pin.Pin    { return b.pins }
func (b *Base) SetPins(p []pin.Pin) {
	b.pins = p
}

// Precompute is a no-op by default; components with per-sample state
// (Capacitor) or an override to claim (VoltageSource) override it.
func (b *Base) Precompute(steadyState bool, states States, reg Registrar) {}

// UpdateState is a no-op by default; only components with per-sample
// internal state need to advance anything here.
func (b *Base) UpdateState(states States) {}
