// Package modeller implements the dynamic modeller: the pin/component
// graph, the Newton-Raphson solver that finds the dynamic-pin voltages
// consistent with a sample's inputs, and the per-block driver that turns
// a stream of input samples into a stream of output samples.
package modeller

import (
	"fmt"
	"math"

	"github.com/guthmanny/atk-modelling-lite/pkg/component"
	"github.com/guthmanny/atk-modelling-lite/pkg/matrix"
	"github.com/guthmanny/atk-modelling-lite/pkg/pin"
)

// Solver defaults, exposed as tunable fields on ModellerFilter.
const (
	DefaultEpsF          = 1e-8
	DefaultEpsX          = 1e-8
	DefaultMaxIterations = 200
	// DefaultMaxDelta bounds a single Newton step's infinity norm; it
	// reshapes the path to the fixed point, not the fixed point itself.
	DefaultMaxDelta = 0.1
)

// gmin-stepping and static-state warmup fallbacks for establishing the
// initial operating point when the baseline Newton solve fails to converge.
const (
	gminSteps    = 10
	warmupPasses = 10
)

type incidence struct {
	compIdx  int
	localPin int
}

type overrideEntry struct {
	compIdx  int
	localPin int
}

// ModellerFilter is the aggregate root: it owns every Component, the three
// state vectors, the dynamic-pin incidence list, and the equation-override
// table.
type ModellerFilter struct {
	nbDynamic, nbStatic, nbInput int

	components []component.Component

	dynamicPins [][]incidence
	overrideEq  []*overrideEntry

	inputState   []float64
	staticState  []float64
	dynamicState []float64

	dynamicNames []string
	staticNames  []string

	sampleRate  float64
	dt          float64
	sampleIndex int

	epsF, epsX, maxDelta float64
	maxIter              int

	initialized  bool
	failureCount int

	sys *matrix.System
}

// New builds an uninitialized aggregate sized for nbDynamic dynamic pins,
// nbStatic static pins and nbInput input pins.
func New(nbDynamic, nbStatic, nbInput int) *ModellerFilter {
	return &ModellerFilter{
		nbDynamic:   nbDynamic,
		nbStatic:    nbStatic,
		nbInput:     nbInput,
		dynamicPins: make([][]incidence, nbDynamic),
		overrideEq:  make([]*overrideEntry, nbDynamic),
		staticState: make([]float64, nbStatic),
		inputState:  make([]float64, nbInput),
		epsF:        DefaultEpsF,
		epsX:        DefaultEpsX,
		maxDelta:    DefaultMaxDelta,
		maxIter:     DefaultMaxIterations,
	}
}

// AddComponent validates pins against comp's pin count and the
// aggregate's pin-kind ranges, transfers ownership of comp into the
// aggregate, and records its dynamic-pin incidences. It must be called
// before Setup.
func (m *ModellerFilter) AddComponent(comp component.Component, pins []pin.Pin) error {
	if m.initialized {
		return &StateError{Operation: "AddComponent", Reason: "called after Setup"}
	}

	name := fmt.Sprintf("%T", comp)
	if len(pins) != comp.NbPins() {
		return &WiringError{Component: name, Reason: fmt.Sprintf("expected %d pins, got %d", comp.NbPins(), len(pins))}
	}

	for _, p := range pins {
		var bound int
		switch p.Kind {
		case pin.Input:
			bound = m.nbInput
		case pin.Static:
			bound = m.nbStatic
		case pin.Dynamic:
			bound = m.nbDynamic
		default:
			return &WiringError{Component: name, Reason: fmt.Sprintf("unknown pin kind %d", p.Kind)}
		}
		if p.Index < 0 || p.Index >= bound {
			return &WiringError{Component: name, Reason: fmt.Sprintf("%s index %d out of range [0,%d)", p.Kind, p.Index, bound)}
		}
	}

	comp.SetPins(pins)
	idx := len(m.components)
	m.components = append(m.components, comp)

	for k, p := range pins {
		if p.Kind == pin.Dynamic {
			m.dynamicPins[p.Index] = append(m.dynamicPins[p.Index], incidence{compIdx: idx, localPin: k})
		}
	}
	return nil
}

// SetStaticState sets the fixed static-pin voltages; len(vec) must equal
// nbStatic.
func (m *ModellerFilter) SetStaticState(vec []float64) error {
	if len(vec) != m.nbStatic {
		return &DimensionError{Vector: "static_state", Want: m.nbStatic, Got: len(vec)}
	}
	copy(m.staticState, vec)
	return nil
}

// SetDynamicPinNames attaches optional labels to dynamic pins; positional
// index remains canonical regardless of names supplied.
func (m *ModellerFilter) SetDynamicPinNames(names []string) {
	m.dynamicNames = append([]string(nil), names...)
}

// SetStaticPinNames attaches optional labels to static pins.
func (m *ModellerFilter) SetStaticPinNames(names []string) {
	m.staticNames = append([]string(nil), names...)
}

// SetSampleRate records the driver's sample rate and propagates the
// resulting sample period to every component implementing
// component.SampleRateAware (e.g. Capacitor).
func (m *ModellerFilter) SetSampleRate(hz float64) {
	m.sampleRate = hz
	if hz > 0 {
		m.dt = 1.0 / hz
	}
	for _, c := range m.components {
		if sr, ok := c.(component.SampleRateAware); ok {
			sr.SetTimeStep(m.dt)
		}
	}
}

// Setup performs the one-time DC operating-point solve: a steady-state
// precompute pass, a steady-state solve, then a second steady-state
// precompute pass on the converged state (UpdateState is not called). If
// the baseline solve returns any error (NonConvergence or SingularSystem)
// it falls back, in order, to gmin stepping and a static-state warmup ramp
// before giving up.
func (m *ModellerFilter) Setup() error {
	if m.initialized {
		return &StateError{Operation: "Setup", Reason: "already initialized"}
	}

	sys, err := matrix.New(m.nbDynamic)
	if err != nil {
		return err
	}
	m.sys = sys
	m.dynamicState = make([]float64, m.nbDynamic)

	m.runClockUpdate()
	m.runPrecompute(true)

	if err := m.checkWiringComplete(); err != nil {
		return err
	}

	if err := m.establishOperatingPoint(); err != nil {
		return err
	}

	m.initialized = true
	return nil
}

// checkWiringComplete requires every dynamic pin to either be claimed by
// an override or have at least one incident component. Checked here, right
// after the first precompute pass has populated the override table, so a
// floating pin is caught with a specific diagnostic rather than surfacing
// later as a singular Jacobian.
func (m *ModellerFilter) checkWiringComplete() error {
	for d := 0; d < m.nbDynamic; d++ {
		if m.overrideEq[d] == nil && len(m.dynamicPins[d]) == 0 {
			return &WiringError{Component: "<aggregate>", Reason: fmt.Sprintf("dynamic pin %d is floating: no incident component and no override", d)}
		}
	}
	return nil
}

func (m *ModellerFilter) establishOperatingPoint() error {
	if err := m.solve(true, 0); err == nil {
		m.runPrecompute(true)
		return nil
	}

	if err := m.gminSteppingSolve(); err == nil {
		m.runPrecompute(true)
		return nil
	}

	return m.warmupRampSolve()
}

// gminSteppingSolve loads a decade-stepped conductance onto every dynamic
// pin's diagonal Jacobian entry and ramps it down to zero, each step
// re-precomputing and re-solving from the previous step's state.
func (m *ModellerFilter) gminSteppingSolve() error {
	start := float64(m.nbDynamic) * 0.001
	if start == 0 {
		start = 0.001
	}
	gmin := start * math.Pow(10, gminSteps)

	for i := 0; i <= gminSteps; i++ {
		m.runPrecompute(true)
		if err := m.solve(true, gmin); err != nil {
			return err
		}
		gmin /= 10
	}

	m.runPrecompute(true)
	return m.solve(true, 0)
}

// warmupRampSolve ramps static_state linearly from zero up to its target
// value over warmupPasses precompute+solve passes (each successful solve is
// followed by a steady precompute on the converged state), restoring the
// target value whether or not it converges.
func (m *ModellerFilter) warmupRampSolve() error {
	target := append([]float64(nil), m.staticState...)
	defer copy(m.staticState, target)

	var lastErr error
	for i := 1; i <= warmupPasses; i++ {
		frac := float64(i) / float64(warmupPasses)
		for j := range m.staticState {
			m.staticState[j] = target[j] * frac
		}
		m.runPrecompute(true)
		if err := m.solve(true, 0); err != nil {
			lastErr = err
			continue
		}
		m.runPrecompute(true)
		lastErr = nil
	}
	return lastErr
}

// Process is the per-block driver: for each of blockSize samples it copies
// the input frame, runs a transient solve, advances every component's
// internal state, and writes the mapped dynamic pin voltages into outputs.
// NonConvergence/SingularSystem do not abort the block — the degraded
// dynamic_state is still written out, and FailureCount tracks how often
// that happened.
func (m *ModellerFilter) Process(blockSize int, inputs [][]float64, outputs [][]float64, outputMapping []int) error {
	if !m.initialized {
		return &StateError{Operation: "Process", Reason: "Setup was not called"}
	}
	if len(inputs) != m.nbInput {
		return &DimensionError{Vector: "inputs", Want: m.nbInput, Got: len(inputs)}
	}
	if len(outputs) != len(outputMapping) {
		return &DimensionError{Vector: "outputs", Want: len(outputMapping), Got: len(outputs)}
	}

	for t := 0; t < blockSize; t++ {
		for p := 0; p < m.nbInput; p++ {
			m.inputState[p] = inputs[p][t]
		}

		m.runClockUpdate()
		m.runPrecompute(false)
		if err := m.solve(false, 0); err != nil {
			_ = err // surfaced via FailureCount; block continues regardless
		}
		m.runUpdateState()

		for o, d := range outputMapping {
			outputs[o][t] = m.dynamicState[d]
		}

		m.sampleIndex++
	}
	return nil
}

// solve runs Newton-Raphson to convergence or MaxIterations, whichever
// comes first.
func (m *ModellerFilter) solve(steadyState bool, gmin float64) error {
	var fNorm, deltaNorm float64
	for iter := 0; iter < m.maxIter; iter++ {
		converged, err := m.iterate(steadyState, gmin, &fNorm, &deltaNorm)
		if err != nil {
			m.failureCount++
			return &SingularSystem{Iteration: iter, LastIterate: m.snapshotDynamicState(), Cause: err}
		}
		if converged {
			return nil
		}
	}
	m.failureCount++
	return &NonConvergence{Iterations: m.maxIter, ResidualNorm: fNorm, DeltaNorm: deltaNorm, LastIterate: m.snapshotDynamicState()}
}

// iterate assembles F and J once, checks the residual tolerance, solves
// J*delta=F, damps and applies delta, then checks the delta tolerance.
func (m *ModellerFilter) iterate(steadyState bool, gmin float64, fNorm, deltaNorm *float64) (bool, error) {
	m.sys.Clear()
	states := m.stateView()

	for d := 0; d < m.nbDynamic; d++ {
		if ov := m.overrideEq[d]; ov != nil {
			comp := m.components[ov.compIdx]
			comp.AddCurrent(ov.localPin, m.sys.ResidualRow(d), states, steadyState)
			comp.AddJacobian(ov.localPin, m.sys.JacobianRow(d), states, steadyState)
			continue
		}
		for _, inc := range m.dynamicPins[d] {
			comp := m.components[inc.compIdx]
			comp.AddCurrent(inc.localPin, m.sys.ResidualRow(d), states, steadyState)
			comp.AddJacobian(inc.localPin, m.sys.JacobianRow(d), states, steadyState)
		}
	}

	if gmin > 0 {
		for d := 0; d < m.nbDynamic; d++ {
			if m.overrideEq[d] != nil {
				continue
			}
			m.sys.JacobianRow(d).Add(d, gmin)
		}
	}

	*fNorm = matrix.InfNorm(m.sys.F())
	if *fNorm < m.epsF {
		return true, nil
	}

	delta, err := m.sys.Solve()
	if err != nil {
		return false, err
	}

	*deltaNorm = matrix.InfNorm(delta)
	if *deltaNorm > m.maxDelta {
		scale := m.maxDelta / *deltaNorm
		for i := range delta {
			delta[i] *= scale
		}
	}

	for i := range m.dynamicState {
		m.dynamicState[i] -= delta[i]
	}

	return *deltaNorm < m.epsX, nil
}

func (m *ModellerFilter) snapshotDynamicState() []float64 {
	return append([]float64(nil), m.dynamicState...)
}

func (m *ModellerFilter) runClockUpdate() {
	t := float64(m.sampleIndex) * m.dt
	for _, c := range m.components {
		if ck, ok := c.(component.ClockAware); ok {
			ck.SetTime(t)
		}
	}
}

func (m *ModellerFilter) runPrecompute(steadyState bool) {
	states := m.stateView()
	for i, c := range m.components {
		c.Precompute(steadyState, states, registrar{m: m, compIdx: i})
	}
}

func (m *ModellerFilter) runUpdateState() {
	states := m.stateView()
	for _, c := range m.components {
		c.UpdateState(states)
	}
}

func (m *ModellerFilter) stateView() component.States { return stateView{m: m} }

// stateView implements component.States by reading straight from the
// aggregate's three state vectors.
type stateView struct{ m *ModellerFilter }

func (s stateView) Voltage(p pin.Pin) float64 {
	switch p.Kind {
	case pin.Input:
		return s.m.inputState[p.Index]
	case pin.Static:
		return s.m.staticState[p.Index]
	case pin.Dynamic:
		return s.m.dynamicState[p.Index]
	default:
		return 0
	}
}

// registrar implements component.Registrar for one component's Precompute
// call; the last claim on a given dynamic pin wins, since ClaimEquation
// simply overwrites the table entry on every call.
type registrar struct {
	m       *ModellerFilter
	compIdx int
}

func (r registrar) ClaimEquation(dynamicPinIndex, localPin int) {
	r.m.overrideEq[dynamicPinIndex] = &overrideEntry{compIdx: r.compIdx, localPin: localPin}
}

// RetrieveVoltage returns the scalar state-vector entry a pin addresses.
func (m *ModellerFilter) RetrieveVoltage(p pin.Pin) float64 { return m.stateView().Voltage(p) }

func (m *ModellerFilter) GetNbDynamicPins() int { return m.nbDynamic }
func (m *ModellerFilter) GetNbStaticPins() int  { return m.nbStatic }
func (m *ModellerFilter) GetNbInputPins() int   { return m.nbInput }
func (m *ModellerFilter) GetNbComponents() int  { return len(m.components) }

func (m *ModellerFilter) GetDynamicPinName(i int) string {
	if i < 0 || i >= len(m.dynamicNames) {
		return ""
	}
	return m.dynamicNames[i]
}

func (m *ModellerFilter) GetStaticPinName(i int) string {
	if i < 0 || i >= len(m.staticNames) {
		return ""
	}
	return m.staticNames[i]
}

func (m *ModellerFilter) GetStaticState() []float64 {
	return append([]float64(nil), m.staticState...)
}

func (m *ModellerFilter) GetDynamicState() []float64 {
	return append([]float64(nil), m.dynamicState...)
}

func (m *ModellerFilter) GetInputState() []float64 {
	return append([]float64(nil), m.inputState...)
}

// FailureCount reports the number of Newton solves that did not cleanly
// converge (NonConvergence or SingularSystem), for diagnostics: one per
// failed sample in Process, plus every failed solve attempted during Setup
// (including gmin-stepping and warmup fallback steps).
func (m *ModellerFilter) FailureCount() int { return m.failureCount }

// GetNumberParameters returns the size of the flattened parameter view:
// components in insertion order, each contributing its own parameter count.
func (m *ModellerFilter) GetNumberParameters() int {
	n := 0
	for _, c := range m.components {
		if p, ok := c.(component.Parameterized); ok {
			n += p.NumParameters()
		}
	}
	return n
}

func (m *ModellerFilter) paramOwner(i int) (component.Parameterized, int, bool) {
	if i < 0 {
		return nil, 0, false
	}
	for _, c := range m.components {
		p, ok := c.(component.Parameterized)
		if !ok {
			continue
		}
		if i < p.NumParameters() {
			return p, i, true
		}
		i -= p.NumParameters()
	}
	return nil, 0, false
}

// GetParameterName returns "" for an out-of-range index; parameter APIs
// use sentinel values rather than silently succeeding on bad input.
func (m *ModellerFilter) GetParameterName(i int) string {
	if p, local, ok := m.paramOwner(i); ok {
		return p.ParameterName(local)
	}
	return ""
}

// GetParameter returns NaN for an out-of-range index.
func (m *ModellerFilter) GetParameter(i int) float64 {
	if p, local, ok := m.paramOwner(i); ok {
		return p.Parameter(local)
	}
	return math.NaN()
}

// SetParameter reports whether i addressed a real parameter.
func (m *ModellerFilter) SetParameter(i int, value float64) bool {
	if p, local, ok := m.paramOwner(i); ok {
		p.SetParameter(local, value)
		return true
	}
	return false
}
