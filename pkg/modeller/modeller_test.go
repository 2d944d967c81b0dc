package modeller

import (
	"math"
	"testing"

	"github.com/guthmanny/atk-modelling-lite/pkg/component"
	"github.com/guthmanny/atk-modelling-lite/pkg/pin"
)

func buildDivider() *ModellerFilter {
	m := New(1, 1, 1)
	m.AddComponent(component.NewResistor(1000), []pin.Pin{pin.New(pin.Input, 0), pin.New(pin.Dynamic, 0)})
	m.AddComponent(component.NewResistor(1000), []pin.Pin{pin.New(pin.Dynamic, 0), pin.New(pin.Static, 0)})
	return m
}

func buildLowPass() *ModellerFilter {
	m := New(1, 1, 1)
	m.AddComponent(component.NewResistor(1000), []pin.Pin{pin.New(pin.Input, 0), pin.New(pin.Dynamic, 0)})
	m.AddComponent(component.NewCapacitor(1e-3), []pin.Pin{pin.New(pin.Static, 0), pin.New(pin.Dynamic, 0)})
	return m
}

// Voltage divider: constant 1V input settles to 0.5V.
func TestVoltageDividerSteadyState(t *testing.T) {
	m := buildDivider()
	if err := m.SetStaticState([]float64{0}); err != nil {
		t.Fatalf("SetStaticState: %v", err)
	}
	m.SetSampleRate(48000)

	if err := m.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	blockSize := 5
	inputs := [][]float64{{1, 1, 1, 1, 1}}
	outputs := [][]float64{make([]float64, blockSize)}
	if err := m.Process(blockSize, inputs, outputs, []int{0}); err != nil {
		t.Fatalf("Process: %v", err)
	}

	for i, v := range outputs[0] {
		if math.Abs(v-0.5) > 1e-6 {
			t.Errorf("output[%d] = %g, want 0.5 within 1e-6", i, v)
		}
	}
}

// The divider's DC output does not depend on sample rate.
func TestSampleRateInvarianceOfDC(t *testing.T) {
	run := func(rate float64) float64 {
		m := buildDivider()
		m.SetStaticState([]float64{0})
		m.SetSampleRate(rate)
		if err := m.Setup(); err != nil {
			t.Fatalf("Setup at %g Hz: %v", rate, err)
		}
		inputs := [][]float64{{1}}
		outputs := [][]float64{make([]float64, 1)}
		if err := m.Process(1, inputs, outputs, []int{0}); err != nil {
			t.Fatalf("Process at %g Hz: %v", rate, err)
		}
		return outputs[0][0]
	}

	v8k := run(8000)
	v96k := run(96000)
	if math.Abs(v8k-v96k) > 1e-9 {
		t.Errorf("DC output differs across sample rates: %g Hz -> %g, %g Hz -> %g", 8000.0, v8k, 96000.0, v96k)
	}
}

// A dynamic pin with no incident component and no override must be caught
// at Setup.
func TestFloatingNodeDetection(t *testing.T) {
	m := New(1, 0, 0)
	if err := m.Setup(); err == nil {
		t.Fatal("Setup on a floating dynamic pin succeeded, want an error")
	} else if _, ok := err.(*WiringError); !ok {
		t.Errorf("Setup error = %T (%v), want *WiringError", err, err)
	}
}

// An ideal voltage source's override pins its dynamic pin's voltage
// exactly.
func TestOverrideCoherence(t *testing.T) {
	m := New(1, 1, 0)
	src := component.NewDCVoltageSource(3.3)
	if err := m.AddComponent(src, []pin.Pin{pin.New(pin.Dynamic, 0), pin.New(pin.Static, 0)}); err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	if err := m.SetStaticState([]float64{0}); err != nil {
		t.Fatalf("SetStaticState: %v", err)
	}
	m.SetSampleRate(48000)

	if err := m.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	got := m.RetrieveVoltage(pin.New(pin.Dynamic, 0))
	if math.Abs(got-3.3) > 1e-9 {
		t.Errorf("RetrieveVoltage(Dynamic,0) = %g, want 3.3", got)
	}
}

// Every parameter round-trips through Set/Get.
func TestParameterReRead(t *testing.T) {
	m := buildLowPass()
	n := m.GetNumberParameters()
	if n != 2 {
		t.Fatalf("GetNumberParameters() = %d, want 2 (R and C)", n)
	}
	for k := 0; k < n; k++ {
		want := float64(k) + 42.5
		if ok := m.SetParameter(k, want); !ok {
			t.Fatalf("SetParameter(%d, ...) reported failure", k)
		}
		if got := m.GetParameter(k); got != want {
			t.Errorf("GetParameter(%d) = %g, want %g", k, got, want)
		}
	}
	if ok := m.SetParameter(n, 1); ok {
		t.Errorf("SetParameter(out of range) reported success")
	}
	if name := m.GetParameterName(n); name != "" {
		t.Errorf("GetParameterName(out of range) = %q, want \"\"", name)
	}
	if v := m.GetParameter(n); !math.IsNaN(v) {
		t.Errorf("GetParameter(out of range) = %g, want NaN", v)
	}
}

// RC low-pass step response.
func TestRCLowPassStepResponse(t *testing.T) {
	const (
		r          = 1000.0
		c          = 1e-3
		sampleRate = 48000.0
		blockSize  = 100
	)
	dt := 1.0 / sampleRate

	m := buildLowPass()
	m.SetStaticState([]float64{0})
	m.SetSampleRate(sampleRate)
	if err := m.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	inputs := [][]float64{make([]float64, blockSize)}
	for i := range inputs[0] {
		inputs[0][i] = 1.0
	}
	outputs := [][]float64{make([]float64, blockSize)}
	if err := m.Process(blockSize, inputs, outputs, []int{0}); err != nil {
		t.Fatalf("Process: %v", err)
	}

	for i, v := range outputs[0] {
		want := 1 - math.Exp(-(float64(i)+0.5)*dt/(r*c))
		tol := 0.01 * math.Max(1, math.Abs(want))
		if math.Abs(v-want) > tol {
			t.Errorf("output[%d] = %g, want %g within 1%%", i, v, want)
		}
	}
}

// Determinism: two back-to-back runs on identical inputs
// produce bit-identical output.
func TestDeterminism(t *testing.T) {
	run := func() []float64 {
		m := buildLowPass()
		m.SetStaticState([]float64{0})
		m.SetSampleRate(48000)
		if err := m.Setup(); err != nil {
			t.Fatalf("Setup: %v", err)
		}
		const n = 50
		inputs := [][]float64{make([]float64, n)}
		for i := range inputs[0] {
			inputs[0][i] = math.Sin(float64(i) * 0.1)
		}
		outputs := [][]float64{make([]float64, n)}
		if err := m.Process(n, inputs, outputs, []int{0}); err != nil {
			t.Fatalf("Process: %v", err)
		}
		return outputs[0]
	}

	a := run()
	b := run()
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("sample %d differs: %g vs %g", i, a[i], b[i])
		}
	}
}

// Linearity: scaling every input sample by alpha scales the
// output by alpha, for a network with no nonlinear components.
func TestLinearityInLinearNetworks(t *testing.T) {
	const alpha = 3.0

	run := func(scale float64) []float64 {
		m := buildLowPass()
		m.SetStaticState([]float64{0})
		m.SetSampleRate(48000)
		if err := m.Setup(); err != nil {
			t.Fatalf("Setup: %v", err)
		}
		const n = 30
		inputs := [][]float64{make([]float64, n)}
		for i := range inputs[0] {
			inputs[0][i] = scale * math.Sin(float64(i)*0.2)
		}
		outputs := [][]float64{make([]float64, n)}
		if err := m.Process(n, inputs, outputs, []int{0}); err != nil {
			t.Fatalf("Process: %v", err)
		}
		return outputs[0]
	}

	base := run(1)
	scaled := run(alpha)
	for i := range base {
		want := alpha * base[i]
		if math.Abs(scaled[i]-want) > 1e-8*math.Max(1, math.Abs(want)) {
			t.Errorf("sample %d: scaled output = %g, want %g", i, scaled[i], want)
		}
	}
}

// Steady-state idempotence: after Setup, holding the input constant
// reproduces the first sample's value on every later sample, with no
// failed solves.
func TestSteadyStateIdempotence(t *testing.T) {
	m := buildDivider()
	m.SetStaticState([]float64{0})
	m.SetSampleRate(48000)
	if err := m.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	const n = 10
	inputs := [][]float64{make([]float64, n)}
	for i := range inputs[0] {
		inputs[0][i] = 1.0
	}
	outputs := [][]float64{make([]float64, n)}
	if err := m.Process(n, inputs, outputs, []int{0}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	first := outputs[0][0]
	for i, v := range outputs[0] {
		if math.Abs(v-first) > 1e-9 {
			t.Errorf("sample %d = %g, drifted from steady value %g", i, v, first)
		}
	}
	if m.FailureCount() != 0 {
		t.Errorf("FailureCount() = %d, want 0 for a well-conditioned linear network", m.FailureCount())
	}
}

// Steady-state idempotence must also hold for a capacitor left with a
// nonzero DC bias after Setup, not just the bias-free divider above.
func TestSteadyStateIdempotenceWithBiasedCapacitor(t *testing.T) {
	m := New(1, 2, 0)
	if err := m.AddComponent(component.NewResistor(1000), []pin.Pin{pin.New(pin.Static, 0), pin.New(pin.Dynamic, 0)}); err != nil {
		t.Fatalf("AddComponent resistor: %v", err)
	}
	if err := m.AddComponent(component.NewCapacitor(1e-3), []pin.Pin{pin.New(pin.Dynamic, 0), pin.New(pin.Static, 1)}); err != nil {
		t.Fatalf("AddComponent capacitor: %v", err)
	}
	if err := m.SetStaticState([]float64{5, 0}); err != nil {
		t.Fatalf("SetStaticState: %v", err)
	}
	m.SetSampleRate(48000)
	if err := m.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	dc := m.RetrieveVoltage(pin.New(pin.Dynamic, 0))
	if math.Abs(dc-5) > 1e-9 {
		t.Fatalf("DC operating point = %g, want 5", dc)
	}

	const n = 10
	outputs := [][]float64{make([]float64, n)}
	if err := m.Process(n, nil, outputs, []int{0}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i, v := range outputs[0] {
		if math.Abs(v-5) > 1e-9 {
			t.Errorf("sample %d = %g, drifted from steady value 5", i, v)
		}
	}
	if m.FailureCount() != 0 {
		t.Errorf("FailureCount() = %d, want 0", m.FailureCount())
	}
}

func TestAddComponentAfterSetupIsStateError(t *testing.T) {
	m := buildDivider()
	m.SetStaticState([]float64{0})
	m.SetSampleRate(48000)
	if err := m.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	err := m.AddComponent(component.NewResistor(1), []pin.Pin{pin.New(pin.Static, 0), pin.New(pin.Dynamic, 0)})
	if _, ok := err.(*StateError); !ok {
		t.Errorf("AddComponent after Setup = %T (%v), want *StateError", err, err)
	}
}

func TestProcessBeforeSetupIsStateError(t *testing.T) {
	m := buildDivider()
	inputs := [][]float64{{1}}
	outputs := [][]float64{make([]float64, 1)}
	err := m.Process(1, inputs, outputs, []int{0})
	if _, ok := err.(*StateError); !ok {
		t.Errorf("Process before Setup = %T (%v), want *StateError", err, err)
	}
}

func TestSetStaticStateWrongDimension(t *testing.T) {
	m := buildDivider()
	err := m.SetStaticState([]float64{0, 1})
	if _, ok := err.(*DimensionError); !ok {
		t.Errorf("SetStaticState wrong length = %T (%v), want *DimensionError", err, err)
	}
}

func TestAddComponentWiringErrors(t *testing.T) {
	m := New(1, 1, 1)

	if err := m.AddComponent(component.NewResistor(1), []pin.Pin{pin.New(pin.Input, 0)}); err == nil {
		t.Fatal("expected WiringError for wrong pin count")
	} else if _, ok := err.(*WiringError); !ok {
		t.Errorf("wrong pin count error = %T, want *WiringError", err)
	}

	if err := m.AddComponent(component.NewResistor(1), []pin.Pin{pin.New(pin.Dynamic, 5), pin.New(pin.Static, 0)}); err == nil {
		t.Fatal("expected WiringError for out-of-range dynamic pin index")
	} else if _, ok := err.(*WiringError); !ok {
		t.Errorf("out-of-range pin error = %T, want *WiringError", err)
	}
}
