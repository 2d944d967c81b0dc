package component

import (
	"math"

	"github.com/guthmanny/atk-modelling-lite/pkg/pin"
)

// Waveform selects the time-varying law an ideal VoltageSource follows.
type Waveform int

const (
	DC Waveform = iota
	Sine
	Pulse
	PWL
)

// VoltageSource is an ideal two-terminal source: it claims the Kirchhoff
// override at its positive pin and replaces that pin's equation with
// v_pos - v_neg = V(t).
type VoltageSource struct {
	Base
	waveform Waveform

	dcValue float64

	amplitude float64
	freq      float64
	phase     float64

	v1, v2, delay, rise, fall, pWidth, period float64

	times, values []float64

	time float64
}

// NewDCVoltageSource builds an ideal DC source of the given value between
// two pins (pins[0] positive, pins[1] negative/reference).
func NewDCVoltageSource(value float64) *VoltageSource {
	return &VoltageSource{Base: NewBase(2), waveform: DC, dcValue: value}
}

// NewSineVoltageSource builds offset + amplitude*sin(2*pi*freq*t + phase).
func NewSineVoltageSource(offset, amplitude, freq, phaseDeg float64) *VoltageSource {
	return &VoltageSource{
		Base: NewBase(2), waveform: Sine,
		dcValue: offset, amplitude: amplitude, freq: freq, phase: phaseDeg,
	}
}

// NewPulseVoltageSource builds a trapezoidal pulse train.
func NewPulseVoltageSource(v1, v2, delay, rise, fall, pWidth, period float64) *VoltageSource {
	return &VoltageSource{
		Base: NewBase(2), waveform: Pulse,
		v1: v1, v2: v2, delay: delay, rise: rise, fall: fall, pWidth: pWidth, period: period,
	}
}

// NewPWLVoltageSource builds a piecewise-linear source interpolated
// between (times[i], values[i]) knots.
func NewPWLVoltageSource(times, values []float64) *VoltageSource {
	return &VoltageSource{Base: NewBase(2), waveform: PWL, times: times, values: values}
}

// SetTime advances the source's internal clock; the aggregate calls it
// once per sample before Precompute.
func (v *VoltageSource) SetTime(t float64) { v.time = t }

// Value returns the present source voltage.
func (v *VoltageSource) Value() float64 {
	switch v.waveform {
	case DC:
		return v.dcValue
	case Sine:
		phaseRad := v.phase * math.Pi / 180.0
		return v.dcValue + v.amplitude*math.Sin(2*math.Pi*v.freq*v.time+phaseRad)
	case Pulse:
		return v.pulseValue()
	case PWL:
		return v.pwlValue()
	default:
		return 0
	}
}

// SetValue overrides the DC value, e.g. for a static sweep.
func (v *VoltageSource) SetValue(value float64) {
	v.waveform = DC
	v.dcValue = value
}

func (v *VoltageSource) pulseValue() float64 {
	t := v.time
	if t < v.delay {
		return v.v1
	}
	t -= v.delay
	if v.period > 0 {
		t = math.Mod(t, v.period)
	}
	if t < v.rise {
		if v.rise == 0 {
			return v.v2
		}
		return v.v1 + (v.v2-v.v1)*t/v.rise
	}
	if t < v.rise+v.pWidth {
		return v.v2
	}
	fallStart := v.rise + v.pWidth
	if t < fallStart+v.fall {
		if v.fall == 0 {
			return v.v1
		}
		return v.v2 - (v.v2-v.v1)*(t-fallStart)/v.fall
	}
	return v.v1
}

func (v *VoltageSource) pwlValue() float64 {
	t := v.time
	if t <= v.times[0] {
		return v.values[0]
	}
	last := len(v.times) - 1
	if t >= v.times[last] {
		return v.values[last]
	}
	for i := 1; i < len(v.times); i++ {
		if t <= v.times[i] {
			t0, t1 := v.times[i-1], v.times[i]
			v0, v1 := v.values[i-1], v.values[i]
			return v0 + (v1-v0)*(t-t0)/(t1-t0)
		}
	}
	return v.values[last]
}

func (v *VoltageSource) Precompute(steadyState bool, states States, reg Registrar) {
	if v.Pins()[0].Kind == pin.Dynamic {
		reg.ClaimEquation(v.Pins()[0].Index, 0)
	}
}

// AddCurrent assigns the override residual at local pin 0:
// v_pos - v_neg - V(t). Local pin 1 contributes nothing — the aggregate
// never calls AddCurrent for a non-overridden, non-dynamic pin, and pin 1
// is only ever dynamic if pin 0 also is, in which case the reference node
// itself carries the ordinary Kirchhoff sum instead.
func (v *VoltageSource) AddCurrent(k int, row ResidualRow, states States, steadyState bool) {
	if k != 0 {
		return
	}
	pins := v.Pins()
	vPos := states.Voltage(pins[0])
	vNeg := states.Voltage(pins[1])
	row.Add(vPos - vNeg - v.Value())
}

func (v *VoltageSource) AddJacobian(k int, row JacobianRow, states States, steadyState bool) {
	if k != 0 {
		return
	}
	pins := v.Pins()
	if pins[0].Kind == pin.Dynamic {
		row.Add(pins[0].Index, 1)
	}
	if pins[1].Kind == pin.Dynamic {
		row.Add(pins[1].Index, -1)
	}
}

func (v *VoltageSource) NumParameters() int         { return 1 }
func (v *VoltageSource) ParameterName(i int) string { return "V" }
func (v *VoltageSource) Parameter(i int) float64    { return v.dcValue }
func (v *VoltageSource) SetParameter(i int, value float64) {
	v.dcValue = value
}
