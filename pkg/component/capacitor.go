package component

import "github.com/guthmanny/atk-modelling-lite/pkg/pin"

// Capacitor is a trapezoidal-integrated Norton equivalent between two
// pins: a conductance c2t = 2C/dt in parallel with a current source iceq
// that carries the element's history.
//
// In steady state the capacitor is invisible to the solver — only DC
// paths matter, so it contributes zero current and zero conductance.
type Capacitor struct {
	Base
	C    float64
	dt   float64
	c2t  float64
	iceq float64
}

// NewCapacitor builds a capacitor of value c farads between two pins.
func NewCapacitor(c float64) *Capacitor {
	return &Capacitor{Base: NewBase(2), C: c}
}

// SetTimeStep implements the optional SampleRateAware interface; the
// aggregate calls it once the sample rate is known.
func (c *Capacitor) SetTimeStep(dt float64) {
	c.dt = dt
}

func (c *Capacitor) Precompute(steadyState bool, states States, reg Registrar) {
	if c.dt > 0 {
		c.c2t = 2 * c.C / c.dt
	}
	if steadyState {
		pins := c.Pins()
		v0 := states.Voltage(pins[0])
		v1 := states.Voltage(pins[1])
		c.iceq = c.c2t * (v1 - v0)
	}
}

func (c *Capacitor) AddCurrent(k int, row ResidualRow, states States, steadyState bool) {
	if steadyState {
		return
	}
	pins := c.Pins()
	v0 := states.Voltage(pins[0])
	v1 := states.Voltage(pins[1])
	sign := 1.0
	if k == 1 {
		sign = -1.0
	}
	row.Add(((v1-v0)*c.c2t - c.iceq) * sign)
}

func (c *Capacitor) AddJacobian(k int, row JacobianRow, states States, steadyState bool) {
	if steadyState {
		return
	}
	pins := c.Pins()
	sign := 1.0
	if k == 1 {
		sign = -1.0
	}
	for j, p := range pins {
		if p.Kind != pin.Dynamic {
			continue
		}
		coeff := c.c2t
		if j == 0 {
			coeff = -c.c2t
		}
		row.Add(p.Index, coeff*sign)
	}
}

// UpdateState advances the trapezoidal history term once a sample's solve
// has converged: iceq <- 2*c2t*(v1-v0) - iceq.
func (c *Capacitor) UpdateState(states States) {
	pins := c.Pins()
	v0 := states.Voltage(pins[0])
	v1 := states.Voltage(pins[1])
	c.iceq = 2*c.c2t*(v1-v0) - c.iceq
}

func (c *Capacitor) NumParameters() int          { return 1 }
func (c *Capacitor) ParameterName(i int) string  { return "C" }
func (c *Capacitor) Parameter(i int) float64     { return c.C }
func (c *Capacitor) SetParameter(i int, v float64) { c.C = v }
