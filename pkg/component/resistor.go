package component

import "github.com/guthmanny/atk-modelling-lite/pkg/pin"

// Resistor is a linear conductance between two pins: current into pin 0
// is (v1-v0)*G, current into pin 1 is the negation.
type Resistor struct {
	Base
	R float64
}

// NewResistor builds a resistor of value r ohms between the two given pins.
func NewResistor(r float64) *Resistor {
	return &Resistor{Base: NewBase(2), R: r}
}

func (r *Resistor) conductance() float64 { return 1.0 / r.R }

func (r *Resistor) AddCurrent(k int, row ResidualRow, states States, steadyState bool) {
	pins := r.Pins()
	v0 := states.Voltage(pins[0])
	v1 := states.Voltage(pins[1])
	sign := 1.0
	if k == 1 {
		sign = -1.0
	}
	row.Add((v1 - v0) * r.conductance() * sign)
}

func (r *Resistor) AddJacobian(k int, row JacobianRow, states States, steadyState bool) {
	pins := r.Pins()
	sign := 1.0
	if k == 1 {
		sign = -1.0
	}
	g := r.conductance()
	for j, p := range pins {
		if p.Kind != pin.Dynamic {
			continue
		}
		coeff := g
		if j == 0 {
			coeff = -g
		}
		row.Add(p.Index, coeff*sign)
	}
}

func (r *Resistor) NumParameters() int          { return 1 }
func (r *Resistor) ParameterName(i int) string  { return "R" }
func (r *Resistor) Parameter(i int) float64     { return r.R }
func (r *Resistor) SetParameter(i int, v float64) { r.R = v }
