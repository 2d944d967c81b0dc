package component

import (
	"math"

	"github.com/guthmanny/atk-modelling-lite/internal/consts"
	"github.com/guthmanny/atk-modelling-lite/pkg/pin"
)

// Diode is a Shockley-law nonlinear element between two pins: anode
// (pins[0]) and cathode (pins[1]). The thermal-voltage default is derived
// from internal/consts rather than hard-coded.
type Diode struct {
	Base
	Is   float64 // Saturation current
	N    float64 // Emission coefficient / ideality factor
	Temp float64 // Junction temperature, kelvin
}

// NewDiode builds a diode with SPICE-typical defaults (Is=1e-14A, N=1.24,
// junction temperature 27C).
func NewDiode() *Diode {
	return &Diode{Base: NewBase(2), Is: 1e-14, N: 1.24, Temp: consts.KELVIN + 27}
}

func (d *Diode) thermalVoltage() float64 {
	return consts.BOLTZMANN * d.Temp / consts.CHARGE
}

func (d *Diode) AddCurrent(k int, row ResidualRow, states States, steadyState bool) {
	pins := d.Pins()
	vAnode := states.Voltage(pins[0])
	vCathode := states.Voltage(pins[1])
	vt := d.N * d.thermalVoltage()
	expTerm := math.Exp((vAnode - vCathode) / vt)
	current := d.Is * (expTerm - 1)

	sign := 1.0
	if k == 0 {
		sign = -1.0
	}
	row.Add(current * sign)
}

func (d *Diode) AddJacobian(k int, row JacobianRow, states States, steadyState bool) {
	pins := d.Pins()
	vAnode := states.Voltage(pins[0])
	vCathode := states.Voltage(pins[1])
	vt := d.N * d.thermalVoltage()
	expTerm := math.Exp((vAnode - vCathode) / vt)
	gd := d.Is / vt * expTerm

	sign := 1.0
	if k == 0 {
		sign = -1.0
	}
	for j, p := range pins {
		if p.Kind != pin.Dynamic {
			continue
		}
		coeff := gd
		if j == 1 {
			coeff = -gd
		}
		row.Add(p.Index, coeff*sign)
	}
}

func (d *Diode) NumParameters() int         { return 2 }
func (d *Diode) ParameterName(i int) string {
	if i == 0 {
		return "Is"
	}
	return "N"
}
func (d *Diode) Parameter(i int) float64 {
	if i == 0 {
		return d.Is
	}
	return d.N
}
func (d *Diode) SetParameter(i int, value float64) {
	if i == 0 {
		d.Is = value
		return
	}
	d.N = value
}
