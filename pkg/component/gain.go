package component

import "github.com/guthmanny/atk-modelling-lite/pkg/pin"

// OpAmp is an ideal (infinite-gain, zero-output-impedance) operational
// amplifier: pins are (V-, V+, Vo). It contributes no current of its own;
// instead it claims the Kirchhoff override at Vo and replaces that pin's
// equation with the virtual-short constraint V- - V+ = 0. Vo's actual
// voltage is then pinned by whatever feedback network the caller wires
// around the op-amp, exactly as in a textbook nullor analysis.
type OpAmp struct {
	Base
}

// NewOpAmp builds an ideal op-amp between pins (vMinus, vPlus, vOut).
func NewOpAmp() *OpAmp {
	return &OpAmp{Base: NewBase(3)}
}

// opAmpOutPinLocal is the local pin index of Vo, the only pin whose equation
// this component ever overrides; ordinary Kirchhoff calls for V-/V+ (k=0,1)
// fall through to a zero contribution, matching an ideal op-amp's
// infinite input impedance.
const opAmpOutPinLocal = 2

func (o *OpAmp) Precompute(steadyState bool, states States, reg Registrar) {
	pins := o.Pins()
	if pins[opAmpOutPinLocal].Kind == pin.Dynamic {
		reg.ClaimEquation(pins[opAmpOutPinLocal].Index, opAmpOutPinLocal)
	}
}

func (o *OpAmp) AddCurrent(k int, row ResidualRow, states States, steadyState bool) {
	if k != opAmpOutPinLocal {
		return
	}
	pins := o.Pins()
	row.Add(states.Voltage(pins[0]) - states.Voltage(pins[1]))
}

func (o *OpAmp) AddJacobian(k int, row JacobianRow, states States, steadyState bool) {
	if k != opAmpOutPinLocal {
		return
	}
	pins := o.Pins()
	if pins[0].Kind == pin.Dynamic {
		row.Add(pins[0].Index, 1)
	}
	if pins[1].Kind == pin.Dynamic {
		row.Add(pins[1].Index, -1)
	}
}

// VoltageGain is an ideal controlled source between four pins (Vi+, Vi-,
// Vo+, Vo-): it claims the override at Vo+ and enforces
// gain*(Vi+ - Vi-) - (Vo+ - Vo-) = 0.
type VoltageGain struct {
	Base
	Gain float64
}

// NewVoltageGain builds a controlled voltage source of the given gain
// between pins (viPlus, viMinus, voPlus, voMinus).
func NewVoltageGain(gain float64) *VoltageGain {
	return &VoltageGain{Base: NewBase(4), Gain: gain}
}

// voltageGainOutPinLocal is the local index of Vo+, the only pin whose
// equation this component overrides.
const voltageGainOutPinLocal = 2

func (g *VoltageGain) Precompute(steadyState bool, states States, reg Registrar) {
	pins := g.Pins()
	if pins[voltageGainOutPinLocal].Kind == pin.Dynamic {
		reg.ClaimEquation(pins[voltageGainOutPinLocal].Index, voltageGainOutPinLocal)
	}
}

func (g *VoltageGain) AddCurrent(k int, row ResidualRow, states States, steadyState bool) {
	if k != voltageGainOutPinLocal {
		return
	}
	pins := g.Pins()
	eq := g.Gain*(states.Voltage(pins[0])-states.Voltage(pins[1])) - (states.Voltage(pins[2]) - states.Voltage(pins[3]))
	row.Add(eq)
}

func (g *VoltageGain) AddJacobian(k int, row JacobianRow, states States, steadyState bool) {
	if k != voltageGainOutPinLocal {
		return
	}
	pins := g.Pins()
	if pins[0].Kind == pin.Dynamic {
		row.Add(pins[0].Index, g.Gain)
	}
	if pins[1].Kind == pin.Dynamic {
		row.Add(pins[1].Index, -g.Gain)
	}
	if pins[2].Kind == pin.Dynamic {
		row.Add(pins[2].Index, -1)
	}
	if pins[3].Kind == pin.Dynamic {
		row.Add(pins[3].Index, 1)
	}
}

func (g *VoltageGain) NumParameters() int          { return 1 }
func (g *VoltageGain) ParameterName(i int) string  { return "gain" }
func (g *VoltageGain) Parameter(i int) float64     { return g.Gain }
func (g *VoltageGain) SetParameter(i int, v float64) { g.Gain = v }
