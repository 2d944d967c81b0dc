package component

// CurrentSource is an ideal current generator between two pins, drawing I
// out of pins[0] and injecting it into pins[1]. Its Jacobian contribution is zero: an ideal
// current source doesn't depend on node voltage.
type CurrentSource struct {
	Base
	I float64
}

// NewCurrentSource builds an ideal current source of value i amperes.
func NewCurrentSource(i float64) *CurrentSource {
	return &CurrentSource{Base: NewBase(2), I: i}
}

func (c *CurrentSource) AddCurrent(k int, row ResidualRow, states States, steadyState bool) {
	sign := 1.0
	if k == 0 {
		sign = -1.0
	}
	row.Add(c.I * sign)
}

func (c *CurrentSource) AddJacobian(k int, row JacobianRow, states States, steadyState bool) {
	// Independent of dynamic-pin voltage: no Jacobian contribution.
}

func (c *CurrentSource) NumParameters() int          { return 1 }
func (c *CurrentSource) ParameterName(i int) string  { return "I" }
func (c *CurrentSource) Parameter(i int) float64     { return c.I }
func (c *CurrentSource) SetParameter(i int, v float64) { c.I = v }
