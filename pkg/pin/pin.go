// Package pin defines the addressing scheme used to name a terminal of the
// circuit graph modelled by pkg/modeller.
package pin

import "fmt"

// Kind identifies which of the three state vectors a Pin's index refers to.
type Kind int

const (
	// Input pins carry a voltage driven by the external sample stream.
	Input Kind = iota
	// Static pins carry a fixed voltage (rails, ground).
	Static
	// Dynamic pins carry an unknown node voltage solved every sample.
	Dynamic
)

func (k Kind) String() string {
	switch k {
	case Input:
		return "input"
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Pin is a tagged (kind, index) pair addressing one terminal of the
// circuit. It is immutable once a component has been wired with it.
type Pin struct {
	Kind  Kind
	Index int
}

func (p Pin) String() string {
	return fmt.Sprintf("%s[%d]", p.Kind, p.Index)
}

// New builds a Pin address.
func New(kind Kind, index int) Pin {
	return Pin{Kind: kind, Index: index}
}
