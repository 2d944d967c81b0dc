// Package matrix assembles and solves the linear system a single
// Newton-Raphson iteration reduces to: J*delta = F, where F is the
// residual (Kirchhoff or override) vector over the dynamic pins and J is
// its Jacobian with respect to the dynamic state.
package matrix

import (
	"fmt"
	"math"

	"github.com/edp1096/sparse"
	"gonum.org/v1/gonum/floats"
)

// System is the sparse-backed linear system solved once per Newton
// iteration. Real-valued only.
type System struct {
	Size   int
	matrix *sparse.Matrix
	rhs    []float64
}

// New builds a size x size system, size being the number of dynamic pins.
func New(size int) (*System, error) {
	config := &sparse.Configuration{
		Real:           true,
		Expandable:     true,
		Translate:      true,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("matrix: create %dx%d system: %w", size, size, err)
	}

	return &System{
		Size:   size,
		matrix: mat,
		rhs:    make([]float64, size+1), // sparse uses 1-based indexing
	}, nil
}

// ResidualRow returns the component.ResidualRow for dynamic pin i (0-based).
func (s *System) ResidualRow(i int) *Residual {
	return &Residual{sys: s, row: i + 1}
}

// JacobianRow returns the component.JacobianRow for dynamic pin i (0-based).
func (s *System) JacobianRow(i int) *Jacobian {
	return &Jacobian{sys: s, row: i + 1}
}

// Residual accumulates F[i] for one dynamic pin; implements
// component.ResidualRow.
type Residual struct {
	sys *System
	row int
}

func (r *Residual) Add(value float64) { r.sys.rhs[r.row] += value }

// Jacobian accumulates dF[i]/dx[j] entries for one dynamic pin; implements
// component.JacobianRow.
type Jacobian struct {
	sys *System
	row int
}

func (j *Jacobian) Add(column int, value float64) {
	j.sys.matrix.GetElement(int64(j.row), int64(column+1)).Real += value
}

// Clear zeroes both J and F ahead of the next iteration's assembly.
func (s *System) Clear() {
	s.matrix.Clear()
	for i := range s.rhs {
		s.rhs[i] = 0
	}
}

// F returns the residual vector assembled so far, 0-based over dynamic pins.
func (s *System) F() []float64 {
	return s.rhs[1:]
}

// Solve factors J and solves J*delta = F, returning delta over dynamic
// pins (0-based). A factorization or solve failure is returned as a plain
// error prefixed with the failing step ("factor:" or "solve:") —
// pkg/modeller is responsible for turning it into a SingularSystem error
// carrying the current iterate.
func (s *System) Solve() ([]float64, error) {
	if err := s.matrix.Factor(); err != nil {
		return nil, fmt.Errorf("factor: %w", err)
	}
	solution, err := s.matrix.Solve(s.rhs)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	return solution[1 : s.Size+1], nil
}

// Destroy releases the underlying sparse matrix's native resources.
func (s *System) Destroy() {
	if s.matrix != nil {
		s.matrix.Destroy()
	}
}

// InfNorm returns the infinity norm (largest absolute entry) of v, the
// convergence test the Newton loop runs against both F and delta.
func InfNorm(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, math.Inf(1))
}
