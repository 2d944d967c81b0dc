package component

import "github.com/guthmanny/atk-modelling-lite/pkg/pin"

// fakeStates is a fixed voltage table for pin.Pin, used to exercise a
// single component's equations without a full ModellerFilter.
type fakeStates map[pin.Pin]float64

func (f fakeStates) Voltage(p pin.Pin) float64 { return f[p] }

// row records every Add call so a test can assert on the accumulated
// residual or Jacobian entries.
type row struct {
	residual float64
	jacobian map[int]float64
}

func newRow() *row { return &row{jacobian: make(map[int]float64)} }

func (r *row) Add(value float64) { r.residual += value }

func (r *row) AddJacobian(column int, value float64) { r.jacobian[column] += value }

// residualRow/jacobianRow adapt *row to the two distinct component
// interfaces without conflating their Add signatures.
type residualRow struct{ r *row }

func (rr residualRow) Add(value float64) { rr.r.Add(value) }

type jacobianRow struct{ r *row }

func (jr jacobianRow) Add(column int, value float64) { jr.r.AddJacobian(column, value) }

// fakeRegistrar records the last override claim made against it.
type fakeRegistrar struct {
	claimed      bool
	dynamicPin   int
	localPin     int
}

func (f *fakeRegistrar) ClaimEquation(dynamicPinIndex, localPin int) {
	f.claimed = true
	f.dynamicPin = dynamicPinIndex
	f.localPin = localPin
}
