package simulation

import (
	"math"

	"github.com/sarchlab/trialsim/metrics"
)

// An Accumulator sums the defined values of every cell of a table. NaN values
// are skipped, so every cell keeps its own count.
type Accumulator struct {
	rows, cols int
	sum        []float64
	count      []int
}

// NewAccumulator creates an empty accumulator of rows x cols cells.
func NewAccumulator(rows, cols int) *Accumulator {
	return &Accumulator{
		rows:  rows,
		cols:  cols,
		sum:   make([]float64, rows*cols),
		count: make([]int, rows*cols),
	}
}

// Add adds one value to a cell. NaN is ignored.
func (a *Accumulator) Add(row, col int, v float64) {
	if math.IsNaN(v) {
		return
	}

	i := row*a.cols + col
	a.sum[i] += v
	a.count[i]++
}

// AddRow adds a full row of values.
func (a *Accumulator) AddRow(row int, values []float64) {
	for col, v := range values {
		a.Add(row, col, v)
	}
}

// AddCurve adds every row of a replicate's curve.
func (a *Accumulator) AddCurve(curve metrics.Curve) {
	for i, row := range curve {
		a.AddRow(i, row.Values())
	}
}

// Merge adds the sums and counts of another accumulator of the same shape.
func (a *Accumulator) Merge(other *Accumulator) {
	if a.rows != other.rows || a.cols != other.cols {
		panic("merging accumulators of different shapes")
	}

	for i := range a.sum {
		a.sum[i] += other.sum[i]
		a.count[i] += other.count[i]
	}
}

// Mean returns the average of the defined values of a cell, or NaN if the
// cell has none.
func (a *Accumulator) Mean(row, col int) float64 {
	i := row*a.cols + col
	if a.count[i] == 0 {
		return math.NaN()
	}

	return a.sum[i] / float64(a.count[i])
}

// Count returns the number of defined values added to a cell.
func (a *Accumulator) Count(row, col int) int {
	return a.count[row*a.cols+col]
}

// Shape returns the number of rows and columns.
func (a *Accumulator) Shape() (rows, cols int) {
	return a.rows, a.cols
}
