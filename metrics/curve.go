// Package metrics scores an allocated trial on covariate imbalance and on the
// predictability of its allocation sequence.
package metrics

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sarchlab/trialsim/cohort"
	"github.com/sarchlab/trialsim/randomization"
)

// A Row holds the metrics after the first Enrolled patients. Undefined values
// are NaN.
type Row struct {
	Enrolled int

	// Imbalance[k-1] is the imbalance of experimental arm k against control.
	Imbalance []float64

	Stage1  float64
	Stage2  float64
	Overall float64
}

// Values flattens the row in the order given by Columns.
func (r Row) Values() []float64 {
	v := make([]float64, 0, len(r.Imbalance)+3)
	v = append(v, r.Imbalance...)
	v = append(v, r.Stage1, r.Stage2, r.Overall)

	return v
}

// A Curve is one row per enrollment count, from 1 to N.
type Curve []Row

// Columns returns the names of the metric columns for a trial with
// numExperimental experimental arms.
func Columns(numExperimental int) []string {
	cols := make([]string, 0, numExperimental+3)
	for k := 1; k <= numExperimental; k++ {
		cols = append(cols, fmt.Sprintf("imbalance_arm%d", k))
	}

	return append(cols,
		"predictability_stage1",
		"predictability_stage2",
		"predictability_overall",
	)
}

// Evaluate computes the metric curve of a fully allocated cohort. The rng
// breaks ties of the guessing rule.
func Evaluate(
	c *cohort.Cohort,
	phases []randomization.Phase,
	rng *rand.Rand,
) Curve {
	numArms := phases[len(phases)-1].NumArms()
	imbalance := Imbalance(c, numArms)
	pred := Predictability(c, phases, rng)

	curve := make(Curve, c.Len())
	for i := range curve {
		curve[i] = Row{
			Enrolled:  i + 1,
			Imbalance: imbalance[i],
			Stage1:    pred.Stage1[i],
			Stage2:    pred.Stage2[i],
			Overall:   pred.Overall[i],
		}
	}

	return curve
}

func ratio(num, den int) float64 {
	if den == 0 {
		return math.NaN()
	}

	return float64(num) / float64(den)
}
