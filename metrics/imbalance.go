package metrics

import (
	"math"

	"github.com/sarchlab/trialsim/cohort"
)

// Imbalance returns, for every enrollment count n and experimental arm k, the
// largest difference over covariates between the share of ones in arm k and
// the share of ones in the control arm. The result is indexed [n-1][k-1]. A
// value is NaN while arm k or the control arm has no patient.
func Imbalance(c *cohort.Cohort, numArms int) [][]float64 {
	counts := make([]int, numArms)
	ones := make([][]int, numArms)
	for k := range ones {
		ones[k] = make([]int, c.NumCovariates)
	}

	out := make([][]float64, c.Len())
	for i, p := range c.Patients {
		counts[p.Arm]++
		for j, v := range p.Covariates {
			ones[p.Arm][j] += v
		}

		row := make([]float64, numArms-1)
		for k := 1; k < numArms; k++ {
			row[k-1] = armImbalance(counts, ones, k)
		}

		out[i] = row
	}

	return out
}

func armImbalance(counts []int, ones [][]int, k int) float64 {
	if counts[0] == 0 || counts[k] == 0 {
		return math.NaN()
	}

	worst := 0.0
	for j := range ones[k] {
		d := math.Abs(ratio(ones[k][j], counts[k]) - ratio(ones[0][j], counts[0]))
		worst = math.Max(worst, d)
	}

	return worst
}
