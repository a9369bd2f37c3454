package metrics

import (
	"math"
	"math/rand/v2"

	"github.com/sarchlab/trialsim/cohort"
	"github.com/sarchlab/trialsim/randomization"
)

// PredictabilityCurves are the running fractions of correct guesses.
type PredictabilityCurves struct {
	// Stage1 counts phase-1 patients only. After phase 1 it stays at the
	// phase-1 total.
	Stage1 []float64

	// Stage2 counts phase-2 patients only and is NaN before phase 2.
	Stage2 []float64

	// Overall counts every patient, using the guess of the patient's phase.
	Overall []float64
}

// Predictability replays the allocation sequence against a guesser that
// always bets on an arm whose weighted enrollment count, counted from the
// start of the current phase, is the smallest. Ties are broken uniformly at
// random.
func Predictability(
	c *cohort.Cohort,
	phases []randomization.Phase,
	rng *rand.Rand,
) PredictabilityCurves {
	n := c.Len()
	curves := PredictabilityCurves{
		Stage1:  nanSlice(n),
		Stage2:  nanSlice(n),
		Overall: nanSlice(n),
	}

	correct := 0
	for _, phase := range phases {
		counts := make([]int, phase.NumArms())
		phaseCorrect := 0

		for i := phase.Start; i < phase.End; i++ {
			arm := c.Patients[i].Arm
			if Guess(counts, phase.Weights, rng) == arm {
				phaseCorrect++
				correct++
			}
			counts[arm]++

			running := ratio(phaseCorrect, i-phase.Start+1)
			switch phase.Index {
			case 1:
				curves.Stage1[i] = running
			default:
				curves.Stage2[i] = running
			}
			curves.Overall[i] = ratio(correct, i+1)
		}

		if phase.Index == 1 && phase.Size() > 0 {
			final := curves.Stage1[phase.End-1]
			for i := phase.End; i < n; i++ {
				curves.Stage1[i] = final
			}
		}
	}

	return curves
}

// Guess returns an arm with the smallest counts[a]/weights[a], chosen
// uniformly among ties.
func Guess(counts, weights []int, rng *rand.Rand) int {
	candidates := LeastAllocated(counts, weights)
	if len(candidates) == 1 {
		return candidates[0]
	}

	return candidates[rng.IntN(len(candidates))]
}

// LeastAllocated returns every arm with the smallest weighted count.
func LeastAllocated(counts, weights []int) []int {
	best := []int{0}
	for a := 1; a < len(counts); a++ {
		b := best[0]

		// Compare counts[a]/weights[a] with counts[b]/weights[b] exactly.
		lhs := counts[a] * weights[b]
		rhs := counts[b] * weights[a]

		switch {
		case lhs < rhs:
			best = []int{a}
		case lhs == rhs:
			best = append(best, a)
		}
	}

	return best
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}

	return s
}
