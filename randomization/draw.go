package randomization

import (
	"log"
	"math/rand/v2"
)

// drawCount picks an index with probability proportional to integer counts.
func drawCount(rng *rand.Rand, counts []int) int {
	total := 0
	for _, c := range counts {
		total += c
	}

	if total <= 0 {
		log.Panicf("cannot draw from counts %v", counts)
	}

	u := rng.IntN(total)
	for i, c := range counts {
		if u < c {
			return i
		}

		u -= c
	}

	panic("never")
}

// drawProbability picks an index from a probability vector.
func drawProbability(rng *rand.Rand, probs []float64) int {
	u := rng.Float64()

	last := -1
	for i, p := range probs {
		if p <= 0 {
			continue
		}

		if u < p {
			return i
		}

		u -= p
		last = i
	}

	if last < 0 {
		log.Panicf("cannot draw from probabilities %v", probs)
	}

	// Rounding left a sliver of mass at the end.
	return last
}
