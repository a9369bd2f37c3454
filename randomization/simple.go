package randomization

import (
	"math/rand/v2"

	"github.com/sarchlab/trialsim/cohort"
)

// SimpleRandom draws every arm independently from the phase weights.
type SimpleRandom struct {
	rng     *rand.Rand
	weights []int
}

// NewSimpleRandom creates a SimpleRandom strategy.
func NewSimpleRandom(rng *rand.Rand) *SimpleRandom {
	return &SimpleRandom{rng: rng}
}

// Name returns "SR".
func (s *SimpleRandom) Name() string {
	return string(MethodSR)
}

// Begin records the weights of the phase.
func (s *SimpleRandom) Begin(phase Phase) {
	s.weights = phase.Weights
}

// Next draws an arm. Neither the history nor the stratum matter.
func (s *SimpleRandom) Next(_ []cohort.Patient, _ cohort.Patient) int {
	return drawCount(s.rng, s.weights)
}
