package randomization

import (
	"math/rand/v2"

	"github.com/sarchlab/trialsim/cohort"
)

type urn struct {
	active   []int
	inactive []int
	refills  int
}

// StratifiedUrn is the stratified biased urn design. Every stratum keeps an
// urn of active and inactive balls per arm. Drawing an arm moves one of its
// balls to the inactive pile. Once every arm has set aside its share, one share
// per arm returns to the active pile.
type StratifiedUrn struct {
	rng       *rand.Rand
	blockSize int

	phase   int
	weights []int
	initial []int
	strata  map[int]*urn
}

// NewStratifiedUrn creates a StratifiedUrn. The block size is the number of
// active balls a fresh urn starts with.
func NewStratifiedUrn(rng *rand.Rand, blockSize int) *StratifiedUrn {
	return &StratifiedUrn{
		rng:       rng,
		blockSize: blockSize,
	}
}

// Name returns "SBUD".
func (u *StratifiedUrn) Name() string {
	return string(MethodSBUD)
}

// Begin sets the initial ball counts for the phase and empties every urn.
func (u *StratifiedUrn) Begin(phase Phase) {
	u.phase = phase.Index
	u.weights = phase.Weights
	u.initial = InitialBalls(u.blockSize, phase.Weights)
	u.strata = make(map[int]*urn)
}

// InitialBalls returns blockSize*weights[k]/sum(weights) active balls for every
// arm k.
func InitialBalls(blockSize int, weights []int) []int {
	total := 0
	for _, w := range weights {
		total += w
	}

	balls := make([]int, len(weights))
	for k, w := range weights {
		balls[k] = blockSize * w / total
	}

	return balls
}

// Balls returns copies of the active and inactive counts of a stratum's urn.
// A stratum without patients in this phase reports the initial urn.
func (u *StratifiedUrn) Balls(stratum int) (active, inactive []int) {
	st, ok := u.strata[stratum]
	if !ok {
		return append([]int(nil), u.initial...), make([]int, len(u.initial))
	}

	return append([]int(nil), st.active...), append([]int(nil), st.inactive...)
}

// Refills returns how many times the stratum's urn has been refilled.
func (u *StratifiedUrn) Refills(stratum int) int {
	st, ok := u.strata[stratum]
	if !ok {
		return 0
	}

	return st.refills
}

// Next draws an arm proportionally to the active balls of the stratum's urn.
func (u *StratifiedUrn) Next(_ []cohort.Patient, p cohort.Patient) int {
	st, ok := u.strata[p.Stratum]
	if !ok {
		st = &urn{
			active:   append([]int(nil), u.initial...),
			inactive: make([]int, len(u.initial)),
		}
		u.strata[p.Stratum] = st
	}

	arm := drawCount(u.rng, st.active)
	st.active[arm]--
	st.inactive[arm]++

	if u.shouldRefill(st) {
		for k, w := range u.weights {
			st.inactive[k] -= w
			st.active[k] += w
		}
		st.refills++
	}

	return arm
}

// shouldRefill checks whether every arm has set aside its share. The first
// phase only asks for one inactive ball per arm, while later phases ask for a
// full ratio share.
func (u *StratifiedUrn) shouldRefill(st *urn) bool {
	for k, n := range st.inactive {
		if u.phase == 1 {
			if n <= 0 {
				return false
			}

			continue
		}

		if n < u.weights[k] {
			return false
		}
	}

	return true
}
