package randomization

import (
	"math/rand/v2"

	"github.com/sarchlab/trialsim/cohort"
)

type blockState struct {
	block  []int
	cursor int
	blocks int
}

// StratifiedBlock is stratified permuted block randomization. Every stratum
// consumes its own sequence of shuffled blocks. Each block holds a fixed
// multiset of arm labels, so the stratum is exactly balanced at every block
// boundary.
type StratifiedBlock struct {
	rng         *rand.Rand
	blockSize   int
	composition []int
	strata      map[int]*blockState
}

// NewStratifiedBlock creates a StratifiedBlock strategy with the nominal block
// size used in the equal-allocation phase.
func NewStratifiedBlock(rng *rand.Rand, blockSize int) *StratifiedBlock {
	return &StratifiedBlock{
		rng:       rng,
		blockSize: blockSize,
	}
}

// Name returns "SBR".
func (s *StratifiedBlock) Name() string {
	return string(MethodSBR)
}

// Begin computes the block composition of the phase and drops the blocks of
// the previous phase.
func (s *StratifiedBlock) Begin(phase Phase) {
	s.composition = BlockComposition(s.blockSize, phase.Weights)
	s.strata = make(map[int]*blockState)
}

// BlockComposition returns how many times every arm appears in one block.
// Arm k appears weights[k]*m times with m = max(1, blockSize/sum(weights)),
// which gives blockSize/(K+1) per arm under equal weights.
func BlockComposition(blockSize int, weights []int) []int {
	total := 0
	for _, w := range weights {
		total += w
	}

	m := blockSize / total
	if m < 1 {
		m = 1
	}

	composition := make([]int, len(weights))
	for k, w := range weights {
		composition[k] = w * m
	}

	return composition
}

// Composition returns the per-arm counts of one block in the current phase.
func (s *StratifiedBlock) Composition() []int {
	return s.composition
}

// BlocksUsed returns how many blocks the stratum has opened in this phase.
func (s *StratifiedBlock) BlocksUsed(stratum int) int {
	st, ok := s.strata[stratum]
	if !ok {
		return 0
	}

	return st.blocks
}

// Next hands out the next position of the stratum's current block, opening a
// new block when the current one is used up.
func (s *StratifiedBlock) Next(_ []cohort.Patient, p cohort.Patient) int {
	st, ok := s.strata[p.Stratum]
	if !ok {
		st = &blockState{}
		s.strata[p.Stratum] = st
	}

	if st.cursor >= len(st.block) {
		st.block = s.newBlock()
		st.cursor = 0
		st.blocks++
	}

	arm := st.block[st.cursor]
	st.cursor++

	return arm
}

func (s *StratifiedBlock) newBlock() []int {
	size := 0
	for _, c := range s.composition {
		size += c
	}

	block := make([]int, 0, size)
	for arm, c := range s.composition {
		for i := 0; i < c; i++ {
			block = append(block, arm)
		}
	}

	s.rng.Shuffle(len(block), func(i, j int) {
		block[i], block[j] = block[j], block[i]
	})

	return block
}
