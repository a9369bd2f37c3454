package tracing

import (
	"sync"

	"github.com/sarchlab/trialsim/randomization"
	"github.com/sarchlab/trialsim/sim"
)

// ArmCountTracer counts assignments per phase and arm. It is safe to share
// between the engines of concurrent replicates.
type ArmCountTracer struct {
	lock   sync.Mutex
	counts map[int][]uint64
}

// NewArmCountTracer creates a new ArmCountTracer
func NewArmCountTracer() *ArmCountTracer {
	return &ArmCountTracer{
		counts: make(map[int][]uint64),
	}
}

// Func counts an assignment.
func (t *ArmCountTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAssignment {
		return
	}

	detail := ctx.Detail.(randomization.AssignmentDetail)

	t.lock.Lock()
	defer t.lock.Unlock()

	counts := t.counts[detail.Phase]
	if len(counts) <= detail.Arm {
		counts = append(counts, make([]uint64, detail.Arm+1-len(counts))...)
	}
	counts[detail.Arm]++
	t.counts[detail.Phase] = counts
}

// Counts returns a copy of the per-arm counts of a phase.
func (t *ArmCountTracer) Counts(phase int) []uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]uint64(nil), t.counts[phase]...)
}

// Shares returns the fraction of the phase's assignments that went to every
// arm.
func (t *ArmCountTracer) Shares(phase int) []float64 {
	counts := t.Counts(phase)

	total := uint64(0)
	for _, c := range counts {
		total += c
	}

	shares := make([]float64, len(counts))
	if total == 0 {
		return shares
	}

	for k, c := range counts {
		shares[k] = float64(c) / float64(total)
	}

	return shares
}
