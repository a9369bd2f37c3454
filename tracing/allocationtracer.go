// Package tracing records the allocation decisions of simulated trials.
package tracing

import (
	"github.com/sarchlab/trialsim/cohort"
	"github.com/sarchlab/trialsim/datarecording"
	"github.com/sarchlab/trialsim/randomization"
	"github.com/sarchlab/trialsim/sim"
)

// AllocationTableName is the table that holds traced assignments.
const AllocationTableName = "allocations"

// AllocationEntry is one traced assignment.
type AllocationEntry struct {
	RunID     string
	Replicate int
	Patient   int
	Stratum   int
	Phase     int
	Arm       int
}

// AllocationTracer stores every assignment of the traced replicates into a
// DataRecorder.
type AllocationTracer struct {
	runID         string
	backend       datarecording.DataRecorder
	maxReplicates int
}

// NewAllocationTracer creates an AllocationTracer and the table it writes to.
func NewAllocationTracer(
	backend datarecording.DataRecorder,
	runID string,
) *AllocationTracer {
	backend.CreateTable(AllocationTableName, AllocationEntry{})

	return &AllocationTracer{
		runID:   runID,
		backend: backend,
	}
}

// WithMaxReplicates limits tracing to the first n replicates. Zero traces all
// of them.
func (t *AllocationTracer) WithMaxReplicates(n int) *AllocationTracer {
	t.maxReplicates = n
	return t
}

// ForReplicate returns the hook to attach to the engine of a replicate, or
// nil if the replicate is not traced.
func (t *AllocationTracer) ForReplicate(replicate int) sim.Hook {
	if t.maxReplicates > 0 && replicate >= t.maxReplicates {
		return nil
	}

	return &replicateTracer{tracer: t, replicate: replicate}
}

type replicateTracer struct {
	tracer    *AllocationTracer
	replicate int
}

func (h *replicateTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAssignment {
		return
	}

	p := ctx.Item.(cohort.Patient)
	detail := ctx.Detail.(randomization.AssignmentDetail)

	h.tracer.backend.InsertData(AllocationTableName, AllocationEntry{
		RunID:     h.tracer.runID,
		Replicate: h.replicate,
		Patient:   p.ID,
		Stratum:   p.Stratum,
		Phase:     detail.Phase,
		Arm:       detail.Arm,
	})
}
