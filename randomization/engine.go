// Package randomization implements sequential allocation of patients to the
// arms of a platform trial.
package randomization

import (
	"fmt"

	"github.com/sarchlab/trialsim/cohort"
	"github.com/sarchlab/trialsim/sim"
)

// AssignmentDetail is the hook detail of HookPosAssignment.
type AssignmentDetail struct {
	Phase int
	Arm   int
}

// An Engine drives a Strategy over the patients of a cohort.
type Engine struct {
	*sim.HookableBase

	strategy Strategy
}

// NewEngine creates an engine around a strategy.
func NewEngine(s Strategy) *Engine {
	return &Engine{
		HookableBase: sim.NewHookableBase(),
		strategy:     s,
	}
}

// Strategy returns the strategy used by the engine.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// Run assigns every phase in order.
func (e *Engine) Run(c *cohort.Cohort, phases []Phase) error {
	for _, phase := range phases {
		err := e.Assign(c, phase)
		if err != nil {
			return err
		}
	}

	return nil
}

// Assign allocates the patients of one phase, in enrollment order.
func (e *Engine) Assign(c *cohort.Cohort, phase Phase) error {
	if phase.Start < 0 || phase.End > c.Len() || phase.Start > phase.End {
		return fmt.Errorf("phase %d range [%d, %d) outside cohort of %d",
			phase.Index, phase.Start, phase.End, c.Len())
	}

	for i := phase.Start; i < phase.End; i++ {
		if c.Patients[i].Assigned() {
			return fmt.Errorf("patient %d is already assigned to arm %d",
				i, c.Patients[i].Arm)
		}
	}

	e.strategy.Begin(phase)
	e.InvokeHook(sim.HookCtx{
		Domain: e,
		Pos:    sim.HookPosPhaseStart,
		Item:   phase,
	})

	for i := phase.Start; i < phase.End; i++ {
		arm := e.strategy.Next(c.Patients[:i], c.Patients[i])
		if arm < 0 || arm >= phase.NumArms() {
			return fmt.Errorf("%s assigned patient %d to arm %d, phase %d has %d arms",
				e.strategy.Name(), i, arm, phase.Index, phase.NumArms())
		}

		c.Patients[i].Arm = arm

		if e.NumHooks() > 0 {
			e.InvokeHook(sim.HookCtx{
				Domain: e,
				Pos:    sim.HookPosAssignment,
				Item:   c.Patients[i],
				Detail: AssignmentDetail{Phase: phase.Index, Arm: arm},
			})
		}
	}

	return nil
}
