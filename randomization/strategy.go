package randomization

import (
	"github.com/sarchlab/trialsim/cohort"
)

// A Strategy allocates patients to arms one at a time, in enrollment order.
type Strategy interface {
	// Name returns the short name of the allocation method.
	Name() string

	// Begin prepares the strategy for a new phase. Strata-local state from an
	// earlier phase is discarded.
	Begin(phase Phase)

	// Next returns the arm of patient p. History holds every patient enrolled
	// before p, already assigned.
	Next(history []cohort.Patient, p cohort.Patient) int
}
