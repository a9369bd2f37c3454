// Package cohort defines the synthetic patients enrolled in a trial.
package cohort

import (
	"fmt"
	"math/rand/v2"
)

// Unassigned marks a patient that has not been allocated to an arm yet.
const Unassigned = -1

// A Patient is one enrolled subject. Covariates are binary and never change
// after the patient is created. Arm is written exactly once by the
// randomization engine.
type Patient struct {
	ID         int
	Covariates []int
	Stratum    int
	Arm        int
}

// Assigned returns true if the patient already has an arm.
func (p Patient) Assigned() bool {
	return p.Arm != Unassigned
}

// StratumOf maps a covariate vector to its stratum id,
// 1 + sum(covariate_j * 2^(j-1)), so strata span [1, 2^J].
func StratumOf(covariates []int) int {
	stratum := 1
	for j, c := range covariates {
		stratum += c << j
	}

	return stratum
}

// NumStrata returns the number of strata for J binary covariates.
func NumStrata(numCovariates int) int {
	return 1 << numCovariates
}

// A Cohort is an ordered list of patients. The order is the enrollment order.
type Cohort struct {
	Patients      []Patient
	NumCovariates int
}

// New creates a cohort from explicit covariate rows. It is mostly used by
// tests that need a fixed population.
func New(covariates [][]int) (*Cohort, error) {
	c := &Cohort{Patients: make([]Patient, 0, len(covariates))}

	for i, row := range covariates {
		if i == 0 {
			c.NumCovariates = len(row)
		}

		if len(row) != c.NumCovariates {
			return nil, fmt.Errorf(
				"patient %d has %d covariates, expected %d",
				i, len(row), c.NumCovariates)
		}

		for j, v := range row {
			if v != 0 && v != 1 {
				return nil, fmt.Errorf(
					"patient %d covariate %d is %d, must be 0 or 1", i, j, v)
			}
		}

		cov := make([]int, len(row))
		copy(cov, row)

		c.Patients = append(c.Patients, Patient{
			ID:         i,
			Covariates: cov,
			Stratum:    StratumOf(cov),
			Arm:        Unassigned,
		})
	}

	return c, nil
}

// Generate draws n patients with j independent fair binary covariates.
func Generate(rng *rand.Rand, n, j int) *Cohort {
	c := &Cohort{
		Patients:      make([]Patient, n),
		NumCovariates: j,
	}

	for i := range c.Patients {
		cov := make([]int, j)
		for k := range cov {
			cov[k] = rng.IntN(2)
		}

		c.Patients[i] = Patient{
			ID:         i,
			Covariates: cov,
			Stratum:    StratumOf(cov),
			Arm:        Unassigned,
		}
	}

	return c
}

// Len returns the number of patients.
func (c *Cohort) Len() int {
	return len(c.Patients)
}

// Arms returns the assignment sequence in enrollment order.
func (c *Cohort) Arms() []int {
	arms := make([]int, len(c.Patients))
	for i, p := range c.Patients {
		arms[i] = p.Arm
	}

	return arms
}

// StrataConsistent reports whether every patient's stratum still matches its
// covariates.
func (c *Cohort) StrataConsistent() bool {
	for _, p := range c.Patients {
		if p.Stratum != StratumOf(p.Covariates) {
			return false
		}
	}

	return true
}
