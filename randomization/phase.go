package randomization

import "math"

// A Phase is one contiguous enrollment segment of a trial. Patients with
// index in [Start, End) are allocated over len(Weights) arms with the given
// target weights.
type Phase struct {
	Index   int
	Start   int
	End     int
	Weights []int
}

// NumArms returns the number of arms open during the phase.
func (p Phase) NumArms() int {
	return len(p.Weights)
}

// Size returns the number of patients enrolled during the phase.
func (p Phase) Size() int {
	return p.End - p.Start
}

// TotalWeight returns the sum of the arm weights.
func (p Phase) TotalWeight() int {
	total := 0
	for _, w := range p.Weights {
		total += w
	}

	return total
}

// Contains returns true if the patient index falls inside the phase.
func (p Phase) Contains(i int) bool {
	return i >= p.Start && i < p.End
}

// ArmAdditionPoint returns floor(n * timeAdd), the number of patients enrolled
// before the new arms open.
func ArmAdditionPoint(n int, timeAdd float64) int {
	return int(math.Floor(float64(n) * timeAdd))
}

// SplitPhases splits n patients into the pre-expansion phase, with kInit+1
// equally weighted arms, and the post-expansion phase, weighted by ratio.
func SplitPhases(n int, timeAdd float64, kInit int, ratio []int) []Phase {
	n1 := ArmAdditionPoint(n, timeAdd)

	equal := make([]int, kInit+1)
	for i := range equal {
		equal[i] = 1
	}

	weights := make([]int, len(ratio))
	copy(weights, ratio)

	return []Phase{
		{Index: 1, Start: 0, End: n1, Weights: equal},
		{Index: 2, Start: n1, End: n, Weights: weights},
	}
}
