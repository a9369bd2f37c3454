package randomization

import (
	"math"
	"math/rand/v2"

	"github.com/sarchlab/trialsim/cohort"
)

// BurnInFraction is the share of the second phase allocated at random before
// minimization restarts.
const BurnInFraction = 0.1

const scoreTolerance = 1e-9

// Minimization is covariate-adaptive minimization. It keeps, for every
// covariate and covariate value, the number of earlier patients per arm. For
// an incoming patient those counts form the matching matrix, from which every
// candidate arm gets an imbalance score. Minimizing arms share probability P
// and the rest share 1-P.
type Minimization struct {
	rng     *rand.Rand
	p       float64
	useData bool

	phase   int
	weights []int
	burnIn  int
	seen    int

	// counts[j][v][k] is the number of patients with covariate j equal to v
	// that were assigned to arm k.
	counts [][2][]int
}

// NewMinimization creates a Minimization strategy with bias probability p. If
// useData is set, the second phase keeps the history of the first instead of
// starting over with a burn-in.
func NewMinimization(rng *rand.Rand, p float64, useData bool) *Minimization {
	return &Minimization{
		rng:     rng,
		p:       p,
		useData: useData,
	}
}

// Name returns "Minimization".
func (m *Minimization) Name() string {
	return string(MethodMinimization)
}

// Begin starts a phase. The first phase starts with empty counts and no
// burn-in, since every arm ties and the allocation is uniform. A later phase
// either keeps the history, with new arms starting at zero matches, or resets
// it and draws a burn-in at random.
func (m *Minimization) Begin(phase Phase) {
	carry := m.useData && phase.Index > 1 && m.counts != nil

	m.phase = phase.Index
	m.weights = phase.Weights
	m.seen = 0

	if carry {
		m.burnIn = 0
		m.widen(phase.NumArms())
		return
	}

	m.counts = nil
	m.burnIn = 0
	if phase.Index > 1 {
		m.burnIn = BurnInSize(phase.Size())
	}
}

// BurnInSize returns ceil(0.1 * phaseSize).
func BurnInSize(phaseSize int) int {
	return int(math.Ceil(BurnInFraction * float64(phaseSize)))
}

// BurnIn returns the number of random allocations of the current phase.
func (m *Minimization) BurnIn() int {
	return m.burnIn
}

func (m *Minimization) widen(arms int) {
	for j := range m.counts {
		for v := 0; v < 2; v++ {
			row := m.counts[j][v]
			if len(row) < arms {
				m.counts[j][v] = append(row, make([]int, arms-len(row))...)
			}
		}
	}
}

func (m *Minimization) ensureCounts(numCovariates int) {
	if m.counts != nil {
		return
	}

	m.counts = make([][2][]int, numCovariates)
	for j := range m.counts {
		m.counts[j][0] = make([]int, len(m.weights))
		m.counts[j][1] = make([]int, len(m.weights))
	}
}

// Next allocates p at random during the burn-in and by biased minimization
// afterwards. The chosen arm is added to the history.
func (m *Minimization) Next(_ []cohort.Patient, p cohort.Patient) int {
	m.ensureCounts(len(p.Covariates))

	var arm int
	if m.seen < m.burnIn {
		arm = drawCount(m.rng, m.weights)
	} else {
		arm = m.Choose(p)
	}

	m.Observe(p, arm)
	m.seen++

	return arm
}

// Choose draws an arm for p from the minimization distribution without
// recording it.
func (m *Minimization) Choose(p cohort.Patient) int {
	return drawProbability(m.rng, m.Probabilities(p))
}

// Observe adds a patient assigned to arm to the history.
func (m *Minimization) Observe(p cohort.Patient, arm int) {
	m.ensureCounts(len(p.Covariates))

	for j, v := range p.Covariates {
		m.counts[j][v][arm]++
	}
}

// MatchingMatrix returns, for every covariate j and arm k, how many earlier
// patients share p's value of covariate j and were assigned to k.
func (m *Minimization) MatchingMatrix(p cohort.Patient) [][]int {
	m.ensureCounts(len(p.Covariates))

	matrix := make([][]int, len(p.Covariates))
	for j, v := range p.Covariates {
		matrix[j] = append([]int(nil), m.counts[j][v]...)
	}

	return matrix
}

// Scores returns the imbalance that every arm would produce if p were
// assigned to it. The score is the mean over covariates of the range of the
// weighted matching counts.
func (m *Minimization) Scores(p cohort.Patient) []float64 {
	return ImbalanceScores(m.MatchingMatrix(p), m.weights)
}

// ImbalanceScores scores every candidate arm against a matching matrix.
func ImbalanceScores(matrix [][]int, weights []int) []float64 {
	arms := len(weights)
	scores := make([]float64, arms)

	for k := 0; k < arms; k++ {
		total := 0.0

		for _, row := range matrix {
			lo := math.Inf(1)
			hi := math.Inf(-1)

			for a := 0; a < arms; a++ {
				c := row[a]
				if a == k {
					c++
				}

				x := float64(c) / float64(weights[a])
				lo = math.Min(lo, x)
				hi = math.Max(hi, x)
			}

			total += hi - lo
		}

		scores[k] = total / float64(len(matrix))
	}

	return scores
}

// Probabilities returns the allocation distribution of p.
func (m *Minimization) Probabilities(p cohort.Patient) []float64 {
	return BiasedProbabilities(m.Scores(p), m.p)
}

// BiasedProbabilities spreads mass p evenly over the arms with the lowest
// score and 1-p evenly over the others. If every arm ties, the distribution is
// uniform.
func BiasedProbabilities(scores []float64, p float64) []float64 {
	best := math.Inf(1)
	for _, s := range scores {
		best = math.Min(best, s)
	}

	minimizer := make([]bool, len(scores))
	numMin := 0
	for k, s := range scores {
		if s-best <= scoreTolerance {
			minimizer[k] = true
			numMin++
		}
	}

	probs := make([]float64, len(scores))
	if numMin == len(scores) {
		for k := range probs {
			probs[k] = 1 / float64(len(scores))
		}

		return probs
	}

	inMin := p / float64(numMin)
	outMin := (1 - p) / float64(len(scores)-numMin)
	for k := range probs {
		if minimizer[k] {
			probs[k] = inMin
		} else {
			probs[k] = outMin
		}
	}

	return probs
}
