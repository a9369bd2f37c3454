package randomization_test

import (
	"math/rand/v2"

	"github.com/sarchlab/trialsim/cohort"
	"github.com/sarchlab/trialsim/randomization"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// armsByStratum groups the arms of a phase by stratum, in enrollment order.
func armsByStratum(
	c *cohort.Cohort,
	phase randomization.Phase,
) map[int][]int {
	groups := make(map[int][]int)
	for i := phase.Start; i < phase.End; i++ {
		p := c.Patients[i]
		groups[p.Stratum] = append(groups[p.Stratum], p.Arm)
	}

	return groups
}

var _ = Describe("StratifiedBlock", func() {
	It("should compute block compositions", func() {
		Expect(randomization.BlockComposition(6, []int{1, 1, 1})).
			To(Equal([]int{2, 2, 2}))
		Expect(randomization.BlockComposition(8, []int{2, 1, 1})).
			To(Equal([]int{4, 2, 2}))
		Expect(randomization.BlockComposition(4, []int{2, 1, 3})).
			To(Equal([]int{2, 1, 3}))
	})

	It("should fill every completed block with the exact multiset", func() {
		rng := rand.New(rand.NewPCG(42, 7))
		c := cohort.Generate(rng, 400, 2)
		phases := randomization.SplitPhases(400, 0.4, 1, []int{2, 1, 1})

		sbr := randomization.NewStratifiedBlock(rng, 4)
		engine := randomization.NewEngine(sbr)

		for _, phase := range phases {
			Expect(engine.Assign(c, phase)).To(Succeed())

			composition := sbr.Composition()
			blockLen := 0
			for _, n := range composition {
				blockLen += n
			}

			for stratum, arms := range armsByStratum(c, phase) {
				full := len(arms) / blockLen
				Expect(sbr.BlocksUsed(stratum)).To(
					Equal((len(arms) + blockLen - 1) / blockLen))

				for b := 0; b < full; b++ {
					counts := make([]int, len(composition))
					for _, a := range arms[b*blockLen : (b+1)*blockLen] {
						counts[a]++
					}

					Expect(counts).To(Equal(composition),
						"stratum %d phase %d block %d", stratum, phase.Index, b)
				}
			}
		}

		Expect(c.StrataConsistent()).To(BeTrue())
	})

	It("should never exceed the block share inside a partial block", func() {
		rng := rand.New(rand.NewPCG(5, 5))
		c := cohort.Generate(rng, 90, 1)
		phase := randomization.Phase{
			Index: 1, Start: 0, End: 90, Weights: []int{1, 1, 1},
		}

		sbr := randomization.NewStratifiedBlock(rng, 6)
		engine := randomization.NewEngine(sbr)
		Expect(engine.Assign(c, phase)).To(Succeed())

		for _, arms := range armsByStratum(c, phase) {
			full := len(arms) / 6
			counts := make([]int, 3)
			for _, a := range arms[full*6:] {
				counts[a]++
			}

			for _, n := range counts {
				Expect(n).To(BeNumerically("<=", 2))
			}
		}
	})
})
