package tracing

import (
	"math/rand/v2"

	"github.com/sarchlab/trialsim/cohort"
	"github.com/sarchlab/trialsim/randomization"
	"go.uber.org/mock/gomock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AllocationTracer", func() {
	var (
		mockCtrl *gomock.Controller
		backend  *MockDataRecorder
		tracer   *AllocationTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		backend = NewMockDataRecorder(mockCtrl)
		backend.EXPECT().CreateTable(AllocationTableName, AllocationEntry{})
		tracer = NewAllocationTracer(backend, "run1")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record every assignment of a replicate", func() {
		c, err := cohort.New([][]int{{0, 1}, {1, 1}, {0, 0}})
		Expect(err).NotTo(HaveOccurred())

		engine := randomization.NewEngine(
			randomization.NewSimpleRandom(rand.New(rand.NewPCG(1, 1))))
		engine.AcceptHook(tracer.ForReplicate(4))

		entries := []AllocationEntry{}
		backend.EXPECT().
			InsertData(AllocationTableName, gomock.Any()).
			Do(func(_ string, e any) {
				entries = append(entries, e.(AllocationEntry))
			}).
			Times(3)

		phase := randomization.Phase{
			Index: 1, Start: 0, End: 3, Weights: []int{1, 1},
		}
		Expect(engine.Assign(c, phase)).To(Succeed())

		Expect(entries).To(HaveLen(3))
		for i, e := range entries {
			Expect(e.RunID).To(Equal("run1"))
			Expect(e.Replicate).To(Equal(4))
			Expect(e.Patient).To(Equal(i))
			Expect(e.Stratum).To(Equal(c.Patients[i].Stratum))
			Expect(e.Phase).To(Equal(1))
			Expect(e.Arm).To(Equal(c.Patients[i].Arm))
		}
	})

	It("should skip replicates beyond the limit", func() {
		tracer.WithMaxReplicates(2)

		Expect(tracer.ForReplicate(1)).NotTo(BeNil())
		Expect(tracer.ForReplicate(2)).To(BeNil())
	})
})

var _ = Describe("ArmCountTracer", func() {
	It("should count assignments per phase", func() {
		rng := rand.New(rand.NewPCG(2, 2))
		c := cohort.Generate(rng, 40, 1)
		phases := randomization.SplitPhases(40, 0.5, 1, []int{1, 1, 2})

		tracer := NewArmCountTracer()
		engine := randomization.NewEngine(randomization.NewStratifiedBlock(rng, 4))
		engine.AcceptHook(tracer)
		Expect(engine.Run(c, phases)).To(Succeed())

		total := uint64(0)
		for _, n := range tracer.Counts(1) {
			total += n
		}
		Expect(total).To(Equal(uint64(20)))
		Expect(tracer.Counts(1)).To(HaveLen(2))
		Expect(len(tracer.Counts(2))).To(BeNumerically("<=", 3))

		shares := tracer.Shares(1)
		Expect(shares[0] + shares[1]).To(BeNumerically("~", 1, 1e-12))
		Expect(tracer.Shares(3)).To(BeEmpty())
	})
})
