package simulation

import (
	"context"
	"errors"
	"math"
	"path/filepath"

	"github.com/sarchlab/trialsim/datarecording"
	"github.com/sarchlab/trialsim/monitoring"
	"github.com/sarchlab/trialsim/randomization"
	"github.com/sarchlab/trialsim/sim"
	"github.com/sarchlab/trialsim/tracing"
	"go.uber.org/mock/gomock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func smallConfig(method randomization.Method) Config {
	cfg := DefaultConfig()
	cfg.N = 20
	cfg.J = 2
	cfg.KInit = 1
	cfg.KNew = 1
	cfg.TimeAdd = 0.5
	cfg.Method = method
	cfg.BlockSize = 4
	cfg.Ratio = []int{1, 1, 1}
	cfg.Sims = 50
	cfg.Seed = 2024

	return cfg
}

func sameValues(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}

	return true
}

func expectSameTable(a, b *Table) {
	Expect(a.Columns).To(Equal(b.Columns))
	Expect(a.Rows).To(HaveLen(len(b.Rows)))

	for i := range a.Rows {
		Expect(sameValues(a.Rows[i], b.Rows[i])).To(BeTrue(),
			"row %d differs: %v vs %v", i+1, a.Rows[i], b.Rows[i])
	}

	Expect(a.Counts).To(Equal(b.Counts))
}

var _ = Describe("RunReplicate", func() {
	It("should pin the allocation sequence of a seed", func() {
		cfg := DefaultConfig()
		cfg.N = 20
		cfg.J = 1
		cfg.KInit = 1
		cfg.KNew = 0
		cfg.TimeAdd = 0.5
		cfg.Method = randomization.MethodSR
		cfg.Ratio = []int{1, 1}
		cfg.Seed = 1

		_, c, err := RunReplicate(cfg, 0)
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Arms()).To(Equal([]int{
			1, 1, 1, 1, 1, 0, 0, 1, 0, 0,
			0, 0, 1, 1, 0, 0, 0, 1, 0, 1,
		}))
	})

	It("should reproduce the allocation sequence of a seed", func() {
		cfg := smallConfig(randomization.MethodSR)

		_, first, err := RunReplicate(cfg, 0)
		Expect(err).NotTo(HaveOccurred())
		_, second, err := RunReplicate(cfg, 0)
		Expect(err).NotTo(HaveOccurred())

		Expect(first.Arms()).To(HaveLen(20))
		Expect(first.Arms()).To(Equal(second.Arms()))
		Expect(first.Patients).To(Equal(second.Patients))
	})

	It("should use a different stream per replicate", func() {
		cfg := smallConfig(randomization.MethodSR)
		cfg.N = 200

		_, first, err := RunReplicate(cfg, 0)
		Expect(err).NotTo(HaveOccurred())
		_, second, err := RunReplicate(cfg, 1)
		Expect(err).NotTo(HaveOccurred())

		Expect(first.Arms()).NotTo(Equal(second.Arms()))
	})

	It("should open the new arm only after the addition point", func() {
		cfg := smallConfig(randomization.MethodSBR)

		curve, c, err := RunReplicate(cfg, 3)
		Expect(err).NotTo(HaveOccurred())

		for i, arm := range c.Arms() {
			if i < cfg.N1() {
				Expect(arm).To(BeNumerically("<", 2))
			}
			Expect(arm).To(BeNumerically("<", 3))
		}

		Expect(curve).To(HaveLen(cfg.N))
		Expect(c.StrataConsistent()).To(BeTrue())
	})

	It("should attach hooks to the engine", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		hook := NewMockHook(mockCtrl)

		hook.EXPECT().Func(gomock.Any()).Do(func(ctx sim.HookCtx) {
			Expect(ctx.Pos).To(Or(
				Equal(sim.HookPosPhaseStart),
				Equal(sim.HookPosAssignment)))
		}).Times(20 + 2)

		_, _, err := RunReplicate(smallConfig(randomization.MethodSBUD), 0, hook)

		Expect(err).NotTo(HaveOccurred())
		mockCtrl.Finish()
	})
})

var _ = Describe("Driver", func() {
	It("should not build an invalid configuration", func() {
		cfg := smallConfig("RAR")

		_, err := MakeBuilder().WithConfig(cfg).Build()

		Expect(errors.Is(err, ErrInvalidConfig)).To(BeTrue())
	})

	It("should panic when tracing without a recorder", func() {
		Expect(func() {
			_, _ = MakeBuilder().WithAllocationTracing(1).Build()
		}).To(Panic())
	})

	DescribeTable("should not depend on the number of workers",
		func(method randomization.Method) {
			cfg := smallConfig(method)

			serial, err := MakeBuilder().
				WithConfig(cfg).
				WithWorkers(1).
				Build()
			Expect(err).NotTo(HaveOccurred())

			parallel, err := MakeBuilder().
				WithConfig(cfg).
				WithWorkers(8).
				Build()
			Expect(err).NotTo(HaveOccurred())

			t1, err := serial.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			t2, err := parallel.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			expectSameTable(t1, t2)
		},
		Entry("SR", randomization.MethodSR),
		Entry("SBR", randomization.MethodSBR),
		Entry("SBUD", randomization.MethodSBUD),
		Entry("Minimization", randomization.MethodMinimization),
	)

	It("should average the replicate curves", func() {
		cfg := smallConfig(randomization.MethodMinimization)
		cfg.Sims = 5

		d, err := MakeBuilder().WithConfig(cfg).WithBatchSize(2).Build()
		Expect(err).NotTo(HaveOccurred())

		t, err := d.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		acc := NewAccumulator(cfg.N, len(t.Columns))
		for r := 0; r < cfg.Sims; r++ {
			curve, _, err := RunReplicate(d.Config(), r)
			Expect(err).NotTo(HaveOccurred())
			acc.AddCurve(curve)
		}

		last := t.Last()
		for c := range t.Columns {
			Expect(t.Counts[cfg.N-1][c]).To(Equal(acc.Count(cfg.N-1, c)))
			if acc.Count(cfg.N-1, c) > 0 {
				Expect(last[c]).To(BeNumerically("~", acc.Mean(cfg.N-1, c), 1e-12))
			}
		}

		Expect(t.Value(cfg.N, "predictability_stage1")).
			To(Equal(t.Value(cfg.N1(), "predictability_stage1")))
		Expect(t.Counts[cfg.N-1][t.ColumnIndex("predictability_stage1")]).
			To(Equal(cfg.Sims))
		Expect(math.IsNaN(t.Value(1, "predictability_stage2"))).To(BeTrue())
		Expect(t.Value(cfg.N, "predictability_overall")).
			To(BeNumerically(">=", 0))
	})

	It("should invoke replicate hooks once per replicate", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		hook := NewMockHook(mockCtrl)
		seen := map[int]bool{}

		hook.EXPECT().Func(gomock.Any()).Do(func(ctx sim.HookCtx) {
			Expect(ctx.Pos).To(Equal(sim.HookPosReplicateEnd))
			result := ctx.Item.(ReplicateResult)
			Expect(result.Curve).To(HaveLen(20))
			seen[result.Index] = true
		}).Times(50)

		d, err := MakeBuilder().
			WithConfig(smallConfig(randomization.MethodSR)).
			WithWorkers(4).
			WithReplicateHook(hook).
			Build()
		Expect(err).NotTo(HaveOccurred())

		_, err = d.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(HaveLen(50))
		mockCtrl.Finish()
	})

	It("should count assignments with a shared tracer", func() {
		counter := tracing.NewArmCountTracer()

		d, err := MakeBuilder().
			WithConfig(smallConfig(randomization.MethodSBR)).
			WithWorkers(4).
			WithAssignmentHook(counter).
			Build()
		Expect(err).NotTo(HaveOccurred())

		_, err = d.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		total := uint64(0)
		for _, phase := range []int{1, 2} {
			for _, n := range counter.Counts(phase) {
				total += n
			}
		}
		Expect(total).To(Equal(uint64(50 * 20)))
	})

	It("should stop when the context is cancelled", func() {
		d, err := MakeBuilder().
			WithConfig(smallConfig(randomization.MethodSR)).
			Build()
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = d.Run(ctx)

		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})

	It("should report progress to the monitor", func() {
		m := monitoring.NewMonitor()
		cfg := smallConfig(randomization.MethodSR)

		hook := replicateHookFunc(func(sim.HookCtx) {
			bars := m.ProgressBars()
			Expect(bars).To(HaveLen(1))
			Expect(bars[0].Total).To(Equal(uint64(cfg.Sims)))
			Expect(bars[0].Finished).To(BeNumerically(">=", 1))
		})

		d, err := MakeBuilder().
			WithConfig(cfg).
			WithWorkers(1).
			WithMonitor(m).
			WithReplicateHook(hook).
			Build()
		Expect(err).NotTo(HaveOccurred())

		_, err = d.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(m.ProgressBars()).To(BeEmpty())
	})

	It("should store and reload the table", func() {
		path := filepath.Join(GinkgoT().TempDir(), "run")
		recorder := datarecording.New(path)

		cfg := smallConfig(randomization.MethodSBUD)
		cfg.Sims = 6

		d, err := MakeBuilder().
			WithConfig(cfg).
			WithRunID("run-a").
			WithDataRecorder(recorder).
			WithAllocationTracing(2).
			Build()
		Expect(err).NotTo(HaveOccurred())

		t, err := d.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(recorder.Close()).To(Succeed())

		reader, err := datarecording.NewReader(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		runs, err := ListRuns(context.Background(), reader)
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(1))
		Expect(runs[0].RunID).To(Equal("run-a"))
		Expect(runs[0].Ratio).To(Equal("1,1,1"))

		loaded, err := LoadTable(context.Background(), reader, "run-a")
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Config).To(Equal(t.Config))
		expectSameTable(loaded, t)

		reader.MapTable(tracing.AllocationTableName, tracing.AllocationEntry{})
		_, count, err := reader.Query(context.Background(),
			tracing.AllocationTableName, datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(2 * cfg.N))
	})

	It("should fail to load an unknown run", func() {
		path := filepath.Join(GinkgoT().TempDir(), "empty")
		recorder := datarecording.New(path)
		recorder.CreateTable(RunTableName, RunEntry{})
		recorder.CreateTable(CurveTableName, CurveEntry{})
		Expect(recorder.Close()).To(Succeed())

		reader, err := datarecording.NewReader(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		_, err = LoadTable(context.Background(), reader, "missing")
		Expect(err).To(HaveOccurred())
	})
})

type replicateHookFunc func(sim.HookCtx)

func (f replicateHookFunc) Func(ctx sim.HookCtx) { f(ctx) }
