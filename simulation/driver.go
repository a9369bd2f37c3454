package simulation

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/sarchlab/trialsim/cohort"
	"github.com/sarchlab/trialsim/datarecording"
	"github.com/sarchlab/trialsim/metrics"
	"github.com/sarchlab/trialsim/monitoring"
	"github.com/sarchlab/trialsim/sim"
	"github.com/sarchlab/trialsim/tracing"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the number of consecutive replicates summed together
// before the partial sums are merged.
const DefaultBatchSize = 16

// ReplicateResult is the item of HookPosReplicateEnd.
type ReplicateResult struct {
	Index  int
	Curve  metrics.Curve
	Cohort *cohort.Cohort
}

// A Driver runs the replicates of a configuration and averages their metric
// curves.
//
// Replicates are split into fixed batches of consecutive indices. A batch is
// summed in index order and the batch sums are merged in batch order, so the
// table does not depend on the number of workers. Assignment hooks are shared
// by concurrent replicates and must be safe for concurrent use. Replicate end
// hooks are invoked one at a time.
type Driver struct {
	*sim.HookableBase

	id        string
	cfg       Config
	workers   int
	batchSize int

	logger          *logrus.Logger
	monitor         *monitoring.Monitor
	recorder        datarecording.DataRecorder
	tracer          *tracing.AllocationTracer
	assignmentHooks []sim.Hook

	hookLock sync.Mutex
}

// ID returns the run id.
func (d *Driver) ID() string {
	return d.id
}

// Config returns the configuration being simulated.
func (d *Driver) Config() Config {
	return d.cfg
}

// Workers returns the number of replicates run at the same time.
func (d *Driver) Workers() int {
	return d.workers
}

// DataRecorder returns the recorder results are written to, if any.
func (d *Driver) DataRecorder() datarecording.DataRecorder {
	return d.recorder
}

// Run simulates every replicate and returns the averaged table. Cancelling
// ctx stops scheduling new replicates and returns the context error.
func (d *Driver) Run(ctx context.Context) (*Table, error) {
	runsInFlight.Inc()
	defer runsInFlight.Dec()

	start := time.Now()
	columns := metrics.Columns(d.cfg.KInit + d.cfg.KNew)

	var bar *monitoring.ProgressBar
	if d.monitor != nil {
		bar = d.monitor.CreateProgressBar(
			fmt.Sprintf("%s %s", d.cfg.Method, d.id), uint64(d.cfg.Sims))
		defer d.monitor.CompleteProgressBar(bar)
	}

	d.logger.WithFields(logrus.Fields{
		"run":     d.id,
		"method":  d.cfg.Method,
		"sims":    d.cfg.Sims,
		"workers": d.workers,
	}).Info("simulation started")

	numBatches := (d.cfg.Sims + d.batchSize - 1) / d.batchSize
	partials := make([]*Accumulator, numBatches)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for b := 0; b < numBatches; b++ {
		if gCtx.Err() != nil {
			break
		}

		g.Go(func() error {
			acc, err := d.runBatch(gCtx, b, len(columns), bar)
			if err != nil {
				return err
			}

			partials[b] = acc

			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	if err != nil {
		d.logger.WithField("run", d.id).WithError(err).Error("simulation failed")
		return nil, err
	}

	total := NewAccumulator(d.cfg.N, len(columns))
	for _, p := range partials {
		total.Merge(p)
	}

	t := newTable(d.id, d.cfg, total)

	if d.recorder != nil {
		RecordTable(d.recorder, t)
	}

	d.logger.WithFields(logrus.Fields{
		"run":     d.id,
		"elapsed": time.Since(start).String(),
	}).Info("simulation finished")

	return t, nil
}

func (d *Driver) runBatch(
	ctx context.Context,
	batch, cols int,
	bar *monitoring.ProgressBar,
) (*Accumulator, error) {
	acc := NewAccumulator(d.cfg.N, cols)

	first := batch * d.batchSize
	last := min(first+d.batchSize, d.cfg.Sims)

	for r := first; r < last; r++ {
		err := ctx.Err()
		if err != nil {
			return nil, err
		}

		if bar != nil {
			bar.IncrementInProgress(1)
		}

		curve, c, err := d.runReplicate(r)
		if err != nil {
			return nil, err
		}

		acc.AddCurve(curve)

		if bar != nil {
			bar.MoveInProgressToFinished(1)
		}

		d.replicateEnd(ReplicateResult{Index: r, Curve: curve, Cohort: c})
	}

	return acc, nil
}

func (d *Driver) runReplicate(r int) (metrics.Curve, *cohort.Cohort, error) {
	method := string(d.cfg.Method)
	start := time.Now()

	hooks := d.assignmentHooks
	if d.tracer != nil {
		hooks = append(slices.Clone(hooks), d.tracer.ForReplicate(r))
	}

	curve, c, err := RunReplicate(d.cfg, r, hooks...)
	if err != nil {
		replicatesTotal.WithLabelValues(method, "error").Inc()
		return nil, nil, err
	}

	replicatesTotal.WithLabelValues(method, "ok").Inc()
	replicateDuration.WithLabelValues(method).
		Observe(time.Since(start).Seconds())

	d.logger.WithFields(logrus.Fields{
		"run":       d.id,
		"replicate": r,
	}).Trace("replicate finished")

	return curve, c, nil
}

func (d *Driver) replicateEnd(result ReplicateResult) {
	if d.NumHooks() == 0 {
		return
	}

	d.hookLock.Lock()
	defer d.hookLock.Unlock()

	d.InvokeHook(sim.HookCtx{
		Domain: d,
		Pos:    sim.HookPosReplicateEnd,
		Item:   result,
	})
}

func defaultWorkers(workers int) int {
	if workers > 0 {
		return workers
	}

	return runtime.GOMAXPROCS(0)
}
