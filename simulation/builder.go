package simulation

import (
	"slices"

	"github.com/rs/xid"
	"github.com/sarchlab/trialsim/datarecording"
	"github.com/sarchlab/trialsim/monitoring"
	"github.com/sarchlab/trialsim/sim"
	"github.com/sarchlab/trialsim/tracing"
	"github.com/sirupsen/logrus"
)

// Builder can be used to build a simulation driver.
type Builder struct {
	cfg       Config
	runID     string
	workers   int
	batchSize int

	logger   *logrus.Logger
	monitor  *monitoring.Monitor
	recorder datarecording.DataRecorder

	traceOn        bool
	traceReplicate int

	assignmentHooks []sim.Hook
	replicateHooks  []sim.Hook
}

// MakeBuilder creates a new builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		cfg:       DefaultConfig(),
		batchSize: DefaultBatchSize,
	}
}

// WithConfig sets the configuration to simulate.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// WithRunID sets the run id. By default a unique id is generated.
func (b Builder) WithRunID(id string) Builder {
	b.runID = id
	return b
}

// WithWorkers overrides the number of replicates run at the same time.
func (b Builder) WithWorkers(n int) Builder {
	b.workers = n
	return b
}

// WithBatchSize sets the number of replicates summed per batch.
func (b Builder) WithBatchSize(n int) Builder {
	b.batchSize = n
	return b
}

// WithLogger sets the logger of the driver.
func (b Builder) WithLogger(logger *logrus.Logger) Builder {
	b.logger = logger
	return b
}

// WithMonitor reports progress to a monitor.
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

// WithDataRecorder stores the result table in a recorder.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// WithAllocationTracing records the assignments of the first maxReplicates
// replicates into the data recorder. Zero traces every replicate.
func (b Builder) WithAllocationTracing(maxReplicates int) Builder {
	b.traceOn = true
	b.traceReplicate = maxReplicates
	return b
}

// WithAssignmentHook attaches a hook to the allocation engine of every
// replicate.
func (b Builder) WithAssignmentHook(h sim.Hook) Builder {
	b.assignmentHooks = append(slices.Clone(b.assignmentHooks), h)
	return b
}

// WithReplicateHook attaches a hook invoked after every replicate.
func (b Builder) WithReplicateHook(h sim.Hook) Builder {
	b.replicateHooks = append(slices.Clone(b.replicateHooks), h)
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.traceOn && b.recorder == nil {
		panic("allocation tracing requires a data recorder")
	}

	if b.batchSize <= 0 {
		panic("batch size must be positive")
	}
}

// Build validates the configuration and builds the driver.
func (b Builder) Build() (*Driver, error) {
	b.parametersMustBeValid()

	cfg := b.cfg.Normalized()
	if b.workers != 0 {
		cfg.Workers = b.workers
	}

	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	d := &Driver{
		HookableBase:    sim.NewHookableBase(),
		id:              b.runID,
		cfg:             cfg,
		workers:         defaultWorkers(cfg.Workers),
		batchSize:       b.batchSize,
		logger:          b.logger,
		monitor:         b.monitor,
		recorder:        b.recorder,
		assignmentHooks: b.assignmentHooks,
	}

	if d.id == "" {
		d.id = xid.New().String()
	}

	if d.logger == nil {
		d.logger = logrus.StandardLogger()
	}

	for _, h := range b.replicateHooks {
		d.AcceptHook(h)
	}

	if b.traceOn {
		d.tracer = tracing.NewAllocationTracer(d.recorder, d.id).
			WithMaxReplicates(b.traceReplicate)
	}

	if d.monitor != nil {
		d.monitor.RegisterRoot(d.id, &d.cfg)
	}

	return d, nil
}
