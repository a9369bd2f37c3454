package simulation

import (
	"fmt"
	"math/rand/v2"

	"github.com/sarchlab/trialsim/cohort"
	"github.com/sarchlab/trialsim/metrics"
	"github.com/sarchlab/trialsim/randomization"
	"github.com/sarchlab/trialsim/sim"
)

// ReplicateRNG returns the random stream of replicate r. Streams depend only
// on the seed and the replicate index, never on scheduling.
func ReplicateRNG(seed int64, r int) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(r)))
}

// RunReplicate simulates one trial: it generates the cohort, allocates both
// phases and scores the result. All randomness of the trial comes from
// ReplicateRNG(cfg.Seed, r). The hooks are attached to the allocation engine.
func RunReplicate(
	cfg Config,
	r int,
	hooks ...sim.Hook,
) (metrics.Curve, *cohort.Cohort, error) {
	method, err := randomization.ParseMethod(string(cfg.Method))
	if err != nil {
		return nil, nil, err
	}

	rng := ReplicateRNG(cfg.Seed, r)
	c := cohort.Generate(rng, cfg.N, cfg.J)

	strategy, err := randomization.New(method, rng, cfg.Options())
	if err != nil {
		return nil, nil, err
	}

	engine := randomization.NewEngine(strategy)
	for _, h := range hooks {
		if h != nil {
			engine.AcceptHook(h)
		}
	}

	phases := cfg.Phases()

	err = engine.Run(c, phases)
	if err != nil {
		return nil, nil, fmt.Errorf("replicate %d: %w", r, err)
	}

	return metrics.Evaluate(c, phases, rng), c, nil
}
