package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sarchlab/trialsim/randomization"
	"github.com/sarchlab/trialsim/simulation"
	"github.com/spf13/cobra"
)

// configFlags are the flags that map onto simulation.Config. Each can also
// be set through the environment as TRIALSIM_<NAME>, with dashes replaced by
// underscores.
var configFlags = []string{
	"n", "j", "k-init", "k-new", "time-add", "method", "block-size", "p",
	"ratio", "use-data", "sims", "seed", "workers",
}

func addConfigFlags(cmd *cobra.Command) {
	d := simulation.DefaultConfig()
	f := cmd.Flags()

	f.String("config", "", "YAML file with the trial configuration")
	f.Int("n", d.N, "Patients per trial")
	f.Int("j", d.J, "Binary covariates per patient")
	f.Int("k-init", d.KInit, "Experimental arms open from the start")
	f.Int("k-new", d.KNew, "Experimental arms added during enrollment")
	f.Float64("time-add", d.TimeAdd,
		"Enrollment fraction at which the new arms open")
	f.String("method", string(d.Method), "Randomization method "+
		methodList())
	f.Int("block-size", d.BlockSize, "Block size of SBR and SBUD")
	f.Float64("p", d.P, "Probability of picking a minimizing arm")
	f.IntSlice("ratio", d.Ratio,
		"Allocation weights after the expansion, control first")
	f.Bool("use-data", d.UseData,
		"Keep the pre-expansion counts in minimization")
	f.Int("sims", d.Sims, "Number of simulated trials")
	f.Int64("seed", d.Seed, "Random seed")
	f.Int("workers", d.Workers, "Parallel replicates, 0 uses all CPUs")
}

func methodList() string {
	names := make([]string, 0, len(randomization.Methods()))
	for _, m := range randomization.Methods() {
		names = append(names, string(m))
	}

	return "(" + strings.Join(names, ", ") + ")"
}

func envName(flag string) string {
	return "TRIALSIM_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// configFromFlags layers the configuration: defaults, then the YAML file,
// then TRIALSIM_* variables, then flags given on the command line.
func configFromFlags(cmd *cobra.Command) (simulation.Config, error) {
	cfg := simulation.DefaultConfig()
	f := cmd.Flags()

	path, _ := f.GetString("config")
	if path != "" {
		var err error
		cfg, err = simulation.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
	}

	for _, name := range configFlags {
		if f.Changed(name) {
			continue
		}

		value, ok := os.LookupEnv(envName(name))
		if !ok {
			continue
		}

		err := f.Set(name, value)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", envName(name), err)
		}
	}

	for _, name := range configFlags {
		if !f.Changed(name) {
			continue
		}

		err := applyFlag(cmd, name, &cfg)
		if err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

func applyFlag(cmd *cobra.Command, name string, cfg *simulation.Config) error {
	f := cmd.Flags()

	var err error
	switch name {
	case "n":
		cfg.N, err = f.GetInt(name)
	case "j":
		cfg.J, err = f.GetInt(name)
	case "k-init":
		cfg.KInit, err = f.GetInt(name)
	case "k-new":
		cfg.KNew, err = f.GetInt(name)
	case "time-add":
		cfg.TimeAdd, err = f.GetFloat64(name)
	case "method":
		var method string
		method, err = f.GetString(name)
		cfg.Method = randomization.Method(method)
	case "block-size":
		cfg.BlockSize, err = f.GetInt(name)
	case "p":
		cfg.P, err = f.GetFloat64(name)
	case "ratio":
		cfg.Ratio, err = f.GetIntSlice(name)
	case "use-data":
		cfg.UseData, err = f.GetBool(name)
	case "sims":
		cfg.Sims, err = f.GetInt(name)
	case "seed":
		cfg.Seed, err = f.GetInt64(name)
	case "workers":
		cfg.Workers, err = f.GetInt(name)
	default:
		panic("unknown config flag " + name)
	}

	return err
}
