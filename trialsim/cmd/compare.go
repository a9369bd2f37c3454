package cmd

import (
	"github.com/rs/xid"
	"github.com/sarchlab/trialsim/randomization"
	"github.com/sarchlab/trialsim/simulation"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Simulate the same trials with every randomization method.",
	Long: "`compare` runs every method with the same configuration and seed " +
		"and prints the metrics of the complete trial side by side. " +
		"The --method flag is ignored.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := configFromFlags(cmd)
		if err != nil {
			return err
		}

		out, err := newOutputs(cmd, xid.New().String())
		if err != nil {
			return err
		}
		defer out.close()

		tables := make([]*simulation.Table, 0, len(randomization.Methods()))
		for _, method := range randomization.Methods() {
			c := cfg
			c.Method = method

			runID := out.runID + "_" + string(method)

			t, err := out.run(cmd.Context(), c, runID)
			if err != nil {
				return err
			}

			err = out.writeCSV(t, out.prefix+"_"+string(method))
			if err != nil {
				return err
			}

			tables = append(tables, t)
		}

		return printComparison(cmd.OutOrStdout(), tables)
	},
}

func init() {
	addConfigFlags(compareCmd)
	addOutputFlags(compareCmd)
	rootCmd.AddCommand(compareCmd)
}
