package cmd

import (
	"encoding/csv"
	"fmt"
	"text/tabwriter"

	"github.com/sarchlab/trialsim/datarecording"
	"github.com/sarchlab/trialsim/simulation"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show FILE [RUN_ID]",
	Short: "Inspect runs recorded with --sqlite.",
	Long: "`show FILE` lists the runs stored in a SQLite file. " +
		"`show FILE RUN_ID` prints the table of a run as CSV.",
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		if len(args) == 1 {
			return listRuns(cmd, reader)
		}

		t, err := simulation.LoadTable(cmd.Context(), reader, args[1])
		if err != nil {
			return err
		}

		w := csv.NewWriter(cmd.OutOrStdout())
		err = w.Write(t.Header())
		if err != nil {
			return err
		}

		for i := range t.Rows {
			err = w.Write(t.Record(i))
			if err != nil {
				return err
			}
		}

		w.Flush()

		return w.Error()
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func listRuns(cmd *cobra.Command, reader datarecording.DataReader) error {
	runs, err := simulation.ListRuns(cmd.Context(), reader)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "run\tmethod\tn\tsims\tseed")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n",
			r.RunID, r.Method, r.N, r.Sims, r.Seed)
	}

	return tw.Flush()
}
