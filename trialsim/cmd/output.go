package cmd

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/sarchlab/trialsim/simulation"
)

func printSummary(w io.Writer, t *simulation.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "run\t%s\n", t.RunID)
	fmt.Fprintf(tw, "method\t%s\n", t.Config.Method)
	fmt.Fprintf(tw, "patients\t%d\n", t.Config.N)
	fmt.Fprintf(tw, "replicates\t%d\n", t.Config.Sims)

	last := t.Last()
	for c, name := range t.Columns {
		fmt.Fprintf(tw, "%s\t%s\n", name, formatCell(last[c]))
	}

	return tw.Flush()
}

func printComparison(w io.Writer, tables []*simulation.Table) error {
	if len(tables) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprint(tw, "metric")
	for _, t := range tables {
		fmt.Fprintf(tw, "\t%s", t.Config.Method)
	}
	fmt.Fprintln(tw)

	for c, name := range tables[0].Columns {
		fmt.Fprint(tw, name)
		for _, t := range tables {
			fmt.Fprintf(tw, "\t%s", formatCell(t.Last()[c]))
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}

	return fmt.Sprintf("%.4f", v)
}
