package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/sarchlab/trialsim/datarecording"
	"github.com/sarchlab/trialsim/monitoring"
	"github.com/sarchlab/trialsim/sim"
	"github.com/sarchlab/trialsim/simulation"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate trials with one randomization method.",
	Long: "`run` simulates --sims trials with the given configuration and " +
		"prints the averaged metrics of the complete trial.",
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

		t, err := out.run(cmd.Context(), cfg, out.runID)
		if err != nil {
			return err
		}

		err = printSummary(cmd.OutOrStdout(), t)
		if err != nil {
			return err
		}

		return out.writeCSV(t, out.prefix)
	},
}

func init() {
	addConfigFlags(runCmd)
	addOutputFlags(runCmd)
	runCmd.Flags().Int("trace", 0,
		"Record the assignments of the first N replicates, requires --sqlite")
	rootCmd.AddCommand(runCmd)
}

func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("output", "", "Prefix of the output files")
	f.Bool("csv", false, "Write the averaged table as CSV")
	f.Bool("sqlite", false, "Record the averaged table in a SQLite file")
	f.Bool("monitor", false, "Serve progress and resource usage over HTTP")
	f.Int("monitor-port", 0, "Port of the monitoring server")
	f.Bool("open-browser", false, "Open the monitoring page in a browser")
}

// outputs holds the sinks shared by the runs of one command.
type outputs struct {
	runID    string
	prefix   string
	csv      bool
	trace    int
	monitor  *monitoring.Monitor
	recorder datarecording.DataRecorder
}

func newOutputs(cmd *cobra.Command, runID string) (*outputs, error) {
	f := cmd.Flags()

	o := &outputs{runID: runID}
	o.prefix, _ = f.GetString("output")
	if o.prefix == "" {
		o.prefix = "trialsim_" + runID
	}

	o.csv, _ = f.GetBool("csv")
	if f.Lookup("trace") != nil {
		o.trace, _ = f.GetInt("trace")
	}

	sqlite, _ := f.GetBool("sqlite")
	if o.trace > 0 && !sqlite {
		return nil, fmt.Errorf("--trace requires --sqlite")
	}

	if sqlite {
		o.recorder = datarecording.New(o.prefix)
	}

	monitorOn, _ := f.GetBool("monitor")
	if monitorOn {
		port, _ := f.GetInt("monitor-port")
		o.monitor = monitoring.NewMonitor()
		if port != 0 {
			o.monitor.WithPortNumber(port)
		}

		url, err := o.monitor.StartServer()
		if err != nil {
			return nil, err
		}

		openBrowser, _ := f.GetBool("open-browser")
		if openBrowser {
			err = browser.OpenURL(url)
			if err != nil {
				logrus.WithError(err).Warn("cannot open browser")
			}
		}
	}

	return o, nil
}

func (o *outputs) run(
	ctx context.Context,
	cfg simulation.Config,
	runID string,
) (*simulation.Table, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	b := simulation.MakeBuilder().
		WithConfig(cfg).
		WithRunID(runID).
		WithLogger(logrus.StandardLogger())

	if o.monitor != nil {
		b = b.WithMonitor(o.monitor)
	}

	if o.recorder != nil {
		b = b.WithDataRecorder(o.recorder)
		if o.trace > 0 {
			b = b.WithAllocationTracing(o.trace)
		}
	}

	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		b = b.WithAssignmentHook(sim.NewEventLogger(logrus.StandardLogger()))
	}

	d, err := b.Build()
	if err != nil {
		return nil, err
	}

	return d.Run(ctx)
}

func (o *outputs) writeCSV(t *simulation.Table, prefix string) error {
	if !o.csv {
		return nil
	}

	filename, err := t.WriteCSV(prefix)
	if err != nil {
		return err
	}

	logrus.WithField("file", filename).Info("table written")

	return nil
}

func (o *outputs) close() {
	if o.recorder == nil {
		return
	}

	err := o.recorder.Close()
	if err != nil {
		logrus.WithError(err).Error("cannot close recorder")
	}
}
