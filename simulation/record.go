package simulation

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sarchlab/trialsim/datarecording"
	"github.com/sarchlab/trialsim/metrics"
	"github.com/sarchlab/trialsim/randomization"
)

// Table names used in the data recorder.
const (
	RunTableName   = "runs"
	CurveTableName = "curves"
)

// RunEntry stores the configuration of a run.
type RunEntry struct {
	RunID     string
	Method    string
	N         int
	J         int
	KInit     int
	KNew      int
	TimeAdd   float64
	BlockSize int
	P         float64
	Ratio     string
	UseData   bool
	Sims      int
	Seed      int64
}

// CurveEntry stores one cell of a result table in long format. Undefined
// cells have Defined set to false and a zero Value.
type CurveEntry struct {
	RunID      string
	Method     string
	Enrolled   int
	Metric     string
	Value      float64
	Defined    bool
	Replicates int
}

func newRunEntry(runID string, cfg Config) RunEntry {
	ratio := make([]string, len(cfg.Ratio))
	for i, w := range cfg.Ratio {
		ratio[i] = strconv.Itoa(w)
	}

	return RunEntry{
		RunID:     runID,
		Method:    string(cfg.Method),
		N:         cfg.N,
		J:         cfg.J,
		KInit:     cfg.KInit,
		KNew:      cfg.KNew,
		TimeAdd:   cfg.TimeAdd,
		BlockSize: cfg.BlockSize,
		P:         cfg.P,
		Ratio:     strings.Join(ratio, ","),
		UseData:   cfg.UseData,
		Sims:      cfg.Sims,
		Seed:      cfg.Seed,
	}
}

func (e RunEntry) config() (Config, error) {
	cfg := Config{
		N:         e.N,
		J:         e.J,
		KInit:     e.KInit,
		KNew:      e.KNew,
		TimeAdd:   e.TimeAdd,
		Method:    randomization.Method(e.Method),
		BlockSize: e.BlockSize,
		P:         e.P,
		UseData:   e.UseData,
		Sims:      e.Sims,
		Seed:      e.Seed,
	}

	for _, s := range strings.Split(e.Ratio, ",") {
		w, err := strconv.Atoi(s)
		if err != nil {
			return cfg, fmt.Errorf("run %s has malformed ratio %q", e.RunID, e.Ratio)
		}

		cfg.Ratio = append(cfg.Ratio, w)
	}

	return cfg, nil
}

// RecordTable writes a table into the runs and curves tables of a recorder.
func RecordTable(recorder datarecording.DataRecorder, t *Table) {
	recorder.CreateTable(RunTableName, RunEntry{})
	recorder.CreateTable(CurveTableName, CurveEntry{})

	recorder.InsertData(RunTableName, newRunEntry(t.RunID, t.Config))

	for i, row := range t.Rows {
		for c, v := range row {
			entry := CurveEntry{
				RunID:      t.RunID,
				Method:     string(t.Config.Method),
				Enrolled:   i + 1,
				Metric:     t.Columns[c],
				Defined:    !math.IsNaN(v),
				Replicates: t.Counts[i][c],
			}

			if entry.Defined {
				entry.Value = v
			}

			recorder.InsertData(CurveTableName, entry)
		}
	}

	recorder.Flush()
}

// ListRuns returns the runs stored in a recorded file.
func ListRuns(ctx context.Context, reader datarecording.DataReader) (
	[]RunEntry, error,
) {
	reader.MapTable(RunTableName, RunEntry{})

	results, _, err := reader.Query(ctx, RunTableName,
		datarecording.QueryParams{OrderBy: "rowid ASC"})
	if err != nil {
		return nil, err
	}

	runs := make([]RunEntry, 0, len(results))
	for _, r := range results {
		runs = append(runs, *r.(*RunEntry))
	}

	return runs, nil
}

// LoadTable rebuilds the table of a recorded run.
func LoadTable(
	ctx context.Context,
	reader datarecording.DataReader,
	runID string,
) (*Table, error) {
	reader.MapTable(RunTableName, RunEntry{})
	reader.MapTable(CurveTableName, CurveEntry{})

	runs, _, err := reader.Query(ctx, RunTableName, datarecording.QueryParams{
		Where: "RunID = ?",
		Args:  []any{runID},
	})
	if err != nil {
		return nil, err
	}

	if len(runs) == 0 {
		return nil, fmt.Errorf("run %s not found", runID)
	}

	cfg, err := runs[0].(*RunEntry).config()
	if err != nil {
		return nil, err
	}

	columns := metrics.Columns(cfg.KInit + cfg.KNew)
	acc := NewAccumulator(cfg.N, len(columns))
	t := newTable(runID, cfg, acc)

	cells, _, err := reader.Query(ctx, CurveTableName, datarecording.QueryParams{
		Where: "RunID = ?",
		Args:  []any{runID},
	})
	if err != nil {
		return nil, err
	}

	for _, cell := range cells {
		e := cell.(*CurveEntry)

		c := t.ColumnIndex(e.Metric)
		if c < 0 || e.Enrolled < 1 || e.Enrolled > cfg.N {
			return nil, fmt.Errorf("run %s has unexpected cell %s at %d",
				runID, e.Metric, e.Enrolled)
		}

		t.Counts[e.Enrolled-1][c] = e.Replicates
		if e.Defined {
			t.Rows[e.Enrolled-1][c] = e.Value
		}
	}

	return t, nil
}
