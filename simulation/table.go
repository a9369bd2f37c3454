package simulation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/sarchlab/trialsim/datarecording"
	"github.com/sarchlab/trialsim/metrics"
)

// A Table holds the replicate-averaged metrics of a run. Rows[i] describes
// the trial after i+1 patients, with one value per column. Cells that no
// replicate defined are NaN.
type Table struct {
	RunID   string
	Config  Config
	Columns []string
	Rows    [][]float64

	// Counts[i][c] is the number of replicates that defined cell (i, c).
	Counts [][]int
}

func newTable(runID string, cfg Config, acc *Accumulator) *Table {
	rows, cols := acc.Shape()

	t := &Table{
		RunID:   runID,
		Config:  cfg,
		Columns: metrics.Columns(cfg.KInit + cfg.KNew),
		Rows:    make([][]float64, rows),
		Counts:  make([][]int, rows),
	}

	for i := 0; i < rows; i++ {
		t.Rows[i] = make([]float64, cols)
		t.Counts[i] = make([]int, cols)

		for c := 0; c < cols; c++ {
			t.Rows[i][c] = acc.Mean(i, c)
			t.Counts[i][c] = acc.Count(i, c)
		}
	}

	return t
}

// ColumnIndex returns the position of a named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}

	return -1
}

// Value returns the cell of a named column after enrolled patients.
func (t *Table) Value(enrolled int, column string) float64 {
	c := t.ColumnIndex(column)
	if c < 0 || enrolled < 1 || enrolled > len(t.Rows) {
		return math.NaN()
	}

	return t.Rows[enrolled-1][c]
}

// Column returns a named column as a curve over enrollment.
func (t *Table) Column(name string) []float64 {
	c := t.ColumnIndex(name)
	if c < 0 {
		return nil
	}

	values := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[c]
	}

	return values
}

// Last returns the row of the complete trial.
func (t *Table) Last() []float64 {
	if len(t.Rows) == 0 {
		return nil
	}

	return t.Rows[len(t.Rows)-1]
}

// Header returns the CSV header.
func (t *Table) Header() []string {
	return append([]string{"enrolled"}, t.Columns...)
}

// Record formats a row for CSV output. Undefined cells are empty.
func (t *Table) Record(i int) []string {
	record := make([]string, 0, len(t.Columns)+1)
	record = append(record, strconv.Itoa(i+1))

	for _, v := range t.Rows[i] {
		record = append(record, FormatValue(v))
	}

	return record
}

// FormatValue prints a metric value, leaving undefined values empty.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}

	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes the table to path + ".csv".
func (t *Table) WriteCSV(path string) (string, error) {
	w := datarecording.NewCSVWriter(path)

	err := w.Init()
	if err != nil {
		return "", err
	}

	err = w.Write(t.Header())
	if err != nil {
		return "", err
	}

	for i := range t.Rows {
		err = w.Write(t.Record(i))
		if err != nil {
			return "", fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	return w.Filename(), w.Close()
}
