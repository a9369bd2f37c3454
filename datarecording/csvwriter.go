package datarecording

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVWriter writes records into a CSV file.
type CSVWriter struct {
	path      string
	file      *os.File
	csvWriter *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes to path + ".csv".
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Init creates the file. It fails if the file already exists.
func (w *CSVWriter) Init() error {
	if w.path == "" {
		w.path = "trialsim_" + xid.New().String()
	}

	filename := w.path + ".csv"
	_, err := os.Stat(filename)
	if err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	w.file, err = os.Create(filename)
	if err != nil {
		return err
	}

	w.csvWriter = csv.NewWriter(w.file)

	atexit.Register(func() { _ = w.Close() })

	return nil
}

// Filename returns the name of the file being written.
func (w *CSVWriter) Filename() string {
	return w.path + ".csv"
}

// Write appends one record.
func (w *CSVWriter) Write(record []string) error {
	return w.csvWriter.Write(record)
}

// Flush writes buffered records to the file.
func (w *CSVWriter) Flush() error {
	w.csvWriter.Flush()
	return w.csvWriter.Error()
}

// Close flushes and closes the file. Closing twice is a no-op.
func (w *CSVWriter) Close() error {
	if w.file == nil {
		return nil
	}

	err := w.Flush()
	if err != nil {
		return err
	}

	err = w.file.Close()
	w.file = nil

	return err
}
