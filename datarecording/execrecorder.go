package datarecording

import (
	"os"
	"strings"
	"time"
)

// execInfo is one property of the program execution.
type execInfo struct {
	Property string
	Value    string
}

// execRecorder records how and when the program that produced a database
// was run.
type execRecorder struct {
	tablename string
	recorder  DataRecorder
	entries   []execInfo
}

func newExecRecorder(recorder DataRecorder) *execRecorder {
	e := &execRecorder{
		tablename: "exec_info",
		recorder:  recorder,
	}

	e.recorder.CreateTable(e.tablename, execInfo{})

	return e
}

// Start logs the current execution.
func (e *execRecorder) Start() {
	startTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	e.entries = append(e.entries, execInfo{"Start Time", startTime})

	cmd := strings.Join(os.Args, " ")
	e.entries = append(e.entries, execInfo{"Command", cmd})

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	e.entries = append(e.entries, execInfo{"Working Directory", cwd})
}

// End writes the entries along with the exit time.
func (e *execRecorder) End() {
	if e.entries == nil {
		return
	}

	for _, entry := range e.entries {
		e.recorder.InsertData(e.tablename, entry)
	}

	endTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	e.recorder.InsertData(e.tablename, execInfo{"End Time", endTime})

	e.entries = nil

	e.recorder.Flush()
}
