package merge

import "fmt"

// RowError is a fatal failure of a run. It records the row being processed
// (0 before the first row), the state the run was in and the file involved.
// The cause is kept for errors.As: a SourceReadError, TemplateLoadError,
// FontResolutionError or SinkError in most cases.
type RowError struct {
	Row   int
	Stage State
	File  string
	Err   error
}

func (e *RowError) Error() string {
	msg := e.Stage.String()
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	if e.File != "" {
		msg += " " + e.File
	}
	return fmt.Sprintf("merge failed at %s: %v", msg, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
