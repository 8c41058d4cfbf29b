// Package sink delivers merged documents.
//
// The assembler hands every finished artifact to a Sink together with the row
// it was produced from: once per row when rows are written separately, once
// without row data for a combined document. A Sink is never called
// concurrently, but it is called many times in sequence.
//
// Available sinks:
//
// - File: writes artifacts to disk and remembers what it wrote
// - Email: mails each artifact to an address taken from its row
// - Multi: runs several sinks in order
// - Func: adapts a plain function
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/gardar/plainmerge/pkg/rows"
)

// Sink consumes one finished artifact. row is nil for combined documents.
type Sink interface {
	Save(ctx context.Context, name string, content []byte, row rows.RowData) error
}

// Func adapts a function to the Sink interface.
type Func func(ctx context.Context, name string, content []byte, row rows.RowData) error

// Save calls f.
func (f Func) Save(ctx context.Context, name string, content []byte, row rows.RowData) error {
	return f(ctx, name, content, row)
}

// SinkError reports an artifact that could not be delivered.
type SinkError struct {
	Name string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("cannot deliver %q: %v", e.Name, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// Wrap returns err as a *SinkError for name unless it already is one.
func Wrap(name string, err error) error {
	if err == nil {
		return nil
	}
	var se *SinkError
	if errors.As(err, &se) {
		return err
	}
	return &SinkError{Name: name, Err: err}
}

// Multi saves to every sink in order and stops at the first failure.
type Multi []Sink

func (m Multi) Save(ctx context.Context, name string, content []byte, row rows.RowData) error {
	for _, s := range m {
		if err := s.Save(ctx, name, content, row); err != nil {
			return err
		}
	}
	return nil
}
