// Package merge is the rendering engine: it stamps data bound fields onto
// copies of a template PDF, one copy per data row.
//
// A Run describes one merge. For every row the engine fills a private copy of
// the template's form, lays out the placements of every page, turns the form
// values into page content, and copies the template pages with both layers
// into an accumulator document. What happens to the accumulator depends on
// the output policy:
//
// - Combined: one document grows for the whole run and is delivered once
// - Separate: the document is delivered after every row and replaced
//
// Both policies drive the same per-row loop. The loop is a small state
// machine, see State, which ends in Done or Failed.
//
// Form values are never copied as interactive fields. Template pages are
// imported as page content only, which drops every widget, so the step named
// Materialize draws each field value where its widget was. Without it filled
// forms would come out blank.
//
// Failures abort the run and are returned as *RowError. Artifacts delivered
// before the failure are left in place. Recoverable problems such as a value
// that matches no option of a choice field are recorded as diagnostics and
// the run continues.
//
// Main Functions:
//
// - Render: executes a Run
// - OutputName: the file name of a separately written row
package merge

import (
	"context"
	"errors"
	"fmt"

	"github.com/gardar/plainmerge/pkg/diag"
	"github.com/gardar/plainmerge/pkg/form"
	"github.com/gardar/plainmerge/pkg/pdftpl"
	"github.com/gardar/plainmerge/pkg/render"
	"github.com/gardar/plainmerge/pkg/rows"
	"github.com/gardar/plainmerge/pkg/sink"
)

// Policy selects the output topology of a run.
type Policy int

const (
	Combined Policy = iota // one artifact holding every row
	Separate               // one artifact per row
)

func (p Policy) String() string {
	if p == Separate {
		return "separate"
	}
	return "combined"
}

// Progress is reported once per completed row.
type Progress struct {
	Row         int // 1-based
	Total       int
	Data        rows.RowData
	Diagnostics []diag.Diagnostic // non-fatal outcomes of this row
}

// ProgressFunc receives progress reports.
type ProgressFunc func(Progress)

// Run is everything one merge needs. It is not modified by Render.
type Run struct {
	Template         *pdftpl.Template
	Rows             *rows.Table
	Layouts          map[int]render.PageLayout // by 1-based page number
	Binding          form.Binding
	Policy           Policy
	Output           string // combined artifact name, or the base of separate names
	FilenameTemplate string // placeholder template for separate names
	Progress         ProgressFunc
	Sink             sink.Sink
}

// Result summarizes a successful run.
type Result struct {
	RunID       string
	Artifacts   int      // 1 for combined, one per row for separate
	Names       []string // artifact names in delivery order
	Pages       int      // pages written over all artifacts
	Rows        int
	Diagnostics diag.List
}

// Render executes run.
func Render(ctx context.Context, run *Run, cfg Config) (*Result, error) {
	if err := run.validate(); err != nil {
		return nil, err
	}
	return newAssembler(run, cfg).execute(ctx)
}

func (r *Run) validate() error {
	switch {
	case r == nil:
		return errors.New("nil run")
	case r.Template == nil:
		return errors.New("run has no template")
	case r.Rows == nil:
		return errors.New("run has no rows")
	case r.Sink == nil:
		return errors.New("run has no output sink")
	case r.Output == "":
		return errors.New("run has no output name")
	}
	for page, l := range r.Layouts {
		if _, ok := r.Template.Page(page); !ok || len(l.Placements) == 0 {
			continue
		}
		if l.ReferenceWidth <= 0 {
			return fmt.Errorf("layout of page %d has no reference width", page)
		}
	}
	return nil
}
