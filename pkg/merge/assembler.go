package merge

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gardar/plainmerge/pkg/diag"
	"github.com/gardar/plainmerge/pkg/form"
	"github.com/gardar/plainmerge/pkg/pdftpl"
	"github.com/gardar/plainmerge/pkg/rows"
	"github.com/gardar/plainmerge/pkg/sink"
)

// assembler carries the mutable state of one Render call.
type assembler struct {
	run   *Run
	cfg   Config
	log   *log.Logger
	ts    time.Time
	state State
	row   int // current 1-based row, 0 outside the row loop
	acc   *accumulator
	names map[string]bool
	res   *Result
}

func newAssembler(run *Run, cfg Config) *assembler {
	id := uuid.NewString()
	ts := cfg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return &assembler{
		run:   run,
		cfg:   cfg,
		log:   cfg.logger().With("run", id),
		ts:    ts,
		names: make(map[string]bool),
		res:   &Result{RunID: id},
	}
}

func (a *assembler) enter(s State) {
	a.state = s
	if a.row > 0 {
		a.log.Debug("state", "state", s, "row", a.row)
	} else {
		a.log.Debug("state", "state", s)
	}
	if a.cfg.OnState != nil {
		a.cfg.OnState(s)
	}
}

// fail moves to Failed and wraps err with the position it happened at.
func (a *assembler) fail(file string, err error) error {
	stage := a.state
	a.enter(Failed)
	a.log.Error("merge failed", "stage", stage, "row", a.row, "err", err)
	return &RowError{Row: a.row, Stage: stage, File: file, Err: err}
}

func (a *assembler) execute(ctx context.Context) (*Result, error) {
	run := a.run
	total := len(run.Rows.Rows)
	a.log.Info("merge started", "template", run.Template.Path, "rows", total, "policy", run.Policy)

	a.enter(LoadTemplate)
	if err := ctx.Err(); err != nil {
		return nil, a.fail("", err)
	}
	if a.cfg.LayerName != "" && run.Template.HasLayer(a.cfg.LayerName) {
		a.log.Warn("template already has a merge layer, it may be merged output", "layer", a.cfg.LayerName)
	}
	a.acc = newAccumulator(run.Template, a.cfg, a.ts)
	f, err := a.fresh()
	if err != nil {
		return nil, err
	}

	for i, data := range run.Rows.All() {
		a.row = i
		if i > 1 {
			a.enter(ReloadTemplate)
			if err := ctx.Err(); err != nil {
				return nil, a.fail("", err)
			}
			if f, err = a.fresh(); err != nil {
				return nil, err
			}
		}
		if err := a.processRow(ctx, f, data, total); err != nil {
			return nil, err
		}
	}
	a.row = 0

	if run.Policy == Combined {
		a.enter(FinalizeCombined)
		if err := a.deliver(ctx, run.Output, nil); err != nil {
			return nil, err
		}
	}

	a.enter(Done)
	a.log.Info("merge finished", "artifacts", a.res.Artifacts, "pages", a.res.Pages, "diagnostics", len(a.res.Diagnostics))
	return a.res, nil
}

// fresh returns the pristine form of the template.
func (a *assembler) fresh() (*form.Form, error) {
	f, err := a.run.Template.Fresh()
	if err != nil {
		return nil, a.fail(a.run.Template.Path, &pdftpl.TemplateLoadError{Path: a.run.Template.Path, Err: err})
	}
	return f, nil
}

func (a *assembler) processRow(ctx context.Context, f *form.Form, data rows.RowData, total int) error {
	run := a.run
	var diags diag.List

	a.enter(FillForm)
	diags.Merge(a.row, form.Fill(f, run.Binding, data, a.row))

	a.enter(RenderOverlays)
	overlays, od, err := a.overlays(ctx, data)
	if err != nil {
		return a.fail("", err)
	}
	diags.Merge(a.row, od)

	a.enter(Materialize)
	baked := materialize(a.acc.pdf, f, run.Template)

	a.enter(CopyIntoAccumulator)
	for _, p := range run.Template.Pages {
		if err := a.acc.addPage(p, baked[p.Number], overlays[p.Number]); err != nil {
			return a.fail(run.Template.Path, err)
		}
	}

	a.res.Rows++
	a.res.Diagnostics = append(a.res.Diagnostics, diags...)
	for _, d := range diags {
		a.log.Warn("diagnostic", "row", a.row, "kind", d.Kind, "subject", d.Subject, "detail", d.Detail)
	}
	a.log.Debug("row done", "row", a.row, "total", total)
	if run.Progress != nil {
		run.Progress(Progress{Row: a.row, Total: total, Data: data, Diagnostics: diags})
	}

	if run.Policy != Separate {
		return nil
	}
	a.enter(Flush)
	name := a.uniqueName(OutputName(run.Output, run.FilenameTemplate, a.row, data))
	if err := a.deliver(ctx, name, data); err != nil {
		return err
	}
	// A new document starts a new set of embedded fonts.
	a.acc = newAccumulator(run.Template, a.cfg, a.ts)
	return nil
}

// deliver serializes the accumulator and hands it to the sink.
func (a *assembler) deliver(ctx context.Context, name string, data rows.RowData) error {
	pages := a.acc.pages
	content, err := a.acc.bytes()
	if err != nil {
		return a.fail(name, err)
	}
	if err := a.run.Sink.Save(ctx, name, content, data); err != nil {
		return a.fail(name, sink.Wrap(name, err))
	}
	a.res.Artifacts++
	a.res.Pages += pages
	a.res.Names = append(a.res.Names, name)
	a.log.Info("artifact written", "name", name, "pages", pages, "bytes", len(content))
	return nil
}

// uniqueName appends the row number to names already used in this run.
func (a *assembler) uniqueName(name string) string {
	if a.names[name] {
		name = withSuffix(name, a.row)
	}
	a.names[name] = true
	return name
}
