package merge

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gardar/plainmerge/pkg/diag"
	"github.com/gardar/plainmerge/pkg/render"
	"github.com/gardar/plainmerge/pkg/rows"
)

var debugColor = render.RGB{R: 255}

// overlays lays out the placements of every page for one row. The returned
// ops of a page keep placement order, so later placements paint over earlier
// ones. In debug mode every page starts with the outlines of its placement
// boxes.
//
// QR symbols are encoded concurrently. Text layout measures with the
// accumulator document and stays on the calling goroutine.
func (a *assembler) overlays(ctx context.Context, data rows.RowData) (map[int][]render.Op, []diag.Diagnostic, error) {
	var (
		mu    sync.Mutex
		diags []diag.Diagnostic
	)
	report := func(ds ...diag.Diagnostic) {
		mu.Lock()
		diags = append(diags, ds...)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, a.cfg.QRWorkers))

	slots := make(map[int][]render.Op)
	outlines := make(map[int][]render.Op)
	pages := make([]int, 0, len(a.run.Layouts))
	for n := range a.run.Layouts {
		pages = append(pages, n)
	}
	slices.Sort(pages)

	for _, n := range pages {
		layout := a.run.Layouts[n]
		page, ok := a.run.Template.Page(n)
		if !ok || len(layout.Placements) == 0 {
			continue
		}
		ratio, err := render.Ratio(page.Width, layout.ReferenceWidth)
		if err != nil {
			g.Wait()
			return nil, nil, err
		}

		ops := make([]render.Op, len(layout.Placements))
		slots[n] = ops
		for i, p := range layout.Placements {
			if a.cfg.Debug {
				outlines[n] = append(outlines[n], &render.OutlineOp{Box: p.Box(ratio), Color: debugColor})
			}
			if p.Index < 0 {
				continue
			}
			value := data.Get(p.Index)
			if value == "" {
				continue
			}

			if p.Kind == render.KindQR {
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					op, err := render.PrepareQR(p, ratio, value)
					if err != nil {
						report(diag.Diagnostic{
							Kind:    diag.QRCapacity,
							Page:    n,
							Subject: fmt.Sprintf("placement %d", i),
							Detail:  err.Error(),
						})
						return nil
					}
					ops[i] = op
					return nil
				})
				continue
			}

			font, fd, err := a.acc.fonts.Resolve(a.acc.pdf, p.FontFamily)
			if err != nil {
				g.Wait()
				return nil, nil, err
			}
			for _, d := range fd {
				d.Page = n
				report(d)
			}
			if op := render.LayoutText(a.acc.pdf, font, p, ratio, value); op != nil {
				ops[i] = op
			}
		}
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	out := make(map[int][]render.Op, len(slots))
	for n, ops := range slots {
		ops = slices.DeleteFunc(ops, func(op render.Op) bool { return op == nil })
		out[n] = append(outlines[n], ops...)
	}
	// Goroutines report in completion order.
	slices.SortStableFunc(diags, func(x, y diag.Diagnostic) int { return x.Page - y.Page })
	return out, diags, nil
}
