package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gardar/plainmerge/pkg/job"
	"github.com/gardar/plainmerge/pkg/merge"
	"github.com/gardar/plainmerge/pkg/pdftpl"
	"github.com/gardar/plainmerge/pkg/rows"
	"github.com/gardar/plainmerge/pkg/sink"
)

func (a *app) renderCmd() *cobra.Command {
	var (
		output   string
		separate bool
		combined bool
		cleanup  bool
	)
	cmd := &cobra.Command{
		Use:   "render <job>",
		Short: "Merge a job and write the PDF files",
		Long: `Merge a job and write the PDF files.

The job is a job file or the id of a stored job. Whether rows are written to
one combined file or one file each comes from the job unless --separate or
--combined is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			j, err := a.loadJob(ctx, args[0])
			if err != nil {
				return err
			}
			policy := merge.Separate
			if j.CombinePDF {
				policy = merge.Combined
			}
			switch {
			case separate:
				policy = merge.Separate
			case combined:
				policy = merge.Combined
			}

			files := sink.NewFile()
			res, err := a.merge(ctx, j, policy, output, files)
			if err != nil {
				if cleanup {
					if cerr := files.Cleanup(); cerr != nil {
						a.log.Warn("cleanup failed", "err", cerr)
					}
				}
				return err
			}
			a.report(res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "out", "o", "", "output file, or the base name of separate files")
	cmd.Flags().BoolVar(&separate, "separate", false, "write one file per row")
	cmd.Flags().BoolVar(&combined, "combined", false, "write all rows to one file")
	cmd.Flags().BoolVar(&cleanup, "cleanup", false, "remove files already written when the merge fails")
	cmd.MarkFlagsMutuallyExclusive("separate", "combined")
	a.outputFlags(cmd)
	return cmd
}

func (a *app) emailCmd() *cobra.Command {
	var (
		e      sink.Email
		output string
		keep   bool
	)
	cmd := &cobra.Command{
		Use:   "email <job>",
		Short: "Merge a job and mail one PDF per row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			j, err := a.loadJob(ctx, args[0])
			if err != nil {
				return err
			}

			sc, err := a.cfg.SMTP.Dialer().Dial()
			if err != nil {
				return err
			}
			defer sc.Close()
			e.Sender = sc

			var s sink.Sink = &e
			if keep {
				s = sink.Multi{sink.NewFile(), &e}
			}
			res, err := a.merge(ctx, j, merge.Separate, output, s)
			if err != nil {
				return err
			}
			a.report(res)
			return nil
		},
	}
	cmd.Flags().StringVar(&e.From, "from", "", "sender address")
	cmd.Flags().IntVar(&e.ToColumn, "to-column", 0, "column holding the recipient address")
	cmd.Flags().StringVar(&e.Subject, "subject", "", "subject template")
	cmd.Flags().StringVar(&e.Body, "body", "", "body template")
	cmd.Flags().BoolVar(&e.HTML, "html", false, "send the body as HTML")
	cmd.Flags().StringVarP(&output, "out", "o", "", "base name of the attachments")
	cmd.Flags().BoolVar(&keep, "keep", false, "also write the attachments to disk")
	cmd.MarkFlagRequired("from")
	a.outputFlags(cmd)
	return cmd
}

func (a *app) outputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.layer, "layer", "", "put merged content in a PDF layer of this name")
	cmd.Flags().BoolVar(&a.debug, "debug", false, "outline placement boxes in red")
}

// merge loads the inputs of j and renders them into s.
func (a *app) merge(ctx context.Context, j *job.Job, policy merge.Policy, output string, s sink.Sink) (*merge.Result, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}
	tpl, err := pdftpl.LoadFile(j.PDFFile)
	if err != nil {
		return nil, err
	}
	tbl, err := rows.Open(j.ExcelFile, a.cfg.RowLimit)
	if err != nil {
		return nil, err
	}
	a.log.Info("data loaded", "file", j.ExcelFile, "rows", tbl.RowCount, "columns", len(tbl.Header))

	if output == "" {
		output = j.OutputPDF
	}
	if output == "" {
		output = defaultOutput(j.PDFFile)
	}

	cfg := merge.DefaultConfig()
	cfg.Logger = a.log
	cfg.FontDir = a.cfg.FontDir
	cfg.LayerName = a.layer
	cfg.Debug = a.debug

	return merge.Render(ctx, &merge.Run{
		Template:         tpl,
		Rows:             tbl,
		Layouts:          j.CanvasData,
		Binding:          j.Binding(),
		Policy:           policy,
		Output:           output,
		FilenameTemplate: j.Filename,
		Sink:             s,
		Progress: func(p merge.Progress) {
			a.log.Debug("row merged", "row", p.Row, "of", p.Total)
		},
	}, cfg)
}

// defaultOutput places merged output next to the template.
func defaultOutput(pdf string) string {
	ext := filepath.Ext(pdf)
	return strings.TrimSuffix(pdf, ext) + "_merged.pdf"
}

func (a *app) report(res *merge.Result) {
	printSuccess(a.out, "Wrote %d file(s), %d page(s) from %d row(s)", res.Artifacts, res.Pages, res.Rows)
	for _, name := range res.Names {
		printDetail(a.out, "%s", name)
	}
	for _, d := range res.Diagnostics {
		printWarning(a.out, "%s", d)
	}
}
