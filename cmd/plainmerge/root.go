package main

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gardar/plainmerge/pkg/job"
)

// app is the state shared by all commands, set up before any of them runs.
type app struct {
	cfg Config
	log *log.Logger
	out io.Writer

	layer string // merge into an optional content layer
	debug bool   // outline placement boxes
}

// newLogger creates a logger with timestamps that writes to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func newRootCmd() *cobra.Command {
	a := &app{out: os.Stdout}
	var (
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:           "plainmerge",
		Short:         "Fill template PDFs with spreadsheet rows",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			a.log = newLogger(cmd.ErrOrStderr(), level)
			a.out = cmd.OutOrStdout()

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log.Debug("config loaded", "path", configPath, "row_limit", cfg.RowLimit, "job_dir", cfg.JobDir)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(a.renderCmd())
	root.AddCommand(a.emailCmd())
	root.AddCommand(a.fieldsCmd())
	root.AddCommand(a.headersCmd())
	root.AddCommand(a.jobsCmd())
	root.AddCommand(a.smtpCmd())
	return root
}

// store opens the configured job store. The returned function releases it.
func (a *app) store() (job.Store, func(), error) {
	if a.cfg.Redis.Addr != "" {
		s := job.NewRedisStore(a.cfg.Redis)
		return s, func() { s.Close() }, nil
	}
	s, err := job.NewFileStore(a.cfg.JobDir)
	if err != nil {
		return nil, nil, err
	}
	return s, func() {}, nil
}

// loadJob reads a job file, or the stored job with that id.
func (a *app) loadJob(ctx context.Context, ref string) (*job.Job, error) {
	if fi, err := os.Stat(ref); err == nil && !fi.IsDir() {
		return job.LoadFile(ref)
	}
	s, done, err := a.store()
	if err != nil {
		return nil, err
	}
	defer done()
	return s.Load(ctx, ref)
}
