package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gardar/plainmerge/pkg/job"
)

func (a *app) jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage stored jobs",
	}
	cmd.AddCommand(a.jobsListCmd(), a.jobsShowCmd(), a.jobsSaveCmd(), a.jobsRemoveCmd())
	return cmd
}

func (a *app) jobsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := a.store()
			if err != nil {
				return err
			}
			defer done()
			jobs, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, j := range jobs {
				fmt.Fprintf(a.out, "%s  %s  %s\n", j.ID[:min(12, len(j.ID))], j.UpdatedAt.Local().Format("2006-01-02 15:04"), j.PDFFile)
			}
			return nil
		},
	}
}

func (a *app) jobsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored job as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := a.loadJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(j)
		},
	}
}

func (a *app) jobsSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <job.json>",
		Short: "Store a job file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := job.LoadFile(args[0])
			if err != nil {
				return err
			}
			s, done, err := a.store()
			if err != nil {
				return err
			}
			defer done()
			j.UpdatedAt = time.Now().UTC()
			if err := s.Save(cmd.Context(), j); err != nil {
				return err
			}
			printSuccess(a.out, "Saved job %s", j.ID)
			return nil
		},
	}
}

func (a *app) jobsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a stored job",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := a.store()
			if err != nil {
				return err
			}
			defer done()
			if err := s.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess(a.out, "Removed job %s", args[0])
			return nil
		},
	}
}
