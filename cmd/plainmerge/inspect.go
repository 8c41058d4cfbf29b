package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gardar/plainmerge/pkg/pdftpl"
	"github.com/gardar/plainmerge/pkg/rows"
	"github.com/gardar/plainmerge/pkg/sink"
)

func (a *app) fieldsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "fields <template.pdf>",
		Short: "List the fillable form fields of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := pdftpl.LoadFile(args[0])
			if err != nil {
				return err
			}
			fields := tpl.Fields()
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(fields)
			}
			fmt.Fprintf(a.out, "%d page(s), %d field(s)\n", tpl.PageCount(), len(fields))
			for _, f := range fields {
				line := fmt.Sprintf("%-24s %-10s page %d", f.Name, f.Kind, f.Page)
				if len(f.Options) > 0 {
					line += "  [" + strings.Join(f.Options, ", ") + "]"
				}
				fmt.Fprintln(a.out, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) headersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "headers <data>",
		Short: "List the columns of a spreadsheet or CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The header comes before the first data row.
			tbl, err := rows.Open(args[0], 1)
			if err != nil {
				return err
			}
			for _, h := range tbl.Header {
				fmt.Fprintf(a.out, "%3d  %s\n", h.Index, h.Label)
			}
			return nil
		},
	}
}

func (a *app) smtpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smtp",
		Short: "Mail server tools",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Connect and log in to the configured mail server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sink.CheckSMTP(a.cfg.SMTP); err != nil {
				return err
			}
			printSuccess(a.out, "Logged in to %s:%d", a.cfg.SMTP.Host, a.cfg.SMTP.Port)
			return nil
		},
	})
	return cmd
}
