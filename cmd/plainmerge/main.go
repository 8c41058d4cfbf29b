// plainmerge fills template PDFs with the rows of a spreadsheet.
//
// A job names a template PDF, a data file (xlsx or csv), the form fields and
// placements bound to columns, and whether rows go into one combined PDF or
// one file each. Jobs are JSON files or entries of the job store.
//
// Usage:
//
//	plainmerge [--config file] [-v] <command>
//
// Commands:
//
//	render <job>     Merge and write PDF files
//	email <job>      Merge and mail one PDF per row
//	fields <pdf>     List the fillable fields of a template
//	headers <data>   List the columns of a data file
//	jobs             List, show, save and remove stored jobs
//	smtp check       Test the configured mail server
//
// Examples:
//
// Write one file per row, named after column 0:
//
//	plainmerge render invoice-job.json --separate
//
// Mail every row to the address in column 2:
//
//	plainmerge email invoice-job.json --from office@example.com --to-column 2 \
//	    --subject 'Invoice [[{"id":0}]]' --body 'Attached is your invoice.'
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, styleError.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
