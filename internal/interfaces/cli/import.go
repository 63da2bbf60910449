package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/application/importer"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/imports"
)

// importReport is the dry-run summary for one parsed file.
type importReport struct {
	Format   string             `json:"format"`
	Total    int                `json:"total"`
	Valid    int                `json:"valid"`
	Rejected int                `json:"rejected"`
	Errors   []imports.RowError `json:"errors,omitempty"`
}

// NewImportCmd creates the import command.  It runs the same parser as the
// bulk-import endpoint as a dry run, so a file can be validated before it
// is uploaded.
func NewImportCmd(opts *RootOptions) *cobra.Command {
	var (
		format  string
		strict  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Validate a bulk-import file without uploading it",
		Long:  "Detect the format of a CSV, JSON or paragraph-text template file,\nparse every row, and report which rows the server would accept and\nwhich it would reject.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			detected, err := importer.DetectFormat(format, args[0], data)
			if err != nil {
				return err
			}
			records, rowErrs, err := importer.Parse(detected, bytes.NewReader(data))
			if err != nil {
				return err
			}

			report := importReport{
				Format:   detected,
				Total:    len(records) + len(rowErrs),
				Valid:    len(records),
				Rejected: len(rowErrs),
				Errors:   rowErrs,
			}

			if opts.OutputFormat == "json" {
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Format:   %s\n", report.Format)
				fmt.Fprintf(w, "Rows:     %d\n", report.Total)
				fmt.Fprintf(w, "Valid:    %d\n", report.Valid)
				fmt.Fprintf(w, "Rejected: %d\n", report.Rejected)
				if verbose {
					for _, re := range report.Errors {
						fmt.Fprintf(w, "  row %d: %s\n", re.Row, re.Reason)
					}
					for _, rec := range records {
						fmt.Fprintf(w, "  ok: %s\n", rec.Title)
					}
				}
			}

			if strict && report.Rejected > 0 {
				return fmt.Errorf("%d of %d rows rejected", report.Rejected, report.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "file format hint (csv, json, text); detected when empty")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any row is rejected")
	cmd.Flags().BoolVar(&verbose, "rows", false, "list every accepted and rejected row")

	return cmd
}
