package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/analyzer"
)

// NewAnalyzeCmd creates the analyze command.  It runs the classification
// passes locally and shows exactly what the matcher would see.
func NewAnalyzeCmd(opts *RootOptions) *cobra.Command {
	var (
		filePath      string
		showFormatted bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Classify a client message or template text",
		Long:  "Run the keyword, category, tone, complexity and client-type\ndetectors over the given text and print the derived metadata.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args, filePath)
			if err != nil {
				return err
			}

			result := analyzer.Analyze(text)

			if opts.OutputFormat == "json" {
				out := struct {
					analyzer.Analysis
					Formatted string `json:"formatted,omitempty"`
				}{Analysis: result}
				if showFormatted {
					out.Formatted = analyzer.FormatContent(text)
				}
				return printJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Category:    %s\n", result.Category)
			fmt.Fprintf(w, "Tone:        %s\n", result.Tone)
			fmt.Fprintf(w, "Complexity:  %s\n", result.Complexity)
			fmt.Fprintf(w, "Client type: %s\n", result.ClientType)
			fmt.Fprintf(w, "Keywords:    %s\n", strings.Join(result.Keywords, ", "))
			if showFormatted {
				fmt.Fprintf(w, "\nFormatted:\n%s\n", analyzer.FormatContent(text))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "read the text from a file")
	cmd.Flags().BoolVar(&showFormatted, "formatted", false, "also print the normalised text")

	return cmd
}
