// Package cli implements the chatbuddy operator CLI: offline analysis,
// template scoring, and import-file validation without a running server.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds the global CLI flags.
type RootOptions struct {
	OutputFormat string
	Verbose      bool
}

// NewRootCommand creates the root cobra command with global flags and all
// subcommands mounted.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "chatbuddy",
		Short:   "Chat Buddy CLI — offline tools for freelancer reply templates",
		Long:    "Chat Buddy helps freelancers answer client chats with matched\ntemplates and drafted replies. The CLI runs the analysis and scoring\nengine locally: inspect how a message is classified, rank a template\nfile against a message, and validate bulk-import files before upload.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(
		NewAnalyzeCmd(opts),
		NewMatchCmd(opts),
		NewImportCmd(opts),
	)

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliLogger builds a stderr console logger so command output on stdout
// stays machine-readable.
func cliLogger(opts *RootOptions) logging.Logger {
	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNopLogger()
	}
	return logger
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput resolves the text argument: explicit args win, then --file,
// then stdin when piped.
func readInput(cmd *cobra.Command, args []string, filePath string) (string, error) {
	if len(args) > 0 {
		out := args[0]
		for _, a := range args[1:] {
			out += " " + a
		}
		return out, nil
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", filePath, err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no input: pass text as an argument, --file, or pipe to stdin")
	}
	return string(data), nil
}
