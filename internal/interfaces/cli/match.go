package cli

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/application/importer"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/analyzer"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/matcher"
)

// NewMatchCmd creates the match command.  It ranks the templates in a local
// file against a client message, which makes scoring changes inspectable
// without touching the database.
func NewMatchCmd(opts *RootOptions) *cobra.Command {
	var (
		message     string
		messageType string
		clientType  string
		format      string
		top         int
	)

	cmd := &cobra.Command{
		Use:   "match <template-file>",
		Short: "Rank a template file against a client message",
		Long:  "Parse templates from a CSV, JSON or paragraph-text file and rank\nthem by relevance to --message, exactly as the /templates/match\nendpoint would.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cliLogger(opts)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			views, rejected, err := templateViews(format, args[0], data)
			if err != nil {
				return err
			}
			if rejected > 0 {
				logger.Warn("skipped unparseable rows", logging.Int("rows", rejected))
			}
			if len(views) == 0 {
				return fmt.Errorf("no usable templates in %s", args[0])
			}

			ctx := &matcher.MatchContext{MessageType: messageType, ClientType: clientType}
			ranked := matcher.Rank(views, message, ctx)
			if top > 0 && len(ranked) > top {
				ranked = ranked[:top]
			}

			if opts.OutputFormat == "json" {
				type row struct {
					ID    string  `json:"id"`
					Score float64 `json:"score"`
				}
				out := make([]row, 0, len(ranked))
				for _, m := range ranked {
					out = append(out, row{ID: m.Template.ID, Score: m.Score})
				}
				return printJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			for i, m := range ranked {
				fmt.Fprintf(w, "%2d. %-40s %s\n", i+1, m.Template.ID,
					strconv.FormatFloat(m.Score, 'f', 3, 64))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "client message to match against (required)")
	cmd.Flags().StringVar(&messageType, "message-type", "", "declared message type (pricing, delivery, revision, technical)")
	cmd.Flags().StringVar(&clientType, "client-type", "", "declared client type (individual, startup, enterprise, business)")
	cmd.Flags().StringVar(&format, "format", "", "file format hint (csv, json, text); detected when empty")
	cmd.Flags().IntVar(&top, "top", 10, "number of results to show")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

// templateViews parses the file and projects each usable record into the
// scorer's view, deriving keywords and category the same way the importer
// enriches rows.
func templateViews(hint, filename string, data []byte) ([]matcher.TemplateView, int, error) {
	format, err := importer.DetectFormat(hint, filename, data)
	if err != nil {
		return nil, 0, err
	}
	records, rowErrs, err := importer.Parse(format, bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}

	views := make([]matcher.TemplateView, 0, len(records))
	for _, rec := range records {
		keywords := rec.Keywords
		if len(keywords) == 0 {
			keywords = analyzer.ExtractKeywords(rec.Body)
		}
		category := rec.Category
		if category == "" {
			category = analyzer.DetectCategory(rec.Body)
		}
		clientType := rec.ClientType
		if clientType == "" {
			clientType = analyzer.DetectClientType(rec.Body)
		}
		views = append(views, matcher.TemplateView{
			ID:         rec.Title,
			Keywords:   keywords,
			Category:   category,
			ClientType: clientType,
		})
	}
	return views, len(rowErrs), nil
}
