package importer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/imports"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
)

// Supported wire formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatText = "text"
)

// Record is one parsed-but-not-yet-persisted template candidate.  Fields
// beyond title and body are optional; the analyzer fills in whatever the
// source left blank.
type Record struct {
	Row        int
	Title      string
	Body       string
	Category   string
	ToneStyle  string
	ClientType string
	Keywords   []string
}

// DetectFormat resolves the import format from an explicit hint, a filename
// extension, or the payload itself, in that order.
func DetectFormat(hint, filename string, data []byte) (string, error) {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case FormatCSV, FormatJSON, FormatText:
		return strings.ToLower(strings.TrimSpace(hint)), nil
	case "":
	default:
		return "", errors.New(errors.CodeImportFormatUnknown, "unsupported import format").
			WithDetail(hint)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".txt", ".md":
		return FormatText, nil
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		return FormatJSON, nil
	}
	if looksLikeCSV(trimmed) {
		return FormatCSV, nil
	}
	if trimmed != "" {
		return FormatText, nil
	}
	return "", errors.New(errors.CodeImportFormatUnknown, "cannot detect import format")
}

// looksLikeCSV requires a comma-bearing first line whose cells include a
// recognizable title header.
func looksLikeCSV(s string) bool {
	line, _, _ := strings.Cut(s, "\n")
	if !strings.Contains(line, ",") {
		return false
	}
	for _, cell := range strings.Split(line, ",") {
		if normalizeHeader(cell) == "title" {
			return true
		}
	}
	return false
}

// Parse dispatches on format and returns the accepted records plus a
// per-row error log for everything rejected.  Only an unreadable payload
// fails the call as a whole.
func Parse(format string, r io.Reader) ([]Record, []imports.RowError, error) {
	switch format {
	case FormatCSV:
		return parseCSV(r)
	case FormatJSON:
		return parseJSON(r)
	case FormatText:
		return parseText(r)
	default:
		return nil, nil, errors.New(errors.CodeImportFormatUnknown, "unsupported import format").
			WithDetail(format)
	}
}

var headerJunk = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeHeader maps "Client Type", "client-type" and "Title" onto
// the canonical column key.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(strings.TrimSpace(h), "\uFEFF")
	return headerJunk.ReplaceAllString(strings.ToLower(h), "_")
}

func parseCSV(r io.Reader) ([]Record, []imports.RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows are handled per-row, not fatally
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, errors.New(errors.CodeImportFormatUnknown, "csv payload is empty")
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeImportFormatUnknown, "read csv header")
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[normalizeHeader(h)] = i
	}
	titleIdx, okTitle := cols["title"]
	bodyIdx, okBody := cols["body"]
	if !okBody {
		bodyIdx, okBody = cols["content"]
	}
	if !okTitle || !okBody {
		return nil, nil, errors.New(errors.CodeImportFormatUnknown,
			"csv header must include title and body columns")
	}

	cell := func(row []string, idx int, ok bool) string {
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
	catIdx, okCat := cols["category"]
	toneIdx, okTone := cols["tone"]
	if !okTone {
		toneIdx, okTone = cols["tone_style"]
	}
	clientIdx, okClient := cols["client_type"]
	kwIdx, okKw := cols["keywords"]

	var (
		records []Record
		rowErrs []imports.RowError
		rowNum  = 1 // header was row 1
	)
	for {
		rowNum++
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, imports.RowError{Row: rowNum, Reason: err.Error()})
			continue
		}

		rec := Record{
			Row:        rowNum,
			Title:      cell(row, titleIdx, true),
			Body:       cell(row, bodyIdx, true),
			Category:   cell(row, catIdx, okCat),
			ToneStyle:  cell(row, toneIdx, okTone),
			ClientType: cell(row, clientIdx, okClient),
			Keywords:   splitKeywords(cell(row, kwIdx, okKw)),
		}
		if reason, ok := rejectReason(rec); !ok {
			rowErrs = append(rowErrs, imports.RowError{Row: rowNum, Reason: reason})
			continue
		}
		records = append(records, rec)
	}
	return records, rowErrs, nil
}

// jsonRecord is the accepted object shape inside a JSON-array import.
type jsonRecord struct {
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Content    string   `json:"content"` // body alias
	Category   string   `json:"category"`
	ToneStyle  string   `json:"tone_style"`
	ClientType string   `json:"client_type"`
	Keywords   []string `json:"keywords"`
}

func parseJSON(r io.Reader) ([]Record, []imports.RowError, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeImportFormatUnknown,
			"json payload must be an array of template objects")
	}

	var (
		records []Record
		rowErrs []imports.RowError
	)
	for i, item := range raw {
		rowNum := i + 1
		var jr jsonRecord
		if err := json.Unmarshal(item, &jr); err != nil {
			rowErrs = append(rowErrs, imports.RowError{
				Row: rowNum, Reason: fmt.Sprintf("not a template object: %v", err),
			})
			continue
		}
		body := jr.Body
		if body == "" {
			body = jr.Content
		}
		rec := Record{
			Row:        rowNum,
			Title:      strings.TrimSpace(jr.Title),
			Body:       strings.TrimSpace(body),
			Category:   strings.TrimSpace(jr.Category),
			ToneStyle:  strings.TrimSpace(jr.ToneStyle),
			ClientType: strings.TrimSpace(jr.ClientType),
			Keywords:   jr.Keywords,
		}
		if reason, ok := rejectReason(rec); !ok {
			rowErrs = append(rowErrs, imports.RowError{Row: rowNum, Reason: reason})
			continue
		}
		records = append(records, rec)
	}
	return records, rowErrs, nil
}

var paragraphSplit = regexp.MustCompile(`\n[ \t]*\n+`)

// parseText treats each blank-line-separated paragraph as one template:
// first line is the title, the remainder the body.  Single-line paragraphs
// cannot resolve a body and are rejected.
func parseText(r io.Reader) ([]Record, []imports.RowError, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeImportFormatUnknown, "read text payload")
	}

	var (
		records []Record
		rowErrs []imports.RowError
	)
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	for i, para := range paragraphSplit.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		rowNum := i + 1
		title, body, _ := strings.Cut(para, "\n")
		rec := Record{
			Row:   rowNum,
			Title: strings.TrimSpace(title),
			Body:  strings.TrimSpace(body),
		}
		if reason, ok := rejectReason(rec); !ok {
			rowErrs = append(rowErrs, imports.RowError{Row: rowNum, Reason: reason})
			continue
		}
		records = append(records, rec)
	}
	return records, rowErrs, nil
}

// rejectReason applies the minimum-viability rule: every record must resolve
// to at least a title and a body.
func rejectReason(rec Record) (string, bool) {
	if rec.Title == "" {
		return "missing title", false
	}
	if rec.Body == "" {
		return "missing body", false
	}
	return "", true
}

func splitKeywords(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '|' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
