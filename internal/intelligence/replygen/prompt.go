// Package replygen assembles the generation prompt from the matched
// snapshot and calls the external generative-language API to draft a reply.
// Prompt construction is deterministic: equal input yields byte-equal
// output, so drafts are reproducible and cacheable.
package replygen

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// Truncation caps for similarity exemplars folded into the prompt.
const (
	exemplarMessageCap  = 100
	exemplarResponseCap = 300
	maxExemplars        = 2
)

// systemRole is the fixed role description that opens every prompt.
const systemRole = `You are a writing assistant for a freelancer on a services marketplace. ` +
	`Draft a reply to the client's message below. Match the freelancer's voice, ` +
	`keep placeholders like {{client_name}} intact, be concrete about next steps, ` +
	`and never invent prices or deadlines that are not in the provided templates.`

// genericGuidelines replaces exemplar context when no similar refined
// responses exist; the prompt degrades gracefully rather than failing.
const genericGuidelines = `No prior replies are available for this client. ` +
	`Write in a friendly, professional tone and keep the reply under 150 words.`

// Exemplar is a similarity-retrieved refined response folded into the
// prompt as a style example.
type Exemplar struct {
	ClientMessage   string
	RefinedResponse string
	Score           float64
}

// TemplateExemplar is a ranked template folded into the prompt.
type TemplateExemplar struct {
	Title string
	Body  string
	Score float64
}

// PromptInput carries everything prompt assembly needs.  All fields are
// optional except ClientMessage; absent fields simply omit their section.
type PromptInput struct {
	ProfileSummary string
	RecentTypes    []string // message types of the owner's recent conversations
	MessageType    string
	Exemplars      []Exemplar
	Templates      []TemplateExemplar
	ClientMessage  string
}

// promptText is the prompt layout.  Sections appear in a fixed order and
// conditionally; everything dynamic is pre-truncated by BuildPrompt so the
// template itself stays dumb.
var promptText = template.Must(template.New("reply").Parse(`{{.System}}

{{- if .Profile}}

Freelancer profile: {{.Profile}}
{{- end}}
{{- if .RecentSummary}}

Recent conversation types: {{.RecentSummary}}
{{- end}}
{{- if .MessageType}}

Incoming message type: {{.MessageType}}
{{- end}}
{{- if .Templates}}

Relevant saved templates, best match first:
{{- range .Templates}}
- [{{printf "%.2f" .Score}}] {{.Title}}: {{.Body}}
{{- end}}
{{- end}}
{{- if .Exemplars}}

Past replies the freelancer refined by hand, for tone reference:
{{- range .Exemplars}}
- Client said: "{{.ClientMessage}}"
  Freelancer replied: "{{.RefinedResponse}}"
{{- end}}
{{- else}}

{{.Guidelines}}
{{- end}}

Client message:
"""
{{.ClientMessage}}
"""

Draft the reply now.`))

type promptData struct {
	System        string
	Profile       string
	RecentSummary string
	MessageType   string
	Templates     []TemplateExemplar
	Exemplars     []Exemplar
	Guidelines    string
	ClientMessage string
}

// BuildPrompt renders the full prompt text.  At most two exemplars are
// included, with the client message truncated to 100 characters and the
// refined response to 300; the incoming client message itself is always
// verbatim.
func BuildPrompt(in PromptInput) (string, error) {
	if strings.TrimSpace(in.ClientMessage) == "" {
		return "", fmt.Errorf("replygen: client message is required")
	}

	exemplars := in.Exemplars
	if len(exemplars) > maxExemplars {
		exemplars = exemplars[:maxExemplars]
	}
	trimmed := make([]Exemplar, len(exemplars))
	for i, ex := range exemplars {
		trimmed[i] = Exemplar{
			ClientMessage:   truncate(ex.ClientMessage, exemplarMessageCap),
			RefinedResponse: truncate(ex.RefinedResponse, exemplarResponseCap),
			Score:           ex.Score,
		}
	}

	data := promptData{
		System:        systemRole,
		Profile:       in.ProfileSummary,
		RecentSummary: summarizeTypes(in.RecentTypes),
		MessageType:   in.MessageType,
		Templates:     in.Templates,
		Exemplars:     trimmed,
		Guidelines:    genericGuidelines,
		ClientMessage: in.ClientMessage,
	}

	var buf bytes.Buffer
	if err := promptText.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("replygen: prompt render failed: %w", err)
	}
	return buf.String(), nil
}

// truncate cuts s to at most n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

// summarizeTypes renders "delivery ×3, follow_up ×1" style counts in
// deterministic (most frequent, then lexical) order.
func summarizeTypes(types []string) string {
	if len(types) == 0 {
		return ""
	}
	counts := make(map[string]int, len(types))
	for _, t := range types {
		if t == "" {
			continue
		}
		counts[t]++
	}
	if len(counts) == 0 {
		return ""
	}
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(a, b int) bool {
		if counts[labels[a]] != counts[labels[b]] {
			return counts[labels[a]] > counts[labels[b]]
		}
		return labels[a] < labels[b]
	})
	parts := make([]string, len(labels))
	for i, label := range labels {
		parts[i] = fmt.Sprintf("%s ×%d", label, counts[label])
	}
	return strings.Join(parts, ", ")
}
