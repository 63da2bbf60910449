// Package template implements the Template bounded context: the reusable,
// owner-scoped message drafts with matching metadata that the scorer ranks
// against incoming client messages.  Business rules live here; persistence
// is handled by the repository implementations.
package template

import (
	"strings"
	"time"

	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// Placeholder variables inside a template body use "{{name}}" syntax and are
// substituted by the client at send time; the backend stores them verbatim.

// maxTitleLen bounds template titles at write time.
const maxTitleLen = 200

// Template is the aggregate root for a saved message draft.
type Template struct {
	ID      common.ID      `json:"id"`
	OwnerID common.OwnerID `json:"owner_id"` // empty for curated-library rows
	Title   string         `json:"title"`
	Body    string         `json:"body"`

	// Matching metadata, derived by the analyzer or set manually.
	Category          string   `json:"category"`
	ToneStyle         string   `json:"tone_style"`
	ProjectComplexity string   `json:"project_complexity"`
	ClientType        string   `json:"client_type"`
	IndustryTags      []string `json:"industry_tags,omitempty"`
	MatchingKeywords  []string `json:"matching_keywords,omitempty"`

	// Usage telemetry.  UsageCount is eventually consistent — it is bumped
	// by fire-and-forget events and never read by the scorer.
	UsageCount    int      `json:"usage_count"`
	SuccessRating *float64 `json:"success_rating,omitempty"` // [1,5] when set

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCurated reports whether the template belongs to the shared read-only
// starter library rather than to a user.
func (t *Template) IsCurated() bool {
	return t.OwnerID == ""
}

// Validate enforces the write-time invariants.  Curated rows pass the same
// checks minus ownership.
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return errors.New(errors.CodeTemplateInvalid, "template title is required")
	}
	if len(t.Title) > maxTitleLen {
		return errors.New(errors.CodeTemplateInvalid, "template title too long").
			WithDetail("max 200 characters")
	}
	if strings.TrimSpace(t.Body) == "" {
		return errors.New(errors.CodeTemplateInvalid, "template body is required")
	}
	if t.SuccessRating != nil && (*t.SuccessRating < 1 || *t.SuccessRating > 5) {
		return errors.New(errors.CodeTemplateInvalid, "success rating out of range").
			WithDetail("expected [1, 5]")
	}
	return nil
}

// NormalizeKeywords lower-cases and deduplicates MatchingKeywords in place,
// preserving first-seen order and dropping empties.  Stored keywords are
// normalized at write time; comparisons stay case-insensitive regardless so
// legacy rows with mixed case keep matching.
func (t *Template) NormalizeKeywords() {
	if len(t.MatchingKeywords) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(t.MatchingKeywords))
	out := t.MatchingKeywords[:0]
	for _, kw := range t.MatchingKeywords {
		w := strings.ToLower(strings.TrimSpace(kw))
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	t.MatchingKeywords = out
}

// CopyForOwner returns a fresh user-owned copy of a curated template,
// resetting identity and telemetry.
func (t *Template) CopyForOwner(owner common.OwnerID, now time.Time) *Template {
	clone := *t
	clone.ID = common.NewID()
	clone.OwnerID = owner
	clone.UsageCount = 0
	clone.SuccessRating = nil
	clone.IndustryTags = append([]string(nil), t.IndustryTags...)
	clone.MatchingKeywords = append([]string(nil), t.MatchingKeywords...)
	clone.CreatedAt = now
	clone.UpdatedAt = now
	return &clone
}
