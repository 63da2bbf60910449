// Package response implements the RefinedResponse bounded context: the
// human-edited final versions of generated drafts that are retained as style
// exemplars and retrieved by lexical similarity for future messages.
package response

import (
	"context"
	"strings"
	"time"

	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// RefinedResponse is created when a user hand-edits a generated draft and
// commits the edit.  It is immutable thereafter apart from the update
// timestamp, and never auto-deleted.
type RefinedResponse struct {
	ID      common.ID      `json:"id"`
	OwnerID common.OwnerID `json:"owner_id"`

	OriginalClientMessage string `json:"original_client_message"`
	OriginalResponse      string `json:"original_response"`
	RefinedResponse       string `json:"refined_response"`
	MessageType           string `json:"message_type"`

	// SimilarityKeywords are analyzer-derived terms indexed for the keyword
	// pre-filter; the similarity score itself works on the raw messages.
	SimilarityKeywords []string `json:"similarity_keywords,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate enforces commit-time invariants.
func (r *RefinedResponse) Validate() error {
	if r.OwnerID == "" {
		return errors.InvalidParam("refined response requires an owner")
	}
	if strings.TrimSpace(r.OriginalClientMessage) == "" {
		return errors.InvalidParam("original client message is required")
	}
	if strings.TrimSpace(r.RefinedResponse) == "" {
		return errors.InvalidParam("refined response text is required")
	}
	return nil
}

// SearchFilter narrows candidate retrieval before similarity scoring runs.
type SearchFilter struct {
	// Keywords pre-filters candidates via the search index; empty means a
	// plain owner scan.
	Keywords []string
	// MessageType restricts candidates to one declared type; empty means all.
	MessageType string
	Limit       int
}

// Repository is the persistence contract for refined responses.
type Repository interface {
	Create(ctx context.Context, r *RefinedResponse) error
	GetByID(ctx context.Context, owner common.OwnerID, id common.ID) (*RefinedResponse, error)
	ListByOwner(ctx context.Context, owner common.OwnerID, f SearchFilter) ([]*RefinedResponse, error)
}

// Searcher is the optional full-text capability used to pre-filter
// candidates for large owners.  Implementations return candidate IDs only;
// a failed or unavailable search degrades to the repository scan.
type Searcher interface {
	Index(ctx context.Context, r *RefinedResponse) error
	SearchIDs(ctx context.Context, owner common.OwnerID, keywords []string, limit int) ([]common.ID, error)
}
