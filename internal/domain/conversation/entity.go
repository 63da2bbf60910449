// Package conversation implements the Conversation bounded context: the
// per-owner log of client messages and sent replies, with optional image
// attachments stored in object storage.
package conversation

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// Conversation is one captured exchange.
type Conversation struct {
	ID      common.ID      `json:"id"`
	OwnerID common.OwnerID `json:"owner_id"`

	ClientMessage string `json:"client_message"`
	SentReply     string `json:"sent_reply,omitempty"`
	MessageType   string `json:"message_type,omitempty"`

	// AttachmentKeys are object-storage keys for uploaded images.
	AttachmentKeys []string `json:"attachment_keys,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate enforces capture-time invariants.
func (c *Conversation) Validate() error {
	if c.OwnerID == "" {
		return errors.InvalidParam("conversation requires an owner")
	}
	if strings.TrimSpace(c.ClientMessage) == "" {
		return errors.InvalidParam("client message is required")
	}
	return nil
}

// Repository is the persistence contract for conversations.
type Repository interface {
	Create(ctx context.Context, c *Conversation) error
	ListRecent(ctx context.Context, owner common.OwnerID, limit int) ([]*Conversation, error)
}

// AttachmentStore is the object-storage boundary for conversation images.
type AttachmentStore interface {
	// Put stores the object and returns its storage key.
	Put(ctx context.Context, owner common.OwnerID, filename, contentType string, size int64, body io.Reader) (string, error)
	// PresignGet returns a short-lived download URL for an attachment key.
	PresignGet(ctx context.Context, key string) (string, error)
}
