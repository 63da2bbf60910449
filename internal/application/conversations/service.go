// Package conversations is the application service for the per-owner chat
// log: capturing exchanges, storing image attachments, and listing recent
// history for prompt assembly.
package conversations

import (
	"context"
	"io"
	"time"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/conversation"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/analyzer"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

const defaultListLimit = 20

// Upload is one attachment carried alongside a captured exchange.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CaptureInput is the payload for recording one exchange.
type CaptureInput struct {
	ClientMessage string `json:"client_message"`
	SentReply     string `json:"sent_reply"`
	MessageType   string `json:"message_type"`
}

// Service implements conversation use cases.  The attachment store is
// optional; captures without images never touch it.
type Service struct {
	repo        conversation.Repository
	attachments conversation.AttachmentStore // nil disables uploads
	logger      logging.Logger
	now         func() time.Time
}

// NewService wires the conversation service.
func NewService(repo conversation.Repository, attachments conversation.AttachmentStore, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:        repo,
		attachments: attachments,
		logger:      logger.Named("conversations"),
		now:         time.Now,
	}
}

// Capture stores one exchange.  Attachments are uploaded first so a storage
// failure surfaces before anything is written; a blank message type is
// derived from the client message.
func (s *Service) Capture(ctx context.Context, owner common.OwnerID, in CaptureInput, uploads []Upload) (*conversation.Conversation, error) {
	c := &conversation.Conversation{
		ID:            common.NewID(),
		OwnerID:       owner,
		ClientMessage: in.ClientMessage,
		SentReply:     in.SentReply,
		MessageType:   in.MessageType,
		CreatedAt:     s.now().UTC(),
	}
	if c.MessageType == "" {
		c.MessageType = analyzer.DetectCategory(c.ClientMessage)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if len(uploads) > 0 && s.attachments == nil {
		return nil, errors.New(errors.CodeServiceUnavailable, "attachment storage is not configured")
	}
	for _, up := range uploads {
		key, err := s.attachments.Put(ctx, owner, up.Filename, up.ContentType, up.Size, up.Body)
		if err != nil {
			return nil, err
		}
		c.AttachmentKeys = append(c.AttachmentKeys, key)
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Debug("captured conversation",
		logging.String("owner_id", string(owner)),
		logging.String("message_type", c.MessageType),
		logging.Int("attachments", len(c.AttachmentKeys)),
	)
	return c, nil
}

// ListRecent returns the newest exchanges for an owner.
func (s *Service) ListRecent(ctx context.Context, owner common.OwnerID, limit int) ([]*conversation.Conversation, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.repo.ListRecent(ctx, owner, limit)
}

// AttachmentURL resolves a stored attachment key to a short-lived download
// URL.
func (s *Service) AttachmentURL(ctx context.Context, key string) (string, error) {
	if s.attachments == nil {
		return "", errors.New(errors.CodeServiceUnavailable, "attachment storage is not configured")
	}
	return s.attachments.PresignGet(ctx, key)
}
