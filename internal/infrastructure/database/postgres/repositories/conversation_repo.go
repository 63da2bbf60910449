package repositories

import (
	"context"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/conversation"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/database/postgres"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

type conversationRepo struct {
	db     queryExecutor
	logger logging.Logger
}

// NewConversationRepo returns the PostgreSQL conversation repository.
func NewConversationRepo(conn *postgres.Connection, logger logging.Logger) conversation.Repository {
	return &conversationRepo{db: conn.Pool(), logger: logger.Named("conversation_repo")}
}

func (r *conversationRepo) Create(ctx context.Context, c *conversation.Conversation) error {
	query := `
		INSERT INTO conversations
			(id, owner_id, client_message, sent_reply, message_type, attachment_keys, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, query,
		c.ID, string(c.OwnerID), c.ClientMessage, c.SentReply, c.MessageType,
		c.AttachmentKeys, c.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "insert conversation")
	}
	return nil
}

func (r *conversationRepo) ListRecent(ctx context.Context, owner common.OwnerID, limit int) ([]*conversation.Conversation, error) {
	query := `
		SELECT id, owner_id, client_message, sent_reply, message_type, attachment_keys, created_at
		FROM conversations WHERE owner_id = $1
		ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, string(owner), limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list recent conversations")
	}
	defer rows.Close()

	out := make([]*conversation.Conversation, 0, limit)
	for rows.Next() {
		var c conversation.Conversation
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.ClientMessage, &c.SentReply,
			&c.MessageType, &c.AttachmentKeys, &c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "scan conversation row")
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "iterate conversation rows")
	}
	return out, nil
}
