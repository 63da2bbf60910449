package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/response"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/database/postgres"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

const responseColumns = `id, owner_id, original_client_message, original_response,
	refined_response, message_type, similarity_keywords, created_at, updated_at`

type responseRepo struct {
	db     queryExecutor
	logger logging.Logger
}

// NewResponseRepo returns the PostgreSQL refined-response repository.
func NewResponseRepo(conn *postgres.Connection, logger logging.Logger) response.Repository {
	return &responseRepo{db: conn.Pool(), logger: logger.Named("response_repo")}
}

func (r *responseRepo) Create(ctx context.Context, resp *response.RefinedResponse) error {
	query := `
		INSERT INTO refined_responses (` + responseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, query,
		resp.ID, string(resp.OwnerID), resp.OriginalClientMessage, resp.OriginalResponse,
		resp.RefinedResponse, resp.MessageType, resp.SimilarityKeywords,
		resp.CreatedAt, resp.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "insert refined response")
	}
	return nil
}

func (r *responseRepo) GetByID(ctx context.Context, owner common.OwnerID, id common.ID) (*response.RefinedResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM refined_responses WHERE id = $1 AND owner_id = $2`
	resp, err := scanResponse(r.db.QueryRow(ctx, query, id, string(owner)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.New(errors.CodeResponseNotFound, "refined response not found").
				WithDetail(string(id))
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "query refined response")
	}
	return resp, nil
}

func (r *responseRepo) ListByOwner(ctx context.Context, owner common.OwnerID, f response.SearchFilter) ([]*response.RefinedResponse, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + responseColumns + ` FROM refined_responses WHERE owner_id = $1`)
	args := []any{string(owner)}

	if f.MessageType != "" {
		args = append(args, f.MessageType)
		fmt.Fprintf(&sb, " AND message_type = $%d", len(args))
	}
	if len(f.Keywords) > 0 {
		// Overlap against the indexed keyword array.
		args = append(args, f.Keywords)
		fmt.Fprintf(&sb, " AND similarity_keywords && $%d", len(args))
	}
	sb.WriteString(" ORDER BY created_at DESC, id")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list refined responses")
	}
	defer rows.Close()

	out := make([]*response.RefinedResponse, 0)
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "scan refined response row")
		}
		out = append(out, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "iterate refined response rows")
	}
	return out, nil
}

func scanResponse(row pgx.Row) (*response.RefinedResponse, error) {
	var resp response.RefinedResponse
	err := row.Scan(
		&resp.ID, &resp.OwnerID, &resp.OriginalClientMessage, &resp.OriginalResponse,
		&resp.RefinedResponse, &resp.MessageType, &resp.SimilarityKeywords,
		&resp.CreatedAt, &resp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
