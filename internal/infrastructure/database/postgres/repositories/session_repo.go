package repositories

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/imports"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/database/postgres"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

type sessionRepo struct {
	db     queryExecutor
	logger logging.Logger
}

// NewSessionRepo returns the PostgreSQL upload-session repository.  The
// per-row error log is stored as JSONB.
func NewSessionRepo(conn *postgres.Connection, logger logging.Logger) imports.Repository {
	return &sessionRepo{db: conn.Pool(), logger: logger.Named("session_repo")}
}

func (r *sessionRepo) Create(ctx context.Context, s *imports.UploadSession) error {
	errorLog, err := json.Marshal(s.ErrorLog)
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "encode import error log")
	}
	query := `
		INSERT INTO upload_sessions
			(id, owner_id, filename, format, total, processed, failed, status, error_log, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.db.Exec(ctx, query,
		s.ID, string(s.OwnerID), s.Filename, s.Format, s.Total, s.Processed,
		s.Failed, string(s.Status), errorLog, s.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "insert upload session")
	}
	return nil
}

func (r *sessionRepo) GetByID(ctx context.Context, owner common.OwnerID, id common.ID) (*imports.UploadSession, error) {
	query := `
		SELECT id, owner_id, filename, format, total, processed, failed, status, error_log, created_at
		FROM upload_sessions WHERE id = $1 AND owner_id = $2`

	var (
		s        imports.UploadSession
		status   string
		errorLog []byte
	)
	err := r.db.QueryRow(ctx, query, id, string(owner)).Scan(
		&s.ID, &s.OwnerID, &s.Filename, &s.Format, &s.Total, &s.Processed,
		&s.Failed, &status, &errorLog, &s.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.New(errors.CodeImportSessionNotFound, "upload session not found").
				WithDetail(string(id))
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "query upload session")
	}
	s.Status = imports.Status(status)
	if len(errorLog) > 0 {
		if err := json.Unmarshal(errorLog, &s.ErrorLog); err != nil {
			return nil, errors.Wrap(err, errors.CodeSerialization, "decode import error log")
		}
	}
	return &s, nil
}
