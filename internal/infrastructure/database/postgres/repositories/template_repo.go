// Package repositories contains the PostgreSQL implementations of the
// domain repository contracts, built on the pgx pool.
package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/template"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/database/postgres"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

const templateColumns = `id, owner_id, title, body, category, tone_style,
	project_complexity, client_type, industry_tags, matching_keywords,
	usage_count, success_rating, created_at, updated_at`

type templateRepo struct {
	db     queryExecutor
	logger logging.Logger
}

// NewTemplateRepo returns the PostgreSQL template repository.
func NewTemplateRepo(conn *postgres.Connection, logger logging.Logger) template.Repository {
	return &templateRepo{db: conn.Pool(), logger: logger.Named("template_repo")}
}

func (r *templateRepo) Create(ctx context.Context, t *template.Template) error {
	query := `
		INSERT INTO templates (` + templateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.Exec(ctx, query,
		t.ID, nullableOwner(t.OwnerID), t.Title, t.Body, t.Category, t.ToneStyle,
		t.ProjectComplexity, t.ClientType, t.IndustryTags, t.MatchingKeywords,
		t.UsageCount, t.SuccessRating, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "insert template")
	}
	return nil
}

func (r *templateRepo) GetByID(ctx context.Context, owner common.OwnerID, id common.ID) (*template.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = $1 AND owner_id = $2`
	t, err := scanTemplate(r.db.QueryRow(ctx, query, id, string(owner)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.New(errors.CodeTemplateNotFound, "template not found").
				WithDetail(string(id))
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "query template")
	}
	return t, nil
}

func (r *templateRepo) ListByOwner(ctx context.Context, owner common.OwnerID, f template.ListFilter) ([]*template.Template, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + templateColumns + ` FROM templates WHERE owner_id = $1`)
	args := []any{string(owner)}

	if f.Category != "" {
		args = append(args, f.Category)
		fmt.Fprintf(&sb, " AND category = $%d", len(args))
	}
	if f.ClientType != "" {
		args = append(args, f.ClientType)
		fmt.Fprintf(&sb, " AND client_type = $%d", len(args))
	}
	if f.OrderByUsage {
		sb.WriteString(" ORDER BY usage_count DESC, created_at DESC")
	} else {
		sb.WriteString(" ORDER BY created_at DESC")
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list templates")
	}
	defer rows.Close()
	return collectTemplates(rows)
}

func (r *templateRepo) Update(ctx context.Context, t *template.Template) error {
	query := `
		UPDATE templates SET
			title = $3, body = $4, category = $5, tone_style = $6,
			project_complexity = $7, client_type = $8, industry_tags = $9,
			matching_keywords = $10, success_rating = $11, updated_at = $12
		WHERE id = $1 AND owner_id = $2`
	tag, err := r.db.Exec(ctx, query,
		t.ID, string(t.OwnerID), t.Title, t.Body, t.Category, t.ToneStyle,
		t.ProjectComplexity, t.ClientType, t.IndustryTags, t.MatchingKeywords,
		t.SuccessRating, t.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "update template")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.CodeTemplateNotFound, "template not found").
			WithDetail(string(t.ID))
	}
	return nil
}

func (r *templateRepo) Delete(ctx context.Context, owner common.OwnerID, id common.ID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM templates WHERE id = $1 AND owner_id = $2`, id, string(owner))
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "delete template")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.CodeTemplateNotFound, "template not found").
			WithDetail(string(id))
	}
	return nil
}

func (r *templateRepo) CreateBatch(ctx context.Context, ts []*template.Template) error {
	if len(ts) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "begin batch insert")
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO templates (` + templateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	for _, t := range ts {
		if _, err := tx.Exec(ctx, query,
			t.ID, nullableOwner(t.OwnerID), t.Title, t.Body, t.Category, t.ToneStyle,
			t.ProjectComplexity, t.ClientType, t.IndustryTags, t.MatchingKeywords,
			t.UsageCount, t.SuccessRating, t.CreatedAt, t.UpdatedAt,
		); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "insert template batch row")
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "commit batch insert")
	}
	return nil
}

func (r *templateRepo) IncrementUsage(ctx context.Context, owner common.OwnerID, id common.ID) error {
	// UpdatedAt is deliberately untouched: usage is telemetry, not an edit.
	tag, err := r.db.Exec(ctx,
		`UPDATE templates SET usage_count = usage_count + 1 WHERE id = $1 AND owner_id = $2`,
		id, string(owner))
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "increment usage")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.CodeTemplateNotFound, "template not found").
			WithDetail(string(id))
	}
	return nil
}

func (r *templateRepo) ListCurated(ctx context.Context, limit int) ([]*template.Template, error) {
	query := `SELECT ` + templateColumns + `
		FROM templates WHERE owner_id IS NULL
		ORDER BY usage_count DESC, created_at DESC LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list curated templates")
	}
	defer rows.Close()
	return collectTemplates(rows)
}

func (r *templateRepo) GetCurated(ctx context.Context, id common.ID) (*template.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = $1 AND owner_id IS NULL`
	t, err := scanTemplate(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.New(errors.CodeLibraryNotFound, "curated template not found").
				WithDetail(string(id))
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "query curated template")
	}
	return t, nil
}

// nullableOwner maps the curated-library sentinel ("" owner) onto SQL NULL.
func nullableOwner(owner common.OwnerID) *string {
	if owner == "" {
		return nil
	}
	s := string(owner)
	return &s
}

func scanTemplate(row pgx.Row) (*template.Template, error) {
	var (
		t     template.Template
		owner *string
	)
	err := row.Scan(
		&t.ID, &owner, &t.Title, &t.Body, &t.Category, &t.ToneStyle,
		&t.ProjectComplexity, &t.ClientType, &t.IndustryTags, &t.MatchingKeywords,
		&t.UsageCount, &t.SuccessRating, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if owner != nil {
		t.OwnerID = common.OwnerID(*owner)
	}
	return &t, nil
}

func collectTemplates(rows pgx.Rows) ([]*template.Template, error) {
	out := make([]*template.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "scan template row")
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "iterate template rows")
	}
	return out, nil
}
