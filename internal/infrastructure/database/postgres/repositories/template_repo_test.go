package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/template"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

var templateCols = []string{
	"id", "owner_id", "title", "body", "category", "tone_style",
	"project_complexity", "client_type", "industry_tags", "matching_keywords",
	"usage_count", "success_rating", "created_at", "updated_at",
}

func newTemplateRepoMockPool(t *testing.T) (pgxmock.PgxPoolIface, *templateRepo) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, &templateRepo{db: mock, logger: logging.NewNopLogger()}
}

func sampleTemplate() *template.Template {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &template.Template{
		ID: "tpl-1", OwnerID: "user-1",
		Title: "Delivery note", Body: "Files attached.",
		Category: "delivery", ToneStyle: "efficient",
		ProjectComplexity: "standard", ClientType: "business",
		MatchingKeywords: []string{"delivery", "files"},
		CreatedAt:        now, UpdatedAt: now,
	}
}

func TestTemplateRepoCreate(t *testing.T) {
	mock, repo := newTemplateRepoMockPool(t)
	tpl := sampleTemplate()

	mock.ExpectExec(`INSERT INTO templates`).
		WithArgs(tpl.ID, pgxmock.AnyArg(), tpl.Title, tpl.Body, tpl.Category,
			tpl.ToneStyle, tpl.ProjectComplexity, tpl.ClientType,
			tpl.IndustryTags, tpl.MatchingKeywords, tpl.UsageCount,
			tpl.SuccessRating, tpl.CreatedAt, tpl.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), tpl))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepoGetByIDNotFound(t *testing.T) {
	mock, repo := newTemplateRepoMockPool(t)

	mock.ExpectQuery(`FROM templates WHERE id = \$1 AND owner_id = \$2`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(templateCols))

	_, err := repo.GetByID(context.Background(), "user-1", "missing")
	assert.True(t, errors.IsCode(err, errors.CodeTemplateNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepoGetByIDFound(t *testing.T) {
	mock, repo := newTemplateRepoMockPool(t)
	owner := "user-1"
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM templates WHERE id = \$1 AND owner_id = \$2`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(templateCols).AddRow(
			common.ID("tpl-1"), &owner, "Delivery note", "Files attached.", "delivery",
			"efficient", "standard", "business", []string(nil),
			[]string{"delivery", "files"}, 4, (*float64)(nil), now, now,
		))

	got, err := repo.GetByID(context.Background(), "user-1", "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "Delivery note", got.Title)
	assert.Equal(t, []string{"delivery", "files"}, got.MatchingKeywords)
	assert.Equal(t, 4, got.UsageCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepoUpdateNotFound(t *testing.T) {
	mock, repo := newTemplateRepoMockPool(t)

	mock.ExpectExec(`UPDATE templates SET`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), sampleTemplate())
	assert.True(t, errors.IsCode(err, errors.CodeTemplateNotFound))
}

func TestTemplateRepoIncrementUsage(t *testing.T) {
	mock, repo := newTemplateRepoMockPool(t)

	mock.ExpectExec(`UPDATE templates SET usage_count = usage_count \+ 1`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.IncrementUsage(context.Background(), "user-1", "tpl-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepoCreateBatchRollsBackOnFailure(t *testing.T) {
	mock, repo := newTemplateRepoMockPool(t)
	tpl := sampleTemplate()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO templates`).
		WithArgs(tpl.ID, pgxmock.AnyArg(), tpl.Title, tpl.Body, tpl.Category,
			tpl.ToneStyle, tpl.ProjectComplexity, tpl.ClientType,
			tpl.IndustryTags, tpl.MatchingKeywords, tpl.UsageCount,
			tpl.SuccessRating, tpl.CreatedAt, tpl.UpdatedAt).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.CreateBatch(context.Background(), []*template.Template{tpl})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepoListByOwnerBuildsFilter(t *testing.T) {
	mock, repo := newTemplateRepoMockPool(t)

	mock.ExpectQuery(`FROM templates WHERE owner_id = \$1 AND category = \$2 ORDER BY usage_count DESC, created_at DESC LIMIT \$3`).
		WithArgs("user-1", "delivery", 10).
		WillReturnRows(pgxmock.NewRows(templateCols))

	got, err := repo.ListByOwner(context.Background(), "user-1", template.ListFilter{
		Category: "delivery", OrderByUsage: true, Limit: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
