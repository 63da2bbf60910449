package templates

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/template"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/matcher"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

type repoMock struct {
	template.Repository
	createFn         func(ctx context.Context, t *template.Template) error
	getByIDFn        func(ctx context.Context, owner common.OwnerID, id common.ID) (*template.Template, error)
	listByOwnerFn    func(ctx context.Context, owner common.OwnerID, f template.ListFilter) ([]*template.Template, error)
	updateFn         func(ctx context.Context, t *template.Template) error
	incrementUsageFn func(ctx context.Context, owner common.OwnerID, id common.ID) error
	getCuratedFn     func(ctx context.Context, id common.ID) (*template.Template, error)
}

func (m *repoMock) Create(ctx context.Context, t *template.Template) error {
	return m.createFn(ctx, t)
}

func (m *repoMock) GetByID(ctx context.Context, owner common.OwnerID, id common.ID) (*template.Template, error) {
	return m.getByIDFn(ctx, owner, id)
}

func (m *repoMock) ListByOwner(ctx context.Context, owner common.OwnerID, f template.ListFilter) ([]*template.Template, error) {
	return m.listByOwnerFn(ctx, owner, f)
}

func (m *repoMock) Update(ctx context.Context, t *template.Template) error {
	return m.updateFn(ctx, t)
}

func (m *repoMock) IncrementUsage(ctx context.Context, owner common.OwnerID, id common.ID) error {
	return m.incrementUsageFn(ctx, owner, id)
}

func (m *repoMock) GetCurated(ctx context.Context, id common.ID) (*template.Template, error) {
	return m.getCuratedFn(ctx, id)
}

type usageMock struct {
	publishFn func(ctx context.Context, owner common.OwnerID, id common.ID) error
}

func (m *usageMock) PublishTemplateUsed(ctx context.Context, owner common.OwnerID, id common.ID) error {
	return m.publishFn(ctx, owner, id)
}

func testMatching() config.MatchingConfig {
	return config.MatchingConfig{MaxTemplates: 50, TopTemplates: 3, SimilarLimit: 3, PromptExemplars: 2}
}

func TestCreateEnrichesBlankMetadata(t *testing.T) {
	var created *template.Template
	repo := &repoMock{createFn: func(_ context.Context, tpl *template.Template) error {
		created = tpl
		return nil
	}}
	svc := NewService(repo, nil, testMatching(), logging.NewNopLogger())

	got, err := svc.Create(context.Background(), "user-1", CreateInput{
		Title: "Kickoff",
		Body:  "welcome aboard!  thank you for your order.",
	})
	require.NoError(t, err)
	require.Same(t, got, created)

	assert.Equal(t, "Welcome aboard! Thank you for your order.", got.Body)
	assert.Equal(t, "onboarding", got.Category)
	assert.Equal(t, "warm", got.ToneStyle)
	assert.NotEmpty(t, got.MatchingKeywords)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestCreateKeepsExplicitMetadata(t *testing.T) {
	repo := &repoMock{createFn: func(_ context.Context, _ *template.Template) error { return nil }}
	svc := NewService(repo, nil, testMatching(), logging.NewNopLogger())

	got, err := svc.Create(context.Background(), "user-1", CreateInput{
		Title:            "T",
		Body:             "welcome aboard",
		Category:         "delivery",
		ToneStyle:        "formal",
		MatchingKeywords: []string{"Files", "files"},
	})
	require.NoError(t, err)
	assert.Equal(t, "delivery", got.Category)
	assert.Equal(t, "formal", got.ToneStyle)
	assert.Equal(t, []string{"files"}, got.MatchingKeywords)
}

func TestCreateRejectsInvalid(t *testing.T) {
	svc := NewService(&repoMock{}, nil, testMatching(), logging.NewNopLogger())

	_, err := svc.Create(context.Background(), "user-1", CreateInput{Title: "", Body: "x"})
	assert.True(t, errors.IsCode(err, errors.CodeTemplateInvalid))

	_, err = svc.Create(context.Background(), "", CreateInput{Title: "t", Body: "x"})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestUpdatePartial(t *testing.T) {
	existing := &template.Template{
		ID: "tpl-1", OwnerID: "user-1",
		Title: "Old title", Body: "Old body.", Category: "delivery",
		MatchingKeywords: []string{"old"},
	}
	var updated *template.Template
	repo := &repoMock{
		getByIDFn: func(_ context.Context, _ common.OwnerID, _ common.ID) (*template.Template, error) {
			cp := *existing
			return &cp, nil
		},
		updateFn: func(_ context.Context, tpl *template.Template) error {
			updated = tpl
			return nil
		},
	}
	svc := NewService(repo, nil, testMatching(), logging.NewNopLogger())

	newBody := "fresh revision notes for the logo design project"
	got, err := svc.Update(context.Background(), "user-1", "tpl-1", UpdateInput{Body: &newBody})
	require.NoError(t, err)
	require.Same(t, got, updated)

	assert.Equal(t, "Old title", got.Title)
	assert.Equal(t, "Fresh revision notes for the logo design project", got.Body)
	// Body change without explicit keywords re-runs keyword extraction.
	assert.Contains(t, got.MatchingKeywords, "revision")
	assert.NotContains(t, got.MatchingKeywords, "old")
	// Untouched fields survive.
	assert.Equal(t, "delivery", got.Category)
}

func TestMatchMessageRanksAndLimits(t *testing.T) {
	rating := 5.0
	tpls := []*template.Template{
		{ID: "low", OwnerID: "u", Title: "a", Body: "b", MatchingKeywords: []string{"unrelated"}},
		{ID: "high", OwnerID: "u", Title: "a", Body: "b", Category: "delivery",
			MatchingKeywords: []string{"urgent", "delivery"}, SuccessRating: &rating},
		{ID: "mid", OwnerID: "u", Title: "a", Body: "b", MatchingKeywords: []string{"urgent"}},
	}
	repo := &repoMock{listByOwnerFn: func(_ context.Context, _ common.OwnerID, f template.ListFilter) ([]*template.Template, error) {
		assert.Equal(t, 50, f.Limit)
		return tpls, nil
	}}
	svc := NewService(repo, nil, testMatching(), logging.NewNopLogger())

	got, err := svc.MatchMessage(context.Background(), "u", "urgent delivery needed",
		&matcher.MatchContext{MessageType: "delivery"}, 2)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, common.ID("high"), got[0].Template.ID)
	assert.Equal(t, common.ID("mid"), got[1].Template.ID)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestMatchMessageRequiresMessage(t *testing.T) {
	svc := NewService(&repoMock{}, nil, testMatching(), logging.NewNopLogger())
	_, err := svc.MatchMessage(context.Background(), "u", "", nil, 0)
	assert.Error(t, err)
}

func TestCopyCurated(t *testing.T) {
	curated := &template.Template{
		ID: "lib-1", Title: "Starter", Body: "Hello!", Category: "onboarding",
		UsageCount: 40, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	var created *template.Template
	repo := &repoMock{
		getCuratedFn: func(_ context.Context, id common.ID) (*template.Template, error) {
			assert.Equal(t, common.ID("lib-1"), id)
			return curated, nil
		},
		createFn: func(_ context.Context, tpl *template.Template) error {
			created = tpl
			return nil
		},
	}
	svc := NewService(repo, nil, testMatching(), logging.NewNopLogger())

	got, err := svc.CopyCurated(context.Background(), "user-1", "lib-1")
	require.NoError(t, err)
	require.Same(t, got, created)

	assert.Equal(t, common.OwnerID("user-1"), got.OwnerID)
	assert.NotEqual(t, curated.ID, got.ID)
	assert.Zero(t, got.UsageCount)
	assert.Equal(t, "Starter", got.Title)
}

func TestRecordUsagePrefersPublisher(t *testing.T) {
	published := 0
	repo := &repoMock{incrementUsageFn: func(_ context.Context, _ common.OwnerID, _ common.ID) error {
		t.Fatal("direct increment should not run when publish succeeds")
		return nil
	}}
	usage := &usageMock{publishFn: func(_ context.Context, _ common.OwnerID, _ common.ID) error {
		published++
		return nil
	}}
	svc := NewService(repo, usage, testMatching(), logging.NewNopLogger())

	svc.RecordUsage(context.Background(), "u", "tpl-1")
	assert.Equal(t, 1, published)
}

func TestRecordUsageFallsBackOnPublishError(t *testing.T) {
	incremented := 0
	repo := &repoMock{incrementUsageFn: func(_ context.Context, _ common.OwnerID, _ common.ID) error {
		incremented++
		return nil
	}}
	usage := &usageMock{publishFn: func(_ context.Context, _ common.OwnerID, _ common.ID) error {
		return fmt.Errorf("broker down")
	}}
	svc := NewService(repo, usage, testMatching(), logging.NewNopLogger())

	svc.RecordUsage(context.Background(), "u", "tpl-1")
	assert.Equal(t, 1, incremented)
}
