package generation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/conversation"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/template"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/user"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/matcher"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/replygen"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

type templateRepoMock struct {
	template.Repository
	listByOwnerFn func(ctx context.Context, owner common.OwnerID, f template.ListFilter) ([]*template.Template, error)
}

func (m *templateRepoMock) ListByOwner(ctx context.Context, owner common.OwnerID, f template.ListFilter) ([]*template.Template, error) {
	return m.listByOwnerFn(ctx, owner, f)
}

type profileRepoMock struct {
	getFn func(ctx context.Context, owner common.OwnerID) (*user.Profile, error)
}

func (m *profileRepoMock) Get(ctx context.Context, owner common.OwnerID) (*user.Profile, error) {
	return m.getFn(ctx, owner)
}

func (m *profileRepoMock) Upsert(ctx context.Context, p *user.Profile) error { return nil }

type convRepoMock struct {
	listRecentFn func(ctx context.Context, owner common.OwnerID, limit int) ([]*conversation.Conversation, error)
}

func (m *convRepoMock) Create(ctx context.Context, c *conversation.Conversation) error { return nil }

func (m *convRepoMock) ListRecent(ctx context.Context, owner common.OwnerID, limit int) ([]*conversation.Conversation, error) {
	return m.listRecentFn(ctx, owner, limit)
}

type similarMock struct {
	findFn func(ctx context.Context, owner common.OwnerID, message, messageType string, limit int) []matcher.SimilarityResult
}

func (m *similarMock) FindSimilar(ctx context.Context, owner common.OwnerID, message, messageType string, limit int) []matcher.SimilarityResult {
	return m.findFn(ctx, owner, message, messageType, limit)
}

type generatorMock struct {
	generateFn func(ctx context.Context, prompt string) (string, error)
}

func (m *generatorMock) Generate(ctx context.Context, prompt string) (string, error) {
	return m.generateFn(ctx, prompt)
}

func testMatching() config.MatchingConfig {
	return config.MatchingConfig{MaxTemplates: 50, TopTemplates: 2, SimilarLimit: 3, PromptExemplars: 2}
}

func fixtureService(gen replygen.Generator) *Service {
	rating := 4.5
	tpls := []*template.Template{
		{ID: "t-delivery", Title: "Delivery note", Body: "Files attached!", Category: "delivery",
			MatchingKeywords: []string{"delivery", "files"}, SuccessRating: &rating},
		{ID: "t-noise", Title: "Noise", Body: "x", MatchingKeywords: []string{"unrelated"}},
		{ID: "t-partial", Title: "Partial", Body: "y", MatchingKeywords: []string{"delivery"}},
	}
	return NewService(
		&templateRepoMock{listByOwnerFn: func(_ context.Context, _ common.OwnerID, _ template.ListFilter) ([]*template.Template, error) {
			return tpls, nil
		}},
		&profileRepoMock{getFn: func(_ context.Context, _ common.OwnerID) (*user.Profile, error) {
			return &user.Profile{OwnerID: "u", DisplayName: "Sam", ServiceArea: "logo design"}, nil
		}},
		&convRepoMock{listRecentFn: func(_ context.Context, _ common.OwnerID, _ int) ([]*conversation.Conversation, error) {
			return []*conversation.Conversation{
				{MessageType: "delivery"},
				{MessageType: "delivery"},
				{MessageType: "follow_up"},
			}, nil
		}},
		&similarMock{findFn: func(_ context.Context, _ common.OwnerID, _, _ string, _ int) []matcher.SimilarityResult {
			return []matcher.SimilarityResult{
				{ID: "r1", OriginalMessage: "urgent delivery please", RefinedResponse: "On it!", Score: 0.9},
			}
		}},
		gen,
		testMatching(),
		logging.NewNopLogger(),
	)
}

func TestGenerateAssemblesPromptAndReply(t *testing.T) {
	var gotPrompt string
	svc := fixtureService(&generatorMock{generateFn: func(_ context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "Here is your draft.", nil
	}})

	res, err := svc.Generate(context.Background(), "u", Input{
		ClientMessage: "when will the delivery with final files arrive",
	})
	require.NoError(t, err)

	assert.Equal(t, "Here is your draft.", res.Reply)
	assert.False(t, res.UsedFallback)
	// Declared type was empty, so it was detected from the message.
	assert.Equal(t, "delivery", res.MessageType)

	// Top-2 templates, best first; the noise template is cut.
	require.Len(t, res.Templates, 2)
	assert.Equal(t, common.ID("t-delivery"), res.Templates[0].ID)
	assert.Equal(t, common.ID("t-partial"), res.Templates[1].ID)
	assert.Greater(t, res.Templates[0].Score, res.Templates[1].Score)

	require.Len(t, res.Similar, 1)

	// Prompt carries profile, history summary, templates, and exemplar.
	assert.Contains(t, gotPrompt, "Sam, freelancer specialising in logo design")
	assert.Contains(t, gotPrompt, "delivery ×2, follow_up ×1")
	assert.Contains(t, gotPrompt, "Delivery note")
	assert.Contains(t, gotPrompt, `"urgent delivery please"`)
	assert.Contains(t, gotPrompt, "when will the delivery with final files arrive")
}

func TestGenerateFallsBackOnAPIError(t *testing.T) {
	svc := fixtureService(&generatorMock{generateFn: func(_ context.Context, _ string) (string, error) {
		return "", fmt.Errorf("api down")
	}})

	res, err := svc.Generate(context.Background(), "u", Input{ClientMessage: "hello"})
	require.NoError(t, err)
	assert.True(t, res.UsedFallback)
	assert.Equal(t, replygen.FallbackReply, res.Reply)
}

func TestGenerateDegradesWithoutOptionalContext(t *testing.T) {
	svc := NewService(
		&templateRepoMock{listByOwnerFn: func(_ context.Context, _ common.OwnerID, _ template.ListFilter) ([]*template.Template, error) {
			return nil, nil
		}},
		&profileRepoMock{getFn: func(_ context.Context, _ common.OwnerID) (*user.Profile, error) {
			return nil, errors.NotFound("no profile")
		}},
		&convRepoMock{listRecentFn: func(_ context.Context, _ common.OwnerID, _ int) ([]*conversation.Conversation, error) {
			return nil, fmt.Errorf("db hiccup")
		}},
		&similarMock{findFn: func(_ context.Context, _ common.OwnerID, _, _ string, _ int) []matcher.SimilarityResult {
			return []matcher.SimilarityResult{}
		}},
		&generatorMock{generateFn: func(_ context.Context, _ string) (string, error) {
			return "Generic but fine.", nil
		}},
		testMatching(),
		logging.NewNopLogger(),
	)

	res, err := svc.Generate(context.Background(), "u", Input{ClientMessage: "hi there", MessageType: "follow_up"})
	require.NoError(t, err)
	assert.Equal(t, "Generic but fine.", res.Reply)
	assert.Equal(t, "follow_up", res.MessageType)
	assert.Empty(t, res.Templates)
}

func TestGenerateFailsWhenTemplatesUnavailable(t *testing.T) {
	svc := NewService(
		&templateRepoMock{listByOwnerFn: func(_ context.Context, _ common.OwnerID, _ template.ListFilter) ([]*template.Template, error) {
			return nil, fmt.Errorf("db down")
		}},
		&profileRepoMock{getFn: func(_ context.Context, _ common.OwnerID) (*user.Profile, error) {
			return nil, errors.NotFound("no profile")
		}},
		&convRepoMock{listRecentFn: func(_ context.Context, _ common.OwnerID, _ int) ([]*conversation.Conversation, error) {
			return nil, nil
		}},
		&similarMock{findFn: func(_ context.Context, _ common.OwnerID, _, _ string, _ int) []matcher.SimilarityResult {
			return nil
		}},
		&generatorMock{generateFn: func(_ context.Context, _ string) (string, error) {
			t.Fatal("generator should not run")
			return "", nil
		}},
		testMatching(),
		logging.NewNopLogger(),
	)

	_, err := svc.Generate(context.Background(), "u", Input{ClientMessage: "hi"})
	assert.Error(t, err)
}

func TestGenerateValidatesInput(t *testing.T) {
	svc := fixtureService(&generatorMock{})
	_, err := svc.Generate(context.Background(), "", Input{ClientMessage: "x"})
	assert.Error(t, err)
	_, err = svc.Generate(context.Background(), "u", Input{})
	assert.Error(t, err)
}

func TestConversationTypesSkipsEmpty(t *testing.T) {
	got := conversationTypes([]*conversation.Conversation{
		{MessageType: "delivery"},
		{MessageType: ""},
		{MessageType: "follow_up", CreatedAt: time.Now()},
	})
	assert.Equal(t, []string{"delivery", "follow_up"}, got)
}
