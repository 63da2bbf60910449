// Package generation orchestrates reply drafting: it gathers the owner's
// templates, profile, recent conversation types, and similar past responses
// in parallel, ranks the templates against the incoming message, assembles a
// deterministic prompt, and calls the generation API — substituting the
// fallback reply when the API fails.
package generation

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/conversation"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/template"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/user"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/analyzer"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/matcher"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/replygen"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// recentConversationLimit bounds the recent-type summary in the prompt.
const recentConversationLimit = 10

// SimilarFinder retrieves similar refined responses.  It never fails: an
// empty result is the degraded-but-normal outcome.
type SimilarFinder interface {
	FindSimilar(ctx context.Context, owner common.OwnerID, message, messageType string, limit int) []matcher.SimilarityResult
}

// Input is one reply-generation request.
type Input struct {
	ClientMessage string `json:"client_message"`
	MessageType   string `json:"message_type"`
	ClientType    string `json:"client_type"`
}

// ScoredTemplate is one ranked template as surfaced to the caller.
type ScoredTemplate struct {
	ID    common.ID `json:"id"`
	Title string    `json:"title"`
	Body  string    `json:"body"`
	Score float64   `json:"score"`
}

// Result is the drafted reply plus the evidence that shaped it.
type Result struct {
	Reply        string                     `json:"reply"`
	UsedFallback bool                       `json:"used_fallback"`
	MessageType  string                     `json:"message_type"`
	Templates    []ScoredTemplate           `json:"templates"`
	Similar      []matcher.SimilarityResult `json:"similar_responses"`
}

// Service wires the generation flow.
type Service struct {
	templates     template.Repository
	profiles      user.Repository
	conversations conversation.Repository
	similar       SimilarFinder
	generator     replygen.Generator
	matching      config.MatchingConfig
	logger        logging.Logger
}

// NewService constructs the generation service.
func NewService(
	templates template.Repository,
	profiles user.Repository,
	conversations conversation.Repository,
	similar SimilarFinder,
	generator replygen.Generator,
	matching config.MatchingConfig,
	logger logging.Logger,
) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		templates:     templates,
		profiles:      profiles,
		conversations: conversations,
		similar:       similar,
		generator:     generator,
		matching:      matching,
		logger:        logger.Named("generation"),
	}
}

// Generate drafts a reply for one client message.  Only a failed template
// read fails the request; profile, conversation history, and similar
// responses are optional context that degrades silently.
func (s *Service) Generate(ctx context.Context, owner common.OwnerID, in Input) (*Result, error) {
	if owner == "" {
		return nil, errors.InvalidParam("owner is required")
	}
	if in.ClientMessage == "" {
		return nil, errors.InvalidParam("client message is required")
	}

	messageType := in.MessageType
	if messageType == "" {
		messageType = analyzer.DetectCategory(in.ClientMessage)
	}

	var (
		tpls    []*template.Template
		profile *user.Profile
		recent  []*conversation.Conversation
		similar []matcher.SimilarityResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tpls, err = s.templates.ListByOwner(gctx, owner, template.ListFilter{Limit: s.matching.MaxTemplates})
		return err
	})
	g.Go(func() error {
		p, err := s.profiles.Get(gctx, owner)
		if err != nil {
			if !errors.IsNotFound(err) {
				s.logger.Warn("profile fetch failed", logging.Err(err))
			}
			return nil
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		rows, err := s.conversations.ListRecent(gctx, owner, recentConversationLimit)
		if err != nil {
			s.logger.Warn("recent conversations fetch failed", logging.Err(err))
			return nil
		}
		recent = rows
		return nil
	})
	g.Go(func() error {
		similar = s.similar.FindSimilar(gctx, owner, in.ClientMessage, messageType, s.matching.SimilarLimit)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load generation context")
	}

	ranked := s.rankTemplates(tpls, in.ClientMessage, &matcher.MatchContext{
		MessageType: messageType,
		ClientType:  in.ClientType,
	})
	prompt, err := replygen.BuildPrompt(replygen.PromptInput{
		ProfileSummary: profile.Summary(),
		RecentTypes:    conversationTypes(recent),
		MessageType:    messageType,
		Exemplars:      toExemplars(similar, s.matching.PromptExemplars),
		Templates:      toTemplateExemplars(ranked),
		ClientMessage:  in.ClientMessage,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		MessageType: messageType,
		Templates:   ranked,
		Similar:     similar,
	}
	start := time.Now()
	reply, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("generation failed, serving fallback reply",
			logging.Duration("elapsed", time.Since(start)),
			logging.Err(err),
		)
		result.Reply = replygen.FallbackReply
		result.UsedFallback = true
		return result, nil
	}
	result.Reply = reply
	return result, nil
}

// rankTemplates scores the owner's templates against the message and keeps
// the configured top slice.
func (s *Service) rankTemplates(tpls []*template.Template, message string, mctx *matcher.MatchContext) []ScoredTemplate {
	views := make([]matcher.TemplateView, len(tpls))
	byID := make(map[string]*template.Template, len(tpls))
	for i, t := range tpls {
		views[i] = matcher.TemplateView{
			ID:            string(t.ID),
			Keywords:      t.MatchingKeywords,
			Category:      t.Category,
			ClientType:    t.ClientType,
			SuccessRating: t.SuccessRating,
		}
		byID[string(t.ID)] = t
	}

	ranked := matcher.Rank(views, message, mctx)
	if len(ranked) > s.matching.TopTemplates {
		ranked = ranked[:s.matching.TopTemplates]
	}

	out := make([]ScoredTemplate, 0, len(ranked))
	for _, m := range ranked {
		t := byID[m.Template.ID]
		out = append(out, ScoredTemplate{ID: t.ID, Title: t.Title, Body: t.Body, Score: m.Score})
	}
	return out
}

func toExemplars(similar []matcher.SimilarityResult, limit int) []replygen.Exemplar {
	if len(similar) > limit {
		similar = similar[:limit]
	}
	out := make([]replygen.Exemplar, 0, len(similar))
	for _, r := range similar {
		out = append(out, replygen.Exemplar{
			ClientMessage:   r.OriginalMessage,
			RefinedResponse: r.RefinedResponse,
			Score:           r.Score,
		})
	}
	return out
}

func toTemplateExemplars(ranked []ScoredTemplate) []replygen.TemplateExemplar {
	out := make([]replygen.TemplateExemplar, 0, len(ranked))
	for _, m := range ranked {
		out = append(out, replygen.TemplateExemplar{Title: m.Title, Body: m.Body, Score: m.Score})
	}
	return out
}

func conversationTypes(rows []*conversation.Conversation) []string {
	out := make([]string, 0, len(rows))
	for _, c := range rows {
		if c.MessageType != "" {
			out = append(out, c.MessageType)
		}
	}
	return out
}
