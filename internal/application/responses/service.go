// Package responses is the application service for refined responses:
// committing a hand-edited draft and retrieving similar past responses for
// prompt assembly.
package responses

import (
	"context"
	"time"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/response"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/analyzer"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/matcher"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// candidateMultiplier widens the pre-filter window beyond the requested
// top-K so the lexical scorer has something to rank.
const candidateMultiplier = 10

// Service implements refined-response use cases.  The searcher is optional:
// when absent or failing, retrieval degrades to a repository scan.
type Service struct {
	repo     response.Repository
	searcher response.Searcher // nil disables the full-text pre-filter
	matching config.MatchingConfig
	logger   logging.Logger
	now      func() time.Time
}

// NewService wires the refined-response service.
func NewService(repo response.Repository, searcher response.Searcher, matching config.MatchingConfig, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		searcher: searcher,
		matching: matching,
		logger:   logger.Named("responses"),
		now:      time.Now,
	}
}

// CommitInput is the payload for committing a hand-edited draft.
type CommitInput struct {
	OriginalClientMessage string `json:"original_client_message"`
	OriginalResponse      string `json:"original_response"`
	RefinedResponse       string `json:"refined_response"`
	MessageType           string `json:"message_type"`
}

// Commit stores the refined response and indexes it for retrieval.  The
// similarity keywords come from the original client message, since that is
// what future messages are compared against.
func (s *Service) Commit(ctx context.Context, owner common.OwnerID, in CommitInput) (*response.RefinedResponse, error) {
	now := s.now().UTC()
	r := &response.RefinedResponse{
		ID:                    common.NewID(),
		OwnerID:               owner,
		OriginalClientMessage: in.OriginalClientMessage,
		OriginalResponse:      in.OriginalResponse,
		RefinedResponse:       in.RefinedResponse,
		MessageType:           in.MessageType,
		SimilarityKeywords:    analyzer.ExtractKeywords(in.OriginalClientMessage),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if r.MessageType == "" {
		r.MessageType = analyzer.DetectCategory(in.OriginalClientMessage)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "persist refined response")
	}

	if s.searcher != nil {
		if err := s.searcher.Index(ctx, r); err != nil {
			// The row is already durable; a missed index entry only weakens
			// future pre-filtering.
			s.logger.Warn("refined response index failed",
				logging.String("response_id", string(r.ID)),
				logging.Err(err),
			)
		}
	}
	return r, nil
}

// Get returns one owner-scoped refined response.
func (s *Service) Get(ctx context.Context, owner common.OwnerID, id common.ID) (*response.RefinedResponse, error) {
	return s.repo.GetByID(ctx, owner, id)
}

// FindSimilar retrieves the top-K past responses whose original client
// message lexically resembles message.  Retrieval never fails: search or
// repository errors degrade to an empty result, which callers treat as
// "no exemplars available".
func (s *Service) FindSimilar(ctx context.Context, owner common.OwnerID, message, messageType string, limit int) []matcher.SimilarityResult {
	if limit <= 0 {
		limit = s.matching.SimilarLimit
	}

	candidates := s.loadCandidates(ctx, owner, message, messageType, limit*candidateMultiplier)
	views := make([]matcher.Candidate, len(candidates))
	for i, c := range candidates {
		views[i] = matcher.Candidate{
			ID:              string(c.ID),
			OriginalMessage: c.OriginalClientMessage,
			RefinedResponse: c.RefinedResponse,
			MessageType:     c.MessageType,
			CreatedAt:       c.CreatedAt,
		}
	}
	return matcher.FindSimilar(views, message, messageType, limit)
}

// loadCandidates prefers the full-text pre-filter and falls back to a plain
// owner scan when the searcher is absent, errors, or finds nothing.
func (s *Service) loadCandidates(ctx context.Context, owner common.OwnerID, message, messageType string, limit int) []*response.RefinedResponse {
	if s.searcher != nil {
		if keywords := analyzer.ExtractKeywords(message); len(keywords) > 0 {
			ids, err := s.searcher.SearchIDs(ctx, owner, keywords, limit)
			if err != nil {
				s.logger.Warn("similarity search failed, falling back to scan", logging.Err(err))
			} else if len(ids) > 0 {
				return s.fetchByIDs(ctx, owner, ids)
			}
		}
	}

	rows, err := s.repo.ListByOwner(ctx, owner, response.SearchFilter{
		MessageType: messageType,
		Limit:       limit,
	})
	if err != nil {
		s.logger.Warn("refined response scan failed", logging.Err(err))
		return nil
	}
	return rows
}

func (s *Service) fetchByIDs(ctx context.Context, owner common.OwnerID, ids []common.ID) []*response.RefinedResponse {
	out := make([]*response.RefinedResponse, 0, len(ids))
	for _, id := range ids {
		r, err := s.repo.GetByID(ctx, owner, id)
		if err != nil {
			// Index can trail deletes; skip stale hits.
			if !errors.IsNotFound(err) {
				s.logger.Warn("candidate fetch failed",
					logging.String("response_id", string(id)),
					logging.Err(err),
				)
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
