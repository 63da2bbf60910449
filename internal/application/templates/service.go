// Package templates is the application service for the template bounded
// context: CRUD with analyzer enrichment, the curated starter library, and
// relevance matching against incoming client messages.
package templates

import (
	"context"
	"time"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/config"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/template"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/analyzer"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/matcher"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// UsagePublisher emits template-usage events.  Publishing is best-effort
// telemetry; implementations must not block the request path for long.
type UsagePublisher interface {
	PublishTemplateUsed(ctx context.Context, owner common.OwnerID, templateID common.ID) error
}

// Match pairs a full template with its relevance score for one request.
type Match struct {
	Template *template.Template `json:"template"`
	Score    float64            `json:"score"`
}

// Service implements template use cases on top of the repository and the
// intelligence packages.
type Service struct {
	repo     template.Repository
	usage    UsagePublisher // nil disables event publishing
	matching config.MatchingConfig
	logger   logging.Logger
	now      func() time.Time
}

// NewService wires the template service.
func NewService(repo template.Repository, usage UsagePublisher, matching config.MatchingConfig, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		usage:    usage,
		matching: matching,
		logger:   logger.Named("templates"),
		now:      time.Now,
	}
}

// CreateInput carries the caller-supplied fields for a new template.
type CreateInput struct {
	Title             string   `json:"title"`
	Body              string   `json:"body"`
	Category          string   `json:"category"`
	ToneStyle         string   `json:"tone_style"`
	ProjectComplexity string   `json:"project_complexity"`
	ClientType        string   `json:"client_type"`
	IndustryTags      []string `json:"industry_tags"`
	MatchingKeywords  []string `json:"matching_keywords"`
}

// Create normalizes the body, lets the analyzer fill any metadata the caller
// left blank, and persists the template.
func (s *Service) Create(ctx context.Context, owner common.OwnerID, in CreateInput) (*template.Template, error) {
	if owner == "" {
		return nil, errors.InvalidParam("owner is required")
	}

	now := s.now().UTC()
	tpl := &template.Template{
		ID:                common.NewID(),
		OwnerID:           owner,
		Title:             in.Title,
		Body:              analyzer.FormatContent(in.Body),
		Category:          in.Category,
		ToneStyle:         in.ToneStyle,
		ProjectComplexity: in.ProjectComplexity,
		ClientType:        in.ClientType,
		IndustryTags:      in.IndustryTags,
		MatchingKeywords:  in.MatchingKeywords,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.fillFromAnalysis(tpl)
	tpl.NormalizeKeywords()

	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, tpl); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "persist template")
	}
	return tpl, nil
}

// Get returns one owner-scoped template.
func (s *Service) Get(ctx context.Context, owner common.OwnerID, id common.ID) (*template.Template, error) {
	return s.repo.GetByID(ctx, owner, id)
}

// List returns the owner's templates under the given filter.
func (s *Service) List(ctx context.Context, owner common.OwnerID, f template.ListFilter) ([]*template.Template, error) {
	if f.Limit <= 0 || f.Limit > s.matching.MaxTemplates {
		f.Limit = s.matching.MaxTemplates
	}
	return s.repo.ListByOwner(ctx, owner, f)
}

// UpdateInput carries the mutable fields; nil pointers mean "leave as is".
type UpdateInput struct {
	Title             *string   `json:"title"`
	Body              *string   `json:"body"`
	Category          *string   `json:"category"`
	ToneStyle         *string   `json:"tone_style"`
	ProjectComplexity *string   `json:"project_complexity"`
	ClientType        *string   `json:"client_type"`
	IndustryTags      *[]string `json:"industry_tags"`
	MatchingKeywords  *[]string `json:"matching_keywords"`
	SuccessRating     *float64  `json:"success_rating"`
}

// Update applies a partial update.  A body change is re-normalized and, when
// no explicit keywords are supplied, re-keyworded by the analyzer.
func (s *Service) Update(ctx context.Context, owner common.OwnerID, id common.ID, in UpdateInput) (*template.Template, error) {
	tpl, err := s.repo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		tpl.Title = *in.Title
	}
	if in.Body != nil {
		tpl.Body = analyzer.FormatContent(*in.Body)
		if in.MatchingKeywords == nil {
			tpl.MatchingKeywords = analyzer.ExtractKeywords(tpl.Title + " " + tpl.Body)
		}
	}
	if in.Category != nil {
		tpl.Category = *in.Category
	}
	if in.ToneStyle != nil {
		tpl.ToneStyle = *in.ToneStyle
	}
	if in.ProjectComplexity != nil {
		tpl.ProjectComplexity = *in.ProjectComplexity
	}
	if in.ClientType != nil {
		tpl.ClientType = *in.ClientType
	}
	if in.IndustryTags != nil {
		tpl.IndustryTags = *in.IndustryTags
	}
	if in.MatchingKeywords != nil {
		tpl.MatchingKeywords = *in.MatchingKeywords
	}
	if in.SuccessRating != nil {
		tpl.SuccessRating = in.SuccessRating
	}
	tpl.NormalizeKeywords()
	tpl.UpdatedAt = s.now().UTC()

	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, tpl); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "persist template update")
	}
	return tpl, nil
}

// Delete removes one owner-scoped template.
func (s *Service) Delete(ctx context.Context, owner common.OwnerID, id common.ID) error {
	return s.repo.Delete(ctx, owner, id)
}

// MatchMessage ranks the owner's templates against an incoming client
// message and returns the top matches.  limit <= 0 falls back to the
// configured top-template count.
func (s *Service) MatchMessage(ctx context.Context, owner common.OwnerID, message string, mctx *matcher.MatchContext, limit int) ([]Match, error) {
	if message == "" {
		return nil, errors.InvalidParam("message is required")
	}
	if limit <= 0 {
		limit = s.matching.TopTemplates
	}

	tpls, err := s.repo.ListByOwner(ctx, owner, template.ListFilter{Limit: s.matching.MaxTemplates})
	if err != nil {
		return nil, err
	}

	views := make([]matcher.TemplateView, len(tpls))
	byID := make(map[string]*template.Template, len(tpls))
	for i, t := range tpls {
		views[i] = ToView(t)
		byID[string(t.ID)] = t
	}

	ranked := matcher.Rank(views, message, mctx)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]Match, 0, len(ranked))
	for _, m := range ranked {
		out = append(out, Match{Template: byID[m.Template.ID], Score: m.Score})
	}
	return out, nil
}

// ListCurated returns the shared starter library.
func (s *Service) ListCurated(ctx context.Context, limit int) ([]*template.Template, error) {
	if limit <= 0 || limit > s.matching.MaxTemplates {
		limit = s.matching.MaxTemplates
	}
	return s.repo.ListCurated(ctx, limit)
}

// CopyCurated clones a curated template into the owner's collection.
func (s *Service) CopyCurated(ctx context.Context, owner common.OwnerID, id common.ID) (*template.Template, error) {
	if owner == "" {
		return nil, errors.InvalidParam("owner is required")
	}
	src, err := s.repo.GetCurated(ctx, id)
	if err != nil {
		return nil, err
	}
	clone := src.CopyForOwner(owner, s.now().UTC())
	if err := s.repo.Create(ctx, clone); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "persist curated copy")
	}
	return clone, nil
}

// RecordUsage notes that a template was actually sent to a client.  The
// event stream is preferred; when no publisher is wired (or it fails) the
// counter is bumped directly.  Failures are logged and swallowed — usage is
// telemetry, not state the caller depends on.
func (s *Service) RecordUsage(ctx context.Context, owner common.OwnerID, id common.ID) {
	if s.usage != nil {
		err := s.usage.PublishTemplateUsed(ctx, owner, id)
		if err == nil {
			return
		}
		s.logger.Warn("usage event publish failed, falling back to direct increment",
			logging.String("template_id", string(id)),
			logging.Err(err),
		)
	}
	if err := s.repo.IncrementUsage(ctx, owner, id); err != nil {
		s.logger.Warn("usage increment failed",
			logging.String("template_id", string(id)),
			logging.Err(err),
		)
	}
}

// ToView projects a template onto the scorer's dependency-free view.
func ToView(t *template.Template) matcher.TemplateView {
	return matcher.TemplateView{
		ID:            string(t.ID),
		Keywords:      t.MatchingKeywords,
		Category:      t.Category,
		ClientType:    t.ClientType,
		SuccessRating: t.SuccessRating,
	}
}

// fillFromAnalysis runs one analyzer pass and fills whatever metadata the
// caller left blank.
func (s *Service) fillFromAnalysis(tpl *template.Template) {
	analysis := analyzer.Analyze(tpl.Title + " " + tpl.Body)
	if tpl.Category == "" {
		tpl.Category = analysis.Category
	}
	if tpl.ToneStyle == "" {
		tpl.ToneStyle = analysis.Tone
	}
	if tpl.ProjectComplexity == "" {
		tpl.ProjectComplexity = analysis.Complexity
	}
	if tpl.ClientType == "" {
		tpl.ClientType = analysis.ClientType
	}
	if len(tpl.MatchingKeywords) == 0 {
		tpl.MatchingKeywords = analysis.Keywords
	}
}
