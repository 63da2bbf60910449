package importer

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/imports"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/template"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/intelligence/analyzer"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// maxPayloadBytes bounds one import upload.
const maxPayloadBytes = 4 << 20

// Service runs bulk template imports: parse, enrich via the analyzer,
// persist the survivors, and record an upload session summarizing the
// outcome.  Malformed rows are logged per row, never fatal.
type Service struct {
	templates template.Repository
	sessions  imports.Repository
	logger    logging.Logger
	now       func() time.Time
}

// NewService wires the importer.
func NewService(templates template.Repository, sessions imports.Repository, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		templates: templates,
		sessions:  sessions,
		logger:    logger.Named("importer"),
		now:       time.Now,
	}
}

// Import ingests one upload.  formatHint may be empty, in which case the
// format is detected from the filename or the payload.  The returned session
// is already persisted.
func (s *Service) Import(ctx context.Context, owner common.OwnerID, filename, formatHint string, r io.Reader) (*imports.UploadSession, error) {
	if owner == "" {
		return nil, errors.InvalidParam("owner is required")
	}

	data, err := io.ReadAll(io.LimitReader(r, maxPayloadBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "read import payload")
	}
	if len(data) > maxPayloadBytes {
		return nil, errors.New(errors.CodeInvalidParam, "import payload too large").
			WithDetail("max 4 MiB")
	}

	format, err := DetectFormat(formatHint, filename, data)
	if err != nil {
		return nil, err
	}

	records, rowErrs, err := Parse(format, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := &imports.UploadSession{
		ID:        common.NewID(),
		OwnerID:   owner,
		Filename:  filename,
		Format:    format,
		Total:     len(records) + len(rowErrs),
		ErrorLog:  rowErrs,
		CreatedAt: now,
	}

	batch := make([]*template.Template, 0, len(records))
	for _, rec := range records {
		tpl, err := s.enrich(owner, rec, now)
		if err != nil {
			session.ErrorLog = append(session.ErrorLog, imports.RowError{
				Row: rec.Row, Reason: errors.GetMessage(err),
			})
			continue
		}
		batch = append(batch, tpl)
	}

	if len(batch) > 0 {
		if err := s.templates.CreateBatch(ctx, batch); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "persist imported templates")
		}
	}

	session.Processed = len(batch)
	session.Failed = session.Total - session.Processed
	session.Finalize()

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "record upload session")
	}

	s.logger.Info("import finished",
		logging.String("owner", string(owner)),
		logging.String("format", format),
		logging.Int("total", session.Total),
		logging.Int("processed", session.Processed),
		logging.Int("failed", session.Failed),
	)
	return session, nil
}

// GetSession returns one owner-scoped upload session.
func (s *Service) GetSession(ctx context.Context, owner common.OwnerID, id common.ID) (*imports.UploadSession, error) {
	return s.sessions.GetByID(ctx, owner, id)
}

// enrich turns a parsed record into a persistable template, letting the
// analyzer fill in whatever metadata the source left blank.
func (s *Service) enrich(owner common.OwnerID, rec Record, now time.Time) (*template.Template, error) {
	body := analyzer.FormatContent(rec.Body)
	analysis := analyzer.Analyze(rec.Title + " " + body)

	tpl := &template.Template{
		ID:                common.NewID(),
		OwnerID:           owner,
		Title:             rec.Title,
		Body:              body,
		Category:          rec.Category,
		ToneStyle:         rec.ToneStyle,
		ProjectComplexity: analysis.Complexity,
		ClientType:        rec.ClientType,
		MatchingKeywords:  rec.Keywords,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if tpl.Category == "" {
		tpl.Category = analysis.Category
	}
	if tpl.ToneStyle == "" {
		tpl.ToneStyle = analysis.Tone
	}
	if tpl.ClientType == "" {
		tpl.ClientType = analysis.ClientType
	}
	if len(tpl.MatchingKeywords) == 0 {
		tpl.MatchingKeywords = analysis.Keywords
	}
	tpl.NormalizeKeywords()

	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return tpl, nil
}
