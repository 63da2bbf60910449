// Package imports holds the UploadSession entity that records the outcome
// of one bulk template import: totals, per-row failures, and a terminal
// status.  Imports are best-effort — a malformed row never aborts the batch.
package imports

import (
	"context"
	"fmt"
	"time"

	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// Status enumerates the lifecycle of an upload session.
type Status string

const (
	StatusProcessing           Status = "processing"
	StatusCompleted            Status = "completed"
	StatusCompletedWithErrors  Status = "completed_with_errors"
	StatusFailed               Status = "failed" // nothing imported at all
)

// RowError records one rejected row with a human-readable reason.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) String() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// UploadSession is the summary record for one bulk import.
type UploadSession struct {
	ID      common.ID      `json:"id"`
	OwnerID common.OwnerID `json:"owner_id"`

	Filename  string     `json:"filename,omitempty"`
	Format    string     `json:"format"` // "csv" | "json" | "text"
	Total     int        `json:"total"`
	Processed int        `json:"processed"`
	Failed    int        `json:"failed"`
	Status    Status     `json:"status"`
	ErrorLog  []RowError `json:"error_log,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Finalize derives the terminal status from the counters.
func (s *UploadSession) Finalize() {
	switch {
	case s.Processed == 0 && s.Total > 0:
		s.Status = StatusFailed
	case s.Failed > 0:
		s.Status = StatusCompletedWithErrors
	default:
		s.Status = StatusCompleted
	}
}

// Repository is the persistence contract for upload sessions.
type Repository interface {
	Create(ctx context.Context, s *UploadSession) error
	GetByID(ctx context.Context, owner common.OwnerID, id common.ID) (*UploadSession, error)
}
