package template

import (
	"context"

	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

// ListFilter narrows owner-scoped template reads.  Zero values mean
// "no constraint".
type ListFilter struct {
	Category   string
	ClientType string
	// OrderByUsage sorts most-used first instead of most-recent first.
	OrderByUsage bool
	Limit        int
	Offset       int
}

// Repository is the persistence contract for templates.  Implementations
// must scope every read and write to the given owner; curated-library rows
// are owned by no one and readable by everyone.
type Repository interface {
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, owner common.OwnerID, id common.ID) (*Template, error)
	ListByOwner(ctx context.Context, owner common.OwnerID, f ListFilter) ([]*Template, error)
	Update(ctx context.Context, t *Template) error
	Delete(ctx context.Context, owner common.OwnerID, id common.ID) error

	// CreateBatch inserts templates produced by bulk import in one round
	// trip; a failure rolls the whole batch back (per-row validation happens
	// before this call).
	CreateBatch(ctx context.Context, ts []*Template) error

	// IncrementUsage bumps the usage counter without touching UpdatedAt.
	// Callers treat failures as droppable telemetry, not errors.
	IncrementUsage(ctx context.Context, owner common.OwnerID, id common.ID) error

	// ListCurated returns the shared starter library.
	ListCurated(ctx context.Context, limit int) ([]*Template, error)
	GetCurated(ctx context.Context, id common.ID) (*Template, error)
}
