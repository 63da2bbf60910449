package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/domain/user"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/database/postgres"
	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/types/common"
)

type profileRepo struct {
	db     queryExecutor
	logger logging.Logger
}

// NewProfileRepo returns the PostgreSQL freelancer-profile repository.
func NewProfileRepo(conn *postgres.Connection, logger logging.Logger) user.Repository {
	return &profileRepo{db: conn.Pool(), logger: logger.Named("profile_repo")}
}

func (r *profileRepo) Get(ctx context.Context, owner common.OwnerID) (*user.Profile, error) {
	query := `
		SELECT owner_id, display_name, service_area, specialties, response_style, updated_at
		FROM profiles WHERE owner_id = $1`

	var p user.Profile
	err := r.db.QueryRow(ctx, query, string(owner)).Scan(
		&p.OwnerID, &p.DisplayName, &p.ServiceArea, &p.Specialties,
		&p.ResponseStyle, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("profile not found").WithDetail(string(owner))
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "query profile")
	}
	return &p, nil
}

func (r *profileRepo) Upsert(ctx context.Context, p *user.Profile) error {
	query := `
		INSERT INTO profiles (owner_id, display_name, service_area, specialties, response_style, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			service_area = EXCLUDED.service_area,
			specialties = EXCLUDED.specialties,
			response_style = EXCLUDED.response_style,
			updated_at = EXCLUDED.updated_at`
	_, err := r.db.Exec(ctx, query,
		string(p.OwnerID), p.DisplayName, p.ServiceArea, p.Specialties,
		p.ResponseStyle, p.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "upsert profile")
	}
	return nil
}
