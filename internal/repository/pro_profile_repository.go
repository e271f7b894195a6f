package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hogarya/hogarya-backend/internal/models"
	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
	"github.com/hogarya/hogarya-backend/internal/repository/common"
)

type ProProfileRepository struct {
	db *sqlx.DB
}

func NewProProfileRepository(db *sqlx.DB) *ProProfileRepository {
	return &ProProfileRepository{db: db}
}

func (r *ProProfileRepository) Create(ctx context.Context, p *models.ProProfile) error {
	query := `
		INSERT INTO pro_profiles (id, user_id, display_name, payout_destination, destination_verified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		p.ID, p.UserID, p.DisplayName, p.PayoutDestination, p.DestinationVerified)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("pro profile repository: create %w", err)
	}
	return nil
}

func (r *ProProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProProfile, error) {
	return common.GetByID[models.ProProfile](ctx, r.db, "pro_profiles", id, apperror.ErrProfileNotFound)
}

func (r *ProProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProProfile, error) {
	return common.GetByField[models.ProProfile](ctx, r.db, "pro_profiles", "user_id", userID, apperror.ErrProfileNotFound)
}

// SetDestination сохраняет новые реквизиты; подтверждение при этом
// сбрасывается до повторной проверки админом.
func (r *ProProfileRepository) SetDestination(ctx context.Context, id uuid.UUID, destination string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pro_profiles
		SET payout_destination = $2, destination_verified = FALSE, verified_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, id, destination)
	if err != nil {
		return fmt.Errorf("pro profile repository: set destination %w", err)
	}
	return requireAffected(res, apperror.ErrProfileNotFound)
}

// VerifyDestination подтверждает реквизиты исполнителя.
func (r *ProProfileRepository) VerifyDestination(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pro_profiles
		SET destination_verified = TRUE, verified_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND payout_destination IS NOT NULL
	`, id)
	if err != nil {
		return fmt.Errorf("pro profile repository: verify destination %w", err)
	}
	return requireAffected(res, apperror.ErrProfileNotFound)
}
