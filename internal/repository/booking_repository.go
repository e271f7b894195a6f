package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hogarya/hogarya-backend/internal/domain/statemachine"
	"github.com/hogarya/hogarya-backend/internal/models"
	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
	"github.com/hogarya/hogarya-backend/internal/repository/common"
)

type BookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (id, client_id, pro_profile_id, status, estimated_amount, currency, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		b.ID, b.ClientID, b.ProProfileID, b.Status, b.EstimatedAmount, b.Currency, b.ScheduledAt)
	if err := row.Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("booking repository: create %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return common.GetByID[models.Booking](ctx, r.db, "bookings", id, apperror.ErrBookingNotFound)
}

// UpdateStatus применяет уже проверенный переход с защитой от гонки.
func (r *BookingRepository) UpdateStatus(ctx context.Context, bookingID uuid.UUID, from, to string) error {
	query := `UPDATE bookings SET status = $3, updated_at = NOW()`
	if statemachine.BookingStatus(to) == statemachine.BookingStatusCompleted {
		query += `, completed_at = NOW()`
	}
	query += ` WHERE id = $1 AND status = $2`

	res, err := r.db.ExecContext(ctx, query, bookingID, from, to)
	if err != nil {
		return fmt.Errorf("booking repository: update status %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return common.ErrStaleState
	}
	return nil
}

func (r *BookingRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	bookings := []models.Booking{}
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT * FROM bookings WHERE client_id = $1 ORDER BY scheduled_at DESC LIMIT $2 OFFSET $3
	`, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("booking repository: list by client %w", err)
	}
	return bookings, nil
}

func (r *BookingRepository) ListByPro(ctx context.Context, proProfileID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	bookings := []models.Booking{}
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT * FROM bookings WHERE pro_profile_id = $1 ORDER BY scheduled_at DESC LIMIT $2 OFFSET $3
	`, proProfileID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("booking repository: list by pro %w", err)
	}
	return bookings, nil
}
