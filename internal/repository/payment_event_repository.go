package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hogarya/hogarya-backend/internal/models"
	"github.com/hogarya/hogarya-backend/internal/repository/common"
)

type PaymentEventRepository struct {
	db *sqlx.DB
}

func NewPaymentEventRepository(db *sqlx.DB) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

// Insert пишет строку журнала идемпотентности. Уникальный индекс по
// fingerprint — единственный затвор от повторной обработки: дубликат
// возвращает common.ErrAlreadyExists без каких-либо побочных эффектов.
func (r *PaymentEventRepository) Insert(ctx context.Context, ev *models.PaymentEvent) error {
	query := `
		INSERT INTO payment_events (id, provider, provider_reference, event_type, fingerprint,
			kind, amount, currency, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		ev.ID, ev.Provider, ev.ProviderReference, ev.EventType, ev.Fingerprint,
		ev.Kind, ev.Amount, ev.Currency, ev.Payload)
	if err := row.Scan(&ev.CreatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("payment event repository: insert %w", err)
	}
	return nil
}

// MarkProcessed отмечает событие применённым.
func (r *PaymentEventRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payment_events SET processed_at = NOW(), orphaned = FALSE WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("payment event repository: mark processed %w", err)
	}
	return nil
}

// MarkOrphaned отмечает событие, пришедшее раньше локальной строки
// платежа. Строка остаётся в журнале: повтор того же события от
// провайдера по-прежнему поглощается, а фоновая сверка доработает его
// позже.
func (r *PaymentEventRepository) MarkOrphaned(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payment_events SET orphaned = TRUE WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("payment event repository: mark orphaned %w", err)
	}
	return nil
}

// ListOrphaned возвращает непримененные осиротевшие события для фоновой
// сверки.
func (r *PaymentEventRepository) ListOrphaned(ctx context.Context, limit int) ([]models.PaymentEvent, error) {
	events := []models.PaymentEvent{}
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM payment_events
		WHERE orphaned = TRUE AND processed_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("payment event repository: list orphaned %w", err)
	}
	return events, nil
}
