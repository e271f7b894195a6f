package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hogarya/hogarya-backend/internal/models"
	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
	"github.com/hogarya/hogarya-backend/internal/repository/common"
)

type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, booking_id, provider, provider_reference, status,
			amount_estimated, amount_authorized, amount_captured, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		p.ID, p.OrderID, p.BookingID, p.Provider, p.ProviderReference, p.Status,
		p.AmountEstimated, p.AmountAuthorized, p.AmountCaptured, p.Currency)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("payment repository: create %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return common.GetByID[models.Payment](ctx, r.db, "payments", id, apperror.ErrPaymentNotFound)
}

// GetByProviderReference ищет платёж по внешней ссылке провайдера.
func (r *PaymentRepository) GetByProviderReference(ctx context.Context, provider, reference string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.GetContext(ctx, &p, `
		SELECT * FROM payments WHERE provider = $1 AND provider_reference = $2
	`, provider, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: get by provider reference %w", err)
	}
	return &p, nil
}

// OrderStatusUpdate — зависимый переход заказа, применяемый вместе с
// мутацией платежа.
type OrderStatusUpdate struct {
	OrderID   uuid.UUID
	From      string
	To        string
	ActorRole string
}

// ApplyReconciliation записывает результат сверки одной единицей: мутация
// платежа, зависимый переход заказа и, если заказ стал оплаченным,
// начисление исполнителю. Любой частичный сбой откатывает всё к
// состоянию до применения; строка журнала событий при этом не трогается.
//
// Запись платежа защищена условием по прочитанному статусу: если
// конкурирующее событие успело сдвинуть платёж между чтением и записью,
// UPDATE не находит строку и возвращается ErrStaleState — устаревшая
// запись никогда не откатывает платёж назад.
func (r *PaymentRepository) ApplyReconciliation(ctx context.Context, p *models.Payment, fromStatus string, orderUpdate *OrderStatusUpdate, earning *models.Earning) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE payments
			SET status = $2, amount_authorized = $3, amount_captured = $4,
				inconsistent = $5, updated_at = NOW()
			WHERE id = $1 AND status = $6
		`, p.ID, p.Status, p.AmountAuthorized, p.AmountCaptured, p.Inconsistent, fromStatus)
		if err != nil {
			return fmt.Errorf("payment repository: apply status %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return common.ErrStaleState
		}

		if orderUpdate != nil {
			if err := updateOrderStatusTx(ctx, tx, orderUpdate.OrderID, orderUpdate.From, orderUpdate.To, orderUpdate.ActorRole); err != nil {
				return err
			}
		}

		if earning != nil {
			if err := insertEarningTx(ctx, tx, earning); err != nil {
				return err
			}
		}

		return nil
	})
}
