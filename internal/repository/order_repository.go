package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hogarya/hogarya-backend/internal/domain/statemachine"
	"github.com/hogarya/hogarya-backend/internal/models"
	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
	"github.com/hogarya/hogarya-backend/internal/repository/common"
)

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create сохраняет новый заказ в статусе draft.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	query := `
		INSERT INTO orders (id, client_id, pro_profile_id, category_id, status, pricing_mode,
			hourly_rate_snapshot, estimated_hours, quoted_amount, total_amount, currency,
			scheduled_window_start)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		o.ID, o.ClientID, o.ProProfileID, o.CategoryID, o.Status, o.PricingMode,
		o.HourlyRateSnapshot, o.EstimatedHours, o.QuotedAmount, o.TotalAmount, o.Currency,
		o.ScheduledWindowStart)
	if err := row.Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return fmt.Errorf("order repository: create %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return common.GetByID[models.Order](ctx, r.db, "orders", id, apperror.ErrOrderNotFound)
}

// statusTimestampColumn: какая отметка времени проставляется при входе в статус.
func statusTimestampColumn(to string) string {
	switch statemachine.OrderStatus(to) {
	case statemachine.OrderStatusAccepted:
		return "accepted_at"
	case statemachine.OrderStatusConfirmed:
		return "confirmed_at"
	case statemachine.OrderStatusInProgress:
		return "started_at"
	case statemachine.OrderStatusCompleted:
		return "completed_at"
	case statemachine.OrderStatusPaid:
		return "paid_at"
	case statemachine.OrderStatusCanceled:
		return "canceled_at"
	}
	return ""
}

// UpdateStatus применяет уже проверенный переход. Условие WHERE status=$from
// отсекает гонку двух писателей: проигравший получает ErrStaleState и
// обязан перечитать заказ. В той же транзакции пишется строка истории.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to string, actorRole string) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		return updateOrderStatusTx(ctx, tx, orderID, from, to, actorRole)
	})
}

// updateOrderStatusTx — общая часть для UpdateStatus и транзакции сверки.
func updateOrderStatusTx(ctx context.Context, tx *sqlx.Tx, orderID uuid.UUID, from, to string, actorRole string) error {
	query := `UPDATE orders SET status = $3, updated_at = NOW()`
	if col := statusTimestampColumn(to); col != "" {
		query += fmt.Sprintf(", %s = NOW()", col)
	}
	query += ` WHERE id = $1 AND status = $2`

	res, err := tx.ExecContext(ctx, query, orderID, from, to)
	if err != nil {
		return fmt.Errorf("order repository: update status %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return common.ErrStaleState
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_status_history (id, order_id, from_status, to_status, actor_role)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), orderID, from, to, actorRole)
	if err != nil {
		return fmt.Errorf("order repository: insert status history %w", err)
	}
	return nil
}

// ListByClient возвращает заказы клиента, новые сверху.
func (r *OrderRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("order repository: list by client %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) ListByPro(ctx context.Context, proProfileID uuid.UUID, limit, offset int) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders WHERE pro_profile_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, proProfileID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("order repository: list by pro %w", err)
	}
	return orders, nil
}

// ListStaleUnconfirmed возвращает заказы, застрявшие в ожидании
// подтверждения дольше cutoff. Используется планировщиком авто-отмены.
func (r *OrderRepository) ListStaleUnconfirmed(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at ASC
		LIMIT $3
	`, string(statemachine.OrderStatusPendingProConfirmation), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("order repository: list stale unconfirmed %w", err)
	}
	return orders, nil
}

// History возвращает журнал переходов заказа.
func (r *OrderRepository) History(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	history := []models.OrderStatusHistory{}
	err := r.db.SelectContext(ctx, &history, `
		SELECT * FROM order_status_history WHERE order_id = $1 ORDER BY created_at ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("order repository: history %w", err)
	}
	return history, nil
}
