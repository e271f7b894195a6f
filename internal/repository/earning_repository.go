package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hogarya/hogarya-backend/internal/domain/statemachine"
	"github.com/hogarya/hogarya-backend/internal/models"
	"github.com/hogarya/hogarya-backend/internal/repository/common"
)

type EarningRepository struct {
	db *sqlx.DB
}

func NewEarningRepository(db *sqlx.DB) *EarningRepository {
	return &EarningRepository{db: db}
}

// insertEarningTx — вставка начисления внутри чужой транзакции (сверка
// пишет платёж, заказ и начисление одной единицей). Уникальный индекс по
// order_id защищает от двойного применения перехода в paid.
func insertEarningTx(ctx context.Context, tx *sqlx.Tx, e *models.Earning) error {
	query := `
		INSERT INTO earnings (id, order_id, pro_profile_id, status, gross_amount,
			platform_fee_amount, net_amount, currency, available_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	row := tx.QueryRowxContext(ctx, query,
		e.ID, e.OrderID, e.ProProfileID, e.Status, e.GrossAmount,
		e.PlatformFeeAmount, e.NetAmount, e.Currency, e.AvailableAt)
	if err := row.Scan(&e.CreatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("earning repository: insert %w", err)
	}
	return nil
}

// Insert создаёт начисление вне транзакции сверки (админский путь).
func (r *EarningRepository) Insert(ctx context.Context, e *models.Earning) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		return insertEarningTx(ctx, tx, e)
	})
}

func (r *EarningRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Earning, error) {
	var e models.Earning
	err := r.db.GetContext(ctx, &e, `SELECT * FROM earnings WHERE order_id = $1`, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("earning repository: get by order %w", err)
	}
	return &e, nil
}

func (r *EarningRepository) ListByPro(ctx context.Context, proProfileID uuid.UUID, limit, offset int) ([]models.Earning, error) {
	earnings := []models.Earning{}
	err := r.db.SelectContext(ctx, &earnings, `
		SELECT * FROM earnings WHERE pro_profile_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, proProfileID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("earning repository: list by pro %w", err)
	}
	return earnings, nil
}

// ReleaseAvailable переводит pending-начисления с истёкшим availableAt в
// payable одним запросом. Вызывается планировщиком.
func (r *EarningRepository) ReleaseAvailable(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE earnings SET status = $1, updated_at = NOW()
		WHERE status = $2 AND available_at <= $3
	`, string(statemachine.EarningStatusPayable), string(statemachine.EarningStatusPending), now)
	if err != nil {
		return 0, fmt.Errorf("earning repository: release available %w", err)
	}
	return res.RowsAffected()
}

// ListPayableSummaries группирует payable-начисления по исполнителям для
// админского списка. Исполнители с неподтверждёнными реквизитами входят в
// список, но помечены и не могут быть целью выплаты.
func (r *EarningRepository) ListPayableSummaries(ctx context.Context) ([]models.ProPayableSummary, error) {
	summaries := []models.ProPayableSummary{}
	err := r.db.SelectContext(ctx, &summaries, `
		SELECT e.pro_profile_id,
			p.display_name,
			COUNT(*) AS earnings_count,
			SUM(e.net_amount) AS total_net_amount,
			e.currency,
			p.destination_verified
		FROM earnings e
		JOIN pro_profiles p ON p.id = e.pro_profile_id
		WHERE e.status = $1
		GROUP BY e.pro_profile_id, p.display_name, e.currency, p.destination_verified
		ORDER BY total_net_amount DESC
	`, string(statemachine.EarningStatusPayable))
	if err != nil {
		return nil, fmt.Errorf("earning repository: list payable summaries %w", err)
	}
	return summaries, nil
}

// ReverseByOrder помечает начисление по заказу как reversed (диспут,
// возврат средств). Reserved-начисления не трогаются: сначала их
// освобождает провал выплаты.
func (r *EarningRepository) ReverseByOrder(ctx context.Context, orderID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE earnings SET status = $1, updated_at = NOW()
		WHERE order_id = $2 AND status IN ($3, $4, $5)
	`, string(statemachine.EarningStatusReversed), orderID,
		string(statemachine.EarningStatusPending),
		string(statemachine.EarningStatusPayable),
		string(statemachine.EarningStatusPaid))
	if err != nil {
		return fmt.Errorf("earning repository: reverse by order %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
