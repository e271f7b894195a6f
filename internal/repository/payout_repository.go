package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hogarya/hogarya-backend/internal/domain/statemachine"
	"github.com/hogarya/hogarya-backend/internal/models"
	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
	"github.com/hogarya/hogarya-backend/internal/repository/common"
)

// ErrNoPayableEarnings — на момент захвата не нашлось ни одного
// payable-начисления.
var ErrNoPayableEarnings = errors.New("no payable earnings to reserve")

type PayoutRepository struct {
	db *sqlx.DB
}

func NewPayoutRepository(db *sqlx.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	return common.GetByID[models.Payout](ctx, r.db, "payouts", id, apperror.ErrPayoutNotFound)
}

func (r *PayoutRepository) List(ctx context.Context, limit, offset int) ([]models.Payout, error) {
	payouts := []models.Payout{}
	err := r.db.SelectContext(ctx, &payouts, `
		SELECT * FROM payouts ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("payout repository: list %w", err)
	}
	return payouts, nil
}

// CreateForPro атомарно захватывает все текущие payable-начисления
// исполнителя и создаёт пакет выплаты на их сумму. Захват — один UPDATE с
// условием по статусу: из двух конкурирующих созданий выплаты ровно одно
// получает начисления, второе — ErrNoPayableEarnings. Naive
// select-then-update здесь позволил бы двум пакетам разделить одно
// начисление.
func (r *PayoutRepository) CreateForPro(ctx context.Context, proProfileID uuid.UUID, providerName, currency string) (*models.Payout, error) {
	payout := &models.Payout{
		ID:           uuid.New(),
		ProProfileID: proProfileID,
		Provider:     providerName,
		Status:       string(statemachine.PayoutStatusCreated),
		Currency:     currency,
	}

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		row := tx.QueryRowxContext(ctx, `
			INSERT INTO payouts (id, pro_profile_id, provider, status, amount, currency)
			VALUES ($1, $2, $3, $4, 0, $5)
			RETURNING created_at
		`, payout.ID, payout.ProProfileID, payout.Provider, payout.Status, payout.Currency)
		if err := row.Scan(&payout.CreatedAt); err != nil {
			return fmt.Errorf("payout repository: insert %w", err)
		}

		var amounts []int64
		err := tx.SelectContext(ctx, &amounts, `
			UPDATE earnings
			SET status = $1, payout_id = $2, updated_at = NOW()
			WHERE pro_profile_id = $3 AND status = $4 AND currency = $5
			RETURNING net_amount
		`, string(statemachine.EarningStatusReserved), payout.ID, proProfileID,
			string(statemachine.EarningStatusPayable), currency)
		if err != nil {
			return fmt.Errorf("payout repository: reserve earnings %w", err)
		}
		if len(amounts) == 0 {
			return ErrNoPayableEarnings
		}

		var total int64
		for _, a := range amounts {
			total += a
		}
		payout.Amount = total

		if _, err := tx.ExecContext(ctx, `
			UPDATE payouts SET amount = $2 WHERE id = $1
		`, payout.ID, total); err != nil {
			return fmt.Errorf("payout repository: set amount %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// ReserveForRetry повторно захватывает начисления провалившегося пакета
// перед новой попыткой отправки той же строки. Если их уже забрал более
// новый пакет, повторять нечего.
func (r *PayoutRepository) ReserveForRetry(ctx context.Context, payoutID uuid.UUID) (int64, error) {
	var total int64
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var amounts []int64
		err := tx.SelectContext(ctx, &amounts, `
			UPDATE earnings
			SET status = $1, updated_at = NOW()
			WHERE payout_id = $2 AND status = $3
			RETURNING net_amount
		`, string(statemachine.EarningStatusReserved), payoutID,
			string(statemachine.EarningStatusPayable))
		if err != nil {
			return fmt.Errorf("payout repository: reserve for retry %w", err)
		}
		if len(amounts) == 0 {
			return ErrNoPayableEarnings
		}
		for _, a := range amounts {
			total += a
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// MarkSent фиксирует принятие пакета провайдером: выплата становится
// sent, её начисления — paid. Обе записи в одной транзакции.
func (r *PayoutRepository) MarkSent(ctx context.Context, payoutID uuid.UUID, providerReference string) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE payouts
			SET status = $2, provider_reference = $3, failure_reason = NULL, sent_at = NOW()
			WHERE id = $1 AND status IN ($4, $5)
		`, payoutID, string(statemachine.PayoutStatusSent), providerReference,
			string(statemachine.PayoutStatusCreated), string(statemachine.PayoutStatusFailed))
		if err != nil {
			return fmt.Errorf("payout repository: mark sent %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return common.ErrStaleState
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE earnings SET status = $1, updated_at = NOW()
			WHERE payout_id = $2 AND status = $3
		`, string(statemachine.EarningStatusPaid), payoutID, string(statemachine.EarningStatusReserved))
		if err != nil {
			return fmt.Errorf("payout repository: mark earnings paid %w", err)
		}
		return nil
	})
}

// MarkFailed фиксирует отказ провайдера: выплата — failed, её начисления
// возвращаются в payable и могут попасть в следующий пакет. Связь с
// payout_id сохраняется, чтобы повторная отправка той же строки могла их
// перезахватить. Запись идемпотентна для уже проваленной выплаты:
// повторная отправка, провалившаяся снова, должна освободить заново
// зарезервированные начисления, а не оставить их в reserved.
func (r *PayoutRepository) MarkFailed(ctx context.Context, payoutID uuid.UUID, reason string) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE payouts SET status = $2, failure_reason = $3
			WHERE id = $1 AND status IN ($4, $5, $6)
		`, payoutID, string(statemachine.PayoutStatusFailed), reason,
			string(statemachine.PayoutStatusCreated), string(statemachine.PayoutStatusSent),
			string(statemachine.PayoutStatusFailed))
		if err != nil {
			return fmt.Errorf("payout repository: mark failed %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return common.ErrStaleState
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE earnings SET status = $1, updated_at = NOW()
			WHERE payout_id = $2 AND status = $3
		`, string(statemachine.EarningStatusPayable), payoutID, string(statemachine.EarningStatusReserved))
		if err != nil {
			return fmt.Errorf("payout repository: revert earnings %w", err)
		}
		return nil
	})
}

// MarkSettled фиксирует подтверждение зачисления от провайдера.
func (r *PayoutRepository) MarkSettled(ctx context.Context, payoutID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payouts SET status = $2, settled_at = NOW()
		WHERE id = $1 AND status = $3
	`, payoutID, string(statemachine.PayoutStatusSettled), string(statemachine.PayoutStatusSent))
	if err != nil {
		return fmt.Errorf("payout repository: mark settled %w", err)
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
