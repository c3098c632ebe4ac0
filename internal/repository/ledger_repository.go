package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/repository/common"
)

var (
	// ErrPayoutNotFound возвращается, когда выплата не найдена.
	ErrPayoutNotFound = errors.New("payout not found")
	// ErrInsufficientBalance возвращается при попытке вывести больше,
	// чем доступно.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// LedgerRepository отвечает за баланс клинера, журнал начислений
// и выплаты. Любое движение денег идёт транзакцией с блокировкой
// строки баланса.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository создаёт экземпляр репозитория.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// GetBalance возвращает баланс клинера, создавая нулевую строку
// при первом обращении.
func (r *LedgerRepository) GetBalance(ctx context.Context, cleanerID uuid.UUID) (*models.Balance, error) {
	var balance models.Balance
	err := r.db.GetContext(ctx, &balance, `
		INSERT INTO balances (cleaner_id)
		VALUES ($1)
		ON CONFLICT (cleaner_id) DO UPDATE SET cleaner_id = EXCLUDED.cleaner_id
		RETURNING *
	`, cleanerID)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: get balance %w", err)
	}
	return &balance, nil
}

// CreditEarning начисляет клинеру заработок по завершённому заказу:
// запись в журнале о заработке, запись о комиссии и увеличение
// доступного баланса на сумму за вычетом комиссии.
func (r *LedgerRepository) CreditEarning(ctx context.Context, cleanerID uuid.UUID, orderID uuid.UUID, amount, commission float64, description string) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockBalance(ctx, tx, cleanerID); err != nil {
			return err
		}

		net := amount - commission
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_entries (cleaner_id, order_id, kind, amount, description)
			VALUES ($1, $2, $3, $4, $5), ($1, $2, $6, $7, $8)
		`, cleanerID, orderID,
			models.LedgerKindEarning, amount, description,
			models.LedgerKindCommission, -commission, "Комиссия сервиса")
		if err != nil {
			return fmt.Errorf("ledger repository: credit earning entries %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE balances
			SET available = available + $2,
				lifetime_earned = lifetime_earned + $2,
				updated_at = NOW()
			WHERE cleaner_id = $1
		`, cleanerID, net)
		if err != nil {
			return fmt.Errorf("ledger repository: credit earning balance %w", err)
		}
		return nil
	})
}

// CreditAdjustment начисляет бонус или штраф. Сумма штрафа передаётся
// отрицательной.
func (r *LedgerRepository) CreditAdjustment(ctx context.Context, cleanerID uuid.UUID, kind string, amount float64, description string) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockBalance(ctx, tx, cleanerID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_entries (cleaner_id, kind, amount, description)
			VALUES ($1, $2, $3, $4)
		`, cleanerID, kind, amount, description)
		if err != nil {
			return fmt.Errorf("ledger repository: adjustment entry %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE balances
			SET available = available + $2,
				lifetime_earned = lifetime_earned + GREATEST($2, 0),
				updated_at = NOW()
			WHERE cleaner_id = $1
		`, cleanerID, amount)
		if err != nil {
			return fmt.Errorf("ledger repository: adjustment balance %w", err)
		}
		return nil
	})
}

// CreatePayout создаёт заявку на выплату и переводит сумму из доступного
// баланса в обрабатываемый. Нехватка средств проверяется под блокировкой,
// поэтому две параллельные заявки не уведут баланс в минус.
func (r *LedgerRepository) CreatePayout(ctx context.Context, payout *models.Payout) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var available float64
		err := tx.GetContext(ctx, &available, `
			SELECT available FROM balances WHERE cleaner_id = $1 FOR UPDATE
		`, payout.CleanerID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInsufficientBalance
		}
		if err != nil {
			return fmt.Errorf("ledger repository: lock balance %w", err)
		}
		if available < payout.Amount {
			return ErrInsufficientBalance
		}

		err = tx.QueryRowxContext(ctx, `
			INSERT INTO payouts (cleaner_id, amount, status, method, card_last4)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, payout.CleanerID, payout.Amount, payout.Status, payout.Method, payout.CardLast4).
			Scan(&payout.ID, &payout.CreatedAt)
		if err != nil {
			return fmt.Errorf("ledger repository: create payout %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE balances
			SET available = available - $2,
				processing = processing + $2,
				updated_at = NOW()
			WHERE cleaner_id = $1
		`, payout.CleanerID, payout.Amount)
		if err != nil {
			return fmt.Errorf("ledger repository: move to processing %w", err)
		}

		description := "Вывод средств"
		if payout.CardLast4 != nil {
			description = fmt.Sprintf("Вывод средств на карту *%s", *payout.CardLast4)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ledger_entries (cleaner_id, kind, amount, description)
			VALUES ($1, $2, $3, $4)
		`, payout.CleanerID, models.LedgerKindPayout, -payout.Amount, description)
		if err != nil {
			return fmt.Errorf("ledger repository: payout entry %w", err)
		}
		return nil
	})
}

// GetPayout возвращает выплату по идентификатору.
func (r *LedgerRepository) GetPayout(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	return common.GetByID[models.Payout](ctx, r.db, "payouts", id, ErrPayoutNotFound)
}

// ListPayouts возвращает выплаты клинера, новые первыми.
func (r *LedgerRepository) ListPayouts(ctx context.Context, cleanerID uuid.UUID) ([]models.Payout, error) {
	var payouts []models.Payout
	err := r.db.SelectContext(ctx, &payouts, `
		SELECT * FROM payouts WHERE cleaner_id = $1 ORDER BY created_at DESC
	`, cleanerID)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: list payouts %w", err)
	}
	return payouts, nil
}

// SettlePayouts завершает обрабатываемые выплаты, созданные раньше
// holdDeadline, и возвращает их для уведомлений. Вызывается фоновой
// задачей.
func (r *LedgerRepository) SettlePayouts(ctx context.Context, holdDeadline time.Time) ([]models.Payout, error) {
	var settled []models.Payout
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &settled, `
			UPDATE payouts
			SET status = $1, processed_at = NOW()
			WHERE status = $2 AND created_at <= $3
			RETURNING *
		`, models.PayoutStatusCompleted, models.PayoutStatusProcessing, holdDeadline); err != nil {
			return fmt.Errorf("ledger repository: settle payouts %w", err)
		}

		for _, payout := range settled {
			if _, err := tx.ExecContext(ctx, `
				UPDATE balances
				SET processing = processing - $2, updated_at = NOW()
				WHERE cleaner_id = $1
			`, payout.CleanerID, payout.Amount); err != nil {
				return fmt.Errorf("ledger repository: settle balance %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// RejectPayout отклоняет обрабатываемую выплату и возвращает сумму
// в доступный баланс.
func (r *LedgerRepository) RejectPayout(ctx context.Context, id uuid.UUID, reason string) (*models.Payout, error) {
	var payout models.Payout
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &payout, `
			UPDATE payouts
			SET status = $2, rejection_reason = $3, processed_at = NOW()
			WHERE id = $1 AND status = $4
			RETURNING *
		`, id, models.PayoutStatusRejected, reason, models.PayoutStatusProcessing)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPayoutNotFound
		}
		if err != nil {
			return fmt.Errorf("ledger repository: reject payout %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE balances
			SET processing = processing - $2,
				available = available + $2,
				updated_at = NOW()
			WHERE cleaner_id = $1
		`, payout.CleanerID, payout.Amount); err != nil {
			return fmt.Errorf("ledger repository: reject payout balance %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_entries (cleaner_id, kind, amount, description)
			VALUES ($1, $2, $3, $4)
		`, payout.CleanerID, models.LedgerKindPayout, payout.Amount,
			"Возврат отклонённой выплаты"); err != nil {
			return fmt.Errorf("ledger repository: reject payout entry %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

// ListEntries возвращает журнал начислений клинера за период.
func (r *LedgerRepository) ListEntries(ctx context.Context, cleanerID uuid.UUID, from, to time.Time) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM ledger_entries
		WHERE cleaner_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at DESC
	`, cleanerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: list entries %w", err)
	}
	return entries, nil
}

// Breakdown агрегирует заработок клинера за период по статьям.
func (r *LedgerRepository) Breakdown(ctx context.Context, cleanerID uuid.UUID, from, to time.Time) (*models.EarningsBreakdown, error) {
	var row struct {
		OrdersCount int     `db:"orders_count"`
		Earned      float64 `db:"earned"`
		Bonuses     float64 `db:"bonuses"`
		Penalties   float64 `db:"penalties"`
		Commission  float64 `db:"commission"`
	}

	err := r.db.GetContext(ctx, &row, `
		SELECT COUNT(DISTINCT order_id) FILTER (WHERE kind = 'earning') AS orders_count,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'earning'), 0) AS earned,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'bonus'), 0) AS bonuses,
			COALESCE(-SUM(amount) FILTER (WHERE kind = 'penalty'), 0) AS penalties,
			COALESCE(-SUM(amount) FILTER (WHERE kind = 'commission'), 0) AS commission
		FROM ledger_entries
		WHERE cleaner_id = $1 AND created_at >= $2 AND created_at < $3
	`, cleanerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: breakdown %w", err)
	}

	breakdown := &models.EarningsBreakdown{
		Bonuses:   row.Bonuses,
		Penalties: row.Penalties,
	}
	breakdown.CompletedOrders.Count = row.OrdersCount
	breakdown.CompletedOrders.Amount = row.Earned
	if row.OrdersCount > 0 {
		breakdown.CompletedOrders.AvgCheck = row.Earned / float64(row.OrdersCount)
	}
	breakdown.Commission.Amount = row.Commission
	if row.Earned > 0 {
		breakdown.Commission.Percentage = row.Commission / row.Earned * 100
	}
	breakdown.Total = row.Earned + row.Bonuses - row.Penalties - row.Commission
	return breakdown, nil
}

func lockBalance(ctx context.Context, tx *sqlx.Tx, cleanerID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO balances (cleaner_id)
		VALUES ($1)
		ON CONFLICT (cleaner_id) DO NOTHING
	`, cleanerID)
	if err != nil {
		return fmt.Errorf("ledger repository: ensure balance %w", err)
	}

	var one int
	if err := tx.GetContext(ctx, &one, `
		SELECT 1 FROM balances WHERE cleaner_id = $1 FOR UPDATE
	`, cleanerID); err != nil {
		return fmt.Errorf("ledger repository: lock balance %w", err)
	}
	return nil
}
