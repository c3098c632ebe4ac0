package models

import (
	"time"

	"github.com/google/uuid"
)

// Balance представляет баланс клинера, разделённый на доступные,
// обрабатываемые и заблокированные средства.
type Balance struct {
	CleanerID      uuid.UUID `db:"cleaner_id" json:"cleaner_id"`
	Available      float64   `db:"available" json:"available"`
	Processing     float64   `db:"processing" json:"processing"`
	Blocked        float64   `db:"blocked" json:"blocked"`
	LifetimeEarned float64   `db:"lifetime_earned" json:"lifetime_earned"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Payout представляет заявку на вывод средств.
type Payout struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	CleanerID       uuid.UUID  `db:"cleaner_id" json:"cleaner_id"`
	Amount          float64    `db:"amount" json:"amount"`
	Status          string     `db:"status" json:"status"`
	Method          string     `db:"method" json:"method"`
	CardLast4       *string    `db:"card_last4" json:"card_last4,omitempty"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt     *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}

// LedgerEntry фиксирует одно движение по счёту клинера: начисление за заказ,
// бонус, штраф, комиссию платформы или вывод средств.
type LedgerEntry struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	CleanerID   uuid.UUID  `db:"cleaner_id" json:"cleaner_id"`
	OrderID     *uuid.UUID `db:"order_id" json:"order_id,omitempty"`
	Kind        string     `db:"kind" json:"kind"`
	Amount      float64    `db:"amount" json:"amount"`
	Description *string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// EarningsBreakdown раскладывает заработок клинера за период.
type EarningsBreakdown struct {
	CompletedOrders struct {
		Count    int     `json:"count"`
		Amount   float64 `json:"amount"`
		AvgCheck float64 `json:"avg_check"`
	} `json:"completed_orders"`
	Bonuses    float64 `json:"bonuses"`
	Penalties  float64 `json:"penalties"`
	Commission struct {
		Amount     float64 `json:"amount"`
		Percentage float64 `json:"percentage"`
	} `json:"commission"`
	Total float64 `json:"total"`
}
