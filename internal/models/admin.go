package models

import (
	"time"

	"github.com/google/uuid"
)

// Issue описывает обращение в ленте проблем админки: жалобу, спор
// или отменённый заказ.
type Issue struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Type        string     `db:"type" json:"type"`
	OrderID     *uuid.UUID `db:"order_id" json:"order_id,omitempty"`
	ReporterID  *uuid.UUID `db:"reporter_id" json:"reporter_id,omitempty"`
	Description *string    `db:"description" json:"description,omitempty"`
	Priority    string     `db:"priority" json:"priority"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// AdminMetrics агрегирует показатели платформы за период.
type AdminMetrics struct {
	OrdersCount     int     `json:"orders_count"`
	CompletedCount  int     `json:"completed_count"`
	CancelledCount  int     `json:"cancelled_count"`
	Revenue         float64 `json:"revenue"`
	ActiveCleaners  int     `json:"active_cleaners"`
	ActiveCustomers int     `json:"active_customers"`
	AverageRating   float64 `json:"average_rating"`
	AverageCheck    float64 `json:"average_check"`
}

// TopCleaner строка рейтинга клинеров в админке.
type TopCleaner struct {
	CleanerID       uuid.UUID `db:"cleaner_id" json:"cleaner_id"`
	DisplayName     string    `db:"display_name" json:"display_name"`
	CompletedOrders int       `db:"completed_orders" json:"completed_orders"`
	AverageRating   float64   `db:"average_rating" json:"average_rating"`
	Earned          float64   `db:"earned" json:"earned"`
}

// ServiceTypeStat агрегат по типу услуги.
type ServiceTypeStat struct {
	ServiceType string  `db:"service_type" json:"service_type"`
	OrdersCount int     `db:"orders_count" json:"orders_count"`
	Revenue     float64 `db:"revenue" json:"revenue"`
}
