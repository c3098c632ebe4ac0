package models

import (
	"time"

	"github.com/google/uuid"
)

// Order описывает заказ на уборку.
type Order struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Number        string     `db:"number" json:"number"`
	CustomerID    uuid.UUID  `db:"customer_id" json:"customer_id"`
	CleanerID     *uuid.UUID `db:"cleaner_id" json:"cleaner_id,omitempty"`
	ServiceType   string     `db:"service_type" json:"service_type"`
	ScheduledDate time.Time  `db:"scheduled_date" json:"scheduled_date"`
	StartHour     int        `db:"start_hour" json:"start_hour"`
	EndHour       int        `db:"end_hour" json:"end_hour"`
	Address       string     `db:"address" json:"address"`
	Status        string     `db:"status" json:"status"`
	Price         float64    `db:"price" json:"price"`
	// Rating дублирует итоговую оценку отзыва; 0 значит оценка не выставлена.
	Rating       int        `db:"rating" json:"rating"`
	CancelReason *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`

	// Связанные данные (загружаются отдельно)
	Photos []OrderPhoto `db:"-" json:"photos,omitempty"`
}

// OrderPhoto описывает фотографию до/после уборки, прикреплённую к заказу.
type OrderPhoto struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OrderID   uuid.UUID `db:"order_id" json:"order_id"`
	Kind      string    `db:"kind" json:"kind"` // before | after
	Path      string    `db:"path" json:"path"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsTerminal сообщает, находится ли заказ в конечном статусе.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// OrderFilter описывает параметры выборки заказов.
type OrderFilter struct {
	Status string // all | active | completed | cancelled
	Search string // подстрока номера заказа или типа услуги, без учёта регистра
	Limit  int
	Offset int
}
