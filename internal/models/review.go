package models

import (
	"time"

	"github.com/google/uuid"
)

// Review описывает отзыв клиента о выполненном заказе. Общая оценка
// обязательна; оценки по категориям опциональны (0 значит не выставлена).
type Review struct {
	ID            uuid.UUID `db:"id" json:"id"`
	OrderID       uuid.UUID `db:"order_id" json:"order_id"`
	CustomerID    uuid.UUID `db:"customer_id" json:"customer_id"`
	CleanerID     uuid.UUID `db:"cleaner_id" json:"cleaner_id"`
	Overall       int       `db:"overall" json:"overall"`
	Quality       int       `db:"quality" json:"quality"`
	Punctuality   int       `db:"punctuality" json:"punctuality"`
	Politeness    int       `db:"politeness" json:"politeness"`
	Requirements  int       `db:"requirements" json:"requirements"`
	Text          *string   `db:"review_text" json:"text,omitempty"`
	Anonymous     bool      `db:"anonymous" json:"anonymous"`
	AllowResponse bool      `db:"allow_response" json:"allow_response"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`

	Photos []ReviewPhoto `db:"-" json:"photos,omitempty"`
}

// ReviewPhoto описывает фотографию, прикреплённую к отзыву.
type ReviewPhoto struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ReviewID  uuid.UUID `db:"review_id" json:"review_id"`
	Path      string    `db:"path" json:"path"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
