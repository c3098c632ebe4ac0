package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification описывает событие в ленте уведомлений пользователя.
type Notification struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Type        string    `db:"type" json:"type"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Priority    string    `db:"priority" json:"priority"`
	IsRead      bool      `db:"is_read" json:"is_read"`
	ActionURL   *string   `db:"action_url" json:"action_url,omitempty"`
	ActionText  *string   `db:"action_text" json:"action_text,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
