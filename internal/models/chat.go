package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation описывает чат заказа между клиентом и клинером.
type Conversation struct {
	ID         uuid.UUID `db:"id" json:"id"`
	OrderID    uuid.UUID `db:"order_id" json:"order_id"`
	CustomerID uuid.UUID `db:"customer_id" json:"customer_id"`
	CleanerID  uuid.UUID `db:"cleaner_id" json:"cleaner_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	// Превью для списка чатов, в базе не хранится.
	LastMessage *Message `db:"-" json:"last_message,omitempty"`
}

// Message описывает сообщение в чате. Для голосовых сообщений заполняется
// Duration (секунды), для изображений ImageURL.
type Message struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ConversationID uuid.UUID  `db:"conversation_id" json:"conversation_id"`
	Type           string     `db:"type" json:"type"`
	Sender         string     `db:"sender" json:"sender"`
	SenderID       *uuid.UUID `db:"sender_id" json:"sender_id,omitempty"`
	Content        string     `db:"content" json:"content"`
	ImageURL       *string    `db:"image_url" json:"image_url,omitempty"`
	Duration       *int       `db:"duration" json:"duration,omitempty"`
	Status         string     `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}
