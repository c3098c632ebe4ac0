package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/repository/common"
)

var (
	// ErrConversationNotFound возвращается, когда чат не найден.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrMessageNotFound возвращается, когда сообщение не найдено.
	ErrMessageNotFound = errors.New("message not found")
)

// MessageRepository отвечает за чаты заказов и сообщения в них.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository создаёт экземпляр репозитория.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// GetOrCreateConversation возвращает чат заказа, создавая его при первом
// обращении. У заказа всегда ровно один чат.
func (r *MessageRepository) GetOrCreateConversation(ctx context.Context, orderID, customerID, cleanerID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.GetContext(ctx, &conversation, `
		INSERT INTO conversations (order_id, customer_id, cleaner_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id) DO UPDATE SET order_id = EXCLUDED.order_id
		RETURNING *
	`, orderID, customerID, cleanerID)
	if err != nil {
		return nil, fmt.Errorf("message repository: get or create conversation %w", err)
	}
	return &conversation, nil
}

// GetConversation возвращает чат по идентификатору.
func (r *MessageRepository) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	return common.GetByID[models.Conversation](ctx, r.db, "conversations", id, ErrConversationNotFound)
}

// GetConversationByOrder возвращает чат заказа.
func (r *MessageRepository) GetConversationByOrder(ctx context.Context, orderID uuid.UUID) (*models.Conversation, error) {
	return common.GetByField[models.Conversation](ctx, r.db, "conversations", "order_id", orderID, ErrConversationNotFound)
}

// CreateMessage сохраняет сообщение.
func (r *MessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (conversation_id, type, sender, sender_id, content, image_url, duration, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		message.ConversationID, message.Type, message.Sender, message.SenderID,
		message.Content, message.ImageURL, message.Duration, message.Status,
	).Scan(&message.ID, &message.CreatedAt); err != nil {
		return fmt.Errorf("message repository: create message %w", err)
	}
	return nil
}

// ListMessages возвращает сообщения чата в хронологическом порядке.
func (r *MessageRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	query := `SELECT * FROM messages WHERE conversation_id = $1 ORDER BY created_at`
	args := []interface{}{conversationID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
		if offset > 0 {
			query += " OFFSET $3"
			args = append(args, offset)
		}
	}

	var messages []models.Message
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("message repository: list messages %w", err)
	}
	return messages, nil
}

// GetMessage возвращает сообщение по идентификатору.
func (r *MessageRepository) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	return common.GetByID[models.Message](ctx, r.db, "messages", id, ErrMessageNotFound)
}

// AdvanceStatus продвигает статус сообщения вперёд по цепочке
// sent -> delivered -> read. Движение назад игнорируется прямо в запросе,
// так что повторная доставка после прочтения ничего не ломает.
func (r *MessageRepository) AdvanceStatus(ctx context.Context, id uuid.UUID, status string) error {
	rank, ok := models.MessageStatusRank[status]
	if !ok {
		return fmt.Errorf("message repository: unknown status %q", status)
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE messages SET status = $2
		WHERE id = $1
		  AND CASE status
			WHEN 'sent' THEN 0
			WHEN 'delivered' THEN 1
			ELSE 2
		  END < $3
	`, id, status, rank)
	if err != nil {
		return fmt.Errorf("message repository: advance status %w", err)
	}
	return nil
}

// MarkConversationDelivered переводит в delivered входящие сообщения
// получателя, оставшиеся в статусе sent. Прочитанные не трогаются.
func (r *MessageRepository) MarkConversationDelivered(ctx context.Context, conversationID uuid.UUID, recipientID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages SET status = 'delivered'
		WHERE conversation_id = $1
		  AND (sender_id IS NULL OR sender_id <> $2)
		  AND status = 'sent'
	`, conversationID, recipientID)
	if err != nil {
		return fmt.Errorf("message repository: mark conversation delivered %w", err)
	}
	return nil
}

// MarkConversationRead помечает прочитанными все входящие сообщения чата
// для указанного получателя и возвращает идентификаторы затронутых
// сообщений для рассылки по websocket.
func (r *MessageRepository) MarkConversationRead(ctx context.Context, conversationID uuid.UUID, readerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `
		UPDATE messages SET status = 'read'
		WHERE conversation_id = $1
		  AND (sender_id IS NULL OR sender_id <> $2)
		  AND status <> 'read'
		RETURNING id
	`, conversationID, readerID)
	if err != nil {
		return nil, fmt.Errorf("message repository: mark conversation read %w", err)
	}
	return ids, nil
}

// CountUnread считает непрочитанные входящие сообщения пользователя
// по всем его чатам.
func (r *MessageRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE (c.customer_id = $1 OR c.cleaner_id = $1)
		  AND (m.sender_id IS NULL OR m.sender_id <> $1)
		  AND m.status <> 'read'
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("message repository: count unread %w", err)
	}
	return count, nil
}

// LastMessage возвращает последнее сообщение чата, nil если чат пуст.
func (r *MessageRepository) LastMessage(ctx context.Context, conversationID uuid.UUID) (*models.Message, error) {
	var message models.Message
	err := r.db.GetContext(ctx, &message, `
		SELECT * FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("message repository: last message %w", err)
	}
	return &message, nil
}
