package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quickclean/quickclean-backend/internal/cache"
	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/pkg/apperror"
	"github.com/quickclean/quickclean-backend/internal/validation"
)

// ChatRepo описывает зависимости сервиса от хранилища чатов.
type ChatRepo interface {
	GetOrCreateConversation(ctx context.Context, orderID, customerID, cleanerID uuid.UUID) (*models.Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	GetConversationByOrder(ctx context.Context, orderID uuid.UUID) (*models.Conversation, error)
	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error)
	LastMessage(ctx context.Context, conversationID uuid.UUID) (*models.Message, error)
	AdvanceStatus(ctx context.Context, id uuid.UUID, status string) error
	MarkConversationDelivered(ctx context.Context, conversationID uuid.UUID, recipientID uuid.UUID) error
	MarkConversationRead(ctx context.Context, conversationID uuid.UUID, readerID uuid.UUID) ([]uuid.UUID, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// ChatOrderRepo отдаёт заказ для проверки доступа к чату.
type ChatOrderRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// MessagesCache кэширует счётчик непрочитанных сообщений.
type MessagesCache interface {
	GetUnreadMessages(ctx context.Context, userID uuid.UUID) (int, error)
	SetUnreadMessages(ctx context.Context, userID uuid.UUID, count int) error
	InvalidateUnreadMessages(ctx context.Context, userID uuid.UUID) error
}

// ChatService отвечает за чаты заказов.
type ChatService struct {
	repo   ChatRepo
	orders ChatOrderRepo
	pusher Pusher
	cache  MessagesCache
}

// NewChatService создаёт сервис чатов.
func NewChatService(repo ChatRepo, orders ChatOrderRepo, pusher Pusher, messagesCache MessagesCache) *ChatService {
	return &ChatService{
		repo:   repo,
		orders: orders,
		pusher: pusher,
		cache:  messagesCache,
	}
}

// GetOrderChat возвращает чат заказа, создавая его при первом обращении.
// Доступ есть у клиента заказа, назначенного клинера и админа.
func (s *ChatService) GetOrderChat(ctx context.Context, orderID, userID uuid.UUID, role string) (*models.Conversation, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkOrderAccess(order, userID, role); err != nil {
		return nil, err
	}
	if order.CleanerID == nil {
		// Пока клинер не назначен, чата нет.
		return nil, apperror.ErrConversationNotFound
	}

	conversation, err := s.repo.GetOrCreateConversation(ctx, order.ID, order.CustomerID, *order.CleanerID)
	if err != nil {
		return nil, err
	}

	last, err := s.repo.LastMessage(ctx, conversation.ID)
	if err != nil {
		logrus.WithError(err).Warn("chat service: не удалось получить последнее сообщение")
	} else {
		conversation.LastMessage = last
	}
	return conversation, nil
}

// ListMessages возвращает сообщения чата. Входящие сообщения в статусе
// sent при выдаче переводятся в delivered: получатель их увидел.
func (s *ChatService) ListMessages(ctx context.Context, conversationID, userID uuid.UUID, role string, limit, offset int) ([]models.Message, error) {
	conversation, err := s.authorize(ctx, conversationID, userID, role)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	if userID == conversation.CustomerID || userID == conversation.CleanerID {
		if err := s.repo.MarkConversationDelivered(ctx, conversationID, userID); err != nil {
			logrus.WithError(err).Warn("chat service: не удалось отметить доставку")
		}
	}

	return s.repo.ListMessages(ctx, conversationID, limit, offset)
}

// SendMessageInput описывает отправляемое сообщение.
type SendMessageInput struct {
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Role           string
	Type           string // text | image | voice
	Content        string
	ImageURL       string
	Duration       int // секунды, для голосовых
}

// SendMessage сохраняет сообщение и рассылает его участникам.
// Если получатель подключён по WebSocket, сообщение сразу получает
// статус delivered, иначе остаётся sent.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	conversation, err := s.authorize(ctx, in.ConversationID, in.SenderID, in.Role)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ConversationID: conversation.ID,
		Type:           in.Type,
		SenderID:       &in.SenderID,
	}

	switch in.SenderID {
	case conversation.CustomerID:
		message.Sender = models.SenderCustomer
	case conversation.CleanerID:
		message.Sender = models.SenderCleaner
	default:
		return nil, apperror.ErrForbidden
	}

	switch in.Type {
	case models.MessageTypeText:
		if err := validation.ValidateMessageContent(in.Content); err != nil {
			return nil, fmt.Errorf("chat service: %w", err)
		}
		message.Content = in.Content
	case models.MessageTypeImage:
		if in.ImageURL == "" {
			return nil, fmt.Errorf("chat service: изображение не приложено")
		}
		message.ImageURL = &in.ImageURL
		message.Content = in.Content
	case models.MessageTypeVoice:
		if in.Duration <= 0 || in.Duration > validation.MaxVoiceDurationSec {
			return nil, fmt.Errorf("chat service: некорректная длительность голосового сообщения")
		}
		if in.ImageURL == "" {
			return nil, fmt.Errorf("chat service: аудиофайл не приложен")
		}
		message.ImageURL = &in.ImageURL
		message.Duration = &in.Duration
	default:
		return nil, fmt.Errorf("chat service: некорректный тип сообщения %q", in.Type)
	}

	recipient := conversation.CustomerID
	if in.SenderID == conversation.CustomerID {
		recipient = conversation.CleanerID
	}

	message.Status = models.MessageStatusSent
	if s.pusher != nil && s.pusher.IsUserOnline(recipient) {
		message.Status = models.MessageStatusDelivered
	}

	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateUnreadMessages(ctx, recipient); err != nil {
		logrus.WithError(err).Warn("chat service: не удалось сбросить кэш счётчика")
	}

	s.push(recipient, "message.new", message)
	s.push(in.SenderID, "message.new", message)

	return message, nil
}

// SendSystemMessage добавляет в чат заказа системное сообщение.
// Чата может ещё не быть, тогда сообщение молча пропускается.
func (s *ChatService) SendSystemMessage(ctx context.Context, orderID uuid.UUID, content string) error {
	conversation, err := s.repo.GetConversationByOrder(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}

	// Системные сообщения не участвуют в счётчике непрочитанных.
	message := &models.Message{
		ConversationID: conversation.ID,
		Type:           models.MessageTypeSystem,
		Sender:         models.SenderSystem,
		Content:        content,
		Status:         models.MessageStatusRead,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return err
	}

	s.push(conversation.CustomerID, "message.new", message)
	s.push(conversation.CleanerID, "message.new", message)
	return nil
}

// MarkRead помечает прочитанными все входящие сообщения чата и сообщает
// об этом второму участнику.
func (s *ChatService) MarkRead(ctx context.Context, conversationID, userID uuid.UUID, role string) error {
	conversation, err := s.authorize(ctx, conversationID, userID, role)
	if err != nil {
		return err
	}

	ids, err := s.repo.MarkConversationRead(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.cache.InvalidateUnreadMessages(ctx, userID); err != nil {
		logrus.WithError(err).Warn("chat service: не удалось сбросить кэш счётчика")
	}

	peer := conversation.CustomerID
	if userID == conversation.CustomerID {
		peer = conversation.CleanerID
	}
	s.push(peer, "message.read", map[string]any{
		"conversation_id": conversationID,
		"message_ids":     ids,
	})
	return nil
}

// ConfirmDelivery подтверждает доставку одного сообщения, когда клиент
// получил его по WebSocket. Статус двигается только вперёд, так что
// подтверждение уже прочитанного сообщения ничего не меняет.
func (s *ChatService) ConfirmDelivery(ctx context.Context, messageID, userID uuid.UUID, role string) error {
	message, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	conversation, err := s.authorize(ctx, message.ConversationID, userID, role)
	if err != nil {
		return err
	}
	if message.SenderID != nil && *message.SenderID == userID {
		return apperror.ErrForbidden
	}

	if err := s.repo.AdvanceStatus(ctx, messageID, models.MessageStatusDelivered); err != nil {
		return err
	}

	peer := conversation.CustomerID
	if userID == conversation.CustomerID {
		peer = conversation.CleanerID
	}
	s.push(peer, "message.delivered", map[string]any{
		"conversation_id": conversation.ID,
		"message_id":      messageID,
	})
	return nil
}

// NotifyTyping сообщает второму участнику чата, что пользователь печатает.
func (s *ChatService) NotifyTyping(ctx context.Context, conversationID, userID uuid.UUID, role string) error {
	conversation, err := s.authorize(ctx, conversationID, userID, role)
	if err != nil {
		return err
	}

	peer := conversation.CustomerID
	if userID == conversation.CustomerID {
		peer = conversation.CleanerID
	}
	s.push(peer, "typing", map[string]any{
		"conversation_id": conversationID,
		"user_id":         userID,
	})
	return nil
}

// UnreadCount возвращает число непрочитанных сообщений пользователя.
func (s *ChatService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.cache.GetUnreadMessages(ctx, userID)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logrus.WithError(err).Warn("chat service: кэш счётчика недоступен")
	}

	count, err = s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.cache.SetUnreadMessages(ctx, userID, count); err != nil {
		logrus.WithError(err).Warn("chat service: не удалось записать кэш счётчика")
	}
	return count, nil
}

func (s *ChatService) authorize(ctx context.Context, conversationID, userID uuid.UUID, role string) (*models.Conversation, error) {
	conversation, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && userID != conversation.CustomerID && userID != conversation.CleanerID {
		return nil, apperror.ErrForbidden
	}
	return conversation, nil
}

func (s *ChatService) push(userID uuid.UUID, event string, data any) {
	if s.pusher == nil {
		return
	}
	if err := s.pusher.PushToUser(userID, event, data); err != nil {
		logrus.WithError(err).WithField("event", event).Warn("chat service: не удалось отправить событие")
	}
}
