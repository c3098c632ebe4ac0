package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/quickclean/quickclean-backend/internal/cache"
	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/pkg/apperror"
)

type mockChatRepo struct {
	mock.Mock
}

func (m *mockChatRepo) GetOrCreateConversation(ctx context.Context, orderID, customerID, cleanerID uuid.UUID) (*models.Conversation, error) {
	args := m.Called(ctx, orderID, customerID, cleanerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockChatRepo) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockChatRepo) GetConversationByOrder(ctx context.Context, orderID uuid.UUID) (*models.Conversation, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockChatRepo) CreateMessage(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	if args.Error(0) == nil {
		message.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockChatRepo) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *mockChatRepo) LastMessage(ctx context.Context, conversationID uuid.UUID) (*models.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *mockChatRepo) AdvanceStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockChatRepo) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, limit, offset)
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *mockChatRepo) MarkConversationDelivered(ctx context.Context, conversationID uuid.UUID, recipientID uuid.UUID) error {
	args := m.Called(ctx, conversationID, recipientID)
	return args.Error(0)
}

func (m *mockChatRepo) MarkConversationRead(ctx context.Context, conversationID uuid.UUID, readerID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, conversationID, readerID)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *mockChatRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type mockPusher struct {
	mock.Mock
}

func (m *mockPusher) PushToUser(userID uuid.UUID, event string, data any) error {
	args := m.Called(userID, event, data)
	return args.Error(0)
}

func (m *mockPusher) IsUserOnline(userID uuid.UUID) bool {
	args := m.Called(userID)
	return args.Bool(0)
}

type mockMessagesCache struct {
	mock.Mock
}

func (m *mockMessagesCache) GetUnreadMessages(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockMessagesCache) SetUnreadMessages(ctx context.Context, userID uuid.UUID, count int) error {
	args := m.Called(ctx, userID, count)
	return args.Error(0)
}

func (m *mockMessagesCache) InvalidateUnreadMessages(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func chatFixture() (*models.Conversation, uuid.UUID, uuid.UUID) {
	customerID := uuid.New()
	cleanerID := uuid.New()
	return &models.Conversation{
		ID:         uuid.New(),
		OrderID:    uuid.New(),
		CustomerID: customerID,
		CleanerID:  cleanerID,
	}, customerID, cleanerID
}

func TestChatService_GetOrderChat_NoCleanerYet(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := NewChatService(new(mockChatRepo), orders, nil, new(mockMessagesCache))
	ctx := context.Background()

	orderID := uuid.New()
	customerID := uuid.New()
	orders.On("GetByID", ctx, orderID).Return(&models.Order{
		ID:         orderID,
		CustomerID: customerID,
		Status:     models.OrderStatusScheduled,
	}, nil)

	_, err := svc.GetOrderChat(ctx, orderID, customerID, models.RoleCustomer)

	assert.ErrorIs(t, err, apperror.ErrConversationNotFound)
}

func TestChatService_SendMessage_DeliveredWhenRecipientOnline(t *testing.T) {
	repo := new(mockChatRepo)
	pusher := new(mockPusher)
	msgCache := new(mockMessagesCache)
	svc := NewChatService(repo, new(mockOrderRepo), pusher, msgCache)
	ctx := context.Background()

	conversation, customerID, cleanerID := chatFixture()
	repo.On("GetConversation", ctx, conversation.ID).Return(conversation, nil)
	pusher.On("IsUserOnline", cleanerID).Return(true)
	repo.On("CreateMessage", ctx, mock.AnythingOfType("*models.Message")).Return(nil)
	msgCache.On("InvalidateUnreadMessages", ctx, cleanerID).Return(nil)
	pusher.On("PushToUser", mock.AnythingOfType("uuid.UUID"), "message.new", mock.Anything).Return(nil)

	message, err := svc.SendMessage(ctx, SendMessageInput{
		ConversationID: conversation.ID,
		SenderID:       customerID,
		Role:           models.RoleCustomer,
		Type:           models.MessageTypeText,
		Content:        "Добрый день, код от домофона 1234",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.MessageStatusDelivered, message.Status)
	assert.Equal(t, models.SenderCustomer, message.Sender)
}

func TestChatService_SendMessage_SentWhenRecipientOffline(t *testing.T) {
	repo := new(mockChatRepo)
	pusher := new(mockPusher)
	msgCache := new(mockMessagesCache)
	svc := NewChatService(repo, new(mockOrderRepo), pusher, msgCache)
	ctx := context.Background()

	conversation, customerID, cleanerID := chatFixture()
	repo.On("GetConversation", ctx, conversation.ID).Return(conversation, nil)
	pusher.On("IsUserOnline", customerID).Return(false)
	repo.On("CreateMessage", ctx, mock.AnythingOfType("*models.Message")).Return(nil)
	msgCache.On("InvalidateUnreadMessages", ctx, customerID).Return(nil)
	pusher.On("PushToUser", mock.AnythingOfType("uuid.UUID"), "message.new", mock.Anything).Return(nil)

	message, err := svc.SendMessage(ctx, SendMessageInput{
		ConversationID: conversation.ID,
		SenderID:       cleanerID,
		Role:           models.RoleCleaner,
		Type:           models.MessageTypeText,
		Content:        "Уже в пути",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.MessageStatusSent, message.Status)
	assert.Equal(t, models.SenderCleaner, message.Sender)
}

func TestChatService_SendMessage_Validation(t *testing.T) {
	repo := new(mockChatRepo)
	svc := NewChatService(repo, new(mockOrderRepo), nil, new(mockMessagesCache))
	ctx := context.Background()

	conversation, customerID, _ := chatFixture()
	repo.On("GetConversation", ctx, conversation.ID).Return(conversation, nil)

	_, err := svc.SendMessage(ctx, SendMessageInput{
		ConversationID: conversation.ID,
		SenderID:       customerID,
		Role:           models.RoleCustomer,
		Type:           models.MessageTypeText,
		Content:        "   ",
	})
	assert.Error(t, err)

	_, err = svc.SendMessage(ctx, SendMessageInput{
		ConversationID: conversation.ID,
		SenderID:       customerID,
		Role:           models.RoleCustomer,
		Type:           models.MessageTypeVoice,
		ImageURL:       "/media/voice/a.ogg",
		Duration:       0,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "длительность")
}

func TestChatService_SendMessage_Outsider(t *testing.T) {
	repo := new(mockChatRepo)
	svc := NewChatService(repo, new(mockOrderRepo), nil, new(mockMessagesCache))
	ctx := context.Background()

	conversation, _, _ := chatFixture()
	repo.On("GetConversation", ctx, conversation.ID).Return(conversation, nil)

	_, err := svc.SendMessage(ctx, SendMessageInput{
		ConversationID: conversation.ID,
		SenderID:       uuid.New(),
		Role:           models.RoleCustomer,
		Type:           models.MessageTypeText,
		Content:        "привет",
	})

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestChatService_MarkRead_NotifiesPeer(t *testing.T) {
	repo := new(mockChatRepo)
	pusher := new(mockPusher)
	msgCache := new(mockMessagesCache)
	svc := NewChatService(repo, new(mockOrderRepo), pusher, msgCache)
	ctx := context.Background()

	conversation, customerID, cleanerID := chatFixture()
	readIDs := []uuid.UUID{uuid.New(), uuid.New()}
	repo.On("GetConversation", ctx, conversation.ID).Return(conversation, nil)
	repo.On("MarkConversationRead", ctx, conversation.ID, customerID).Return(readIDs, nil)
	msgCache.On("InvalidateUnreadMessages", ctx, customerID).Return(nil)
	pusher.On("PushToUser", cleanerID, "message.read", mock.Anything).Return(nil)

	err := svc.MarkRead(ctx, conversation.ID, customerID, models.RoleCustomer)

	assert.NoError(t, err)
	pusher.AssertCalled(t, "PushToUser", cleanerID, "message.read", mock.Anything)
}

func TestChatService_MarkRead_NothingToRead(t *testing.T) {
	repo := new(mockChatRepo)
	pusher := new(mockPusher)
	svc := NewChatService(repo, new(mockOrderRepo), pusher, new(mockMessagesCache))
	ctx := context.Background()

	conversation, customerID, _ := chatFixture()
	repo.On("GetConversation", ctx, conversation.ID).Return(conversation, nil)
	repo.On("MarkConversationRead", ctx, conversation.ID, customerID).Return([]uuid.UUID{}, nil)

	err := svc.MarkRead(ctx, conversation.ID, customerID, models.RoleCustomer)

	assert.NoError(t, err)
	pusher.AssertNotCalled(t, "PushToUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatService_SendSystemMessage_NoConversation(t *testing.T) {
	repo := new(mockChatRepo)
	svc := NewChatService(repo, new(mockOrderRepo), nil, new(mockMessagesCache))
	ctx := context.Background()

	orderID := uuid.New()
	repo.On("GetConversationByOrder", ctx, orderID).Return(nil, apperror.ErrConversationNotFound)

	err := svc.SendSystemMessage(ctx, orderID, "Заказ отменён")

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestChatService_SendSystemMessage_CreatedAsRead(t *testing.T) {
	repo := new(mockChatRepo)
	pusher := new(mockPusher)
	svc := NewChatService(repo, new(mockOrderRepo), pusher, new(mockMessagesCache))
	ctx := context.Background()

	conversation, _, _ := chatFixture()
	orderID := uuid.New()
	repo.On("GetConversationByOrder", ctx, orderID).Return(conversation, nil)

	var saved *models.Message
	repo.On("CreateMessage", ctx, mock.AnythingOfType("*models.Message")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.Message)
		}).Return(nil)
	pusher.On("PushToUser", mock.AnythingOfType("uuid.UUID"), "message.new", mock.Anything).Return(nil)

	err := svc.SendSystemMessage(ctx, orderID, "Клинер приступил к уборке")

	assert.NoError(t, err)
	assert.Equal(t, models.MessageStatusRead, saved.Status)
	assert.Equal(t, models.SenderSystem, saved.Sender)
}

func TestChatService_UnreadCount_CacheAside(t *testing.T) {
	repo := new(mockChatRepo)
	msgCache := new(mockMessagesCache)
	svc := NewChatService(repo, new(mockOrderRepo), nil, msgCache)
	ctx := context.Background()
	userID := uuid.New()

	msgCache.On("GetUnreadMessages", ctx, userID).Return(0, cache.ErrMiss)
	repo.On("CountUnread", ctx, userID).Return(3, nil)
	msgCache.On("SetUnreadMessages", ctx, userID, 3).Return(nil)

	count, err := svc.UnreadCount(ctx, userID)

	assert.NoError(t, err)
	assert.Equal(t, 3, count)
	msgCache.AssertCalled(t, "SetUnreadMessages", ctx, userID, 3)
}

func TestChatService_ListMessages_MarksDelivered(t *testing.T) {
	repo := new(mockChatRepo)
	svc := NewChatService(repo, new(mockOrderRepo), nil, new(mockMessagesCache))
	ctx := context.Background()
	conversation, customerID, _ := chatFixture()

	repo.On("GetConversation", ctx, conversation.ID).Return(conversation, nil)
	repo.On("MarkConversationDelivered", ctx, conversation.ID, customerID).Return(nil)
	repo.On("ListMessages", ctx, conversation.ID, 100, 0).Return([]models.Message{}, nil)

	_, err := svc.ListMessages(ctx, conversation.ID, customerID, models.RoleCustomer, 0, 0)

	assert.NoError(t, err)
	repo.AssertCalled(t, "MarkConversationDelivered", ctx, conversation.ID, customerID)
}

func TestChatService_NotifyTyping_PushesToPeer(t *testing.T) {
	repo := new(mockChatRepo)
	pusher := new(mockPusher)
	svc := NewChatService(repo, new(mockOrderRepo), pusher, new(mockMessagesCache))
	ctx := context.Background()
	conversation, customerID, cleanerID := chatFixture()

	repo.On("GetConversation", ctx, conversation.ID).Return(conversation, nil)
	pusher.On("PushToUser", cleanerID, "typing", mock.Anything).Return(nil)

	err := svc.NotifyTyping(ctx, conversation.ID, customerID, models.RoleCustomer)

	assert.NoError(t, err)
	pusher.AssertCalled(t, "PushToUser", cleanerID, "typing", mock.Anything)
}

func TestChatService_ConfirmDelivery_AdvancesAndPushes(t *testing.T) {
	repo := new(mockChatRepo)
	pusher := new(mockPusher)
	svc := NewChatService(repo, new(mockOrderRepo), pusher, new(mockMessagesCache))
	ctx := context.Background()
	conversation, customerID, cleanerID := chatFixture()

	messageID := uuid.New()
	repo.On("GetMessage", ctx, messageID).Return(&models.Message{
		ID:             messageID,
		ConversationID: conversation.ID,
		Sender:         models.SenderCustomer,
		SenderID:       &customerID,
		Status:         models.MessageStatusSent,
	}, nil)
	repo.On("GetConversation", ctx, conversation.ID).Return(conversation, nil)
	repo.On("AdvanceStatus", ctx, messageID, models.MessageStatusDelivered).Return(nil)
	pusher.On("PushToUser", customerID, "message.delivered", mock.Anything).Return(nil)

	err := svc.ConfirmDelivery(ctx, messageID, cleanerID, models.RoleCleaner)

	assert.NoError(t, err)
	repo.AssertCalled(t, "AdvanceStatus", ctx, messageID, models.MessageStatusDelivered)
	pusher.AssertCalled(t, "PushToUser", customerID, "message.delivered", mock.Anything)
}

func TestChatService_ConfirmDelivery_OwnMessage(t *testing.T) {
	repo := new(mockChatRepo)
	svc := NewChatService(repo, new(mockOrderRepo), nil, new(mockMessagesCache))
	ctx := context.Background()
	conversation, customerID, _ := chatFixture()

	messageID := uuid.New()
	repo.On("GetMessage", ctx, messageID).Return(&models.Message{
		ID:             messageID,
		ConversationID: conversation.ID,
		Sender:         models.SenderCustomer,
		SenderID:       &customerID,
		Status:         models.MessageStatusSent,
	}, nil)
	repo.On("GetConversation", ctx, conversation.ID).Return(conversation, nil)

	err := svc.ConfirmDelivery(ctx, messageID, customerID, models.RoleCustomer)

	assert.ErrorIs(t, err, apperror.ErrForbidden)
	repo.AssertNotCalled(t, "AdvanceStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatService_GetOrderChat_WithLastMessage(t *testing.T) {
	repo := new(mockChatRepo)
	orders := new(mockOrderRepo)
	svc := NewChatService(repo, orders, nil, new(mockMessagesCache))
	ctx := context.Background()
	conversation, customerID, cleanerID := chatFixture()

	orders.On("GetByID", ctx, conversation.OrderID).Return(&models.Order{
		ID:         conversation.OrderID,
		CustomerID: customerID,
		CleanerID:  &cleanerID,
		Status:     models.OrderStatusScheduled,
	}, nil)
	repo.On("GetOrCreateConversation", ctx, conversation.OrderID, customerID, cleanerID).
		Return(conversation, nil)
	repo.On("LastMessage", ctx, conversation.ID).Return(&models.Message{
		ConversationID: conversation.ID,
		Content:        "Уже в пути",
	}, nil)

	got, err := svc.GetOrderChat(ctx, conversation.OrderID, customerID, models.RoleCustomer)

	assert.NoError(t, err)
	assert.NotNil(t, got.LastMessage)
	assert.Equal(t, "Уже в пути", got.LastMessage.Content)
}
