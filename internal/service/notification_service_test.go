package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/repository"
)

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	args := m.Called(ctx, notification)
	if args.Error(0) == nil {
		notification.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockNotificationRepo) List(ctx context.Context, userID uuid.UUID, filter repository.NotificationFilter) ([]models.Notification, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockNotificationRepo) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type mockNotificationSettingsRepo struct {
	mock.Mock
}

func (m *mockNotificationSettingsRepo) GetNotificationSettings(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationSettings), args.Error(1)
}

type mockUnreadCache struct {
	mock.Mock
}

func (m *mockUnreadCache) GetUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockUnreadCache) SetUnreadNotifications(ctx context.Context, userID uuid.UUID, count int) error {
	args := m.Called(ctx, userID, count)
	return args.Error(0)
}

func (m *mockUnreadCache) InvalidateUnreadNotifications(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func notificationSettings(orders, payments string) *models.NotificationSettings {
	return &models.NotificationSettings{
		Orders:     orders,
		Payments:   payments,
		System:     models.NotificationLevelAll,
		Promotions: models.NotificationLevelAll,
	}
}

func TestNotificationService_Notify_Persisted(t *testing.T) {
	repo := new(mockNotificationRepo)
	settings := new(mockNotificationSettingsRepo)
	pusher := new(mockPusher)
	unread := new(mockUnreadCache)
	svc := NewNotificationService(repo, settings, pusher, unread)
	ctx := context.Background()
	userID := uuid.New()

	settings.On("GetNotificationSettings", ctx, userID).
		Return(notificationSettings(models.NotificationLevelAll, models.NotificationLevelAll), nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Notification")).Return(nil)
	unread.On("InvalidateUnreadNotifications", ctx, userID).Return(nil)
	pusher.On("PushToUser", userID, "notification.new", mock.Anything).Return(nil)

	err := svc.Notify(ctx, userID, NotifyInput{
		Type:  models.NotificationTypeOrder,
		Title: "Новый заказ",
	})

	assert.NoError(t, err)
	repo.AssertCalled(t, "Create", ctx, mock.AnythingOfType("*models.Notification"))
	pusher.AssertCalled(t, "PushToUser", userID, "notification.new", mock.Anything)
}

func TestNotificationService_Notify_DroppedWhenOff(t *testing.T) {
	repo := new(mockNotificationRepo)
	settings := new(mockNotificationSettingsRepo)
	svc := NewNotificationService(repo, settings, nil, new(mockUnreadCache))
	ctx := context.Background()
	userID := uuid.New()

	settings.On("GetNotificationSettings", ctx, userID).
		Return(notificationSettings(models.NotificationLevelOff, models.NotificationLevelAll), nil)

	err := svc.Notify(ctx, userID, NotifyInput{
		Type:     models.NotificationTypeOrder,
		Title:    "Новый заказ",
		Priority: models.PriorityHigh,
	})

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestNotificationService_Notify_ImportantFiltersByPriority(t *testing.T) {
	repo := new(mockNotificationRepo)
	settings := new(mockNotificationSettingsRepo)
	unread := new(mockUnreadCache)
	svc := NewNotificationService(repo, settings, nil, unread)
	ctx := context.Background()
	userID := uuid.New()

	settings.On("GetNotificationSettings", ctx, userID).
		Return(notificationSettings(models.NotificationLevelAll, models.NotificationLevelImportant), nil)

	// Средний приоритет отбрасывается.
	err := svc.Notify(ctx, userID, NotifyInput{
		Type:     models.NotificationTypePayment,
		Title:    "Начисление",
		Priority: models.PriorityMedium,
	})
	assert.NoError(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	// Высокий проходит.
	repo.On("Create", ctx, mock.AnythingOfType("*models.Notification")).Return(nil)
	unread.On("InvalidateUnreadNotifications", ctx, userID).Return(nil)
	err = svc.Notify(ctx, userID, NotifyInput{
		Type:     models.NotificationTypePayment,
		Title:    "Выплата отклонена",
		Priority: models.PriorityHigh,
	})
	assert.NoError(t, err)
	repo.AssertCalled(t, "Create", ctx, mock.AnythingOfType("*models.Notification"))
}

func TestNotificationService_Notify_InvalidType(t *testing.T) {
	svc := NewNotificationService(new(mockNotificationRepo), new(mockNotificationSettingsRepo), nil, new(mockUnreadCache))

	err := svc.Notify(context.Background(), uuid.New(), NotifyInput{Type: "marketing", Title: "x"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "тип уведомления")
}

func TestNotificationService_List_FilterValidation(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, new(mockNotificationSettingsRepo), nil, new(mockUnreadCache))
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.List(ctx, userID, "yesterday", 50, 0)
	assert.Error(t, err)

	repo.On("List", ctx, userID, repository.NotificationFilter{Key: "unread", Limit: 50, Offset: 0}).
		Return([]models.Notification{}, nil)
	_, err = svc.List(ctx, userID, "unread", 0, -5)
	assert.NoError(t, err)
	repo.AssertCalled(t, "List", ctx, userID, repository.NotificationFilter{Key: "unread", Limit: 50, Offset: 0})
}

func TestNotificationService_MarkRead_InvalidatesCache(t *testing.T) {
	repo := new(mockNotificationRepo)
	unread := new(mockUnreadCache)
	svc := NewNotificationService(repo, new(mockNotificationSettingsRepo), nil, unread)
	ctx := context.Background()

	id := uuid.New()
	userID := uuid.New()
	repo.On("MarkRead", ctx, id, userID).Return(nil)
	unread.On("InvalidateUnreadNotifications", ctx, userID).Return(nil)

	err := svc.MarkRead(ctx, id, userID)

	assert.NoError(t, err)
	unread.AssertCalled(t, "InvalidateUnreadNotifications", ctx, userID)
}

func TestNotificationService_MarkRead_NotFound(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, new(mockNotificationSettingsRepo), nil, new(mockUnreadCache))
	ctx := context.Background()

	id := uuid.New()
	userID := uuid.New()
	repo.On("MarkRead", ctx, id, userID).Return(repository.ErrNotificationNotFound)

	err := svc.MarkRead(ctx, id, userID)

	assert.ErrorIs(t, err, repository.ErrNotificationNotFound)
}
