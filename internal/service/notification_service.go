package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quickclean/quickclean-backend/internal/cache"
	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/repository"
)

// NotificationRepo описывает зависимости сервиса от хранилища уведомлений.
type NotificationRepo interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, userID uuid.UUID, filter repository.NotificationFilter) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationSettingsRepo отдаёт настройки уведомлений пользователя.
type NotificationSettingsRepo interface {
	GetNotificationSettings(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error)
}

// Pusher отправляет события по WebSocket.
type Pusher interface {
	PushToUser(userID uuid.UUID, event string, data any) error
	IsUserOnline(userID uuid.UUID) bool
}

// UnreadCache кэширует счётчик непрочитанных уведомлений.
type UnreadCache interface {
	GetUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error)
	SetUnreadNotifications(ctx context.Context, userID uuid.UUID, count int) error
	InvalidateUnreadNotifications(ctx context.Context, userID uuid.UUID) error
}

// NotificationService отвечает за ленту уведомлений: сохраняет их
// с учётом настроек пользователя и рассылает по WebSocket.
type NotificationService struct {
	repo     NotificationRepo
	settings NotificationSettingsRepo
	pusher   Pusher
	cache    UnreadCache
}

// NewNotificationService создаёт сервис уведомлений.
func NewNotificationService(repo NotificationRepo, settings NotificationSettingsRepo, pusher Pusher, unreadCache UnreadCache) *NotificationService {
	return &NotificationService{
		repo:     repo,
		settings: settings,
		pusher:   pusher,
		cache:    unreadCache,
	}
}

// NotifyInput описывает создаваемое уведомление.
type NotifyInput struct {
	Type        string
	Title       string
	Description string
	Priority    string
	ActionURL   string
	ActionText  string
}

// Notify создаёт уведомление и рассылает его по WebSocket. Настройки
// пользователя решают судьбу уведомления: off отбрасывает его,
// important пропускает только высокий приоритет.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, in NotifyInput) error {
	if _, ok := models.ValidNotificationTypes[in.Type]; !ok {
		return fmt.Errorf("notification service: некорректный тип уведомления %q", in.Type)
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}

	settings, err := s.settings.GetNotificationSettings(ctx, userID)
	if err != nil {
		return err
	}
	if !allowedBySettings(settings, in.Type, in.Priority) {
		return nil
	}

	notification := &models.Notification{
		UserID:      userID,
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
	}
	if in.ActionURL != "" {
		notification.ActionURL = &in.ActionURL
	}
	if in.ActionText != "" {
		notification.ActionText = &in.ActionText
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	if err := s.cache.InvalidateUnreadNotifications(ctx, userID); err != nil {
		logrus.WithError(err).Warn("notification service: не удалось сбросить кэш счётчика")
	}

	if s.pusher != nil {
		if err := s.pusher.PushToUser(userID, "notification.new", notification); err != nil {
			logrus.WithError(err).Warn("notification service: не удалось отправить событие")
		}
	}

	return nil
}

// List возвращает уведомления пользователя по одному ключу фильтра:
// all, unread, week, month или тип уведомления.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, key string, limit, offset int) ([]models.Notification, error) {
	switch key {
	case "", "all", "unread", "week", "month":
	default:
		if _, ok := models.ValidNotificationTypes[key]; !ok {
			return nil, fmt.Errorf("notification service: некорректный фильтр %q", key)
		}
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(ctx, userID, repository.NotificationFilter{Key: key, Limit: limit, Offset: offset})
}

// MarkRead помечает уведомление прочитанным.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return err
	}
	return s.cache.InvalidateUnreadNotifications(ctx, userID)
}

// MarkAllRead помечает прочитанными все уведомления пользователя.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	return s.cache.InvalidateUnreadNotifications(ctx, userID)
}

// Delete удаляет уведомление пользователя.
func (s *NotificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	return s.cache.InvalidateUnreadNotifications(ctx, userID)
}

// UnreadCount возвращает число непрочитанных уведомлений; счётчик
// читается из кэша и пересчитывается из базы на промахе.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.cache.GetUnreadNotifications(ctx, userID)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logrus.WithError(err).Warn("notification service: кэш счётчика недоступен")
	}

	count, err = s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.cache.SetUnreadNotifications(ctx, userID, count); err != nil {
		logrus.WithError(err).Warn("notification service: не удалось записать кэш счётчика")
	}
	return count, nil
}

func allowedBySettings(settings *models.NotificationSettings, notificationType, priority string) bool {
	var level string
	switch notificationType {
	case models.NotificationTypeOrder:
		level = settings.Orders
	case models.NotificationTypePayment:
		level = settings.Payments
	case models.NotificationTypeSystem:
		level = settings.System
	case models.NotificationTypePromotion:
		level = settings.Promotions
	default:
		level = models.NotificationLevelAll
	}

	switch level {
	case models.NotificationLevelOff:
		return false
	case models.NotificationLevelImportant:
		return priority == models.PriorityHigh
	default:
		return true
	}
}
