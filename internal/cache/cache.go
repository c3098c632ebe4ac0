package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrMiss возвращается, когда значения в кэше нет.
var ErrMiss = errors.New("cache miss")

const (
	unreadNotificationsTTL = 30 * time.Second
	unreadMessagesTTL      = 30 * time.Second
	metricsTTL             = 5 * time.Minute
)

// Cache хранит в Redis короткоживущие агрегаты: счётчики непрочитанного
// для шапки интерфейса и снимок метрик админки. Источник истины всегда
// Postgres, промах кэша не является ошибкой для вызывающего кода.
type Cache struct {
	client *redis.Client
}

// New создаёт обёртку над клиентом Redis.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// GetUnreadNotifications возвращает закэшированный счётчик уведомлений.
func (c *Cache) GetUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	return c.getInt(ctx, unreadNotificationsKey(userID))
}

// SetUnreadNotifications сохраняет счётчик уведомлений.
func (c *Cache) SetUnreadNotifications(ctx context.Context, userID uuid.UUID, count int) error {
	return c.client.Set(ctx, unreadNotificationsKey(userID), count, unreadNotificationsTTL).Err()
}

// InvalidateUnreadNotifications сбрасывает счётчик уведомлений.
func (c *Cache) InvalidateUnreadNotifications(ctx context.Context, userID uuid.UUID) error {
	return c.client.Del(ctx, unreadNotificationsKey(userID)).Err()
}

// GetUnreadMessages возвращает закэшированный счётчик сообщений.
func (c *Cache) GetUnreadMessages(ctx context.Context, userID uuid.UUID) (int, error) {
	return c.getInt(ctx, unreadMessagesKey(userID))
}

// SetUnreadMessages сохраняет счётчик сообщений.
func (c *Cache) SetUnreadMessages(ctx context.Context, userID uuid.UUID, count int) error {
	return c.client.Set(ctx, unreadMessagesKey(userID), count, unreadMessagesTTL).Err()
}

// InvalidateUnreadMessages сбрасывает счётчик сообщений.
func (c *Cache) InvalidateUnreadMessages(ctx context.Context, userID uuid.UUID) error {
	return c.client.Del(ctx, unreadMessagesKey(userID)).Err()
}

// GetJSON читает произвольное значение и десериализует его в dest.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("cache: get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return nil
}

// SetJSON сериализует значение и сохраняет его со снимочным TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, metricsTTL).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) getInt(ctx context.Context, key string) (int, error) {
	value, err := c.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, ErrMiss
	}
	if err != nil {
		return 0, fmt.Errorf("cache: get %s: %w", key, err)
	}
	return value, nil
}

func unreadNotificationsKey(userID uuid.UUID) string {
	return "unread:notifications:" + userID.String()
}

func unreadMessagesKey(userID uuid.UUID) string {
	return "unread:messages:" + userID.String()
}

// MetricsKey строит ключ снимка метрик админки за период.
func MetricsKey(period, serviceType string) string {
	if serviceType == "" {
		serviceType = "all"
	}
	return "admin:metrics:" + period + ":" + serviceType
}
