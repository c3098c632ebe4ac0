package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// User описывает сущность пользователя платформы.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Profile описывает профиль пользователя.
type Profile struct {
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	Address     *string   `db:"address" json:"address,omitempty"`
	AvatarURL   *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CleanerSettings хранит рабочие настройки клинера: онлайн-статус,
// рабочее окно и рабочие дни недели ("mon".."sun").
type CleanerSettings struct {
	UserID        uuid.UUID      `db:"user_id" json:"user_id"`
	IsOnline      bool           `db:"is_online" json:"is_online"`
	WorkStartHour int            `db:"work_start_hour" json:"work_start_hour"`
	WorkEndHour   int            `db:"work_end_hour" json:"work_end_hour"`
	WorkingDays   pq.StringArray `db:"working_days" json:"working_days"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// NotificationSettings хранит настройки уведомлений пользователя.
type NotificationSettings struct {
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	Email      bool      `db:"email_enabled" json:"email_enabled"`
	Push       bool      `db:"push_enabled" json:"push_enabled"`
	SMS        bool      `db:"sms_enabled" json:"sms_enabled"`
	Orders     string    `db:"orders_level" json:"orders_level"`
	Payments   string    `db:"payments_level" json:"payments_level"`
	System     string    `db:"system_level" json:"system_level"`
	Promotions string    `db:"promotions_level" json:"promotions_level"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Session представляет сохранённую сессию пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
