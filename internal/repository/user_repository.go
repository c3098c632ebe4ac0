package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/quickclean/quickclean-backend/internal/models"
)

// ErrUserNotFound возвращается, когда запись пользователя не найдена.
var ErrUserNotFound = errors.New("user not found")

// ErrSessionNotFound возвращается, когда сессия не найдена.
var ErrSessionNotFound = errors.New("session not found")

// UserRepository отвечает за работу с таблицами users, profiles,
// cleaner_settings, notification_settings и user_sessions.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, role, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		user.Email, user.PasswordHash, user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = $1`, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}

	return &user, nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}

	return &user, nil
}

// UpdateLastLoginAt обновляет отметку последнего входа.
func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("user repository: update last login %w", err)
	}
	return nil
}

// GetProfile возвращает профиль пользователя.
func (r *UserRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, `SELECT * FROM profiles WHERE user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get profile %w", err)
	}

	return &profile, nil
}

// UpsertProfile создаёт или обновляет профиль пользователя.
func (r *UserRepository) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (user_id, display_name, phone, address, avatar_url, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = NOW()
		RETURNING updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		profile.UserID, profile.DisplayName, profile.Phone, profile.Address, profile.AvatarURL,
	).Scan(&profile.UpdatedAt); err != nil {
		return fmt.Errorf("user repository: upsert profile %w", err)
	}

	return nil
}

// GetCleanerSettings возвращает рабочие настройки клинера. Если записи ещё
// нет, возвращает настройки по умолчанию.
func (r *UserRepository) GetCleanerSettings(ctx context.Context, cleanerID uuid.UUID) (*models.CleanerSettings, error) {
	var settings models.CleanerSettings
	err := r.db.GetContext(ctx, &settings, `SELECT * FROM cleaner_settings WHERE user_id = $1`, cleanerID)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.CleanerSettings{
			UserID:        cleanerID,
			IsOnline:      true,
			WorkStartHour: models.DefaultWorkStartHour,
			WorkEndHour:   models.DefaultWorkEndHour,
			WorkingDays:   []string{"mon", "tue", "wed", "thu", "fri"},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user repository: get cleaner settings %w", err)
	}
	return &settings, nil
}

// UpsertCleanerSettings сохраняет рабочие настройки клинера.
func (r *UserRepository) UpsertCleanerSettings(ctx context.Context, settings *models.CleanerSettings) error {
	query := `
		INSERT INTO cleaner_settings (user_id, is_online, work_start_hour, work_end_hour, working_days, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET is_online = EXCLUDED.is_online,
			work_start_hour = EXCLUDED.work_start_hour,
			work_end_hour = EXCLUDED.work_end_hour,
			working_days = EXCLUDED.working_days,
			updated_at = NOW()
		RETURNING updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		settings.UserID, settings.IsOnline, settings.WorkStartHour, settings.WorkEndHour, settings.WorkingDays,
	).Scan(&settings.UpdatedAt); err != nil {
		return fmt.Errorf("user repository: upsert cleaner settings %w", err)
	}

	return nil
}

// GetNotificationSettings возвращает настройки уведомлений пользователя
// или дефолтные настройки, если запись ещё не создана.
func (r *UserRepository) GetNotificationSettings(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error) {
	var settings models.NotificationSettings
	err := r.db.GetContext(ctx, &settings, `SELECT * FROM notification_settings WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.NotificationSettings{
			UserID:     userID,
			Email:      true,
			Push:       true,
			SMS:        false,
			Orders:     models.NotificationLevelAll,
			Payments:   models.NotificationLevelImportant,
			System:     models.NotificationLevelImportant,
			Promotions: models.NotificationLevelAll,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user repository: get notification settings %w", err)
	}
	return &settings, nil
}

// UpsertNotificationSettings сохраняет настройки уведомлений.
func (r *UserRepository) UpsertNotificationSettings(ctx context.Context, settings *models.NotificationSettings) error {
	query := `
		INSERT INTO notification_settings (user_id, email_enabled, push_enabled, sms_enabled, orders_level, payments_level, system_level, promotions_level, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET email_enabled = EXCLUDED.email_enabled,
			push_enabled = EXCLUDED.push_enabled,
			sms_enabled = EXCLUDED.sms_enabled,
			orders_level = EXCLUDED.orders_level,
			payments_level = EXCLUDED.payments_level,
			system_level = EXCLUDED.system_level,
			promotions_level = EXCLUDED.promotions_level,
			updated_at = NOW()
		RETURNING updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		settings.UserID, settings.Email, settings.Push, settings.SMS,
		settings.Orders, settings.Payments, settings.System, settings.Promotions,
	).Scan(&settings.UpdatedAt); err != nil {
		return fmt.Errorf("user repository: upsert notification settings %w", err)
	}

	return nil
}

// CreateSession сохраняет refresh-сессию.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO user_sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		session.UserID, session.RefreshToken, session.UserAgent, session.IPAddress, session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt); err != nil {
		return fmt.Errorf("user repository: create session %w", err)
	}

	return nil
}

// GetSessionByToken возвращает сессию по refresh токену.
func (r *UserRepository) GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	var session models.Session
	if err := r.db.GetContext(ctx, &session, `SELECT * FROM user_sessions WHERE refresh_token = $1`, refreshToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("user repository: get session %w", err)
	}
	return &session, nil
}

// ListSessions возвращает активные сессии пользователя.
func (r *UserRepository) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM user_sessions WHERE user_id = $1 AND expires_at > NOW() ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("user repository: list sessions %w", err)
	}
	return sessions, nil
}

// DeleteSession удаляет сессию по refresh токену.
func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE refresh_token = $1`, refreshToken)
	if err != nil {
		return fmt.Errorf("user repository: delete session %w", err)
	}
	return nil
}

// DeleteSessionByID удаляет сессию пользователя по идентификатору.
func (r *UserRepository) DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("user repository: delete session by id %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: delete session rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// CountActiveCleaners возвращает количество клинеров в онлайне.
func (r *UserRepository) CountActiveCleaners(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM users u
		JOIN cleaner_settings cs ON cs.user_id = u.id
		WHERE u.role = $1 AND u.is_active AND cs.is_online
	`, models.RoleCleaner)
	if err != nil {
		return 0, fmt.Errorf("user repository: count active cleaners %w", err)
	}
	return count, nil
}
