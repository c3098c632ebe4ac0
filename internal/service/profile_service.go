package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/validation"
)

// ProfileRepo описывает зависимости сервиса от хранилища профилей.
type ProfileRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpsertProfile(ctx context.Context, profile *models.Profile) error
	GetCleanerSettings(ctx context.Context, cleanerID uuid.UUID) (*models.CleanerSettings, error)
	UpsertCleanerSettings(ctx context.Context, settings *models.CleanerSettings) error
	GetNotificationSettings(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error)
	UpsertNotificationSettings(ctx context.Context, settings *models.NotificationSettings) error
}

// ProfileService отвечает за профиль и настройки пользователя.
type ProfileService struct {
	repo ProfileRepo
}

// NewProfileService создаёт сервис профилей.
func NewProfileService(repo ProfileRepo) *ProfileService {
	return &ProfileService{repo: repo}
}

// GetProfile возвращает профиль пользователя.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// UpdateProfileInput описывает изменяемые поля профиля.
type UpdateProfileInput struct {
	DisplayName string
	Phone       string
	Address     string
	AvatarURL   string
}

// UpdateProfile обновляет профиль пользователя.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*models.Profile, error) {
	if err := validation.ValidateDisplayName(in.DisplayName); err != nil {
		return nil, fmt.Errorf("profile service: %w", err)
	}
	if in.Phone != "" {
		if err := validation.ValidatePhone(in.Phone); err != nil {
			return nil, fmt.Errorf("profile service: %w", err)
		}
	}
	if in.Address != "" {
		if err := validation.ValidateAddress(in.Address); err != nil {
			return nil, fmt.Errorf("profile service: %w", err)
		}
	}

	profile := &models.Profile{
		UserID:      userID,
		DisplayName: in.DisplayName,
	}
	if in.Phone != "" {
		profile.Phone = &in.Phone
	}
	if in.Address != "" {
		profile.Address = &in.Address
	}
	if in.AvatarURL != "" {
		profile.AvatarURL = &in.AvatarURL
	}

	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetCleanerSettings возвращает рабочие настройки клинера.
func (s *ProfileService) GetCleanerSettings(ctx context.Context, cleanerID uuid.UUID) (*models.CleanerSettings, error) {
	return s.repo.GetCleanerSettings(ctx, cleanerID)
}

// UpdateCleanerSettingsInput описывает рабочие настройки клинера.
type UpdateCleanerSettingsInput struct {
	IsOnline      bool
	WorkStartHour int
	WorkEndHour   int
	WorkingDays   []string
}

var validWeekdays = map[string]struct{}{
	"mon": {}, "tue": {}, "wed": {}, "thu": {}, "fri": {}, "sat": {}, "sun": {},
}

// UpdateCleanerSettings сохраняет рабочее окно и рабочие дни клинера.
func (s *ProfileService) UpdateCleanerSettings(ctx context.Context, cleanerID uuid.UUID, in UpdateCleanerSettingsInput) (*models.CleanerSettings, error) {
	if in.WorkStartHour < models.ScheduleGridStartHour || in.WorkEndHour > models.ScheduleGridEndHour || in.WorkStartHour >= in.WorkEndHour {
		return nil, fmt.Errorf("profile service: некорректное рабочее окно")
	}
	for _, day := range in.WorkingDays {
		if _, ok := validWeekdays[day]; !ok {
			return nil, fmt.Errorf("profile service: некорректный день недели %q", day)
		}
	}

	settings := &models.CleanerSettings{
		UserID:        cleanerID,
		IsOnline:      in.IsOnline,
		WorkStartHour: in.WorkStartHour,
		WorkEndHour:   in.WorkEndHour,
		WorkingDays:   in.WorkingDays,
	}
	if err := s.repo.UpsertCleanerSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// GetNotificationSettings возвращает настройки уведомлений.
func (s *ProfileService) GetNotificationSettings(ctx context.Context, userID uuid.UUID) (*models.NotificationSettings, error) {
	return s.repo.GetNotificationSettings(ctx, userID)
}

// UpdateNotificationSettingsInput описывает настройки уведомлений.
type UpdateNotificationSettingsInput struct {
	Email      bool
	Push       bool
	SMS        bool
	Orders     string
	Payments   string
	System     string
	Promotions string
}

// UpdateNotificationSettings сохраняет настройки уведомлений: каналы
// и уровень по каждой категории (all, important, off).
func (s *ProfileService) UpdateNotificationSettings(ctx context.Context, userID uuid.UUID, in UpdateNotificationSettingsInput) (*models.NotificationSettings, error) {
	for name, level := range map[string]string{
		"orders":     in.Orders,
		"payments":   in.Payments,
		"system":     in.System,
		"promotions": in.Promotions,
	} {
		switch level {
		case models.NotificationLevelAll, models.NotificationLevelImportant, models.NotificationLevelOff:
		default:
			return nil, fmt.Errorf("profile service: некорректный уровень уведомлений %q для %s", level, name)
		}
	}

	settings := &models.NotificationSettings{
		UserID:     userID,
		Email:      in.Email,
		Push:       in.Push,
		SMS:        in.SMS,
		Orders:     in.Orders,
		Payments:   in.Payments,
		System:     in.System,
		Promotions: in.Promotions,
	}
	if err := s.repo.UpsertNotificationSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
