package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/pkg/apperror"
	"github.com/quickclean/quickclean-backend/internal/repository"
	"github.com/quickclean/quickclean-backend/internal/validation"
)

// ScheduleRepo описывает зависимости сервиса от хранилища расписания.
type ScheduleRepo interface {
	ListSlots(ctx context.Context, cleanerID uuid.UUID, from, to time.Time) ([]models.TimeSlot, error)
	SetSlotStatus(ctx context.Context, cleanerID uuid.UUID, date time.Time, hour int, status string) error
	SetDayStatus(ctx context.Context, cleanerID uuid.UUID, date time.Time, startHour, endHour int, status string) error
	CreateVacation(ctx context.Context, vacation *models.Vacation) error
	ListVacations(ctx context.Context, cleanerID uuid.UUID) ([]models.Vacation, error)
	GetVacation(ctx context.Context, id uuid.UUID) (*models.Vacation, error)
	UpdateVacationStatus(ctx context.Context, id uuid.UUID, status string) error
	ListApprovedVacations(ctx context.Context, cleanerID uuid.UUID, from, to time.Time) ([]models.Vacation, error)
	ClearRange(ctx context.Context, cleanerID uuid.UUID, from, to time.Time) error
	BookSlots(ctx context.Context, cleanerID uuid.UUID, orderID uuid.UUID, date time.Time, startHour, endHour int) error
	ReleaseByOrder(ctx context.Context, orderID uuid.UUID) error
}

// CleanerSettingsRepo отдаёт рабочие настройки клинера.
type CleanerSettingsRepo interface {
	GetCleanerSettings(ctx context.Context, cleanerID uuid.UUID) (*models.CleanerSettings, error)
}

// ScheduleService строит недельную сетку расписания клинера.
// В хранилище лежат только отклонения (брони и ручные переопределения),
// остальные слоты вычисляются из рабочего окна и отпусков.
type ScheduleService struct {
	repo     ScheduleRepo
	settings CleanerSettingsRepo
	notifier OrderNotifier
}

// NewScheduleService создаёт сервис расписания.
func NewScheduleService(repo ScheduleRepo, settings CleanerSettingsRepo, notifier OrderNotifier) *ScheduleService {
	return &ScheduleService{
		repo:     repo,
		settings: settings,
		notifier: notifier,
	}
}

var weekdayKeys = map[time.Weekday]string{
	time.Monday:    "mon",
	time.Tuesday:   "tue",
	time.Wednesday: "wed",
	time.Thursday:  "thu",
	time.Friday:    "fri",
	time.Saturday:  "sat",
	time.Sunday:    "sun",
}

// WeekSchedule возвращает сетку на 7 дней начиная с startDate.
// Каждый день содержит слоты с 06:00 до 24:00; часы вне рабочего окна
// и дни отпуска помечены unavailable.
func (s *ScheduleService) WeekSchedule(ctx context.Context, cleanerID uuid.UUID, startDate time.Time) ([]models.DaySchedule, error) {
	start := truncateToDay(startDate)
	end := start.AddDate(0, 0, 6)

	settings, err := s.settings.GetCleanerSettings(ctx, cleanerID)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.ListSlots(ctx, cleanerID, start, end)
	if err != nil {
		return nil, err
	}

	overrides := make(map[string]models.TimeSlot, len(stored))
	for _, slot := range stored {
		overrides[slotKey(slot.Date, slot.Hour)] = slot
	}

	vacations, err := s.repo.ListApprovedVacations(ctx, cleanerID, start, end)
	if err != nil {
		return nil, err
	}

	workingDays := make(map[string]struct{}, len(settings.WorkingDays))
	for _, day := range settings.WorkingDays {
		workingDays[strings.ToLower(day)] = struct{}{}
	}

	today := truncateToDay(time.Now())
	week := make([]models.DaySchedule, 0, 7)
	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i)
		_, isWorkingDay := workingDays[weekdayKeys[date.Weekday()]]
		onVacation := dateInVacations(date, vacations)

		day := models.DaySchedule{
			Date:    date,
			IsToday: date.Equal(today),
			Slots:   make([]models.TimeSlot, 0, models.ScheduleGridEndHour-models.ScheduleGridStartHour),
		}

		for hour := models.ScheduleGridStartHour; hour < models.ScheduleGridEndHour; hour++ {
			if stored, ok := overrides[slotKey(date, hour)]; ok {
				day.Slots = append(day.Slots, stored)
				continue
			}

			status := models.SlotStatusAvailable
			if !isWorkingDay || onVacation ||
				hour < settings.WorkStartHour || hour >= settings.WorkEndHour {
				status = models.SlotStatusUnavailable
			}
			day.Slots = append(day.Slots, models.TimeSlot{
				CleanerID: cleanerID,
				Date:      date,
				Hour:      hour,
				Status:    status,
			})
		}

		week = append(week, day)
	}

	return week, nil
}

// SetSlot переключает один слот вручную: available возвращает дефолт,
// unavailable закрывает час. Слоты с заказами руками не переключаются.
func (s *ScheduleService) SetSlot(ctx context.Context, cleanerID uuid.UUID, date time.Time, hour int, status string) error {
	if status != models.SlotStatusAvailable && status != models.SlotStatusUnavailable {
		return fmt.Errorf("schedule service: некорректный статус слота %q", status)
	}
	if hour < models.ScheduleGridStartHour || hour >= models.ScheduleGridEndHour {
		return fmt.Errorf("schedule service: час вне сетки расписания")
	}

	if err := s.repo.SetSlotStatus(ctx, cleanerID, truncateToDay(date), hour, status); err != nil {
		if errors.Is(err, repository.ErrSlotConflict) {
			return apperror.ErrSlotTaken
		}
		return err
	}
	return nil
}

// SetDay закрывает или открывает весь день в пределах рабочего окна.
// Быстрое действие из сетки расписания.
func (s *ScheduleService) SetDay(ctx context.Context, cleanerID uuid.UUID, date time.Time, status string) error {
	if status != models.SlotStatusAvailable && status != models.SlotStatusUnavailable {
		return fmt.Errorf("schedule service: некорректный статус слота %q", status)
	}

	settings, err := s.settings.GetCleanerSettings(ctx, cleanerID)
	if err != nil {
		return err
	}

	return s.repo.SetDayStatus(ctx, cleanerID, truncateToDay(date), settings.WorkStartHour, settings.WorkEndHour, status)
}

// ClearWeek сбрасывает ручные переопределения недели, сетка возвращается
// к рабочему окну. Забронированные слоты не затрагиваются.
func (s *ScheduleService) ClearWeek(ctx context.Context, cleanerID uuid.UUID, startDate time.Time) error {
	start := truncateToDay(startDate)
	return s.repo.ClearRange(ctx, cleanerID, start, start.AddDate(0, 0, 6))
}

// BookSlots бронирует часы под заказ. Перед записью в хранилище
// проверяется, что день рабочий, часы попадают в рабочее окно клинера
// и не выпадают на одобренный отпуск: такие слоты не материализованы
// в базе, и один уникальный индекс их не защитит.
func (s *ScheduleService) BookSlots(ctx context.Context, cleanerID uuid.UUID, orderID uuid.UUID, date time.Time, startHour, endHour int) error {
	day := truncateToDay(date)

	settings, err := s.settings.GetCleanerSettings(ctx, cleanerID)
	if err != nil {
		return err
	}
	if startHour < settings.WorkStartHour || endHour > settings.WorkEndHour {
		return repository.ErrSlotConflict
	}
	working := false
	for _, key := range settings.WorkingDays {
		if strings.ToLower(key) == weekdayKeys[day.Weekday()] {
			working = true
			break
		}
	}
	if !working {
		return repository.ErrSlotConflict
	}

	vacations, err := s.repo.ListApprovedVacations(ctx, cleanerID, day, day)
	if err != nil {
		return err
	}
	if dateInVacations(day, vacations) {
		return repository.ErrSlotConflict
	}

	return s.repo.BookSlots(ctx, cleanerID, orderID, day, startHour, endHour)
}

// ReleaseByOrder освобождает все слоты отменённого заказа.
func (s *ScheduleService) ReleaseByOrder(ctx context.Context, orderID uuid.UUID) error {
	return s.repo.ReleaseByOrder(ctx, orderID)
}

// RequestVacation создаёт заявку на отпуск в статусе pending.
// Расписание она начнёт менять только после одобрения.
func (s *ScheduleService) RequestVacation(ctx context.Context, cleanerID uuid.UUID, startDate, endDate time.Time, reason string) (*models.Vacation, error) {
	start := truncateToDay(startDate)
	end := truncateToDay(endDate)
	if end.Before(start) {
		return nil, fmt.Errorf("schedule service: дата окончания раньше даты начала")
	}
	if start.Before(truncateToDay(time.Now())) {
		return nil, fmt.Errorf("schedule service: отпуск не может начинаться в прошлом")
	}
	if len(reason) > validation.MaxVacationReason {
		return nil, fmt.Errorf("schedule service: причина слишком длинная")
	}

	vacation := &models.Vacation{
		CleanerID: cleanerID,
		StartDate: start,
		EndDate:   end,
		Reason:    reason,
		Status:    models.VacationStatusPending,
	}
	if err := s.repo.CreateVacation(ctx, vacation); err != nil {
		return nil, err
	}
	return vacation, nil
}

// ListVacations возвращает заявки клинера.
func (s *ScheduleService) ListVacations(ctx context.Context, cleanerID uuid.UUID) ([]models.Vacation, error) {
	return s.repo.ListVacations(ctx, cleanerID)
}

// ResolveVacation одобряет или отклоняет заявку. Вызывается админом.
func (s *ScheduleService) ResolveVacation(ctx context.Context, vacationID uuid.UUID, approve bool) (*models.Vacation, error) {
	vacation, err := s.repo.GetVacation(ctx, vacationID)
	if err != nil {
		return nil, err
	}

	status := models.VacationStatusRejected
	title := "Заявка на отпуск отклонена"
	if approve {
		status = models.VacationStatusApproved
		title = "Заявка на отпуск одобрена"
	}

	if err := s.repo.UpdateVacationStatus(ctx, vacationID, status); err != nil {
		return nil, err
	}
	vacation.Status = status

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, vacation.CleanerID, NotifyInput{
			Type:  models.NotificationTypeSystem,
			Title: title,
			Description: fmt.Sprintf("Период с %s по %s",
				vacation.StartDate.Format("02.01.2006"), vacation.EndDate.Format("02.01.2006")),
			Priority: models.PriorityMedium,
		}); err != nil {
			logrus.WithError(err).Warn("schedule service: не удалось уведомить о решении по отпуску")
		}
	}

	return vacation, nil
}

func slotKey(date time.Time, hour int) string {
	return date.Format("2006-01-02") + fmt.Sprintf(":%d", hour)
}

func dateInVacations(date time.Time, vacations []models.Vacation) bool {
	for _, v := range vacations {
		if !date.Before(truncateToDay(v.StartDate)) && !date.After(truncateToDay(v.EndDate)) {
			return true
		}
	}
	return false
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
