package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/pkg/apperror"
	"github.com/quickclean/quickclean-backend/internal/repository"
	"github.com/quickclean/quickclean-backend/internal/validation"
)

// OrderRepo описывает зависимости сервиса от хранилища заказов.
type OrderRepo interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, filter models.OrderFilter) ([]models.Order, error)
	ListByCleaner(ctx context.Context, cleanerID uuid.UUID, filter models.OrderFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string, fromStatuses []string) error
	SetCancelReason(ctx context.Context, id uuid.UUID, reason string) error
	AssignCleaner(ctx context.Context, id uuid.UUID, cleanerID uuid.UUID) error
	AddPhoto(ctx context.Context, photo *models.OrderPhoto) error
	ListPhotos(ctx context.Context, orderID uuid.UUID) ([]models.OrderPhoto, error)
	CurrentForCleaner(ctx context.Context, cleanerID uuid.UUID) (*models.Order, error)
}

// SlotBooker бронирует и освобождает слоты расписания под заказы.
type SlotBooker interface {
	BookSlots(ctx context.Context, cleanerID uuid.UUID, orderID uuid.UUID, date time.Time, startHour, endHour int) error
	ReleaseByOrder(ctx context.Context, orderID uuid.UUID) error
}

// EarningsCrediter начисляет заработок по завершённому заказу.
type EarningsCrediter interface {
	CreditEarning(ctx context.Context, cleanerID uuid.UUID, orderID uuid.UUID, amount, commission float64, description string) error
}

// OrderNotifier создаёт уведомления участникам заказа.
type OrderNotifier interface {
	Notify(ctx context.Context, userID uuid.UUID, in NotifyInput) error
}

// SystemMessenger добавляет системные сообщения в чат заказа.
type SystemMessenger interface {
	SendSystemMessage(ctx context.Context, orderID uuid.UUID, content string) error
}

// IssueReporter заводит обращение в ленте проблем админки.
type IssueReporter interface {
	Create(ctx context.Context, issue *models.Issue) error
}

// OrderService содержит бизнес-логику жизненного цикла заказа:
// scheduled -> in_progress -> completed, с отменой из scheduled.
type OrderService struct {
	repo              OrderRepo
	slots             SlotBooker
	ledger            EarningsCrediter
	notifier          OrderNotifier
	chat              SystemMessenger
	issues            IssueReporter
	pusher            Pusher
	commissionPercent float64
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(repo OrderRepo, slots SlotBooker, ledger EarningsCrediter, notifier OrderNotifier, issues IssueReporter, commissionPercent float64) *OrderService {
	return &OrderService{
		repo:              repo,
		slots:             slots,
		ledger:            ledger,
		notifier:          notifier,
		issues:            issues,
		commissionPercent: commissionPercent,
	}
}

// SetChat устанавливает сервис чатов для системных сообщений.
// Вызывается после создания обоих сервисов.
func (s *OrderService) SetChat(chat SystemMessenger) {
	s.chat = chat
}

// SetPusher устанавливает WebSocket hub.
func (s *OrderService) SetPusher(pusher Pusher) {
	s.pusher = pusher
}

// CreateOrderInput описывает создаваемый заказ.
type CreateOrderInput struct {
	CustomerID    uuid.UUID
	CleanerID     *uuid.UUID
	ServiceType   string
	ScheduledDate time.Time
	StartHour     int
	EndHour       int
	Address       string
	Price         float64
}

// CreateOrder создаёт заказ. Если клинер указан, его слоты бронируются
// сразу; конфликт расписания отменяет создание.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if err := validation.ValidateServiceType(in.ServiceType); err != nil {
		return nil, fmt.Errorf("order service: %w", err)
	}
	if err := validation.ValidateAddress(in.Address); err != nil {
		return nil, fmt.Errorf("order service: %w", err)
	}
	if err := validation.ValidatePrice(in.Price); err != nil {
		return nil, fmt.Errorf("order service: %w", err)
	}
	if err := validateTimeWindow(in.ScheduledDate, in.StartHour, in.EndHour); err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerID:    in.CustomerID,
		CleanerID:     in.CleanerID,
		ServiceType:   in.ServiceType,
		ScheduledDate: in.ScheduledDate,
		StartHour:     in.StartHour,
		EndHour:       in.EndHour,
		Address:       in.Address,
		Status:        models.OrderStatusScheduled,
		Price:         in.Price,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	if in.CleanerID != nil {
		if err := s.slots.BookSlots(ctx, *in.CleanerID, order.ID, in.ScheduledDate, in.StartHour, in.EndHour); err != nil {
			// Откатываем только что созданный заказ, слот занят.
			if cancelErr := s.repo.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled, []string{models.OrderStatusScheduled}); cancelErr != nil {
				logrus.WithError(cancelErr).Error("order service: не удалось отменить заказ после конфликта расписания")
			}
			if errors.Is(err, repository.ErrSlotConflict) {
				return nil, apperror.ErrSlotTaken
			}
			return nil, err
		}

		s.notify(ctx, *in.CleanerID, NotifyInput{
			Type:        models.NotificationTypeOrder,
			Title:       "Новый заказ",
			Description: fmt.Sprintf("Вам назначен заказ %s на %s", order.Number, order.ScheduledDate.Format("02.01.2006")),
			Priority:    models.PriorityHigh,
			ActionURL:   "/orders/" + order.ID.String(),
			ActionText:  "Открыть заказ",
		})
	}

	return order, nil
}

// RepeatOrderInput задаёт новую дату и время для повторного заказа.
type RepeatOrderInput struct {
	ScheduledDate time.Time
	StartHour     int
	EndHour       int
}

// RepeatOrder создаёт новый заказ по образцу старого: услуга, адрес,
// цена и клинер берутся из оригинала, дата и время задаются заново.
func (s *OrderService) RepeatOrder(ctx context.Context, orderID, customerID uuid.UUID, in RepeatOrderInput) (*models.Order, error) {
	original, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if original.CustomerID != customerID {
		return nil, apperror.ErrForbidden
	}

	return s.CreateOrder(ctx, CreateOrderInput{
		CustomerID:    customerID,
		CleanerID:     original.CleanerID,
		ServiceType:   original.ServiceType,
		ScheduledDate: in.ScheduledDate,
		StartHour:     in.StartHour,
		EndHour:       in.EndHour,
		Address:       original.Address,
		Price:         original.Price,
	})
}

// GetOrder возвращает заказ с фотографиями. Доступ есть у клиента,
// назначенного клинера и админа.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID, role string) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkOrderAccess(order, userID, role); err != nil {
		return nil, err
	}

	photos, err := s.repo.ListPhotos(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Photos = photos
	return order, nil
}

// ListOrders возвращает заказы пользователя с фильтром по статусу
// и поиском по подстроке.
func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, role string, filter models.OrderFilter) ([]models.Order, error) {
	switch filter.Status {
	case "", "all", "active", models.OrderStatusScheduled, models.OrderStatusInProgress, models.OrderStatusCompleted, models.OrderStatusCancelled:
	default:
		return nil, fmt.Errorf("order service: некорректный фильтр статуса %q", filter.Status)
	}

	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	if role == models.RoleCleaner {
		return s.repo.ListByCleaner(ctx, userID, filter)
	}
	return s.repo.ListByCustomer(ctx, userID, filter)
}

// AcceptOrder назначает клинера на свободный заказ и бронирует слоты.
func (s *OrderService) AcceptOrder(ctx context.Context, orderID, cleanerID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CleanerID != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "заказ уже взят другим клинером")
	}

	if err := s.slots.BookSlots(ctx, cleanerID, order.ID, order.ScheduledDate, order.StartHour, order.EndHour); err != nil {
		if errors.Is(err, repository.ErrSlotConflict) {
			return nil, apperror.ErrSlotTaken
		}
		return nil, err
	}

	if err := s.repo.AssignCleaner(ctx, orderID, cleanerID); err != nil {
		if releaseErr := s.slots.ReleaseByOrder(ctx, orderID); releaseErr != nil {
			logrus.WithError(releaseErr).Error("order service: не удалось освободить слоты после гонки назначения")
		}
		if errors.Is(err, repository.ErrOrderStatusConflict) {
			return nil, apperror.New(apperror.ErrCodeConflict, "заказ уже взят другим клинером")
		}
		return nil, err
	}

	order.CleanerID = &cleanerID

	s.notify(ctx, order.CustomerID, NotifyInput{
		Type:        models.NotificationTypeOrder,
		Title:       "Клинер найден",
		Description: fmt.Sprintf("На заказ %s назначен исполнитель", order.Number),
		Priority:    models.PriorityMedium,
		ActionURL:   "/orders/" + order.ID.String(),
		ActionText:  "Открыть заказ",
	})

	return order, nil
}

// StartOrder переводит заказ в работу. Доступно только назначенному клинеру.
func (s *OrderService) StartOrder(ctx context.Context, orderID, cleanerID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CleanerID == nil || *order.CleanerID != cleanerID {
		return nil, apperror.ErrForbidden
	}

	if err := s.repo.UpdateStatus(ctx, orderID, models.OrderStatusInProgress, []string{models.OrderStatusScheduled}); err != nil {
		return nil, mapStatusErr(err, "заказ нельзя начать из текущего статуса")
	}
	order.Status = models.OrderStatusInProgress

	s.systemMessage(ctx, orderID, "Клинер приступил к уборке")
	s.notify(ctx, order.CustomerID, NotifyInput{
		Type:        models.NotificationTypeOrder,
		Title:       "Уборка началась",
		Description: fmt.Sprintf("Клинер приступил к заказу %s", order.Number),
		Priority:    models.PriorityMedium,
	})
	s.pushStatus(order)

	return order, nil
}

// CompleteOrder завершает заказ и начисляет клинеру заработок за вычетом
// комиссии платформы.
func (s *OrderService) CompleteOrder(ctx context.Context, orderID, cleanerID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CleanerID == nil || *order.CleanerID != cleanerID {
		return nil, apperror.ErrForbidden
	}

	if err := s.repo.UpdateStatus(ctx, orderID, models.OrderStatusCompleted, []string{models.OrderStatusInProgress}); err != nil {
		return nil, mapStatusErr(err, "завершить можно только заказ в работе")
	}
	order.Status = models.OrderStatusCompleted

	commission := order.Price * s.commissionPercent / 100
	if err := s.ledger.CreditEarning(ctx, cleanerID, orderID, order.Price, commission,
		fmt.Sprintf("Заказ %s: %s", order.Number, order.ServiceType)); err != nil {
		// Заказ уже завершён, начисление не должно его откатывать.
		logrus.WithError(err).WithField("order_id", orderID).Error("order service: не удалось начислить заработок")
	}

	s.systemMessage(ctx, orderID, "Уборка завершена")
	s.notify(ctx, order.CustomerID, NotifyInput{
		Type:        models.NotificationTypeOrder,
		Title:       "Заказ выполнен",
		Description: fmt.Sprintf("Заказ %s завершён. Оцените работу клинера", order.Number),
		Priority:    models.PriorityHigh,
		ActionURL:   "/orders/" + order.ID.String() + "/review",
		ActionText:  "Оставить отзыв",
	})
	s.notify(ctx, cleanerID, NotifyInput{
		Type:        models.NotificationTypePayment,
		Title:       "Начисление за заказ",
		Description: fmt.Sprintf("За заказ %s начислено %.0f ₽", order.Number, order.Price-commission),
		Priority:    models.PriorityMedium,
	})
	s.pushStatus(order)

	return order, nil
}

// CancelOrder отменяет запланированный или идущий заказ, освобождает
// слоты и заводит обращение в админке.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID uuid.UUID, role, reason string) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkOrderAccess(order, userID, role); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, orderID, models.OrderStatusCancelled, models.ActiveOrderStatuses); err != nil {
		return nil, mapStatusErr(err, "отменить можно только активный заказ")
	}
	order.Status = models.OrderStatusCancelled

	if reason != "" {
		if err := s.repo.SetCancelReason(ctx, orderID, reason); err != nil {
			logrus.WithError(err).Warn("order service: не удалось сохранить причину отмены")
		}
		order.CancelReason = &reason
	}

	if err := s.slots.ReleaseByOrder(ctx, orderID); err != nil {
		logrus.WithError(err).WithField("order_id", orderID).Error("order service: не удалось освободить слоты")
	}

	issue := &models.Issue{
		Type:       models.IssueTypeCancellation,
		OrderID:    &order.ID,
		ReporterID: &userID,
		Priority:   models.PriorityMedium,
		Status:     models.IssueStatusNew,
	}
	if reason != "" {
		issue.Description = &reason
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		logrus.WithError(err).Warn("order service: не удалось создать обращение по отмене")
	}

	s.systemMessage(ctx, orderID, "Заказ отменён")

	peer := order.CustomerID
	if userID == order.CustomerID && order.CleanerID != nil {
		peer = *order.CleanerID
	}
	if peer != userID {
		s.notify(ctx, peer, NotifyInput{
			Type:        models.NotificationTypeOrder,
			Title:       "Заказ отменён",
			Description: fmt.Sprintf("Заказ %s отменён", order.Number),
			Priority:    models.PriorityHigh,
		})
	}
	s.pushStatus(order)

	return order, nil
}

// AttachPhoto прикрепляет фото до/после. Доступно назначенному клинеру,
// пока заказ в работе.
func (s *OrderService) AttachPhoto(ctx context.Context, orderID, cleanerID uuid.UUID, kind, path string) (*models.OrderPhoto, error) {
	if kind != "before" && kind != "after" {
		return nil, fmt.Errorf("order service: некорректный вид фотографии %q", kind)
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CleanerID == nil || *order.CleanerID != cleanerID {
		return nil, apperror.ErrForbidden
	}
	if order.Status != models.OrderStatusInProgress {
		return nil, apperror.New(apperror.ErrCodeConflict, "фотографии можно прикладывать только к заказу в работе")
	}

	photo := &models.OrderPhoto{OrderID: orderID, Kind: kind, Path: path}
	if err := s.repo.AddPhoto(ctx, photo); err != nil {
		return nil, err
	}
	return photo, nil
}

// CurrentOrder возвращает заказ клинера, находящийся в работе.
func (s *OrderService) CurrentOrder(ctx context.Context, cleanerID uuid.UUID) (*models.Order, error) {
	return s.repo.CurrentForCleaner(ctx, cleanerID)
}

func (s *OrderService) notify(ctx context.Context, userID uuid.UUID, in NotifyInput) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, in); err != nil {
		logrus.WithError(err).Warn("order service: не удалось создать уведомление")
	}
}

func (s *OrderService) systemMessage(ctx context.Context, orderID uuid.UUID, content string) {
	if s.chat == nil {
		return
	}
	if err := s.chat.SendSystemMessage(ctx, orderID, content); err != nil {
		logrus.WithError(err).Warn("order service: не удалось отправить системное сообщение")
	}
}

func (s *OrderService) pushStatus(order *models.Order) {
	if s.pusher == nil {
		return
	}
	payload := map[string]any{
		"order_id": order.ID,
		"number":   order.Number,
		"status":   order.Status,
	}
	recipients := []uuid.UUID{order.CustomerID}
	if order.CleanerID != nil {
		recipients = append(recipients, *order.CleanerID)
	}
	for _, userID := range recipients {
		if err := s.pusher.PushToUser(userID, "order.status", payload); err != nil {
			logrus.WithError(err).Warn("order service: не удалось отправить событие статуса")
		}
	}
}

func validateTimeWindow(date time.Time, startHour, endHour int) error {
	if startHour < models.ScheduleGridStartHour || endHour > models.ScheduleGridEndHour || startHour >= endHour {
		return fmt.Errorf("order service: некорректный интервал времени")
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	today := time.Now().In(date.Location())
	todayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, date.Location())
	if day.Before(todayStart) {
		return fmt.Errorf("order service: дата заказа не может быть в прошлом")
	}
	return nil
}

func checkOrderAccess(order *models.Order, userID uuid.UUID, role string) error {
	if role == models.RoleAdmin {
		return nil
	}
	if order.CustomerID == userID {
		return nil
	}
	if order.CleanerID != nil && *order.CleanerID == userID {
		return nil
	}
	return apperror.ErrForbidden
}

func mapStatusErr(err error, conflictMessage string) error {
	if errors.Is(err, repository.ErrOrderStatusConflict) {
		return apperror.New(apperror.ErrCodeConflict, conflictMessage)
	}
	return err
}

func isNotFound(err error) bool {
	return apperror.IsNotFound(err) ||
		errors.Is(err, repository.ErrConversationNotFound) ||
		errors.Is(err, repository.ErrOrderNotFound)
}
