package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/service"
)

// ReminderOrderRepo отдаёт заказы, начинающиеся в ближайшем окне.
type ReminderOrderRepo interface {
	ListUpcoming(ctx context.Context, from, to time.Time) ([]models.Order, error)
}

// PayoutSettler завершает отлежавшиеся выплаты.
type PayoutSettler interface {
	SettlePayouts(ctx context.Context, holdDeadline time.Time) ([]models.Payout, error)
}

// Notifier создаёт уведомления пользователям.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, in service.NotifyInput) error
}

// Runner запускает фоновые задачи по cron-расписанию: напоминания
// о предстоящих заказах и завершение выплат после периода удержания.
type Runner struct {
	cron      *cron.Cron
	orders    ReminderOrderRepo
	payouts   PayoutSettler
	notifier  Notifier
	holdHours time.Duration
}

// NewRunner создаёт планировщик фоновых задач.
func NewRunner(orders ReminderOrderRepo, payouts PayoutSettler, notifier Notifier, holdPeriod time.Duration) *Runner {
	return &Runner{
		cron:      cron.New(),
		orders:    orders,
		payouts:   payouts,
		notifier:  notifier,
		holdHours: holdPeriod,
	}
}

// Start регистрирует задачи и запускает планировщик.
func (r *Runner) Start(ctx context.Context, reminderSpec, settlementSpec string) error {
	if _, err := r.cron.AddFunc(reminderSpec, func() { r.remindUpcomingOrders(ctx) }); err != nil {
		return fmt.Errorf("jobs: задача напоминаний: %w", err)
	}
	if _, err := r.cron.AddFunc(settlementSpec, func() { r.settlePayouts(ctx) }); err != nil {
		return fmt.Errorf("jobs: задача выплат: %w", err)
	}

	r.cron.Start()
	logrus.Info("jobs: планировщик фоновых задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт завершения текущих задач.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
}

// remindUpcomingOrders напоминает участникам о заказах, начинающихся
// в ближайшие сутки. Запускается раз в час, окно в один час не даёт
// слать повторные напоминания.
func (r *Runner) remindUpcomingOrders(ctx context.Context) {
	from := time.Now().Add(23 * time.Hour)
	to := from.Add(time.Hour)

	orders, err := r.orders.ListUpcoming(ctx, from, to)
	if err != nil {
		logrus.WithError(err).Error("jobs: не удалось получить предстоящие заказы")
		return
	}

	for _, order := range orders {
		text := fmt.Sprintf("Заказ %s завтра в %02d:00", order.Number, order.StartHour)

		if err := r.notifier.Notify(ctx, order.CustomerID, service.NotifyInput{
			Type:        models.NotificationTypeOrder,
			Title:       "Напоминание об уборке",
			Description: text,
			Priority:    models.PriorityMedium,
			ActionURL:   "/orders/" + order.ID.String(),
			ActionText:  "Открыть заказ",
		}); err != nil {
			logrus.WithError(err).WithField("order_id", order.ID).Warn("jobs: не удалось напомнить клиенту")
		}

		if order.CleanerID != nil {
			if err := r.notifier.Notify(ctx, *order.CleanerID, service.NotifyInput{
				Type:        models.NotificationTypeOrder,
				Title:       "Напоминание о заказе",
				Description: text,
				Priority:    models.PriorityMedium,
				ActionURL:   "/orders/" + order.ID.String(),
				ActionText:  "Открыть заказ",
			}); err != nil {
				logrus.WithError(err).WithField("order_id", order.ID).Warn("jobs: не удалось напомнить клинеру")
			}
		}
	}

	if len(orders) > 0 {
		logrus.WithField("count", len(orders)).Info("jobs: отправлены напоминания о заказах")
	}
}

// settlePayouts завершает выплаты, пролежавшие в processing дольше
// периода удержания, и уведомляет клинеров о зачислении.
func (r *Runner) settlePayouts(ctx context.Context) {
	deadline := time.Now().Add(-r.holdHours)

	settled, err := r.payouts.SettlePayouts(ctx, deadline)
	if err != nil {
		logrus.WithError(err).Error("jobs: не удалось завершить выплаты")
		return
	}

	for _, payout := range settled {
		if err := r.notifier.Notify(ctx, payout.CleanerID, service.NotifyInput{
			Type:        models.NotificationTypePayment,
			Title:       "Выплата завершена",
			Description: fmt.Sprintf("Сумма %.0f ₽ переведена на вашу карту", payout.Amount),
			Priority:    models.PriorityHigh,
		}); err != nil {
			logrus.WithError(err).WithField("payout_id", payout.ID).Warn("jobs: не удалось уведомить о выплате")
		}
	}

	if len(settled) > 0 {
		logrus.WithField("count", len(settled)).Info("jobs: выплаты завершены")
	}
}
