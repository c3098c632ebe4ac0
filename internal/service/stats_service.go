package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quickclean/quickclean-backend/internal/cache"
	"github.com/quickclean/quickclean-backend/internal/models"
)

// StatsOrderRepo отдаёт агрегаты по заказам для админки.
type StatsOrderRepo interface {
	Metrics(ctx context.Context, from, to time.Time, serviceType string) (*models.AdminMetrics, error)
	TopCleaners(ctx context.Context, from, to time.Time, limit int) ([]models.TopCleaner, error)
	ServiceTypeStats(ctx context.Context, from, to time.Time) ([]models.ServiceTypeStat, error)
}

// StatsUserRepo считает активных клинеров.
type StatsUserRepo interface {
	CountActiveCleaners(ctx context.Context) (int, error)
}

// StatsIssueRepo описывает работу с лентой проблем.
type StatsIssueRepo interface {
	List(ctx context.Context, status string, limit, offset int) ([]models.Issue, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	CountOpen(ctx context.Context) (int, error)
}

// LedgerAdminRepo даёт админке отклонять выплаты и корректировать
// баланс клинера бонусами и штрафами.
type LedgerAdminRepo interface {
	RejectPayout(ctx context.Context, id uuid.UUID, reason string) (*models.Payout, error)
	CreditAdjustment(ctx context.Context, cleanerID uuid.UUID, kind string, amount float64, description string) error
}

// MetricsCache кэширует снимок метрик админки.
type MetricsCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}) error
}

// StatsService собирает аналитику для админки и обрабатывает ленту проблем.
type StatsService struct {
	orders   StatsOrderRepo
	users    StatsUserRepo
	issues   StatsIssueRepo
	ledger   LedgerAdminRepo
	cache    MetricsCache
	notifier OrderNotifier
}

// NewStatsService создаёт сервис аналитики.
func NewStatsService(orders StatsOrderRepo, users StatsUserRepo, issues StatsIssueRepo, ledger LedgerAdminRepo, metricsCache MetricsCache, notifier OrderNotifier) *StatsService {
	return &StatsService{
		orders:   orders,
		users:    users,
		issues:   issues,
		ledger:   ledger,
		cache:    metricsCache,
		notifier: notifier,
	}
}

// Metrics возвращает показатели платформы за период week, month или year,
// при необходимости суженные до одного типа услуги. Снимок живёт в кэше
// несколько минут.
func (s *StatsService) Metrics(ctx context.Context, period, serviceType string) (*models.AdminMetrics, error) {
	from, to, err := periodRange(period)
	if err != nil {
		return nil, fmt.Errorf("stats service: некорректный период %q", period)
	}

	key := cache.MetricsKey(period, serviceType)
	var cached models.AdminMetrics
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		logrus.WithError(err).Warn("stats service: кэш метрик недоступен")
	}

	metrics, err := s.orders.Metrics(ctx, from, to, serviceType)
	if err != nil {
		return nil, err
	}

	activeCleaners, err := s.users.CountActiveCleaners(ctx)
	if err != nil {
		return nil, err
	}
	metrics.ActiveCleaners = activeCleaners

	if err := s.cache.SetJSON(ctx, key, metrics); err != nil {
		logrus.WithError(err).Warn("stats service: не удалось записать кэш метрик")
	}

	return metrics, nil
}

// TopCleaners возвращает рейтинг клинеров за период.
func (s *StatsService) TopCleaners(ctx context.Context, period string, limit int) ([]models.TopCleaner, error) {
	from, to, err := periodRange(period)
	if err != nil {
		return nil, fmt.Errorf("stats service: некорректный период %q", period)
	}
	return s.orders.TopCleaners(ctx, from, to, limit)
}

// ServiceTypeStats возвращает агрегаты по типам услуг за период.
func (s *StatsService) ServiceTypeStats(ctx context.Context, period string) ([]models.ServiceTypeStat, error) {
	from, to, err := periodRange(period)
	if err != nil {
		return nil, fmt.Errorf("stats service: некорректный период %q", period)
	}
	return s.orders.ServiceTypeStats(ctx, from, to)
}

// ListIssues возвращает ленту проблем.
func (s *StatsService) ListIssues(ctx context.Context, status string, limit, offset int) ([]models.Issue, error) {
	switch status {
	case "", "all", models.IssueStatusNew, models.IssueStatusInProgress, models.IssueStatusResolved:
	default:
		return nil, fmt.Errorf("stats service: некорректный статус обращения %q", status)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.issues.List(ctx, status, limit, offset)
}

// UpdateIssueStatus переводит обращение в новый статус.
func (s *StatsService) UpdateIssueStatus(ctx context.Context, id uuid.UUID, status string) error {
	switch status {
	case models.IssueStatusNew, models.IssueStatusInProgress, models.IssueStatusResolved:
	default:
		return fmt.Errorf("stats service: некорректный статус обращения %q", status)
	}
	return s.issues.UpdateStatus(ctx, id, status)
}

// OpenIssuesCount возвращает число необработанных обращений.
func (s *StatsService) OpenIssuesCount(ctx context.Context) (int, error) {
	return s.issues.CountOpen(ctx)
}

// RejectPayout отклоняет выплату и уведомляет клинера. Сумма
// возвращается в доступный баланс.
func (s *StatsService) RejectPayout(ctx context.Context, payoutID uuid.UUID, reason string) (*models.Payout, error) {
	payout, err := s.ledger.RejectPayout(ctx, payoutID, reason)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifyPayoutRejected(ctx, payout, reason)
	}

	return payout, nil
}

func (s *StatsService) notifyPayoutRejected(ctx context.Context, payout *models.Payout, reason string) {
	err := s.notifier.Notify(ctx, payout.CleanerID, NotifyInput{
		Type:        models.NotificationTypePayment,
		Title:       "Выплата отклонена",
		Description: fmt.Sprintf("Выплата %.0f ₽ отклонена: %s", payout.Amount, reason),
		Priority:    models.PriorityHigh,
	})
	if err != nil {
		logrus.WithError(err).Warn("stats service: не удалось уведомить об отклонении выплаты")
	}
}

// AdjustBalance начисляет клинеру бонус или удерживает штраф.
// Штраф хранится в журнале отрицательной суммой.
func (s *StatsService) AdjustBalance(ctx context.Context, cleanerID uuid.UUID, kind string, amount float64, description string) error {
	if kind != models.LedgerKindBonus && kind != models.LedgerKindPenalty {
		return fmt.Errorf("stats service: некорректный вид корректировки %q", kind)
	}
	if amount <= 0 {
		return fmt.Errorf("stats service: сумма корректировки не может быть меньше или равна нулю")
	}
	if description == "" {
		return fmt.Errorf("stats service: некорректное описание корректировки")
	}

	signed := amount
	if kind == models.LedgerKindPenalty {
		signed = -amount
	}
	if err := s.ledger.CreditAdjustment(ctx, cleanerID, kind, signed, description); err != nil {
		return err
	}

	title := "Бонус начислен"
	text := fmt.Sprintf("Бонус %.0f ₽: %s", amount, description)
	if kind == models.LedgerKindPenalty {
		title = "Штраф удержан"
		text = fmt.Sprintf("Штраф %.0f ₽: %s", amount, description)
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, cleanerID, NotifyInput{
			Type:        models.NotificationTypePayment,
			Title:       title,
			Description: text,
			Priority:    models.PriorityMedium,
		}); err != nil {
			logrus.WithError(err).Warn("stats service: не удалось уведомить о корректировке баланса")
		}
	}
	return nil
}
