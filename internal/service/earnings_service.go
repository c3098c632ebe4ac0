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
)

// LedgerRepo описывает зависимости сервиса от хранилища начислений.
type LedgerRepo interface {
	GetBalance(ctx context.Context, cleanerID uuid.UUID) (*models.Balance, error)
	CreatePayout(ctx context.Context, payout *models.Payout) error
	GetPayout(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	ListPayouts(ctx context.Context, cleanerID uuid.UUID) ([]models.Payout, error)
	ListEntries(ctx context.Context, cleanerID uuid.UUID, from, to time.Time) ([]models.LedgerEntry, error)
	Breakdown(ctx context.Context, cleanerID uuid.UUID, from, to time.Time) (*models.EarningsBreakdown, error)
}

// EarningsService отвечает за баланс клинера, раскладку заработка
// и вывод средств.
type EarningsService struct {
	repo      LedgerRepo
	notifier  OrderNotifier
	minAmount float64
}

// NewEarningsService создаёт сервис заработка.
func NewEarningsService(repo LedgerRepo, notifier OrderNotifier, minWithdrawal float64) *EarningsService {
	return &EarningsService{
		repo:      repo,
		notifier:  notifier,
		minAmount: minWithdrawal,
	}
}

// GetBalance возвращает баланс клинера.
func (s *EarningsService) GetBalance(ctx context.Context, cleanerID uuid.UUID) (*models.Balance, error) {
	return s.repo.GetBalance(ctx, cleanerID)
}

// WithdrawInput описывает заявку на вывод средств.
type WithdrawInput struct {
	Amount    float64
	Method    string
	CardLast4 string
}

// Withdraw создаёт заявку на вывод. Сумма не меньше минимальной
// и не больше доступного баланса; сумма сразу уходит в processing.
func (s *EarningsService) Withdraw(ctx context.Context, cleanerID uuid.UUID, in WithdrawInput) (*models.Payout, error) {
	if in.Amount < s.minAmount {
		return nil, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("минимальная сумма вывода %.0f ₽", s.minAmount))
	}
	if in.Method == "" {
		in.Method = "card"
	}

	payout := &models.Payout{
		CleanerID: cleanerID,
		Amount:    in.Amount,
		Status:    models.PayoutStatusProcessing,
		Method:    in.Method,
	}
	if in.CardLast4 != "" {
		payout.CardLast4 = &in.CardLast4
	}

	if err := s.repo.CreatePayout(ctx, payout); err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, apperror.New(apperror.ErrCodeValidation, "недостаточно средств на балансе")
		}
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, cleanerID, NotifyInput{
			Type:        models.NotificationTypePayment,
			Title:       "Заявка на вывод создана",
			Description: fmt.Sprintf("Сумма %.0f ₽ будет зачислена после обработки", in.Amount),
			Priority:    models.PriorityMedium,
		}); err != nil {
			logrus.WithError(err).Warn("earnings service: не удалось уведомить о заявке на вывод")
		}
	}

	return payout, nil
}

// GetPayout возвращает выплату клинера, чтобы следить за её статусом.
// Чужие выплаты недоступны.
func (s *EarningsService) GetPayout(ctx context.Context, payoutID, cleanerID uuid.UUID) (*models.Payout, error) {
	payout, err := s.repo.GetPayout(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if payout.CleanerID != cleanerID {
		return nil, apperror.ErrForbidden
	}
	return payout, nil
}

// ListPayouts возвращает историю выплат клинера.
func (s *EarningsService) ListPayouts(ctx context.Context, cleanerID uuid.UUID) ([]models.Payout, error) {
	return s.repo.ListPayouts(ctx, cleanerID)
}

// Breakdown возвращает раскладку заработка за период week, month или year.
func (s *EarningsService) Breakdown(ctx context.Context, cleanerID uuid.UUID, period string) (*models.EarningsBreakdown, error) {
	from, to, err := periodRange(period)
	if err != nil {
		return nil, err
	}
	return s.repo.Breakdown(ctx, cleanerID, from, to)
}

// History возвращает журнал начислений за период.
func (s *EarningsService) History(ctx context.Context, cleanerID uuid.UUID, period string) ([]models.LedgerEntry, error) {
	from, to, err := periodRange(period)
	if err != nil {
		return nil, err
	}
	return s.repo.ListEntries(ctx, cleanerID, from, to)
}

func periodRange(period string) (time.Time, time.Time, error) {
	now := time.Now()
	switch period {
	case "", "month":
		return now.AddDate(0, -1, 0), now, nil
	case "week":
		return now.AddDate(0, 0, -7), now, nil
	case "year":
		return now.AddDate(-1, 0, 0), now, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("earnings service: некорректный период %q", period)
	}
}
