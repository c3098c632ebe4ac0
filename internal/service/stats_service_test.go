package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/quickclean/quickclean-backend/internal/models"
)

type mockLedgerAdminRepo struct {
	mock.Mock
}

func (m *mockLedgerAdminRepo) RejectPayout(ctx context.Context, id uuid.UUID, reason string) (*models.Payout, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *mockLedgerAdminRepo) CreditAdjustment(ctx context.Context, cleanerID uuid.UUID, kind string, amount float64, description string) error {
	args := m.Called(ctx, cleanerID, kind, amount, description)
	return args.Error(0)
}

func TestStatsService_AdjustBalance_Bonus(t *testing.T) {
	ledger := new(mockLedgerAdminRepo)
	notifier := new(mockNotifier)
	svc := NewStatsService(nil, nil, nil, ledger, nil, notifier)
	ctx := context.Background()
	cleanerID := uuid.New()

	ledger.On("CreditAdjustment", ctx, cleanerID, models.LedgerKindBonus, 500.0, "за отличные отзывы").Return(nil)
	notifier.On("Notify", ctx, cleanerID, mock.AnythingOfType("service.NotifyInput")).Return(nil)

	err := svc.AdjustBalance(ctx, cleanerID, models.LedgerKindBonus, 500, "за отличные отзывы")

	assert.NoError(t, err)
	ledger.AssertCalled(t, "CreditAdjustment", ctx, cleanerID, models.LedgerKindBonus, 500.0, "за отличные отзывы")
	notifier.AssertCalled(t, "Notify", ctx, cleanerID, mock.AnythingOfType("service.NotifyInput"))
}

func TestStatsService_AdjustBalance_PenaltyStoredNegative(t *testing.T) {
	ledger := new(mockLedgerAdminRepo)
	notifier := new(mockNotifier)
	svc := NewStatsService(nil, nil, nil, ledger, nil, notifier)
	ctx := context.Background()
	cleanerID := uuid.New()

	ledger.On("CreditAdjustment", ctx, cleanerID, models.LedgerKindPenalty, -300.0, "опоздание на заказ").Return(nil)
	notifier.On("Notify", ctx, cleanerID, mock.AnythingOfType("service.NotifyInput")).Return(nil)

	err := svc.AdjustBalance(ctx, cleanerID, models.LedgerKindPenalty, 300, "опоздание на заказ")

	assert.NoError(t, err)
	ledger.AssertCalled(t, "CreditAdjustment", ctx, cleanerID, models.LedgerKindPenalty, -300.0, "опоздание на заказ")
}

func TestStatsService_AdjustBalance_InvalidKind(t *testing.T) {
	ledger := new(mockLedgerAdminRepo)
	svc := NewStatsService(nil, nil, nil, ledger, nil, nil)

	err := svc.AdjustBalance(context.Background(), uuid.New(), models.LedgerKindEarning, 500, "мимо")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "некорректный вид корректировки")
	ledger.AssertNotCalled(t, "CreditAdjustment",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStatsService_AdjustBalance_ZeroAmount(t *testing.T) {
	svc := NewStatsService(nil, nil, nil, new(mockLedgerAdminRepo), nil, nil)

	err := svc.AdjustBalance(context.Background(), uuid.New(), models.LedgerKindBonus, 0, "пусто")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "сумма корректировки")
}

func TestStatsService_RejectPayout_NotifiesCleaner(t *testing.T) {
	ledger := new(mockLedgerAdminRepo)
	notifier := new(mockNotifier)
	svc := NewStatsService(nil, nil, nil, ledger, nil, notifier)
	ctx := context.Background()
	cleanerID := uuid.New()
	payoutID := uuid.New()

	ledger.On("RejectPayout", ctx, payoutID, "неверные реквизиты").Return(&models.Payout{
		ID:        payoutID,
		CleanerID: cleanerID,
		Amount:    4000,
		Status:    models.PayoutStatusRejected,
	}, nil)
	notifier.On("Notify", ctx, cleanerID, mock.AnythingOfType("service.NotifyInput")).Return(nil)

	payout, err := svc.RejectPayout(ctx, payoutID, "неверные реквизиты")

	assert.NoError(t, err)
	assert.Equal(t, models.PayoutStatusRejected, payout.Status)
	notifier.AssertCalled(t, "Notify", ctx, cleanerID, mock.AnythingOfType("service.NotifyInput"))
}
