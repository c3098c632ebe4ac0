package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/pkg/apperror"
	"github.com/quickclean/quickclean-backend/internal/repository"
)

type mockLedgerRepo struct {
	mock.Mock
}

func (m *mockLedgerRepo) GetBalance(ctx context.Context, cleanerID uuid.UUID) (*models.Balance, error) {
	args := m.Called(ctx, cleanerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Balance), args.Error(1)
}

func (m *mockLedgerRepo) CreatePayout(ctx context.Context, payout *models.Payout) error {
	args := m.Called(ctx, payout)
	if args.Error(0) == nil {
		payout.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockLedgerRepo) GetPayout(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *mockLedgerRepo) ListPayouts(ctx context.Context, cleanerID uuid.UUID) ([]models.Payout, error) {
	args := m.Called(ctx, cleanerID)
	return args.Get(0).([]models.Payout), args.Error(1)
}

func (m *mockLedgerRepo) ListEntries(ctx context.Context, cleanerID uuid.UUID, from, to time.Time) ([]models.LedgerEntry, error) {
	args := m.Called(ctx, cleanerID, from, to)
	return args.Get(0).([]models.LedgerEntry), args.Error(1)
}

func (m *mockLedgerRepo) Breakdown(ctx context.Context, cleanerID uuid.UUID, from, to time.Time) (*models.EarningsBreakdown, error) {
	args := m.Called(ctx, cleanerID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EarningsBreakdown), args.Error(1)
}

func TestEarningsService_Withdraw_BelowMinimum(t *testing.T) {
	svc := NewEarningsService(new(mockLedgerRepo), nil, 1000)

	_, err := svc.Withdraw(context.Background(), uuid.New(), WithdrawInput{Amount: 500})

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "минимальная сумма вывода")
}

func TestEarningsService_Withdraw_InsufficientBalance(t *testing.T) {
	repo := new(mockLedgerRepo)
	svc := NewEarningsService(repo, nil, 1000)
	ctx := context.Background()

	repo.On("CreatePayout", ctx, mock.AnythingOfType("*models.Payout")).Return(repository.ErrInsufficientBalance)

	_, err := svc.Withdraw(ctx, uuid.New(), WithdrawInput{Amount: 5000})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "недостаточно средств")
}

func TestEarningsService_GetPayout_ForeignPayout(t *testing.T) {
	repo := new(mockLedgerRepo)
	svc := NewEarningsService(repo, nil, 1000)
	ctx := context.Background()

	payoutID := uuid.New()
	repo.On("GetPayout", ctx, payoutID).Return(&models.Payout{
		ID:        payoutID,
		CleanerID: uuid.New(),
		Amount:    3000,
		Status:    models.PayoutStatusProcessing,
	}, nil)

	_, err := svc.GetPayout(ctx, payoutID, uuid.New())

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestEarningsService_GetPayout_Owner(t *testing.T) {
	repo := new(mockLedgerRepo)
	svc := NewEarningsService(repo, nil, 1000)
	ctx := context.Background()

	cleanerID := uuid.New()
	payoutID := uuid.New()
	repo.On("GetPayout", ctx, payoutID).Return(&models.Payout{
		ID:        payoutID,
		CleanerID: cleanerID,
		Amount:    3000,
		Status:    models.PayoutStatusCompleted,
	}, nil)

	payout, err := svc.GetPayout(ctx, payoutID, cleanerID)

	assert.NoError(t, err)
	assert.Equal(t, models.PayoutStatusCompleted, payout.Status)
}

func TestEarningsService_Withdraw_Success(t *testing.T) {
	repo := new(mockLedgerRepo)
	notifier := new(mockNotifier)
	svc := NewEarningsService(repo, notifier, 1000)
	ctx := context.Background()
	cleanerID := uuid.New()

	repo.On("CreatePayout", ctx, mock.AnythingOfType("*models.Payout")).Return(nil)
	notifier.On("Notify", ctx, cleanerID, mock.AnythingOfType("service.NotifyInput")).Return(nil)

	payout, err := svc.Withdraw(ctx, cleanerID, WithdrawInput{Amount: 2500, CardLast4: "4242"})

	assert.NoError(t, err)
	assert.Equal(t, models.PayoutStatusProcessing, payout.Status)
	assert.Equal(t, "card", payout.Method)
	if assert.NotNil(t, payout.CardLast4) {
		assert.Equal(t, "4242", *payout.CardLast4)
	}
	notifier.AssertCalled(t, "Notify", ctx, cleanerID, mock.AnythingOfType("service.NotifyInput"))
}

func TestEarningsService_Breakdown_PeriodRange(t *testing.T) {
	repo := new(mockLedgerRepo)
	svc := NewEarningsService(repo, nil, 1000)
	ctx := context.Background()
	cleanerID := uuid.New()

	repo.On("Breakdown", ctx, cleanerID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			from := args.Get(2).(time.Time)
			to := args.Get(3).(time.Time)
			assert.InDelta(t, 7*24*time.Hour, to.Sub(from), float64(time.Hour))
		}).
		Return(&models.EarningsBreakdown{}, nil)

	_, err := svc.Breakdown(ctx, cleanerID, "week")

	assert.NoError(t, err)
}

func TestEarningsService_Breakdown_InvalidPeriod(t *testing.T) {
	svc := NewEarningsService(new(mockLedgerRepo), nil, 1000)

	_, err := svc.Breakdown(context.Background(), uuid.New(), "decade")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "некорректный период")
}

func TestEarningsService_History_DefaultsToMonth(t *testing.T) {
	repo := new(mockLedgerRepo)
	svc := NewEarningsService(repo, nil, 1000)
	ctx := context.Background()
	cleanerID := uuid.New()

	repo.On("ListEntries", ctx, cleanerID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return([]models.LedgerEntry{}, nil)

	_, err := svc.History(ctx, cleanerID, "")

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
