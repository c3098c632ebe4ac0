package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/pkg/apperror"
	"github.com/quickclean/quickclean-backend/internal/repository"
)

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	if args.Error(0) == nil {
		review.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockReviewRepo) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByCleaner(ctx context.Context, cleanerID uuid.UUID, limit, offset int) ([]models.Review, error) {
	args := m.Called(ctx, cleanerID, limit, offset)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockReviewRepo) CleanerRating(ctx context.Context, cleanerID uuid.UUID) (float64, int, error) {
	args := m.Called(ctx, cleanerID)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

type mockReviewOrderRepo struct {
	mock.Mock
}

func (m *mockReviewOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockReviewOrderRepo) SetRating(ctx context.Context, id uuid.UUID, rating int) error {
	args := m.Called(ctx, id, rating)
	return args.Error(0)
}

func completedOrder(orderID, customerID, cleanerID uuid.UUID) *models.Order {
	return &models.Order{
		ID:         orderID,
		Number:     "QC-2026-000033",
		CustomerID: customerID,
		CleanerID:  &cleanerID,
		Status:     models.OrderStatusCompleted,
	}
}

func TestReviewService_CreateReview_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	orders := new(mockReviewOrderRepo)
	notifier := new(mockNotifier)
	svc := NewReviewService(repo, orders, notifier)
	ctx := context.Background()

	orderID := uuid.New()
	customerID := uuid.New()
	cleanerID := uuid.New()

	orders.On("GetByID", ctx, orderID).Return(completedOrder(orderID, customerID, cleanerID), nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)
	orders.On("SetRating", ctx, orderID, 5).Return(nil)
	notifier.On("Notify", ctx, cleanerID, mock.AnythingOfType("service.NotifyInput")).Return(nil)

	review, err := svc.CreateReview(ctx, CreateReviewInput{
		OrderID:    orderID,
		CustomerID: customerID,
		Overall:    5,
		Quality:    4,
		Text:       "Очень чисто, спасибо!",
	})

	assert.NoError(t, err)
	assert.Equal(t, cleanerID, review.CleanerID)
	orders.AssertCalled(t, "SetRating", ctx, orderID, 5)
}

func TestReviewService_CreateReview_NotifierFailureNotFatal(t *testing.T) {
	repo := new(mockReviewRepo)
	orders := new(mockReviewOrderRepo)
	notifier := new(mockNotifier)
	svc := NewReviewService(repo, orders, notifier)
	ctx := context.Background()

	orderID := uuid.New()
	customerID := uuid.New()
	cleanerID := uuid.New()

	orders.On("GetByID", ctx, orderID).Return(completedOrder(orderID, customerID, cleanerID), nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)
	orders.On("SetRating", ctx, orderID, 4).Return(nil)
	notifier.On("Notify", ctx, cleanerID, mock.AnythingOfType("service.NotifyInput")).
		Return(errors.New("notification store down"))

	review, err := svc.CreateReview(ctx, CreateReviewInput{
		OrderID:    orderID,
		CustomerID: customerID,
		Overall:    4,
	})

	assert.NoError(t, err)
	assert.NotNil(t, review)
}

func TestReviewService_CreateReview_MissingOverall(t *testing.T) {
	svc := NewReviewService(new(mockReviewRepo), new(mockReviewOrderRepo), nil)

	_, err := svc.CreateReview(context.Background(), CreateReviewInput{
		OrderID:    uuid.New(),
		CustomerID: uuid.New(),
		Overall:    0,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "общая оценка")
}

func TestReviewService_CreateReview_OptionalCategorySkipped(t *testing.T) {
	repo := new(mockReviewRepo)
	orders := new(mockReviewOrderRepo)
	svc := NewReviewService(repo, orders, nil)
	ctx := context.Background()

	orderID := uuid.New()
	customerID := uuid.New()
	cleanerID := uuid.New()

	orders.On("GetByID", ctx, orderID).Return(completedOrder(orderID, customerID, cleanerID), nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)
	orders.On("SetRating", ctx, orderID, 4).Return(nil)

	// Нулевые оценки категорий означают "не выставлена" и проходят.
	review, err := svc.CreateReview(ctx, CreateReviewInput{
		OrderID:    orderID,
		CustomerID: customerID,
		Overall:    4,
	})

	assert.NoError(t, err)
	assert.Equal(t, 0, review.Quality)
}

func TestReviewService_CreateReview_Duplicate(t *testing.T) {
	repo := new(mockReviewRepo)
	orders := new(mockReviewOrderRepo)
	svc := NewReviewService(repo, orders, nil)
	ctx := context.Background()

	orderID := uuid.New()
	customerID := uuid.New()
	cleanerID := uuid.New()

	orders.On("GetByID", ctx, orderID).Return(completedOrder(orderID, customerID, cleanerID), nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(repository.ErrReviewExists)

	_, err := svc.CreateReview(ctx, CreateReviewInput{
		OrderID:    orderID,
		CustomerID: customerID,
		Overall:    5,
	})

	assert.ErrorIs(t, err, apperror.ErrReviewExists)
}

func TestReviewService_CreateReview_WrongCustomer(t *testing.T) {
	orders := new(mockReviewOrderRepo)
	svc := NewReviewService(new(mockReviewRepo), orders, nil)
	ctx := context.Background()

	orderID := uuid.New()
	orders.On("GetByID", ctx, orderID).Return(completedOrder(orderID, uuid.New(), uuid.New()), nil)

	_, err := svc.CreateReview(ctx, CreateReviewInput{
		OrderID:    orderID,
		CustomerID: uuid.New(),
		Overall:    5,
	})

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestReviewService_CreateReview_OrderNotCompleted(t *testing.T) {
	orders := new(mockReviewOrderRepo)
	svc := NewReviewService(new(mockReviewRepo), orders, nil)
	ctx := context.Background()

	orderID := uuid.New()
	customerID := uuid.New()
	cleanerID := uuid.New()
	order := completedOrder(orderID, customerID, cleanerID)
	order.Status = models.OrderStatusInProgress
	orders.On("GetByID", ctx, orderID).Return(order, nil)

	_, err := svc.CreateReview(ctx, CreateReviewInput{
		OrderID:    orderID,
		CustomerID: customerID,
		Overall:    5,
	})

	assert.True(t, apperror.IsConflict(err))
}

func TestReviewService_CreateReview_TooManyPhotos(t *testing.T) {
	svc := NewReviewService(new(mockReviewRepo), new(mockReviewOrderRepo), nil)

	paths := make([]string, 6)
	for i := range paths {
		paths[i] = "/media/reviews/photo.jpg"
	}

	_, err := svc.CreateReview(context.Background(), CreateReviewInput{
		OrderID:    uuid.New(),
		CustomerID: uuid.New(),
		Overall:    5,
		PhotoPaths: paths,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "фотографий")
}

func TestReviewService_ListCleanerReviews_ClampsLimit(t *testing.T) {
	repo := new(mockReviewRepo)
	svc := NewReviewService(repo, new(mockReviewOrderRepo), nil)
	ctx := context.Background()
	cleanerID := uuid.New()

	repo.On("ListByCleaner", ctx, cleanerID, 20, 0).Return([]models.Review{}, nil)

	_, err := svc.ListCleanerReviews(ctx, cleanerID, 500, -1)

	assert.NoError(t, err)
	repo.AssertCalled(t, "ListByCleaner", ctx, cleanerID, 20, 0)
}
