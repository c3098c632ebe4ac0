package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/pkg/apperror"
	"github.com/quickclean/quickclean-backend/internal/repository"
	"github.com/quickclean/quickclean-backend/internal/validation"
)

// ReviewRepo описывает зависимости сервиса от хранилища отзывов.
type ReviewRepo interface {
	Create(ctx context.Context, review *models.Review) error
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Review, error)
	ListByCleaner(ctx context.Context, cleanerID uuid.UUID, limit, offset int) ([]models.Review, error)
	CleanerRating(ctx context.Context, cleanerID uuid.UUID) (float64, int, error)
}

// ReviewOrderRepo отдаёт заказ и записывает в него итоговую оценку.
type ReviewOrderRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	SetRating(ctx context.Context, id uuid.UUID, rating int) error
}

// ReviewService отвечает за отзывы: один отзыв на завершённый заказ,
// обязательная общая оценка и опциональные оценки по категориям.
type ReviewService struct {
	repo     ReviewRepo
	orders   ReviewOrderRepo
	notifier OrderNotifier
}

// NewReviewService создаёт сервис отзывов.
func NewReviewService(repo ReviewRepo, orders ReviewOrderRepo, notifier OrderNotifier) *ReviewService {
	return &ReviewService{
		repo:     repo,
		orders:   orders,
		notifier: notifier,
	}
}

// CreateReviewInput описывает создаваемый отзыв.
type CreateReviewInput struct {
	OrderID       uuid.UUID
	CustomerID    uuid.UUID
	Overall       int
	Quality       int
	Punctuality   int
	Politeness    int
	Requirements  int
	Text          string
	Anonymous     bool
	AllowResponse bool
	PhotoPaths    []string
}

// CreateReview сохраняет отзыв. Без общей оценки отправка невозможна,
// повторный отзыв на заказ отклоняется.
func (s *ReviewService) CreateReview(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	if err := validation.ValidateRating("общая оценка", in.Overall); err != nil {
		return nil, fmt.Errorf("review service: %w", err)
	}
	for _, r := range []struct {
		name  string
		value int
	}{
		{"качество уборки", in.Quality},
		{"пунктуальность", in.Punctuality},
		{"вежливость", in.Politeness},
		{"соблюдение требований", in.Requirements},
	} {
		if err := validation.ValidateOptionalRating(r.name, r.value); err != nil {
			return nil, fmt.Errorf("review service: %w", err)
		}
	}
	if len(in.Text) > validation.MaxReviewTextLength {
		return nil, fmt.Errorf("review service: текст отзыва слишком длинный")
	}
	if len(in.PhotoPaths) > validation.MaxReviewPhotos {
		return nil, fmt.Errorf("review service: не больше %d фотографий", validation.MaxReviewPhotos)
	}

	order, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != in.CustomerID {
		return nil, apperror.ErrForbidden
	}
	if order.Status != models.OrderStatusCompleted {
		return nil, apperror.New(apperror.ErrCodeConflict, "отзыв можно оставить только на завершённый заказ")
	}
	if order.CleanerID == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "на заказе не было исполнителя")
	}

	review := &models.Review{
		OrderID:       in.OrderID,
		CustomerID:    in.CustomerID,
		CleanerID:     *order.CleanerID,
		Overall:       in.Overall,
		Quality:       in.Quality,
		Punctuality:   in.Punctuality,
		Politeness:    in.Politeness,
		Requirements:  in.Requirements,
		Anonymous:     in.Anonymous,
		AllowResponse: in.AllowResponse,
	}
	if in.Text != "" {
		review.Text = &in.Text
	}
	for _, path := range in.PhotoPaths {
		review.Photos = append(review.Photos, models.ReviewPhoto{Path: path})
	}

	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrReviewExists) {
			return nil, apperror.ErrReviewExists
		}
		return nil, err
	}

	// Итоговая оценка дублируется в заказ для списков и статистики.
	if err := s.orders.SetRating(ctx, in.OrderID, in.Overall); err != nil {
		logrus.WithError(err).WithField("order_id", in.OrderID).Warn("review service: не удалось записать оценку в заказ")
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, *order.CleanerID, NotifyInput{
			Type:        models.NotificationTypeOrder,
			Title:       "Новый отзыв",
			Description: fmt.Sprintf("Клиент оценил заказ %s на %d из 5", order.Number, in.Overall),
			Priority:    models.PriorityMedium,
		}); err != nil {
			logrus.WithError(err).Warn("review service: не удалось уведомить о новом отзыве")
		}
	}

	return review, nil
}

// GetOrderReview возвращает отзыв на заказ с проверкой доступа.
func (s *ReviewService) GetOrderReview(ctx context.Context, orderID, userID uuid.UUID, role string) (*models.Review, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkOrderAccess(order, userID, role); err != nil {
		return nil, err
	}
	return s.repo.GetByOrder(ctx, orderID)
}

// ListCleanerReviews возвращает отзывы о клинере. Анонимные отзывы
// отдаются без автора на уровне сериализации.
func (s *ReviewService) ListCleanerReviews(ctx context.Context, cleanerID uuid.UUID, limit, offset int) ([]models.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByCleaner(ctx, cleanerID, limit, offset)
}

// CleanerRating возвращает среднюю оценку клинера и число отзывов.
func (s *ReviewService) CleanerRating(ctx context.Context, cleanerID uuid.UUID) (float64, int, error) {
	return s.repo.CleanerRating(ctx, cleanerID)
}
