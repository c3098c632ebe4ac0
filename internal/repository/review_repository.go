package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/repository/common"
)

var (
	// ErrReviewNotFound возвращается, когда отзыв не найден.
	ErrReviewNotFound = errors.New("review not found")
	// ErrReviewExists возвращается при повторном отзыве на тот же заказ:
	// уникальный индекс по order_id допускает ровно один.
	ErrReviewExists = errors.New("review already exists for this order")
)

// ReviewRepository отвечает за отзывы о выполненных заказах.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository создаёт экземпляр репозитория.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create сохраняет отзыв вместе с фотографиями одной транзакцией.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO reviews (order_id, customer_id, cleaner_id, overall, quality, punctuality, politeness, requirements, review_text, anonymous, allow_response)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id, created_at
		`, review.OrderID, review.CustomerID, review.CleanerID,
			review.Overall, review.Quality, review.Punctuality, review.Politeness, review.Requirements,
			review.Text, review.Anonymous, review.AllowResponse).
			Scan(&review.ID, &review.CreatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return ErrReviewExists
			}
			return fmt.Errorf("review repository: create %w", err)
		}

		if len(review.Photos) == 0 {
			return nil
		}

		inserter := common.NewBatchInserter(tx, `
			INSERT INTO review_photos (review_id, path)
		`, 2, 0)
		for i := range review.Photos {
			review.Photos[i].ReviewID = review.ID
			if err := inserter.Add(ctx, review.ID, review.Photos[i].Path); err != nil {
				return fmt.Errorf("review repository: add photo %w", err)
			}
		}
		if err := inserter.Flush(ctx); err != nil {
			return fmt.Errorf("review repository: add photos %w", err)
		}
		return nil
	})
}

// GetByOrder возвращает отзыв на заказ.
func (r *ReviewRepository) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Review, error) {
	review, err := common.GetByField[models.Review](ctx, r.db, "reviews", "order_id", orderID, ErrReviewNotFound)
	if err != nil {
		return nil, err
	}
	if err := r.loadPhotos(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// GetByID возвращает отзыв по идентификатору.
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review, err := common.GetByID[models.Review](ctx, r.db, "reviews", id, ErrReviewNotFound)
	if err != nil {
		return nil, err
	}
	if err := r.loadPhotos(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// ListByCleaner возвращает отзывы о клинере, новые первыми.
func (r *ReviewRepository) ListByCleaner(ctx context.Context, cleanerID uuid.UUID, limit, offset int) ([]models.Review, error) {
	query := `SELECT * FROM reviews WHERE cleaner_id = $1 ORDER BY created_at DESC`
	args := []interface{}{cleanerID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
		if offset > 0 {
			query += " OFFSET $3"
			args = append(args, offset)
		}
	}

	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, fmt.Errorf("review repository: list by cleaner %w", err)
	}
	return reviews, nil
}

// CleanerRating возвращает среднюю общую оценку клинера и число отзывов.
func (r *ReviewRepository) CleanerRating(ctx context.Context, cleanerID uuid.UUID) (float64, int, error) {
	var row struct {
		Average sql.NullFloat64 `db:"average"`
		Count   int             `db:"count"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT AVG(overall) AS average, COUNT(*) AS count
		FROM reviews WHERE cleaner_id = $1
	`, cleanerID)
	if err != nil {
		return 0, 0, fmt.Errorf("review repository: cleaner rating %w", err)
	}
	return row.Average.Float64, row.Count, nil
}

func (r *ReviewRepository) loadPhotos(ctx context.Context, review *models.Review) error {
	err := r.db.SelectContext(ctx, &review.Photos, `
		SELECT * FROM review_photos WHERE review_id = $1 ORDER BY id
	`, review.ID)
	if err != nil {
		return fmt.Errorf("review repository: load photos %w", err)
	}
	return nil
}
