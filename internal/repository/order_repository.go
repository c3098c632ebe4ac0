package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/quickclean/quickclean-backend/internal/models"
)

// ErrOrderNotFound возвращается, когда заказ не найден.
var ErrOrderNotFound = errors.New("order not found")

// ErrOrderStatusConflict возвращается, когда переход статуса невозможен:
// заказ уже изменён конкурентным запросом или находится в конечном статусе.
var ErrOrderStatusConflict = errors.New("order status conflict")

// OrderRepository отвечает за работу с заказами.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository создаёт экземпляр репозитория.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create создаёт заказ. Номер вида QC-2024-001234 генерируется из
// последовательности в базе.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (number, customer_id, cleaner_id, service_type, scheduled_date, start_hour, end_hour, address, status, price)
		VALUES ('QC-' || to_char(NOW(), 'YYYY') || '-' || lpad(nextval('order_number_seq')::text, 6, '0'),
			$1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, number, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		order.CustomerID, order.CleanerID, order.ServiceType, order.ScheduledDate,
		order.StartHour, order.EndHour, order.Address, order.Status, order.Price,
	).Scan(&order.ID, &order.Number, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("order repository: create %w", err)
	}

	return nil
}

// GetByID возвращает заказ по идентификатору.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id %w", err)
	}

	return &order, nil
}

// ListByCustomer возвращает заказы клиента с учётом фильтра.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, filter models.OrderFilter) ([]models.Order, error) {
	return r.list(ctx, "customer_id", customerID, filter)
}

// ListByCleaner возвращает заказы клинера с учётом фильтра.
func (r *OrderRepository) ListByCleaner(ctx context.Context, cleanerID uuid.UUID, filter models.OrderFilter) ([]models.Order, error) {
	return r.list(ctx, "cleaner_id", cleanerID, filter)
}

func (r *OrderRepository) list(ctx context.Context, ownerField string, ownerID uuid.UUID, filter models.OrderFilter) ([]models.Order, error) {
	query := fmt.Sprintf(`SELECT * FROM orders WHERE %s = $1`, ownerField)
	args := []interface{}{ownerID}
	argIndex := 2

	// Фильтр по статусу: "active" раскрывается в scheduled + in_progress.
	switch filter.Status {
	case "", "all":
	case "active":
		query += fmt.Sprintf(" AND status = ANY($%d)", argIndex)
		args = append(args, pq.Array(models.ActiveOrderStatuses))
		argIndex++
	default:
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	// Поиск по подстроке номера заказа или типа услуги без учёта регистра.
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (number ILIKE $%d OR service_type ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	query += " ORDER BY scheduled_date DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("order repository: list %w", err)
	}

	return orders, nil
}

// UpdateStatus переводит заказ в новый статус. Перевод выполняется только
// из перечисленных исходных статусов; конкурентный переход возвращает
// ErrOrderStatusConflict.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string, fromStatuses []string) error {
	query := `
		UPDATE orders
		SET status = $2,
			completed_at = CASE WHEN $2 = 'completed' THEN NOW() ELSE completed_at END,
			updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
	`
	result, err := r.db.ExecContext(ctx, query, id, newStatus, pq.Array(fromStatuses))
	if err != nil {
		return fmt.Errorf("order repository: update status %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("order repository: update status rows affected %w", err)
	}
	if rowsAffected == 0 {
		// Либо заказа нет, либо статус уже ушёл вперёд.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrOrderStatusConflict
	}

	return nil
}

// SetCancelReason сохраняет причину отмены.
func (r *OrderRepository) SetCancelReason(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE orders SET cancel_reason = $2, updated_at = NOW() WHERE id = $1`, id, reason)
	if err != nil {
		return fmt.Errorf("order repository: set cancel reason %w", err)
	}
	return nil
}

// AssignCleaner назначает клинера на заказ.
func (r *OrderRepository) AssignCleaner(ctx context.Context, id uuid.UUID, cleanerID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET cleaner_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3 AND cleaner_id IS NULL
	`, id, cleanerID, models.OrderStatusScheduled)
	if err != nil {
		return fmt.Errorf("order repository: assign cleaner %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("order repository: assign cleaner rows affected %w", err)
	}
	if rowsAffected == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrOrderStatusConflict
	}

	return nil
}

// SetRating записывает итоговую оценку завершённого заказа.
func (r *OrderRepository) SetRating(ctx context.Context, id uuid.UUID, rating int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET rating = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, id, rating, models.OrderStatusCompleted)
	if err != nil {
		return fmt.Errorf("order repository: set rating %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("order repository: set rating rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderStatusConflict
	}

	return nil
}

// AddPhoto прикрепляет фотографию до/после к заказу.
func (r *OrderRepository) AddPhoto(ctx context.Context, photo *models.OrderPhoto) error {
	query := `
		INSERT INTO order_photos (order_id, kind, path)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, photo.OrderID, photo.Kind, photo.Path).
		Scan(&photo.ID, &photo.CreatedAt); err != nil {
		return fmt.Errorf("order repository: add photo %w", err)
	}
	return nil
}

// ListPhotos возвращает фотографии заказа.
func (r *OrderRepository) ListPhotos(ctx context.Context, orderID uuid.UUID) ([]models.OrderPhoto, error) {
	var photos []models.OrderPhoto
	err := r.db.SelectContext(ctx, &photos, `
		SELECT * FROM order_photos WHERE order_id = $1 ORDER BY created_at
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("order repository: list photos %w", err)
	}
	return photos, nil
}

// CurrentForCleaner возвращает активный заказ клинера, если такой есть.
func (r *OrderRepository) CurrentForCleaner(ctx context.Context, cleanerID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.GetContext(ctx, &order, `
		SELECT * FROM orders
		WHERE cleaner_id = $1 AND status = $2
		ORDER BY scheduled_date, start_hour
		LIMIT 1
	`, cleanerID, models.OrderStatusInProgress)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("order repository: current for cleaner %w", err)
	}
	return &order, nil
}

// ListUpcoming возвращает запланированные заказы, начинающиеся в окне
// [from, to). Используется фоновым напоминанием.
func (r *OrderRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE status = $1
		  AND scheduled_date + make_interval(hours => start_hour) >= $2
		  AND scheduled_date + make_interval(hours => start_hour) < $3
		ORDER BY scheduled_date, start_hour
	`, models.OrderStatusScheduled, from, to)
	if err != nil {
		return nil, fmt.Errorf("order repository: list upcoming %w", err)
	}
	return orders, nil
}

// Metrics агрегирует показатели платформы за период для админки.
func (r *OrderRepository) Metrics(ctx context.Context, from, to time.Time, serviceType string) (*models.AdminMetrics, error) {
	var row struct {
		OrdersCount    int             `db:"orders_count"`
		CompletedCount int             `db:"completed_count"`
		CancelledCount int             `db:"cancelled_count"`
		Revenue        float64         `db:"revenue"`
		AvgRating      sql.NullFloat64 `db:"avg_rating"`
		AvgCheck       sql.NullFloat64 `db:"avg_check"`
		Customers      int             `db:"customers"`
	}

	query := `
		SELECT COUNT(*) AS orders_count,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed_count,
			COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled_count,
			COALESCE(SUM(price) FILTER (WHERE status = 'completed'), 0) AS revenue,
			AVG(rating) FILTER (WHERE rating > 0) AS avg_rating,
			AVG(price) FILTER (WHERE status = 'completed') AS avg_check,
			COUNT(DISTINCT customer_id) AS customers
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
	`
	args := []interface{}{from, to}
	if serviceType != "" && serviceType != "all" {
		query += " AND service_type = $3"
		args = append(args, serviceType)
	}

	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, fmt.Errorf("order repository: metrics %w", err)
	}

	return &models.AdminMetrics{
		OrdersCount:     row.OrdersCount,
		CompletedCount:  row.CompletedCount,
		CancelledCount:  row.CancelledCount,
		Revenue:         row.Revenue,
		ActiveCustomers: row.Customers,
		AverageRating:   row.AvgRating.Float64,
		AverageCheck:    row.AvgCheck.Float64,
	}, nil
}

// TopCleaners возвращает рейтинг клинеров по завершённым заказам за период.
func (r *OrderRepository) TopCleaners(ctx context.Context, from, to time.Time, limit int) ([]models.TopCleaner, error) {
	if limit <= 0 {
		limit = 5
	}

	var cleaners []models.TopCleaner
	err := r.db.SelectContext(ctx, &cleaners, `
		SELECT o.cleaner_id,
			COALESCE(p.display_name, '') AS display_name,
			COUNT(*) AS completed_orders,
			COALESCE(AVG(o.rating) FILTER (WHERE o.rating > 0), 0) AS average_rating,
			COALESCE(SUM(o.price), 0) AS earned
		FROM orders o
		LEFT JOIN profiles p ON p.user_id = o.cleaner_id
		WHERE o.status = 'completed' AND o.cleaner_id IS NOT NULL
		  AND o.completed_at >= $1 AND o.completed_at < $2
		GROUP BY o.cleaner_id, p.display_name
		ORDER BY completed_orders DESC, average_rating DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("order repository: top cleaners %w", err)
	}
	return cleaners, nil
}

// ServiceTypeStats возвращает агрегаты по типам услуг за период.
func (r *OrderRepository) ServiceTypeStats(ctx context.Context, from, to time.Time) ([]models.ServiceTypeStat, error) {
	var stats []models.ServiceTypeStat
	err := r.db.SelectContext(ctx, &stats, `
		SELECT service_type,
			COUNT(*) AS orders_count,
			COALESCE(SUM(price) FILTER (WHERE status = 'completed'), 0) AS revenue
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY service_type
		ORDER BY orders_count DESC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("order repository: service type stats %w", err)
	}
	return stats, nil
}
