package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/repository/common"
)

var (
	// ErrSlotConflict возвращается при попытке занять слот,
	// который уже занят или помечен недоступным.
	ErrSlotConflict = errors.New("slot is not available")
	// ErrVacationNotFound возвращается, когда заявка на отпуск не найдена.
	ErrVacationNotFound = errors.New("vacation not found")
)

// ScheduleRepository хранит отклонения расписания клинера от рабочего
// окна по умолчанию: занятые слоты и слоты, закрытые вручную.
// Свободные слоты в базе не хранятся, сетка достраивается на чтении.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository создаёт экземпляр репозитория.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListSlots возвращает сохранённые слоты клинера за период [from, to].
func (r *ScheduleRepository) ListSlots(ctx context.Context, cleanerID uuid.UUID, from, to time.Time) ([]models.TimeSlot, error) {
	var slots []models.TimeSlot
	err := r.db.SelectContext(ctx, &slots, `
		SELECT * FROM time_slots
		WHERE cleaner_id = $1 AND slot_date >= $2 AND slot_date <= $3
		ORDER BY slot_date, hour
	`, cleanerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("schedule repository: list slots %w", err)
	}
	return slots, nil
}

// SetSlotStatus помечает один слот занятым вручную или снова свободным.
// Статус available означает возврат к значению по умолчанию, строка
// при этом удаляется.
func (r *ScheduleRepository) SetSlotStatus(ctx context.Context, cleanerID uuid.UUID, date time.Time, hour int, status string) error {
	if status == models.SlotStatusAvailable {
		_, err := r.db.ExecContext(ctx, `
			DELETE FROM time_slots
			WHERE cleaner_id = $1 AND slot_date = $2 AND hour = $3 AND order_id IS NULL
		`, cleanerID, date, hour)
		if err != nil {
			return fmt.Errorf("schedule repository: reset slot %w", err)
		}
		return nil
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO time_slots (cleaner_id, slot_date, hour, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cleaner_id, slot_date, hour) DO UPDATE
		SET status = EXCLUDED.status, updated_at = NOW()
		WHERE time_slots.order_id IS NULL
	`, cleanerID, date, hour, status)
	if err != nil {
		return fmt.Errorf("schedule repository: set slot status %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule repository: set slot status rows affected %w", err)
	}
	if rowsAffected == 0 {
		// Слот привязан к заказу, руками его не переключить.
		return ErrSlotConflict
	}

	return nil
}

// SetDayStatus помечает все часы дня в пределах рабочего окна. Слоты,
// занятые заказами, не трогаются. Используется быстрыми действиями
// "закрыть день" и "открыть день".
func (r *ScheduleRepository) SetDayStatus(ctx context.Context, cleanerID uuid.UUID, date time.Time, startHour, endHour int, status string) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if status == models.SlotStatusAvailable {
			_, err := tx.ExecContext(ctx, `
				DELETE FROM time_slots
				WHERE cleaner_id = $1 AND slot_date = $2 AND order_id IS NULL
			`, cleanerID, date)
			if err != nil {
				return fmt.Errorf("schedule repository: open day %w", err)
			}
			return nil
		}

		_, err := tx.ExecContext(ctx, `
			DELETE FROM time_slots
			WHERE cleaner_id = $1 AND slot_date = $2 AND order_id IS NULL
		`, cleanerID, date)
		if err != nil {
			return fmt.Errorf("schedule repository: clear day %w", err)
		}

		inserter := common.NewBatchInserter(tx, `
			INSERT INTO time_slots (cleaner_id, slot_date, hour, status)
		`, 4, 0)
		for hour := startHour; hour < endHour; hour++ {
			if err := inserter.Add(ctx, cleanerID, date, hour, status); err != nil {
				return fmt.Errorf("schedule repository: close day %w", err)
			}
		}
		if err := inserter.Flush(ctx); err != nil {
			return fmt.Errorf("schedule repository: close day %w", err)
		}
		return nil
	})
}

// ClearRange удаляет ручные отметки клинера за период [from, to],
// забронированные слоты остаются.
func (r *ScheduleRepository) ClearRange(ctx context.Context, cleanerID uuid.UUID, from, to time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM time_slots
		WHERE cleaner_id = $1 AND slot_date >= $2 AND slot_date <= $3 AND order_id IS NULL
	`, cleanerID, from, to)
	if err != nil {
		return fmt.Errorf("schedule repository: clear range %w", err)
	}
	return nil
}

// BookSlots занимает слоты заказа [startHour, endHour) одной транзакцией.
// Если хоть один час уже занят или закрыт, вся бронь откатывается
// с ErrSlotConflict.
func (r *ScheduleRepository) BookSlots(ctx context.Context, cleanerID uuid.UUID, orderID uuid.UUID, date time.Time, startHour, endHour int) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var taken []int
		err := tx.SelectContext(ctx, &taken, `
			SELECT hour FROM time_slots
			WHERE cleaner_id = $1 AND slot_date = $2 AND hour >= $3 AND hour < $4
			FOR UPDATE
		`, cleanerID, date, startHour, endHour)
		if err != nil {
			return fmt.Errorf("schedule repository: check slots %w", err)
		}
		if len(taken) > 0 {
			return ErrSlotConflict
		}

		inserter := common.NewBatchInserter(tx, `
			INSERT INTO time_slots (cleaner_id, slot_date, hour, status, order_id)
		`, 5, 0)
		for hour := startHour; hour < endHour; hour++ {
			if err := inserter.Add(ctx, cleanerID, date, hour, models.SlotStatusBooked, orderID); err != nil {
				return fmt.Errorf("schedule repository: book slots %w", err)
			}
		}
		if err := inserter.Flush(ctx); err != nil {
			// Уникальный индекс ловит гонку между проверкой и вставкой.
			if isUniqueViolation(err) {
				return ErrSlotConflict
			}
			return fmt.Errorf("schedule repository: book slots %w", err)
		}
		return nil
	})
}

// ReleaseByOrder освобождает слоты отменённого заказа.
func (r *ScheduleRepository) ReleaseByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM time_slots WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("schedule repository: release by order %w", err)
	}
	return nil
}

// CreateVacation создаёт заявку на отпуск в статусе pending.
func (r *ScheduleRepository) CreateVacation(ctx context.Context, vacation *models.Vacation) error {
	query := `
		INSERT INTO vacations (cleaner_id, start_date, end_date, reason, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		vacation.CleanerID, vacation.StartDate, vacation.EndDate, vacation.Reason, vacation.Status,
	).Scan(&vacation.ID, &vacation.CreatedAt); err != nil {
		return fmt.Errorf("schedule repository: create vacation %w", err)
	}
	return nil
}

// ListVacations возвращает заявки клинера, свежие первыми.
func (r *ScheduleRepository) ListVacations(ctx context.Context, cleanerID uuid.UUID) ([]models.Vacation, error) {
	var vacations []models.Vacation
	err := r.db.SelectContext(ctx, &vacations, `
		SELECT * FROM vacations WHERE cleaner_id = $1 ORDER BY start_date DESC
	`, cleanerID)
	if err != nil {
		return nil, fmt.Errorf("schedule repository: list vacations %w", err)
	}
	return vacations, nil
}

// GetVacation возвращает заявку по идентификатору.
func (r *ScheduleRepository) GetVacation(ctx context.Context, id uuid.UUID) (*models.Vacation, error) {
	return common.GetByID[models.Vacation](ctx, r.db, "vacations", id, ErrVacationNotFound)
}

// UpdateVacationStatus переводит заявку из pending в approved или rejected.
func (r *ScheduleRepository) UpdateVacationStatus(ctx context.Context, id uuid.UUID, status string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE vacations SET status = $2 WHERE id = $1 AND status = $3
	`, id, status, models.VacationStatusPending)
	if err != nil {
		return fmt.Errorf("schedule repository: update vacation status %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule repository: update vacation status rows affected %w", err)
	}
	if rowsAffected == 0 {
		if _, getErr := r.GetVacation(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("schedule repository: vacation already processed")
	}
	return nil
}

// ListApprovedVacations возвращает одобренные отпуска, пересекающие период.
func (r *ScheduleRepository) ListApprovedVacations(ctx context.Context, cleanerID uuid.UUID, from, to time.Time) ([]models.Vacation, error) {
	var vacations []models.Vacation
	err := r.db.SelectContext(ctx, &vacations, `
		SELECT * FROM vacations
		WHERE cleaner_id = $1 AND status = $2 AND start_date <= $3 AND end_date >= $4
	`, cleanerID, models.VacationStatusApproved, to, from)
	if err != nil {
		return nil, fmt.Errorf("schedule repository: list approved vacations %w", err)
	}
	return vacations, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
