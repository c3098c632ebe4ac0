package models

import (
	"time"

	"github.com/google/uuid"
)

// TimeSlot описывает один час расписания клинера. В базе хранятся только
// слоты, отличающиеся от дефолта (бронь и ручные переопределения);
// остальная сетка достраивается при чтении.
type TimeSlot struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	CleanerID uuid.UUID  `db:"cleaner_id" json:"cleaner_id"`
	Date      time.Time  `db:"slot_date" json:"date"`
	Hour      int        `db:"hour" json:"hour"`
	Status    string     `db:"status" json:"status"`
	OrderID   *uuid.UUID `db:"order_id" json:"order_id,omitempty"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// DaySchedule агрегирует слоты одного дня для недельной сетки.
type DaySchedule struct {
	Date    time.Time  `json:"date"`
	IsToday bool       `json:"is_today"`
	Slots   []TimeSlot `json:"slots"`
}

// Vacation описывает заявку клинера на отпуск или больничный.
type Vacation struct {
	ID        uuid.UUID `db:"id" json:"id"`
	CleanerID uuid.UUID `db:"cleaner_id" json:"cleaner_id"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Reason    string    `db:"reason" json:"reason"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
