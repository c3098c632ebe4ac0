package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduleRepoFixture(t *testing.T) (*ScheduleRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewScheduleRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestScheduleRepository_BookSlots_LocksThenInserts(t *testing.T) {
	repo, mock := newScheduleRepoFixture(t)

	cleanerID := uuid.New()
	orderID := uuid.New()
	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)SELECT hour FROM time_slots.*FOR UPDATE`).
		WithArgs(cleanerID, date, 10, 12).
		WillReturnRows(sqlmock.NewRows([]string{"hour"}))
	mock.ExpectExec("INSERT INTO time_slots").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.BookSlots(context.Background(), cleanerID, orderID, date, 10, 12)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepository_BookSlots_TakenHour(t *testing.T) {
	repo, mock := newScheduleRepoFixture(t)

	cleanerID := uuid.New()
	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)SELECT hour FROM time_slots.*FOR UPDATE`).
		WithArgs(cleanerID, date, 10, 12).
		WillReturnRows(sqlmock.NewRows([]string{"hour"}).AddRow(11))
	mock.ExpectRollback()

	err := repo.BookSlots(context.Background(), cleanerID, uuid.New(), date, 10, 12)

	assert.ErrorIs(t, err, ErrSlotConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepository_BookSlots_RaceLosesToUniqueIndex(t *testing.T) {
	repo, mock := newScheduleRepoFixture(t)

	cleanerID := uuid.New()
	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)SELECT hour FROM time_slots.*FOR UPDATE`).
		WithArgs(cleanerID, date, 9, 10).
		WillReturnRows(sqlmock.NewRows([]string{"hour"}))
	mock.ExpectExec("INSERT INTO time_slots").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.BookSlots(context.Background(), cleanerID, uuid.New(), date, 9, 10)

	assert.ErrorIs(t, err, ErrSlotConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
