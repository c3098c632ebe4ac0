package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/repository/common"
)

// ErrIssueNotFound возвращается, когда обращение не найдено.
var ErrIssueNotFound = errors.New("issue not found")

// IssueRepository отвечает за ленту проблем админки.
type IssueRepository struct {
	db *sqlx.DB
}

// NewIssueRepository создаёт экземпляр репозитория.
func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// Create сохраняет обращение.
func (r *IssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	query := `
		INSERT INTO issues (type, order_id, reporter_id, description, priority, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		issue.Type, issue.OrderID, issue.ReporterID, issue.Description, issue.Priority, issue.Status,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt); err != nil {
		return fmt.Errorf("issue repository: create %w", err)
	}
	return nil
}

// GetByID возвращает обращение по идентификатору.
func (r *IssueRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Issue, error) {
	return common.GetByID[models.Issue](ctx, r.db, "issues", id, ErrIssueNotFound)
}

// List возвращает обращения: открытые первыми, внутри группы свежие сверху.
func (r *IssueRepository) List(ctx context.Context, status string, limit, offset int) ([]models.Issue, error) {
	query := `SELECT * FROM issues`
	args := []interface{}{}
	argIndex := 1

	if status != "" && status != "all" {
		query += fmt.Sprintf(" WHERE status = $%d", argIndex)
		args = append(args, status)
		argIndex++
	}

	query += ` ORDER BY (status = 'new') DESC, created_at DESC`

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, offset)
	}

	var issues []models.Issue
	if err := r.db.SelectContext(ctx, &issues, query, args...); err != nil {
		return nil, fmt.Errorf("issue repository: list %w", err)
	}
	return issues, nil
}

// UpdateStatus переводит обращение в новый статус.
func (r *IssueRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE issues SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("issue repository: update status %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("issue repository: update status rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrIssueNotFound
	}
	return nil
}

// CountOpen считает необработанные обращения для бейджа в админке.
func (r *IssueRepository) CountOpen(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM issues WHERE status <> 'resolved'
	`)
	if err != nil {
		return 0, fmt.Errorf("issue repository: count open %w", err)
	}
	return count, nil
}
