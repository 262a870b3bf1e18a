package repository

import (
	"context"
	"database/sql"
	"fmt"

	"groqy/internal/domain/model"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListByTask(ctx context.Context, taskID string) ([]model.Comment, error)
	DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) (int64, error)
}

type pgCommentRepository struct {
	db *sql.DB
}

func NewPgCommentRepository(db *sql.DB) CommentRepository {
	return &pgCommentRepository{db: db}
}

func (r *pgCommentRepository) Create(ctx context.Context, c *model.Comment) error {
	query := `INSERT INTO comments (id, user_id, task_id, content)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at, updated_at`
	if err := r.db.QueryRowContext(ctx, query, c.ID, c.UserID, c.TaskID, c.Content).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("pgCommentRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCommentRepository) ListByTask(ctx context.Context, taskID string) ([]model.Comment, error) {
	query := `
        SELECT c.id, c.user_id, c.task_id, c.content, c.created_at, c.updated_at, u.username
        FROM comments c
        LEFT JOIN users u ON c.user_id = u.id
        WHERE c.task_id = $1
        ORDER BY c.created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("pgCommentRepository.ListByTask: %w", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.TaskID, &c.Content, &c.CreatedAt, &c.UpdatedAt, &c.Username); err != nil {
			return nil, fmt.Errorf("pgCommentRepository.ListByTask scan: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *pgCommentRepository) DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	res, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM comments WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("pgCommentRepository.DeleteByUserID: %w", err)
	}
	return res.RowsAffected()
}
