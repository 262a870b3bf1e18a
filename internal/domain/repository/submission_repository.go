package repository

import (
	"context"
	"database/sql"
	"fmt"

	"groqy/internal/domain/model"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	ListByUser(ctx context.Context, userID string) ([]model.Submission, error)
	DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) (int64, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) CreateSubmission(ctx context.Context, tx *sql.Tx, s *model.Submission) error {
	query := `INSERT INTO submissions (id, user_id, task_id, code, uploaded_file_url, file_type, submission_type, status, feedback)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING submitted_at, updated_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query,
		s.ID, s.UserID, s.TaskID, s.Code, s.UploadedFileURL, s.FileType, s.SubmissionType, s.Status, s.Feedback,
	).Scan(&s.SubmittedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmission: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) ListByUser(ctx context.Context, userID string) ([]model.Submission, error) {
	query := `
        SELECT s.id, s.user_id, s.task_id, s.code, s.uploaded_file_url, s.file_type, s.submission_type,
               s.status, s.feedback, s.submitted_at, s.updated_at, t.title
        FROM submissions s
        LEFT JOIN tasks t ON s.task_id = t.id
        WHERE s.user_id = $1
        ORDER BY s.submitted_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByUser: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.UserID, &s.TaskID, &s.Code, &s.UploadedFileURL, &s.FileType,
			&s.SubmissionType, &s.Status, &s.Feedback, &s.SubmittedAt, &s.UpdatedAt, &s.TaskTitle); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListByUser scan: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *pgSubmissionRepository) DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	res, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM submissions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("pgSubmissionRepository.DeleteByUserID: %w", err)
	}
	return res.RowsAffected()
}
