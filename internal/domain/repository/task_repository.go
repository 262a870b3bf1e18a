package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"groqy/internal/domain/model"
)

type TaskRepository interface {
	Create(ctx context.Context, tx *sql.Tx, task *model.Task) error
	FindByID(ctx context.Context, id string) (*model.Task, error)
	Update(ctx context.Context, tx *sql.Tx, task *model.Task) error
	Delete(ctx context.Context, tx *sql.Tx, id string) error
	DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) (int64, error)

	ListAll(ctx context.Context) ([]model.Task, error)
	ListByUser(ctx context.Context, userID string) ([]model.Task, error)

	StatusCounts(ctx context.Context) (model.TaskStatusCounts, error)
	CountCompletedBetween(ctx context.Context, from, to time.Time) (int, error)
	UserSummaries(ctx context.Context) ([]model.UserTaskSummary, error)

	// Reminder sweep support.
	ListDueForReminder(ctx context.Context, now time.Time, window time.Duration) ([]model.Task, error)
	TouchNotified(ctx context.Context, id string, at time.Time) error
}

type pgTaskRepository struct {
	db *sql.DB
}

func NewPgTaskRepository(db *sql.DB) TaskRepository {
	return &pgTaskRepository{db: db}
}

const taskColumns = `t.id, t.user_id, t.project_id, t.title, t.description, t.prompt, t.prompt_type,
	t.completed, t.in_progress, t.difficulty, t.due_date, t.required_skills, t.task_url,
	t.file_upload_required, t.downloadable_file_url, t.code, t.file_type, t.file_description,
	t.last_notification_at, t.created_at, t.updated_at`

// taskSelect joins the display columns every read path returns.
const taskSelect = `SELECT ` + taskColumns + `, u.username, p.title
	FROM tasks t
	LEFT JOIN users u ON t.user_id = u.id
	LEFT JOIN projects p ON t.project_id = p.id`

func scanTask(row interface{ Scan(...interface{}) error }) (*model.Task, error) {
	t := &model.Task{}
	var skills stringList
	err := row.Scan(
		&t.ID, &t.UserID, &t.ProjectID, &t.Title, &t.Description, &t.Prompt, &t.PromptType,
		&t.Completed, &t.InProgress, &t.Difficulty, &t.DueDate, &skills, &t.TaskURL,
		&t.FileUploadRequired, &t.DownloadableFileURL, &t.Code, &t.FileType, &t.FileDescription,
		&t.LastNotificationAt, &t.CreatedAt, &t.UpdatedAt,
		&t.OwnerUsername, &t.ProjectTitle,
	)
	if err != nil {
		return nil, err
	}
	t.RequiredSkills = skills
	return t, nil
}

func (r *pgTaskRepository) Create(ctx context.Context, tx *sql.Tx, t *model.Task) error {
	query := `INSERT INTO tasks (id, user_id, project_id, title, description, prompt, prompt_type,
	                             completed, in_progress, difficulty, due_date, required_skills, task_url,
	                             file_upload_required, downloadable_file_url, code)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	          RETURNING created_at, updated_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query,
		t.ID, t.UserID, t.ProjectID, t.Title, t.Description, t.Prompt, t.PromptType,
		t.Completed, t.InProgress, t.Difficulty, t.DueDate, stringList(t.RequiredSkills), t.TaskURL,
		t.FileUploadRequired, t.DownloadableFileURL, t.Code,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgTaskRepository.Create: %w", err)
	}
	return nil
}

func (r *pgTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, lookupError("pgTaskRepository.FindByID", err)
	}
	return task, nil
}

func (r *pgTaskRepository) Update(ctx context.Context, tx *sql.Tx, t *model.Task) error {
	query := `UPDATE tasks SET
                user_id = $1, project_id = $2, title = $3, description = $4, prompt = $5, prompt_type = $6,
                completed = $7, in_progress = $8, difficulty = $9, due_date = $10, required_skills = $11,
                task_url = $12, file_upload_required = $13, downloadable_file_url = $14, code = $15,
                file_type = $16, file_description = $17, updated_at = CURRENT_TIMESTAMP
              WHERE id = $18
              RETURNING updated_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query,
		t.UserID, t.ProjectID, t.Title, t.Description, t.Prompt, t.PromptType,
		t.Completed, t.InProgress, t.Difficulty, t.DueDate, stringList(t.RequiredSkills),
		t.TaskURL, t.FileUploadRequired, t.DownloadableFileURL, t.Code,
		t.FileType, t.FileDescription, t.ID,
	).Scan(&t.UpdatedAt)
	if err != nil {
		return lookupError("pgTaskRepository.Update", err)
	}
	return nil
}

func (r *pgTaskRepository) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return lookupError("pgTaskRepository.Delete", err)
	}
	return expectAffected(res)
}

func (r *pgTaskRepository) DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	res, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM tasks WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("pgTaskRepository.DeleteByUserID: %w", err)
	}
	return res.RowsAffected()
}

func (r *pgTaskRepository) ListAll(ctx context.Context) ([]model.Task, error) {
	return r.list(ctx, taskSelect+` ORDER BY t.created_at DESC`)
}

func (r *pgTaskRepository) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	return r.list(ctx, taskSelect+` WHERE t.user_id = $1 ORDER BY t.created_at DESC`, userID)
}

func (r *pgTaskRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgTaskRepository.list: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("pgTaskRepository.list scan: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *pgTaskRepository) StatusCounts(ctx context.Context) (model.TaskStatusCounts, error) {
	query := `SELECT
                COUNT(*) FILTER (WHERE completed),
                COUNT(*) FILTER (WHERE in_progress AND NOT completed),
                COUNT(*) FILTER (WHERE NOT completed AND NOT in_progress)
              FROM tasks`
	var c model.TaskStatusCounts
	if err := r.db.QueryRowContext(ctx, query).Scan(&c.Completed, &c.InProgress, &c.NotStarted); err != nil {
		return c, fmt.Errorf("pgTaskRepository.StatusCounts: %w", err)
	}
	return c, nil
}

func (r *pgTaskRepository) CountCompletedBetween(ctx context.Context, from, to time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM tasks WHERE completed AND updated_at >= $1 AND updated_at < $2`
	var n int
	if err := r.db.QueryRowContext(ctx, query, from, to).Scan(&n); err != nil {
		return 0, fmt.Errorf("pgTaskRepository.CountCompletedBetween: %w", err)
	}
	return n, nil
}

func (r *pgTaskRepository) UserSummaries(ctx context.Context) ([]model.UserTaskSummary, error) {
	query := `
        SELECT u.id, u.username, u.email, u.role,
               COUNT(t.id),
               COUNT(t.id) FILTER (WHERE t.completed),
               COUNT(t.id) FILTER (WHERE t.in_progress AND NOT t.completed),
               MAX(t.updated_at)
        FROM users u
        LEFT JOIN tasks t ON t.user_id = u.id
        GROUP BY u.id
        ORDER BY u.created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgTaskRepository.UserSummaries: %w", err)
	}
	defer rows.Close()

	summaries := []model.UserTaskSummary{}
	for rows.Next() {
		var s model.UserTaskSummary
		if err := rows.Scan(&s.UserID, &s.Username, &s.Email, &s.Role,
			&s.TotalTasks, &s.CompletedTasks, &s.InProgressTasks, &s.LastActive); err != nil {
			return nil, fmt.Errorf("pgTaskRepository.UserSummaries scan: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *pgTaskRepository) ListDueForReminder(ctx context.Context, now time.Time, window time.Duration) ([]model.Task, error) {
	query := taskSelect + `
        WHERE NOT t.completed
          AND t.due_date IS NOT NULL
          AND t.due_date <= $1
          AND (t.last_notification_at IS NULL OR t.last_notification_at < $2)
        ORDER BY t.due_date`
	return r.list(ctx, query, now.Add(window), now.Add(-window))
}

func (r *pgTaskRepository) TouchNotified(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tasks SET last_notification_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("pgTaskRepository.TouchNotified: %w", err)
	}
	return expectAffected(res)
}
