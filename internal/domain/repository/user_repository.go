package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"groqy/internal/common"
	"groqy/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, tx *sql.Tx, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, tx *sql.Tx, user *model.User) error
	Delete(ctx context.Context, tx *sql.Tx, id string) error
	Count(ctx context.Context) (int, error)

	AddPoints(ctx context.Context, tx *sql.Tx, id string, points int) error
	TouchLastEmail(ctx context.Context, id string, at time.Time) error
	TouchLastNotification(ctx context.Context, id string, at time.Time) error
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, username, email, hashed_password, role, bio, skills, total_points,
	last_notification_at, last_email_at, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*model.User, error) {
	user := &model.User{}
	var skills stringList
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.HashedPassword, &user.Role, &user.Bio, &skills,
		&user.TotalPoints, &user.LastNotificationAt, &user.LastEmailAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Skills = skills
	return user, nil
}

func (r *pgUserRepository) Create(ctx context.Context, tx *sql.Tx, user *model.User) error {
	query := `INSERT INTO users (id, username, email, hashed_password, role, bio, skills)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at, updated_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.HashedPassword, user.Role, user.Bio, stringList(user.Skills),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isPgCode(err, pgUniqueViolation) {
			return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, lookupError("pgUserRepository.FindByEmail", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, lookupError("pgUserRepository.FindByID", err)
	}
	return user, nil
}

func (r *pgUserRepository) List(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.List: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("pgUserRepository.List scan: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *pgUserRepository) Update(ctx context.Context, tx *sql.Tx, user *model.User) error {
	query := `UPDATE users SET username = $1, email = $2, role = $3, bio = $4, skills = $5,
	                 updated_at = CURRENT_TIMESTAMP
	          WHERE id = $6
	          RETURNING updated_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query,
		user.Username, user.Email, user.Role, user.Bio, stringList(user.Skills), user.ID,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if isPgCode(err, pgUniqueViolation) {
			return fmt.Errorf("email is already in use: %w", common.ErrConflict)
		}
		return lookupError("pgUserRepository.Update", err)
	}
	return nil
}

func (r *pgUserRepository) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return lookupError("pgUserRepository.Delete", err)
	}
	return expectAffected(res)
}

func (r *pgUserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("pgUserRepository.Count: %w", err)
	}
	return n, nil
}

func (r *pgUserRepository) AddPoints(ctx context.Context, tx *sql.Tx, id string, points int) error {
	res, err := conn(r.db, tx).ExecContext(ctx,
		`UPDATE users SET total_points = total_points + $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, points, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.AddPoints: %w", err)
	}
	return expectAffected(res)
}

func (r *pgUserRepository) TouchLastEmail(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_email_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.TouchLastEmail: %w", err)
	}
	return nil
}

func (r *pgUserRepository) TouchLastNotification(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_notification_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.TouchLastNotification: %w", err)
	}
	return nil
}

func (r *pgUserRepository) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	query := `
        SELECT u.id, u.username, u.total_points,
               COUNT(t.id) FILTER (WHERE t.completed) AS completed_tasks
        FROM users u
        LEFT JOIN tasks t ON t.user_id = u.id
        GROUP BY u.id
        ORDER BY u.total_points DESC, completed_tasks DESC, u.created_at ASC
        LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.Leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.TotalPoints, &e.CompletedTasks); err != nil {
			return nil, fmt.Errorf("pgUserRepository.Leaderboard scan: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
