package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"groqy/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, userID string, at time.Time) error
	DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) (int64, error)
}

type pgNotificationRepository struct {
	db *sql.DB
}

func NewPgNotificationRepository(db *sql.DB) NotificationRepository {
	return &pgNotificationRepository{db: db}
}

func (r *pgNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `INSERT INTO notifications (id, user_id, type, content, related_id)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at`
	if err := r.db.QueryRowContext(ctx, query, n.ID, n.UserID, n.Type, n.Content, n.RelatedID).Scan(&n.CreatedAt); err != nil {
		return fmt.Errorf("pgNotificationRepository.Create: %w", err)
	}
	return nil
}

func (r *pgNotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	query := `SELECT id, user_id, type, content, related_id, read, created_at, read_at
	          FROM notifications
	          WHERE user_id = $1 AND ($2 = FALSE OR read = FALSE)
	          ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("pgNotificationRepository.ListByUser: %w", err)
	}
	defer rows.Close()

	list := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Content, &n.RelatedID, &n.Read, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, fmt.Errorf("pgNotificationRepository.ListByUser scan: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkRead only touches a notification owned by userID; anything else is
// reported as not found.
func (r *pgNotificationRepository) MarkRead(ctx context.Context, id, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE, read_at = COALESCE(read_at, $1) WHERE id = $2 AND user_id = $3`,
		at, id, userID)
	if err != nil {
		return lookupError("pgNotificationRepository.MarkRead", err)
	}
	return expectAffected(res)
}

func (r *pgNotificationRepository) DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	res, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("pgNotificationRepository.DeleteByUserID: %w", err)
	}
	return res.RowsAffected()
}
