package memory

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"groqy/internal/common"
	"groqy/internal/domain/model"
)

type submissionRepo struct {
	s *Store
}

func (r *submissionRepo) CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	defer r.s.write(tx)()
	now := r.s.now()
	sub.SubmittedAt, sub.UpdatedAt = now, now
	stored := *sub
	stored.TaskTitle = nil
	r.s.submissions[sub.ID] = stored
	return nil
}

func (r *submissionRepo) ListByUser(ctx context.Context, userID string) ([]model.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	subs := []model.Submission{}
	for _, sub := range r.s.submissions {
		if sub.UserID != userID {
			continue
		}
		if t, ok := r.s.tasks[sub.TaskID]; ok {
			sub.TaskTitle = strPtr(t.Title)
		}
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}

func (r *submissionRepo) DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	defer r.s.write(tx)()
	var n int64
	for id, sub := range r.s.submissions {
		if sub.UserID == userID {
			delete(r.s.submissions, id)
			n++
		}
	}
	return n, nil
}

type commentRepo struct {
	s *Store
}

func (r *commentRepo) Create(ctx context.Context, c *model.Comment) error {
	defer r.s.write(nil)()
	now := r.s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	stored := *c
	stored.Username = nil
	r.s.comments[c.ID] = stored
	return nil
}

func (r *commentRepo) ListByTask(ctx context.Context, taskID string) ([]model.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	comments := []model.Comment{}
	for _, c := range r.s.comments {
		if c.TaskID != taskID {
			continue
		}
		if u, ok := r.s.users[c.UserID]; ok {
			c.Username = strPtr(u.Username)
		}
		comments = append(comments, c)
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.Before(comments[j].CreatedAt) })
	return comments, nil
}

func (r *commentRepo) DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	defer r.s.write(tx)()
	var n int64
	for id, c := range r.s.comments {
		if c.UserID == userID {
			delete(r.s.comments, id)
			n++
		}
	}
	return n, nil
}

type notificationRepo struct {
	s *Store
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	defer r.s.write(nil)()
	n.CreatedAt = r.s.now()
	r.s.notifications[n.ID] = *n
	return nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := []model.Notification{}
	for _, n := range r.s.notifications {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			list = append(list, n)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, userID string, at time.Time) error {
	defer r.s.write(nil)()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return common.ErrNotFound
	}
	n.Read = true
	if n.ReadAt == nil {
		n.ReadAt = &at
	}
	r.s.notifications[id] = n
	return nil
}

func (r *notificationRepo) DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	defer r.s.write(tx)()
	var n int64
	for id, nt := range r.s.notifications {
		if nt.UserID == userID {
			delete(r.s.notifications, id)
			n++
		}
	}
	return n, nil
}
