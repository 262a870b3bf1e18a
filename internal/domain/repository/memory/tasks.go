package memory

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"groqy/internal/common"
	"groqy/internal/domain/model"
)

type taskRepo struct {
	s *Store
}

// view returns a detached copy with the display columns filled in. Callers
// must hold the read lock.
func (r *taskRepo) view(t model.Task) model.Task {
	t.RequiredSkills = cloneStrings(t.RequiredSkills)
	t.OwnerUsername, t.ProjectTitle = nil, nil
	if u, ok := r.s.users[t.UserID]; ok {
		t.OwnerUsername = strPtr(u.Username)
	}
	if t.ProjectID != nil {
		if p, ok := r.s.projects[*t.ProjectID]; ok {
			t.ProjectTitle = strPtr(p.Title)
		}
	}
	return t
}

func (r *taskRepo) Create(ctx context.Context, tx *sql.Tx, task *model.Task) error {
	defer r.s.write(tx)()
	now := r.s.now()
	task.CreatedAt, task.UpdatedAt = now, now
	task.RequiredSkills = cloneStrings(task.RequiredSkills)
	stored := *task
	stored.OwnerUsername, stored.ProjectTitle = nil, nil
	stored.RequiredSkills = cloneStrings(task.RequiredSkills)
	r.s.tasks[task.ID] = stored
	return nil
}

func (r *taskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	v := r.view(t)
	return &v, nil
}

func (r *taskRepo) Update(ctx context.Context, tx *sql.Tx, task *model.Task) error {
	defer r.s.write(tx)()
	cur, ok := r.s.tasks[task.ID]
	if !ok {
		return common.ErrNotFound
	}
	stored := *task
	stored.CreatedAt = cur.CreatedAt
	stored.LastNotificationAt = cur.LastNotificationAt
	stored.OwnerUsername, stored.ProjectTitle = nil, nil
	stored.RequiredSkills = cloneStrings(task.RequiredSkills)
	stored.UpdatedAt = r.s.now()
	r.s.tasks[task.ID] = stored
	task.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *taskRepo) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	defer r.s.write(tx)()
	if _, ok := r.s.tasks[id]; !ok {
		return common.ErrNotFound
	}
	deleteTask(r.s, id)
	return nil
}

func (r *taskRepo) DeleteByUserID(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	defer r.s.write(tx)()
	var n int64
	for id, t := range r.s.tasks {
		if t.UserID == userID {
			deleteTask(r.s, id)
			n++
		}
	}
	return n, nil
}

// deleteTask removes the task and, like the comments foreign key, its
// comments. Callers hold the write lock.
func deleteTask(s *Store, id string) {
	delete(s.tasks, id)
	for cid, c := range s.comments {
		if c.TaskID == id {
			delete(s.comments, cid)
		}
	}
}

// detachProject clears project references after a project delete. Callers
// hold the write lock.
func detachProject(s *Store, projectID string) {
	for id, t := range s.tasks {
		if t.ProjectID != nil && *t.ProjectID == projectID {
			t.ProjectID = nil
			s.tasks[id] = t
		}
	}
}

func (r *taskRepo) ListAll(ctx context.Context) ([]model.Task, error) {
	return r.filter(func(model.Task) bool { return true }), nil
}

func (r *taskRepo) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	return r.filter(func(t model.Task) bool { return t.UserID == userID }), nil
}

func (r *taskRepo) filter(keep func(model.Task) bool) []model.Task {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tasks := []model.Task{}
	for _, t := range r.s.tasks {
		if keep(t) {
			tasks = append(tasks, r.view(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return tasks
}

func (r *taskRepo) StatusCounts(ctx context.Context) (model.TaskStatusCounts, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var c model.TaskStatusCounts
	for _, t := range r.s.tasks {
		switch t.Status() {
		case model.TaskStatusCompleted:
			c.Completed++
		case model.TaskStatusInProgress:
			c.InProgress++
		default:
			c.NotStarted++
		}
	}
	return c, nil
}

func (r *taskRepo) CountCompletedBetween(ctx context.Context, from, to time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, t := range r.s.tasks {
		if t.Completed && !t.UpdatedAt.Before(from) && t.UpdatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *taskRepo) UserSummaries(ctx context.Context) ([]model.UserTaskSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })

	summaries := make([]model.UserTaskSummary, 0, len(users))
	for _, u := range users {
		s := model.UserTaskSummary{UserID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
		for _, t := range r.s.tasks {
			if t.UserID != u.ID {
				continue
			}
			s.TotalTasks++
			switch t.Status() {
			case model.TaskStatusCompleted:
				s.CompletedTasks++
			case model.TaskStatusInProgress:
				s.InProgressTasks++
			}
			if s.LastActive == nil || t.UpdatedAt.After(*s.LastActive) {
				at := t.UpdatedAt
				s.LastActive = &at
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (r *taskRepo) ListDueForReminder(ctx context.Context, now time.Time, window time.Duration) ([]model.Task, error) {
	horizon, stale := now.Add(window), now.Add(-window)
	tasks := r.filter(func(t model.Task) bool {
		return !t.Completed &&
			t.DueDate != nil && !t.DueDate.After(horizon) &&
			(t.LastNotificationAt == nil || t.LastNotificationAt.Before(stale))
	})
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].DueDate.Before(*tasks[j].DueDate) })
	return tasks, nil
}

func (r *taskRepo) TouchNotified(ctx context.Context, id string, at time.Time) error {
	defer r.s.write(nil)()
	t, ok := r.s.tasks[id]
	if !ok {
		return common.ErrNotFound
	}
	t.LastNotificationAt = &at
	r.s.tasks[id] = t
	return nil
}
