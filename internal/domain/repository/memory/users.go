package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"groqy/internal/common"
	"groqy/internal/domain/model"
)

type userRepo struct {
	s *Store
}

func cloneUser(u model.User) *model.User {
	u.Skills = cloneStrings(u.Skills)
	return &u
}

func (r *userRepo) emailTaken(email, exceptID string) bool {
	for _, u := range r.s.users {
		if u.ID != exceptID && model.NormalizeEmail(u.Email) == model.NormalizeEmail(email) {
			return true
		}
	}
	return false
}

func (r *userRepo) Create(ctx context.Context, tx *sql.Tx, user *model.User) error {
	defer r.s.write(tx)()
	if _, ok := r.s.users[user.ID]; ok || r.emailTaken(user.Email, "") {
		return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	user.Skills = cloneStrings(user.Skills)
	r.s.users[user.ID] = *cloneUser(*user)
	return nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if model.NormalizeEmail(u.Email) == model.NormalizeEmail(email) {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) List(ctx context.Context) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	users := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, *cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r *userRepo) Update(ctx context.Context, tx *sql.Tx, user *model.User) error {
	defer r.s.write(tx)()
	cur, ok := r.s.users[user.ID]
	if !ok {
		return common.ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return fmt.Errorf("email is already in use: %w", common.ErrConflict)
	}
	cur.Username = user.Username
	cur.Email = user.Email
	cur.Role = user.Role
	cur.Bio = user.Bio
	cur.Skills = cloneStrings(user.Skills)
	cur.UpdatedAt = r.s.now()
	r.s.users[user.ID] = cur
	user.UpdatedAt = cur.UpdatedAt
	return nil
}

// Delete mirrors the schema's foreign keys: the user's projects go with it
// and tasks pointing at those projects lose the reference.
func (r *userRepo) Delete(ctx context.Context, tx *sql.Tx, id string) error {
	defer r.s.write(tx)()
	if _, ok := r.s.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.users, id)
	for pid, p := range r.s.projects {
		if p.CreatedBy == id {
			delete(r.s.projects, pid)
			detachProject(r.s, pid)
		}
	}
	return nil
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users), nil
}

func (r *userRepo) AddPoints(ctx context.Context, tx *sql.Tx, id string, points int) error {
	defer r.s.write(tx)()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.TotalPoints += points
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

func (r *userRepo) TouchLastEmail(ctx context.Context, id string, at time.Time) error {
	return r.touch(id, func(u *model.User) { u.LastEmailAt = &at })
}

func (r *userRepo) TouchLastNotification(ctx context.Context, id string, at time.Time) error {
	return r.touch(id, func(u *model.User) { u.LastNotificationAt = &at })
}

func (r *userRepo) touch(id string, fn func(u *model.User)) error {
	defer r.s.write(nil)()
	u, ok := r.s.users[id]
	if !ok {
		return nil
	}
	fn(&u)
	r.s.users[id] = u
	return nil
}

func (r *userRepo) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	completed := map[string]int{}
	for _, t := range r.s.tasks {
		if t.Completed {
			completed[t.UserID]++
		}
	}
	users := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if completed[a.ID] != completed[b.ID] {
			return completed[a.ID] > completed[b.ID]
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	entries := []model.LeaderboardEntry{}
	for i, u := range users {
		if limit > 0 && i >= limit {
			break
		}
		entries = append(entries, model.LeaderboardEntry{
			Rank:           i + 1,
			UserID:         u.ID,
			Username:       u.Username,
			TotalPoints:    u.TotalPoints,
			CompletedTasks: completed[u.ID],
		})
	}
	return entries, nil
}
