// Package memory holds process-lifetime implementations of the repository
// interfaces. Nothing is persisted; it backs STORAGE_DRIVER=memory and tests.
package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"groqy/internal/domain/model"
	"groqy/internal/domain/repository"
)

type Store struct {
	// txMu is held for the whole of a transaction. Writers outside it wait,
	// so a rollback never discards their changes.
	txMu sync.Mutex

	mu            sync.RWMutex
	users         map[string]model.User
	tasks         map[string]model.Task
	projects      map[string]model.Project
	submissions   map[string]model.Submission
	comments      map[string]model.Comment
	notifications map[string]model.Notification

	// now is swappable so tests can control timestamps.
	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:         map[string]model.User{},
		tasks:         map[string]model.Task{},
		projects:      map[string]model.Project{},
		submissions:   map[string]model.Submission{},
		comments:      map[string]model.Comment{},
		notifications: map[string]model.Notification{},
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Users() repository.UserRepository                 { return &userRepo{s} }
func (s *Store) Tasks() repository.TaskRepository                 { return &taskRepo{s} }
func (s *Store) Projects() repository.ProjectRepository           { return &projectRepo{s} }
func (s *Store) Submissions() repository.SubmissionRepository     { return &submissionRepo{s} }
func (s *Store) Comments() repository.CommentRepository           { return &commentRepo{s} }
func (s *Store) Notifications() repository.NotificationRepository { return &notificationRepo{s} }
func (s *Store) Transactor() repository.Transactor                { return &transactor{s} }

// write locks the store for one mutation and returns the unlock func. A nil
// tx marks a write outside any transaction.
func (s *Store) write(tx *sql.Tx) func() {
	if tx == nil {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if tx == nil {
			s.txMu.Unlock()
		}
	}
}

type snapshot struct {
	users         map[string]model.User
	tasks         map[string]model.Task
	projects      map[string]model.Project
	submissions   map[string]model.Submission
	comments      map[string]model.Comment
	notifications map[string]model.Notification
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		users:         copyMap(s.users),
		tasks:         copyMap(s.tasks),
		projects:      copyMap(s.projects),
		submissions:   copyMap(s.submissions),
		comments:      copyMap(s.comments),
		notifications: copyMap(s.notifications),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.tasks = snap.tasks
	s.projects = snap.projects
	s.submissions = snap.submissions
	s.comments = snap.comments
	s.notifications = snap.notifications
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// transactor runs one transaction at a time and rolls back by restoring the
// snapshot taken before fn ran. The *sql.Tx handed to fn is only a marker;
// writes inside fn must pass it on or they block on txMu.
type transactor struct {
	s *Store
}

func (t *transactor) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	snap := t.s.snapshot()
	if err := fn(new(sql.Tx)); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string{}, in...)
}

func strPtr(s string) *string {
	return &s
}
