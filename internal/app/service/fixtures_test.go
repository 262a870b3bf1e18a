package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"groqy/internal/common/security"
	"groqy/internal/domain/model"
	"groqy/internal/domain/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store         *memory.Store
	queue         *recordingQueue
	files         *fakeFiles
	notifications *NotificationService
	auth          *AuthService
	users         *UserService
	tasks         *TaskService
	uploads       *UploadService
	projects      *ProjectService
	comments      *CommentService
	submissions   *SubmissionService
	analytics     *AnalyticsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	security.InitJWT([]byte("service-test-key"), time.Hour)

	s := memory.NewStore()
	q := &recordingQueue{}
	files := newFakeFiles()
	notifications := NewNotificationService(s.Notifications(), s.Tasks(), s.Users(), q)
	return &fixture{
		store:         s,
		queue:         q,
		files:         files,
		notifications: notifications,
		auth:          NewAuthService(s.Users(), s.Tasks(), s.Transactor(), notifications),
		users:         NewUserService(s.Users(), s.Tasks(), s.Submissions(), s.Comments(), s.Notifications(), s.Transactor()),
		tasks:         NewTaskService(s.Tasks(), s.Users(), s.Projects(), s.Submissions(), s.Transactor(), notifications),
		uploads:       NewUploadService(s.Tasks(), s.Submissions(), s.Transactor(), files),
		projects:      NewProjectService(s.Projects()),
		comments:      NewCommentService(s.Comments(), s.Tasks()),
		submissions:   NewSubmissionService(s.Submissions()),
		analytics:     NewAnalyticsService(s.Users(), s.Tasks()),
	}
}

// user inserts an account directly, bypassing registration.
func (f *fixture) user(t *testing.T, name, role string) *model.User {
	t.Helper()
	u := &model.User{
		ID:       uuid.NewString(),
		Username: name,
		Email:    name + "@example.com",
		Role:     role,
		Skills:   []string{},
	}
	require.NoError(t, f.store.Users().Create(context.Background(), nil, u))
	return u
}

func (f *fixture) task(t *testing.T, owner *model.User, difficulty string, promptType model.PromptType) *model.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), owner, CreateTaskRequest{
		Title:      "Task for " + owner.Username,
		Difficulty: difficulty,
		PromptType: promptType,
	})
	require.NoError(t, err)
	return task
}

func (f *fixture) points(t *testing.T, userID string) int {
	t.Helper()
	u, err := f.store.Users().FindByID(context.Background(), userID)
	require.NoError(t, err)
	return u.TotalPoints
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []model.NotificationJob
	err  error
}

func (q *recordingQueue) Enqueue(ctx context.Context, job model.NotificationJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Jobs() []model.NotificationJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]model.NotificationJob(nil), q.jobs...)
}

type fakeFiles struct {
	mu      sync.Mutex
	saved   map[string]string
	removed []string
	saveErr error
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{saved: map[string]string{}}
}

func (f *fakeFiles) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	url := "/uploads/" + name
	f.saved[url] = string(data)
	return url, nil
}

func (f *fakeFiles) Remove(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.saved[url]; !ok {
		return errors.New("no such file")
	}
	delete(f.saved, url)
	f.removed = append(f.removed, url)
	return nil
}

func (f *fakeFiles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func reader(s string) io.Reader { return strings.NewReader(s) }

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }
