package memory

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"groqy/internal/common"
	"groqy/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingStore advances the clock one second per read so creation order is
// deterministic.
func tickingStore() *Store {
	s := NewStore()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time {
		at = at.Add(time.Second)
		return at
	})
	return s
}

func seedUser(t *testing.T, s *Store, id, email string) *model.User {
	t.Helper()
	u := &model.User{ID: id, Username: id, Email: email, Role: model.RoleUser}
	require.NoError(t, s.Users().Create(context.Background(), nil, u))
	return u
}

func seedTask(t *testing.T, s *Store, id, userID string, completed bool) *model.Task {
	t.Helper()
	task := &model.Task{ID: id, UserID: userID, Title: id, PromptType: model.PromptTypeText,
		Difficulty: model.DifficultyMedium, Completed: completed}
	require.NoError(t, s.Tasks().Create(context.Background(), nil, task))
	return task
}

func TestUserEmailIsUniqueCaseInsensitively(t *testing.T) {
	s := tickingStore()
	seedUser(t, s, "u1", "Alice@Example.com")

	err := s.Users().Create(context.Background(), nil, &model.User{ID: "u2", Email: "alice@example.com"})
	assert.ErrorIs(t, err, common.ErrConflict)

	found, err := s.Users().FindByEmail(context.Background(), "ALICE@example.COM")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.ID)

	bob := seedUser(t, s, "u3", "bob@example.com")
	bob.Email = "alice@example.com"
	assert.ErrorIs(t, s.Users().Update(context.Background(), nil, bob), common.ErrConflict)
}

func TestReturnedRecordsAreDetached(t *testing.T) {
	s := tickingStore()
	seedUser(t, s, "u1", "a@x.com")
	seedTask(t, s, "t1", "u1", false)

	task, err := s.Tasks().FindByID(context.Background(), "t1")
	require.NoError(t, err)
	task.Title = "changed"
	task.RequiredSkills = append(task.RequiredSkills, "go")

	again, err := s.Tasks().FindByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", again.Title)
	assert.Empty(t, again.RequiredSkills)
	require.NotNil(t, again.OwnerUsername)
	assert.Equal(t, "u1", *again.OwnerUsername)
}

func TestTransactorRollsBackOnError(t *testing.T) {
	s := tickingStore()
	seedUser(t, s, "u1", "a@x.com")
	boom := errors.New("boom")

	err := s.Transactor().WithinTx(context.Background(), func(tx *sql.Tx) error {
		require.NoError(t, s.Tasks().Create(context.Background(), tx, &model.Task{ID: "t1", UserID: "u1", Title: "t1"}))
		require.NoError(t, s.Users().AddPoints(context.Background(), tx, "u1", 10))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Tasks().FindByID(context.Background(), "t1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	u, err := s.Users().FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, u.TotalPoints)
}

func TestTransactorKeepsWritesOnSuccess(t *testing.T) {
	s := tickingStore()
	seedUser(t, s, "u1", "a@x.com")

	err := s.Transactor().WithinTx(context.Background(), func(tx *sql.Tx) error {
		return s.Users().AddPoints(context.Background(), tx, "u1", 30)
	})
	require.NoError(t, err)

	u, err := s.Users().FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 30, u.TotalPoints)
}

func TestRollbackKeepsWritesMadeOutsideTheTransaction(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUser(t, s, "u1", "a@x.com")

	outside := make(chan error, 1)
	early := false
	err := s.Transactor().WithinTx(ctx, func(tx *sql.Tx) error {
		require.NoError(t, s.Users().AddPoints(ctx, tx, "u1", 10))
		go func() {
			outside <- s.Users().Create(ctx, nil, &model.User{ID: "u2", Username: "u2", Email: "b@x.com"})
		}()
		select {
		case err := <-outside:
			early = true
			assert.NoError(t, err)
		case <-time.After(50 * time.Millisecond):
		}
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.False(t, early, "outside write must wait for the transaction")
	if !early {
		require.NoError(t, <-outside)
	}

	u1, err := s.Users().FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, u1.TotalPoints)
	_, err = s.Users().FindByID(ctx, "u2")
	assert.NoError(t, err, "write made while the transaction ran survives its rollback")
}

func TestDeleteTaskRemovesItsComments(t *testing.T) {
	s := tickingStore()
	ctx := context.Background()
	seedUser(t, s, "u1", "a@x.com")
	seedTask(t, s, "t1", "u1", false)
	require.NoError(t, s.Comments().Create(ctx, &model.Comment{ID: "c1", TaskID: "t1", UserID: "u1", Content: "hi"}))

	require.NoError(t, s.Tasks().Delete(ctx, nil, "t1"))
	comments, err := s.Comments().ListByTask(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, comments)

	assert.ErrorIs(t, s.Tasks().Delete(ctx, nil, "t1"), common.ErrNotFound)
}

func TestDeleteUserDropsProjectsAndDetachesTasks(t *testing.T) {
	s := tickingStore()
	ctx := context.Background()
	seedUser(t, s, "u1", "a@x.com")
	seedUser(t, s, "u2", "b@x.com")
	require.NoError(t, s.Projects().Create(ctx, &model.Project{ID: "p1", Title: "P", CreatedBy: "u1"}))
	pid := "p1"
	task := &model.Task{ID: "t2", UserID: "u2", ProjectID: &pid}
	require.NoError(t, s.Tasks().Create(ctx, nil, task))

	require.NoError(t, s.Users().Delete(ctx, nil, "u1"))

	_, err := s.Projects().FindByID(ctx, "p1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	got, err := s.Tasks().FindByID(ctx, "t2")
	require.NoError(t, err)
	assert.Nil(t, got.ProjectID)
	assert.Nil(t, got.ProjectTitle)
}

func TestLeaderboardOrdering(t *testing.T) {
	s := tickingStore()
	ctx := context.Background()
	seedUser(t, s, "early", "e@x.com")
	seedUser(t, s, "late", "l@x.com")
	seedUser(t, s, "busy", "b@x.com")
	seedUser(t, s, "top", "t@x.com")

	require.NoError(t, s.Users().AddPoints(ctx, nil, "top", 50))
	require.NoError(t, s.Users().AddPoints(ctx, nil, "busy", 20))
	require.NoError(t, s.Users().AddPoints(ctx, nil, "early", 20))
	require.NoError(t, s.Users().AddPoints(ctx, nil, "late", 20))
	seedTask(t, s, "t1", "busy", true)

	board, err := s.Users().Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 4)

	var order []string
	for i, e := range board {
		assert.Equal(t, i+1, e.Rank)
		order = append(order, e.UserID)
	}
	assert.Equal(t, []string{"top", "busy", "early", "late"}, order)
	assert.Equal(t, 1, board[1].CompletedTasks)

	limited, err := s.Users().Leaderboard(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStatusCountsAndSummaries(t *testing.T) {
	s := tickingStore()
	ctx := context.Background()
	seedUser(t, s, "u1", "a@x.com")
	seedUser(t, s, "u2", "b@x.com")
	seedTask(t, s, "t1", "u1", true)
	seedTask(t, s, "t2", "u1", false)
	inProgress := &model.Task{ID: "t3", UserID: "u1", InProgress: true}
	require.NoError(t, s.Tasks().Create(ctx, nil, inProgress))

	counts, err := s.Tasks().StatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCounts{Completed: 1, InProgress: 1, NotStarted: 1}, counts)

	summaries, err := s.Tasks().UserSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "u1", summaries[0].UserID)
	assert.Equal(t, 3, summaries[0].TotalTasks)
	assert.Equal(t, 1, summaries[0].CompletedTasks)
	assert.Equal(t, 1, summaries[0].InProgressTasks)
	assert.NotNil(t, summaries[0].LastActive)
	assert.Zero(t, summaries[1].TotalTasks)
	assert.Nil(t, summaries[1].LastActive)
}

func TestListDueForReminder(t *testing.T) {
	s := tickingStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedUser(t, s, "u1", "a@x.com")

	due := func(id string, in time.Duration, completed bool, notified *time.Time) {
		at := now.Add(in)
		task := &model.Task{ID: id, UserID: "u1", DueDate: &at, Completed: completed}
		require.NoError(t, s.Tasks().Create(ctx, nil, task))
		if notified != nil {
			require.NoError(t, s.Tasks().TouchNotified(ctx, id, *notified))
		}
	}
	recent := now.Add(-time.Hour)
	old := now.Add(-48 * time.Hour)

	due("soon", 2*time.Hour, false, nil)
	due("overdue", -time.Hour, false, nil)
	due("far", 72*time.Hour, false, nil)
	due("done", time.Hour, true, nil)
	due("nagged", time.Hour, false, &recent)
	due("stale", 3*time.Hour, false, &old)

	tasks, err := s.Tasks().ListDueForReminder(ctx, now, 24*time.Hour)
	require.NoError(t, err)
	var ids []string
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"overdue", "soon", "stale"}, ids)
}

func TestNotificationsMarkReadChecksOwner(t *testing.T) {
	s := tickingStore()
	ctx := context.Background()
	require.NoError(t, s.Notifications().Create(ctx, &model.Notification{ID: "n1", UserID: "u1", Content: "hi"}))

	assert.ErrorIs(t, s.Notifications().MarkRead(ctx, "n1", "u2", time.Now()), common.ErrNotFound)
	require.NoError(t, s.Notifications().MarkRead(ctx, "n1", "u1", time.Now()))

	unread, err := s.Notifications().ListByUser(ctx, "u1", true)
	require.NoError(t, err)
	assert.Empty(t, unread)
	all, err := s.Notifications().ListByUser(ctx, "u1", false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
