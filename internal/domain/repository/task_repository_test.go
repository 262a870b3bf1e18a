package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"groqy/internal/common"
	"groqy/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskRowColumns = []string{"id", "user_id", "project_id", "title", "description", "prompt", "prompt_type",
	"completed", "in_progress", "difficulty", "due_date", "required_skills", "task_url",
	"file_upload_required", "downloadable_file_url", "code", "file_type", "file_description",
	"last_notification_at", "created_at", "updated_at", "username", "title"}

func taskRow(rows *sqlmock.Rows, id, userID string, completed, inProgress bool, now time.Time) *sqlmock.Rows {
	return rows.AddRow(id, userID, nil, "Title", "Desc", "Prompt", "text",
		completed, inProgress, "medium", nil, []byte(`[]`), "",
		false, nil, nil, nil, nil,
		nil, now, now, "alice", nil)
}

func TestTaskRepositoryFindByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgTaskRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE t.id = $1`)).
		WithArgs("t1").
		WillReturnRows(taskRow(sqlmock.NewRows(taskRowColumns), "t1", "u1", false, true, now))

	task, err := repo.FindByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "u1", task.UserID)
	assert.Equal(t, model.PromptTypeText, task.PromptType)
	assert.True(t, task.InProgress)
	assert.Equal(t, []string{}, task.RequiredSkills)
	require.NotNil(t, task.OwnerUsername)
	assert.Equal(t, "alice", *task.OwnerUsername)
	assert.Nil(t, task.ProjectTitle)
}

func TestTaskRepositoryFindByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgTaskRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE t.id = $1`)).
		WillReturnRows(sqlmock.NewRows(taskRowColumns))

	_, err := repo.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTaskRepositoryUpdateMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgTaskRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE tasks SET`)).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))

	err := repo.Update(context.Background(), nil, &model.Task{ID: "t1"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTaskRepositoryListByUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgTaskRepository(db)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(taskRowColumns)
	taskRow(rows, "t2", "u1", true, false, now)
	taskRow(rows, "t1", "u1", false, false, now.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE t.user_id = $1 ORDER BY t.created_at DESC`)).
		WithArgs("u1").
		WillReturnRows(rows)

	tasks, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, model.TaskStatusCompleted, tasks[0].Status())
	assert.Equal(t, model.TaskStatusNotStarted, tasks[1].Status())
}

func TestTaskRepositoryStatusCounts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgTaskRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`COUNT(*) FILTER (WHERE in_progress AND NOT completed)`)).
		WillReturnRows(sqlmock.NewRows([]string{"c", "i", "n"}).AddRow(3, 2, 5))

	counts, err := repo.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCounts{Completed: 3, InProgress: 2, NotStarted: 5}, counts)
}

func TestTaskRepositoryListDueForReminderWindow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgTaskRepository(db)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`AND t.due_date <= $1`)).
		WithArgs(now.Add(24*time.Hour), now.Add(-24*time.Hour)).
		WillReturnRows(sqlmock.NewRows(taskRowColumns))

	tasks, err := repo.ListDueForReminder(context.Background(), now, 24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskRepositoryDeleteByUserID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgTaskRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteByUserID(context.Background(), nil, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestSQLTransactorCommitsAndRollsBack(t *testing.T) {
	db, mock := newMock(t)
	txr := NewSQLTransactor(db)

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, txr.WithinTx(context.Background(), func(tx *sql.Tx) error { return nil }))

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	err := txr.WithinTx(context.Background(), func(tx *sql.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestStringList(t *testing.T) {
	v, err := stringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	var s stringList
	require.NoError(t, s.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, stringList{"a", "b"}, s)
	require.NoError(t, s.Scan(nil))
	assert.Equal(t, stringList{}, s)
	require.NoError(t, s.Scan("null"))
	assert.Equal(t, stringList{}, s)
	assert.Error(t, s.Scan(42))
}
