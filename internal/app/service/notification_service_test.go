package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"groqy/internal/common"
	"groqy/internal/domain/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyStoresEvenWhenQueueFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", model.RoleUser)
	f.queue.err = errors.New("redis down")

	f.notifications.Notify(ctx, alice.ID, model.NotificationWelcome, nil, "Hello", "Welcome aboard")

	list, err := f.notifications.List(ctx, alice, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Welcome aboard", list[0].Content)
	assert.False(t, list[0].Read)
}

func TestNotifyWithoutQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", model.RoleUser)
	svc := NewNotificationService(f.store.Notifications(), f.store.Tasks(), f.store.Users(), nil)

	svc.Notify(ctx, alice.ID, model.NotificationWelcome, nil, "Hello", "Hi")
	list, err := svc.List(ctx, alice, true)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", model.RoleUser)
	bob := f.user(t, "bob", model.RoleUser)
	f.notifications.Notify(ctx, alice.ID, model.NotificationWelcome, nil, "Hello", "Hi")
	list, err := f.notifications.List(ctx, alice, true)
	require.NoError(t, err)
	require.Len(t, list, 1)

	err = f.notifications.MarkRead(ctx, bob, list[0].ID)
	assert.Equal(t, "Notification not found", common.ClientMessage(err))

	require.NoError(t, f.notifications.MarkRead(ctx, alice, list[0].ID))
	unread, err := f.notifications.List(ctx, alice, true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestSendDueReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	alice := f.user(t, "alice", model.RoleUser)

	addTask := func(title string, due time.Time, completed bool) string {
		task := &model.Task{ID: uuid.NewString(), UserID: alice.ID, Title: title, DueDate: &due, Completed: completed}
		require.NoError(t, f.store.Tasks().Create(ctx, nil, task))
		return task.ID
	}
	soon := addTask("Soon", now.Add(3*time.Hour), false)
	addTask("Later", now.Add(10*24*time.Hour), false)
	addTask("Done", now.Add(time.Hour), true)

	sent, err := f.notifications.SendDueReminders(ctx, now, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	notes, err := f.notifications.List(ctx, alice, false)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationTaskDue, notes[0].Type)
	require.NotNil(t, notes[0].RelatedID)
	assert.Equal(t, soon, *notes[0].RelatedID)

	jobs := f.queue.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "Task due soon: Soon", jobs[0].Subject)

	stored, err := f.store.Users().FindByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastNotificationAt)
	assert.True(t, now.Equal(*stored.LastNotificationAt))

	// A second sweep inside the window does not nag again.
	sent, err = f.notifications.SendDueReminders(ctx, now.Add(time.Hour), 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, sent)
}
