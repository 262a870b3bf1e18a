package service

import (
	"context"
	"net/http"
	"testing"

	"groqy/internal/common"
	"groqy/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", model.RoleUser)

	p, err := f.projects.Create(ctx, alice, CreateProjectRequest{Title: "Launch", Description: "v1"})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectPlanning, p.Status)
	require.NotNil(t, p.CreatorUsername)
	assert.Equal(t, "alice", *p.CreatorUsername)

	status := model.ProjectInProgress
	updated, err := f.projects.Update(ctx, alice, p.ID, model.ProjectPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectInProgress, updated.Status)
	assert.Equal(t, "Launch", updated.Title)

	list, err := f.projects.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.projects.Delete(ctx, alice, p.ID))
	_, err = f.projects.Get(ctx, p.ID)
	assert.Equal(t, "Project not found", common.ClientMessage(err))
}

func TestProjectChangesRestrictedToCreatorOrAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", model.RoleUser)
	bob := f.user(t, "bob", model.RoleUser)
	admin := f.user(t, "root", model.RoleAdmin)

	p, err := f.projects.Create(ctx, alice, CreateProjectRequest{Title: "Launch"})
	require.NoError(t, err)

	_, err = f.projects.Update(ctx, bob, p.ID, model.ProjectPatch{Title: strPtr("hijacked")})
	assert.Equal(t, http.StatusForbidden, common.HTTPStatusFromError(err))
	assert.Equal(t, http.StatusForbidden, common.HTTPStatusFromError(f.projects.Delete(ctx, bob, p.ID)))

	updated, err := f.projects.Update(ctx, admin, p.ID, model.ProjectPatch{Title: strPtr("Relaunch")})
	require.NoError(t, err)
	assert.Equal(t, "Relaunch", updated.Title)
}

func TestProjectCreateValidates(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", model.RoleUser)

	_, err := f.projects.Create(context.Background(), alice, CreateProjectRequest{})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = f.projects.Create(context.Background(), alice, CreateProjectRequest{Title: "x", Status: "archived"})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDeletingProjectDetachesTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", model.RoleUser)
	p, err := f.projects.Create(ctx, alice, CreateProjectRequest{Title: "Launch"})
	require.NoError(t, err)
	task, err := f.tasks.Create(ctx, alice, CreateTaskRequest{ProjectID: &p.ID})
	require.NoError(t, err)

	require.NoError(t, f.projects.Delete(ctx, alice, p.ID))

	got, err := f.tasks.Get(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ProjectID)
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", model.RoleUser)
	bob := f.user(t, "bob", model.RoleUser)
	task := f.task(t, alice, "", "")

	c, err := f.comments.Create(ctx, bob, CreateCommentRequest{TaskID: task.ID, Content: "  looks good  "})
	require.NoError(t, err)
	assert.Equal(t, "looks good", c.Content)
	require.NotNil(t, c.Username)
	assert.Equal(t, "bob", *c.Username)

	_, err = f.comments.Create(ctx, bob, CreateCommentRequest{TaskID: task.ID, Content: "   "})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.comments.Create(ctx, bob, CreateCommentRequest{TaskID: "missing", Content: "hi"})
	assert.Equal(t, "Task not found", common.ClientMessage(err))

	list, err := f.comments.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, bob.ID, list[0].UserID)

	_, err = f.comments.ListByTask(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
