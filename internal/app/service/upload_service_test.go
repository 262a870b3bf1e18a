package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"groqy/internal/common"
	"groqy/internal/domain/model"
	"groqy/internal/platform/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

func TestStoredName(t *testing.T) {
	at := time.Unix(0, 1700000000123456789)
	cases := map[string]string{
		"Report Final.PDF":      "1700000000123456789-report-final.pdf",
		"../../etc/passwd":      "1700000000123456789-passwd",
		`C:\Users\me\notes.txt`: "1700000000123456789-notes.txt",
		"...":                   "1700000000123456789-file",
		"archive.tar.gz":        "1700000000123456789-archive-tar.gz",
	}
	for in, want := range cases {
		assert.Equal(t, want, StoredName(in, at), in)
	}
}

func TestUploadAttachesFileAndRecordsSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", model.RoleUser)
	task := f.task(t, alice, model.DifficultyEasy, model.PromptTypeFile)

	resp, err := f.uploads.Upload(ctx, alice, UploadRequest{
		TaskID:      task.ID,
		Description: "my diagram",
		Filename:    "diagram.png",
		File:        reader(pngHeader + strings.Repeat("x", 5000)),
	})
	require.NoError(t, err)
	assert.Equal(t, "File uploaded successfully", resp.Message)
	assert.True(t, strings.HasPrefix(resp.File.URL, "/uploads/"))
	assert.True(t, strings.HasSuffix(resp.File.URL, "-diagram.png"))
	assert.Equal(t, "image/png", resp.File.Type)

	// The sniffed head is replayed in front of the rest of the stream.
	assert.Equal(t, pngHeader+strings.Repeat("x", 5000), f.files.saved[resp.File.URL])

	stored, err := f.store.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DownloadableFileURL)
	assert.Equal(t, resp.File.URL, *stored.DownloadableFileURL)
	require.NotNil(t, stored.FileDescription)
	assert.Equal(t, "my diagram", *stored.FileDescription)
	assert.Nil(t, stored.Code)

	require.NotNil(t, resp.Submission)
	assert.Equal(t, model.PromptTypeFile, resp.Submission.SubmissionType)
	assert.Equal(t, model.SubmissionPending, resp.Submission.Status)
	subs, err := f.submissions.History(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestUploadForCodeTaskKeepsCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", model.RoleUser)
	task := f.task(t, alice, model.DifficultyEasy, model.PromptTypeCode)

	resp, err := f.uploads.Upload(ctx, alice, UploadRequest{
		TaskID:      task.ID,
		Code:        "print('hi')",
		Description: "ignored for code tasks",
		Filename:    "main.py",
		File:        reader("print('hi')\n"),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Submission.Code)
	assert.Equal(t, "print('hi')", *resp.Submission.Code)

	stored, err := f.store.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Code)
	assert.Nil(t, stored.FileDescription)
}

func TestUploadForTextTaskIgnoresDescription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", model.RoleUser)
	task := f.task(t, alice, model.DifficultyEasy, model.PromptTypeText)

	resp, err := f.uploads.Upload(ctx, alice, UploadRequest{
		TaskID:      task.ID,
		Description: "desc",
		Filename:    "notes.txt",
		File:        reader("some notes\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.PromptTypeText, resp.Submission.SubmissionType)

	stored, err := f.store.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DownloadableFileURL)
	assert.Nil(t, stored.FileDescription)
	assert.Nil(t, stored.Code)
}

func TestUploadByNonOwnerRemovesFile(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", model.RoleUser)
	mallory := f.user(t, "mallory", model.RoleUser)
	task := f.task(t, alice, "", "")

	_, err := f.uploads.Upload(context.Background(), mallory, UploadRequest{
		TaskID: task.ID, Filename: "x.txt", File: reader("data"),
	})
	assert.Equal(t, http.StatusForbidden, common.HTTPStatusFromError(err))
	assert.Zero(t, f.files.count())
	assert.Len(t, f.files.removed, 1)

	stored, err := f.store.Tasks().FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.DownloadableFileURL)
}

func TestUploadForMissingTaskRemovesFile(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", model.RoleUser)

	_, err := f.uploads.Upload(context.Background(), alice, UploadRequest{
		TaskID: "missing", Filename: "x.txt", File: reader("data"),
	})
	assert.Equal(t, "Task not found", common.ClientMessage(err))
	assert.Zero(t, f.files.count())
}

func TestUploadTooLarge(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", model.RoleUser)
	task := f.task(t, alice, "", "")
	f.files.saveErr = fmt.Errorf("write: %w", storage.ErrTooLarge)

	_, err := f.uploads.Upload(context.Background(), alice, UploadRequest{
		TaskID: task.ID, Filename: "big.bin", File: reader("data"),
	})
	assert.Equal(t, http.StatusBadRequest, common.HTTPStatusFromError(err))
	assert.Equal(t, "File is too large", common.ClientMessage(err))
}

func TestUploadRequiresFile(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", model.RoleUser)

	_, err := f.uploads.Upload(context.Background(), alice, UploadRequest{TaskID: "t", Filename: "x"})
	assert.Equal(t, "No file uploaded", common.ClientMessage(err))
}
