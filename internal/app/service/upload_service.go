package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"groqy/internal/common"
	"groqy/internal/domain/model"
	"groqy/internal/domain/repository"
	"groqy/internal/platform/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
)

// sniffLen matches the header size mimetype inspects by default.
const sniffLen = 3072

// FileStore is where uploaded files end up.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
}

type UploadService struct {
	taskRepo       repository.TaskRepository
	submissionRepo repository.SubmissionRepository
	tx             repository.Transactor
	files          FileStore
	now            func() time.Time
}

func NewUploadService(
	taskRepo repository.TaskRepository,
	submissionRepo repository.SubmissionRepository,
	tx repository.Transactor,
	files FileStore,
) *UploadService {
	return &UploadService{
		taskRepo:       taskRepo,
		submissionRepo: submissionRepo,
		tx:             tx,
		files:          files,
		now:            time.Now,
	}
}

type UploadRequest struct {
	TaskID      string `validate:"required"`
	Code        string
	Description string
	Filename    string `validate:"required"`
	File        io.Reader
}

type UploadedFile struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

type UploadResponse struct {
	Message    string            `json:"message"`
	File       UploadedFile      `json:"file"`
	Submission *model.Submission `json:"submission"`
}

// StoredName is the collision-resistant on-disk name for an upload:
// a nanosecond timestamp followed by the slugged original name.
func StoredName(original string, at time.Time) string {
	original = filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	ext := filepath.Ext(original)
	base := slug.Make(strings.TrimSuffix(original, ext))
	if base == "" {
		base = "file"
	}
	if ext = slug.Make(strings.TrimPrefix(ext, ".")); ext != "" {
		ext = "." + ext
	}
	return fmt.Sprintf("%d-%s%s", at.UnixNano(), base, ext)
}

// Upload stores the file, attaches it to the task and records a pending
// submission. The stored file is removed again if any later step fails.
func (s *UploadService) Upload(ctx context.Context, actor *model.User, req UploadRequest) (resp *UploadResponse, err error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	if req.File == nil {
		return nil, common.NewError(common.ErrBadRequest, "No file uploaded")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(req.File, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	mime := mimetype.Detect(head).String()

	url, err := s.files.Save(ctx, StoredName(req.Filename, s.now()), io.MultiReader(bytes.NewReader(head), req.File))
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, common.NewError(common.ErrBadRequest, "File is too large")
		}
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rmErr := s.files.Remove(context.WithoutCancel(ctx), url); rmErr != nil {
			log.Error().Err(rmErr).Str("url", url).Msg("failed to remove orphaned upload")
		}
	}()

	task, err := s.taskRepo.FindByID(ctx, req.TaskID)
	if err != nil {
		if isNotFound(err) {
			return nil, errTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if !canManage(actor, task.UserID) {
		return nil, errTaskForbidden
	}

	task.DownloadableFileURL = &url
	task.FileType = &mime
	sub := &model.Submission{
		ID:              uuid.NewString(),
		UserID:          actor.ID,
		TaskID:          task.ID,
		UploadedFileURL: &url,
		FileType:        &mime,
		SubmissionType:  task.PromptType,
		Status:          model.SubmissionPending,
	}
	if task.PromptType == model.PromptTypeCode {
		if req.Code != "" {
			code := req.Code
			task.Code = &code
			sub.Code = &code
		}
	} else if task.PromptType == model.PromptTypeFile && req.Description != "" {
		desc := req.Description
		task.FileDescription = &desc
	}

	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.taskRepo.Update(ctx, tx, task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if err := s.submissionRepo.CreateSubmission(ctx, tx, sub); err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("task_id", task.ID).Str("url", url).Str("type", mime).Msg("file uploaded")
	return &UploadResponse{
		Message:    "File uploaded successfully",
		File:       UploadedFile{URL: url, Type: mime},
		Submission: sub,
	}, nil
}
