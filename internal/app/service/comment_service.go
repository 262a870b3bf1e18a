package service

import (
	"context"
	"fmt"
	"strings"

	"groqy/internal/common"
	"groqy/internal/domain/model"
	"groqy/internal/domain/repository"

	"github.com/google/uuid"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	taskRepo    repository.TaskRepository
}

func NewCommentService(commentRepo repository.CommentRepository, taskRepo repository.TaskRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, taskRepo: taskRepo}
}

type CreateCommentRequest struct {
	TaskID  string `json:"task_id" validate:"required"`
	Content string `json:"content" validate:"required,max=5000"`
}

func (s *CommentService) Create(ctx context.Context, actor *model.User, req CreateCommentRequest) (*model.Comment, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.taskRepo.FindByID(ctx, req.TaskID); err != nil {
		if isNotFound(err) {
			return nil, errTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	c := &model.Comment{
		ID:       uuid.NewString(),
		UserID:   actor.ID,
		TaskID:   req.TaskID,
		Content:  req.Content,
		Username: &actor.Username,
	}
	if err := s.commentRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return c, nil
}

// ListByTask returns the comments of a task, oldest first.
func (s *CommentService) ListByTask(ctx context.Context, taskID string) ([]model.Comment, error) {
	if _, err := s.taskRepo.FindByID(ctx, taskID); err != nil {
		if isNotFound(err) {
			return nil, errTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	comments, err := s.commentRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}
