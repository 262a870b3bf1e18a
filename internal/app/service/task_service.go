package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"groqy/internal/common"
	"groqy/internal/domain/model"
	"groqy/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var errTaskForbidden = common.NewError(common.ErrForbidden, "Access denied")

type TaskService struct {
	taskRepo       repository.TaskRepository
	userRepo       repository.UserRepository
	projectRepo    repository.ProjectRepository
	submissionRepo repository.SubmissionRepository
	tx             repository.Transactor
	notifier       Notifier
}

func NewTaskService(
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository,
	submissionRepo repository.SubmissionRepository,
	tx repository.Transactor,
	notifier Notifier,
) *TaskService {
	return &TaskService{
		taskRepo:       taskRepo,
		userRepo:       userRepo,
		projectRepo:    projectRepo,
		submissionRepo: submissionRepo,
		tx:             tx,
		notifier:       notifier,
	}
}

// CreateTaskRequest is the body of a self-service task. AssignTaskRequest
// embeds it and adds the target user.
type CreateTaskRequest struct {
	Title               string           `json:"title" validate:"max=200"`
	Description         string           `json:"description"`
	Prompt              string           `json:"prompt"`
	PromptType          model.PromptType `json:"prompt_type" validate:"omitempty,oneof=text code file"`
	Difficulty          string           `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	DueDate             *time.Time       `json:"due_date"`
	ProjectID           *string          `json:"project_id" validate:"omitempty,uuid"`
	RequiredSkills      []string         `json:"required_skills"`
	TaskURL             string           `json:"task_url"`
	FileUploadRequired  bool             `json:"file_upload_required"`
	DownloadableFileURL *string          `json:"downloadable_file_url"`
}

type AssignTaskRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	CreateTaskRequest
}

func (req CreateTaskRequest) build(ownerID string) *model.Task {
	t := &model.Task{
		ID:                  uuid.NewString(),
		UserID:              ownerID,
		ProjectID:           req.ProjectID,
		Title:               req.Title,
		Description:         req.Description,
		Prompt:              req.Prompt,
		PromptType:          req.PromptType,
		Difficulty:          req.Difficulty,
		DueDate:             req.DueDate,
		RequiredSkills:      req.RequiredSkills,
		TaskURL:             req.TaskURL,
		FileUploadRequired:  req.FileUploadRequired,
		DownloadableFileURL: req.DownloadableFileURL,
	}
	if t.Title == "" {
		t.Title = model.DefaultTaskTitle
	}
	if t.Description == "" {
		t.Description = model.DefaultTaskDescription
	}
	if t.PromptType == "" {
		t.PromptType = model.PromptTypeText
	}
	if t.Difficulty == "" {
		t.Difficulty = model.DifficultyMedium
	}
	if t.RequiredSkills == nil {
		t.RequiredSkills = []string{}
	}
	return t
}

// List returns every task for an admin and the caller's own tasks otherwise.
func (s *TaskService) List(ctx context.Context, actor *model.User) ([]model.Task, error) {
	var (
		tasks []model.Task
		err   error
	)
	if actor.IsAdmin() {
		tasks, err = s.taskRepo.ListAll(ctx)
	} else {
		tasks, err = s.taskRepo.ListByUser(ctx, actor.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Create(ctx context.Context, actor *model.User, req CreateTaskRequest) (*model.Task, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	if err := s.checkProject(ctx, req.ProjectID); err != nil {
		return nil, err
	}
	task := req.build(actor.ID)
	if err := s.taskRepo.Create(ctx, nil, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return s.reload(ctx, task)
}

func (s *TaskService) Get(ctx context.Context, actor *model.User, id string) (*model.Task, error) {
	return s.loadManaged(ctx, actor, id)
}

// Update applies the owner-editable fields of patch. A code payload is also
// recorded as a pending submission, and a first completion awards points,
// all in one transaction with the task write.
func (s *TaskService) Update(ctx context.Context, actor *model.User, id string, patch model.TaskPatch) (*model.Task, error) {
	task, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	patch = patch.OwnerFields()
	completedNow := patch.Apply(task)

	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.taskRepo.Update(ctx, tx, task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if patch.Code != nil {
			sub := &model.Submission{
				ID:             uuid.NewString(),
				UserID:         actor.ID,
				TaskID:         task.ID,
				Code:           patch.Code,
				SubmissionType: model.PromptTypeCode,
				Status:         model.SubmissionPending,
			}
			if err := s.submissionRepo.CreateSubmission(ctx, tx, sub); err != nil {
				return fmt.Errorf("failed to create submission: %w", err)
			}
		}
		return s.awardPoints(ctx, tx, task, completedNow)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, actor *model.User, id string) error {
	if _, err := s.loadManaged(ctx, actor, id); err != nil {
		return err
	}
	return s.delete(ctx, id)
}

// AdminUpdate accepts every patchable field, including reassignment.
func (s *TaskService) AdminUpdate(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	if err := common.Validate(patch); err != nil {
		return nil, err
	}
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, errTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if patch.UserID != nil && *patch.UserID != task.UserID {
		if err := s.checkUser(ctx, *patch.UserID); err != nil {
			return nil, err
		}
	}
	if err := s.checkProject(ctx, patch.ProjectID); err != nil {
		return nil, err
	}

	completedNow := patch.Apply(task)
	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.taskRepo.Update(ctx, tx, task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		return s.awardPoints(ctx, tx, task, completedNow)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, task)
}

func (s *TaskService) AdminDelete(ctx context.Context, id string) error {
	return s.delete(ctx, id)
}

// Assign creates a task for another user and notifies them.
func (s *TaskService) Assign(ctx context.Context, req AssignTaskRequest) (*model.Task, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	if err := s.checkUser(ctx, req.UserID); err != nil {
		return nil, err
	}
	if err := s.checkProject(ctx, req.ProjectID); err != nil {
		return nil, err
	}
	task := req.build(req.UserID)
	if err := s.taskRepo.Create(ctx, nil, task); err != nil {
		return nil, fmt.Errorf("failed to assign task: %w", err)
	}
	log.Info().Str("task_id", task.ID).Str("user_id", task.UserID).Msg("task assigned")

	if s.notifier != nil {
		taskID := task.ID
		s.notifier.Notify(ctx, task.UserID, model.NotificationTaskAssigned, &taskID,
			"New task: "+task.Title, fmt.Sprintf("You have been assigned %q.", task.Title))
	}
	return s.reload(ctx, task)
}

func (s *TaskService) delete(ctx context.Context, id string) error {
	if err := s.taskRepo.Delete(ctx, nil, id); err != nil {
		if isNotFound(err) {
			return errTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskService) awardPoints(ctx context.Context, tx *sql.Tx, task *model.Task, completedNow bool) error {
	if !completedNow {
		return nil
	}
	if err := s.userRepo.AddPoints(ctx, tx, task.UserID, model.Points(task.Difficulty)); err != nil {
		return fmt.Errorf("failed to award points: %w", err)
	}
	return nil
}

// loadManaged returns the task when actor owns it or is an admin.
func (s *TaskService) loadManaged(ctx context.Context, actor *model.User, id string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, errTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if !canManage(actor, task.UserID) {
		return nil, errTaskForbidden
	}
	return task, nil
}

func (s *TaskService) checkUser(ctx context.Context, id string) error {
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		if isNotFound(err) {
			return errUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	return nil
}

func (s *TaskService) checkProject(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := s.projectRepo.FindByID(ctx, *id); err != nil {
		if isNotFound(err) {
			return errProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}
	return nil
}

// reload refreshes the display columns after a write.
func (s *TaskService) reload(ctx context.Context, task *model.Task) (*model.Task, error) {
	fresh, err := s.taskRepo.FindByID(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}
	return fresh, nil
}
