package service

import (
	"context"
	"fmt"

	"groqy/internal/common"
	"groqy/internal/domain/model"
	"groqy/internal/domain/repository"

	"github.com/google/uuid"
)

type ProjectService struct {
	projectRepo repository.ProjectRepository
}

func NewProjectService(projectRepo repository.ProjectRepository) *ProjectService {
	return &ProjectService{projectRepo: projectRepo}
}

type CreateProjectRequest struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description"`
	Status      model.ProjectStatus `json:"status" validate:"omitempty,oneof=planning in_progress completed"`
}

func (s *ProjectService) Create(ctx context.Context, actor *model.User, req CreateProjectRequest) (*model.Project, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	p := &model.Project{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   actor.ID,
		Status:      req.Status,
	}
	if p.Status == "" {
		p.Status = model.ProjectPlanning
	}
	if err := s.projectRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return s.Get(ctx, p.ID)
}

func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) {
	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*model.Project, error) {
	p, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, errProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return p, nil
}

// Update and Delete are reserved to the creator and admins.
func (s *ProjectService) Update(ctx context.Context, actor *model.User, id string, patch model.ProjectPatch) (*model.Project, error) {
	if err := common.Validate(patch); err != nil {
		return nil, err
	}
	p, err := s.managed(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	if err := s.projectRepo.Update(ctx, p); err != nil {
		if isNotFound(err) {
			return nil, errProjectNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, actor *model.User, id string) error {
	if _, err := s.managed(ctx, actor, id); err != nil {
		return err
	}
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return errProjectNotFound
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (s *ProjectService) managed(ctx context.Context, actor *model.User, id string) (*model.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, p.CreatedBy) {
		return nil, common.NewError(common.ErrForbidden, "Only the project creator or an admin can change this project")
	}
	return p, nil
}
