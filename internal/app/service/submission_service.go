package service

import (
	"context"
	"fmt"

	"groqy/internal/domain/model"
	"groqy/internal/domain/repository"
)

// SubmissionService only reads. Submissions are written by the task update
// and upload flows.
type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
}

func NewSubmissionService(subRepo repository.SubmissionRepository) *SubmissionService {
	return &SubmissionService{submissionRepo: subRepo}
}

func (s *SubmissionService) History(ctx context.Context, actor *model.User) ([]model.Submission, error) {
	subs, err := s.submissionRepo.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}
