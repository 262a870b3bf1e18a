package service

import (
	"context"
	"database/sql"
	"fmt"

	"groqy/internal/common"
	"groqy/internal/domain/model"
	"groqy/internal/domain/repository"

	"github.com/rs/zerolog/log"
)

type UserService struct {
	userRepo         repository.UserRepository
	taskRepo         repository.TaskRepository
	submissionRepo   repository.SubmissionRepository
	commentRepo      repository.CommentRepository
	notificationRepo repository.NotificationRepository
	tx               repository.Transactor
}

func NewUserService(
	userRepo repository.UserRepository,
	taskRepo repository.TaskRepository,
	submissionRepo repository.SubmissionRepository,
	commentRepo repository.CommentRepository,
	notificationRepo repository.NotificationRepository,
	tx repository.Transactor,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		taskRepo:         taskRepo,
		submissionRepo:   submissionRepo,
		commentRepo:      commentRepo,
		notificationRepo: notificationRepo,
		tx:               tx,
	}
}

type PromoteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	user.HashedPassword = ""
	return user, nil
}

// UpdateProfile is the self-service path; the role can never change here.
func (s *UserService) UpdateProfile(ctx context.Context, actor *model.User, patch model.UserPatch) (*model.User, error) {
	patch.Role = nil
	return s.update(ctx, actor.ID, patch)
}

func (s *UserService) AdminUpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	return s.update(ctx, id, patch)
}

func (s *UserService) update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	if err := common.Validate(patch); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if patch.Apply(user) {
		if err := s.userRepo.Update(ctx, nil, user); err != nil {
			if isNotFound(err) {
				return nil, errUserNotFound
			}
			if isConflict(err) {
				return nil, common.NewError(common.ErrConflict, "Email is already in use")
			}
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}
	user.HashedPassword = ""
	return user, nil
}

func (s *UserService) Promote(ctx context.Context, req PromoteRequest) (*model.User, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByEmail(ctx, model.NormalizeEmail(req.Email))
	if err != nil {
		if isNotFound(err) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.Role != model.RoleAdmin {
		user.Role = model.RoleAdmin
		if err := s.userRepo.Update(ctx, nil, user); err != nil {
			return nil, fmt.Errorf("failed to promote user: %w", err)
		}
		log.Info().Str("user_id", user.ID).Msg("user promoted to admin")
	}
	user.HashedPassword = ""
	return user, nil
}

// DeleteUser removes the user together with everything that references it,
// all in one transaction.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.userRepo.FindByID(ctx, id); err != nil {
			if isNotFound(err) {
				return errUserNotFound
			}
			return fmt.Errorf("failed to find user: %w", err)
		}
		if _, err := s.submissionRepo.DeleteByUserID(ctx, tx, id); err != nil {
			return fmt.Errorf("failed to delete submissions: %w", err)
		}
		if _, err := s.commentRepo.DeleteByUserID(ctx, tx, id); err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		if _, err := s.notificationRepo.DeleteByUserID(ctx, tx, id); err != nil {
			return fmt.Errorf("failed to delete notifications: %w", err)
		}
		if _, err := s.taskRepo.DeleteByUserID(ctx, tx, id); err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}
		if err := s.userRepo.Delete(ctx, tx, id); err != nil {
			if isNotFound(err) {
				return errUserNotFound
			}
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Str("user_id", id).Msg("user and associated records deleted")
	return nil
}

func (s *UserService) ListWithTaskSummary(ctx context.Context) ([]model.UserTaskSummary, error) {
	summaries, err := s.taskRepo.UserSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize users: %w", err)
	}
	return summaries, nil
}

func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	entries, err := s.userRepo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return entries, nil
}
