package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"groqy/internal/common"
	"groqy/internal/common/security"
	"groqy/internal/domain/model"
	"groqy/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	errUserExists         = common.NewError(common.ErrConflict, "User already exists")
	errInvalidCredentials = common.NewError(common.ErrBadRequest, "Invalid email or password")
)

type AuthService struct {
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
	tx       repository.Transactor
	notifier Notifier
}

func NewAuthService(userRepo repository.UserRepository, taskRepo repository.TaskRepository, tx repository.Transactor, notifier Notifier) *AuthService {
	return &AuthService{userRepo: userRepo, taskRepo: taskRepo, tx: tx, notifier: notifier}
}

type RegisterRequest struct {
	Username string   `json:"username" validate:"required,max=64"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,max=72"`
	Role     string   `json:"role" validate:"omitempty,eq=user"` // elevation only through admin promote
	Bio      string   `json:"bio" validate:"max=2000"`
	Skills   []string `json:"skills" validate:"omitempty,dive,min=1,max=64"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type RegisterResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
	Task  *model.Task `json:"task"`
}

// Register creates the user and its welcome task in one transaction and
// returns a token for the new account.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	email := model.NormalizeEmail(req.Email)

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, errUserExists
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           model.RoleUser,
		Bio:            req.Bio,
		Skills:         req.Skills,
	}
	if user.Skills == nil {
		user.Skills = []string{}
	}
	task := &model.Task{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		Title:          model.WelcomeTaskTitle,
		Description:    model.WelcomeTaskDescription,
		Prompt:         model.WelcomeTaskPrompt,
		PromptType:     model.PromptTypeText,
		Difficulty:     model.DifficultyMedium,
		RequiredSkills: []string{},
	}

	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			if errors.Is(err, common.ErrConflict) {
				return errUserExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := s.taskRepo.Create(ctx, tx, task); err != nil {
			return fmt.Errorf("failed to create welcome task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := security.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	log.Info().Str("user_id", user.ID).Msg("user registered")

	if s.notifier != nil {
		taskID := task.ID
		s.notifier.Notify(ctx, user.ID, model.NotificationWelcome, &taskID,
			"Welcome to GROQY", model.WelcomeTaskDescription)
	}

	user.HashedPassword = "" // Clear password before returning
	return &RegisterResponse{Token: token, User: user, Task: task}, nil
}

// Login never tells the caller which of email or password was wrong.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, model.NormalizeEmail(req.Email))
	if err != nil {
		if isNotFound(err) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, errInvalidCredentials
	}

	token, err := security.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}
