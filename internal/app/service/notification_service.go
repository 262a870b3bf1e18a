package service

import (
	"context"
	"fmt"
	"time"

	"groqy/internal/common"
	"groqy/internal/domain/model"
	"groqy/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NotificationQueue hands jobs to the notification worker.
type NotificationQueue interface {
	Enqueue(ctx context.Context, job model.NotificationJob) error
}

// Notifier is what the other services use to tell a user about something.
// Implementations must not fail the caller's request.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind model.NotificationType, relatedID *string, subject, content string)
}

type NotificationService struct {
	notificationRepo repository.NotificationRepository
	taskRepo         repository.TaskRepository
	userRepo         repository.UserRepository
	queue            NotificationQueue
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	queue NotificationQueue,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		taskRepo:         taskRepo,
		userRepo:         userRepo,
		queue:            queue,
	}
}

// Notify stores an in-app notification and queues the matching email.
func (s *NotificationService) Notify(ctx context.Context, userID string, kind model.NotificationType, relatedID *string, subject, content string) {
	if err := s.notify(ctx, userID, kind, relatedID, subject, content); err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("type", string(kind)).Msg("notification not delivered")
	}
}

func (s *NotificationService) notify(ctx context.Context, userID string, kind model.NotificationType, relatedID *string, subject, content string) error {
	n := &model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      kind,
		Content:   content,
		RelatedID: relatedID,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	if s.queue == nil {
		return nil
	}
	job := model.NotificationJob{
		NotificationID: n.ID,
		UserID:         userID,
		Type:           kind,
		Subject:        subject,
		Body:           content,
		EnqueuedAt:     time.Now().UTC(),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue notification %s: %w", n.ID, err)
	}
	return nil
}

func (s *NotificationService) List(ctx context.Context, actor *model.User, unreadOnly bool) ([]model.Notification, error) {
	list, err := s.notificationRepo.ListByUser(ctx, actor.ID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, actor *model.User, id string) error {
	if err := s.notificationRepo.MarkRead(ctx, id, actor.ID, time.Now().UTC()); err != nil {
		if isNotFound(err) {
			return common.NewError(common.ErrNotFound, "Notification not found")
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// SendDueReminders notifies owners of open tasks due within window that have
// not been reminded during the last window. It returns how many were sent.
func (s *NotificationService) SendDueReminders(ctx context.Context, now time.Time, window time.Duration) (int, error) {
	tasks, err := s.taskRepo.ListDueForReminder(ctx, now, window)
	if err != nil {
		return 0, fmt.Errorf("failed to list due tasks: %w", err)
	}

	sent := 0
	for _, task := range tasks {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		title := task.Title
		if title == "" {
			title = "Untitled task"
		}
		content := fmt.Sprintf("Task %q is due %s.", title, task.DueDate.UTC().Format(time.RFC1123))
		taskID := task.ID
		if err := s.notify(ctx, task.UserID, model.NotificationTaskDue, &taskID, "Task due soon: "+title, content); err != nil {
			log.Error().Err(err).Str("task_id", task.ID).Msg("reminder not delivered")
			continue
		}
		if err := s.taskRepo.TouchNotified(ctx, task.ID, now); err != nil {
			log.Error().Err(err).Str("task_id", task.ID).Msg("failed to stamp task reminder")
		}
		if err := s.userRepo.TouchLastNotification(ctx, task.UserID, now); err != nil {
			log.Error().Err(err).Str("user_id", task.UserID).Msg("failed to stamp user notification")
		}
		sent++
	}
	return sent, nil
}
