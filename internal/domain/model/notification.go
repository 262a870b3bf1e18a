package model

import "time"

type NotificationType string

const (
	NotificationWelcome      NotificationType = "welcome"
	NotificationTaskAssigned NotificationType = "task_assigned"
	NotificationTaskDue      NotificationType = "task_due"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Content   string           `json:"content"`
	RelatedID *string          `json:"related_id,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
}

// NotificationJob is the queue payload consumed by the notification worker.
type NotificationJob struct {
	NotificationID string           `json:"notification_id"`
	UserID         string           `json:"user_id"`
	Type           NotificationType `json:"type"`
	Subject        string           `json:"subject"`
	Body           string           `json:"body"`
	EnqueuedAt     time.Time        `json:"enqueued_at"`
}
