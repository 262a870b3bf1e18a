package model

import (
	"encoding/json"
	"time"
)

type PromptType string
type TaskStatus string

const (
	PromptTypeText PromptType = "text"
	PromptTypeCode PromptType = "code"
	PromptTypeFile PromptType = "file"

	TaskStatusNotStarted TaskStatus = "not_started"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"

	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

const (
	WelcomeTaskTitle       = "Complete Your Profile"
	WelcomeTaskDescription = "Welcome to GROQY! Your first task is to complete your profile. Fill in your profile, add your skills, and tell us about yourself."
	WelcomeTaskPrompt      = "Fill in your profile, add your skills, and tell us about yourself."

	DefaultTaskTitle       = "Default Task Title"
	DefaultTaskDescription = "Default Task Description"
)

func (p PromptType) Valid() bool {
	switch p {
	case PromptTypeText, PromptTypeCode, PromptTypeFile:
		return true
	}
	return false
}

type Task struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"user_id"`
	ProjectID           *string    `json:"project_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Prompt              string     `json:"prompt"`
	PromptType          PromptType `json:"prompt_type"`
	Completed           bool       `json:"completed"`
	InProgress          bool       `json:"in_progress"`
	Difficulty          string     `json:"difficulty"`
	DueDate             *time.Time `json:"due_date"`
	RequiredSkills      []string   `json:"required_skills"`
	TaskURL             string     `json:"task_url"`
	FileUploadRequired  bool       `json:"file_upload_required"`
	DownloadableFileURL *string    `json:"downloadable_file_url"`
	Code                *string    `json:"code"`
	FileType            *string    `json:"file_type,omitempty"`
	FileDescription     *string    `json:"file_description,omitempty"`
	LastNotificationAt  *time.Time `json:"last_notification_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	OwnerUsername *string `json:"owner_username,omitempty"` // For display
	ProjectTitle  *string `json:"project_title,omitempty"`  // For display
}

// Status collapses the two stored flags into one state. Completed wins when
// both flags are set.
func (t Task) Status() TaskStatus {
	switch {
	case t.Completed:
		return TaskStatusCompleted
	case t.InProgress:
		return TaskStatusInProgress
	default:
		return TaskStatusNotStarted
	}
}

func (t Task) MarshalJSON() ([]byte, error) {
	type alias Task
	return json.Marshal(struct {
		alias
		Status TaskStatus `json:"status"`
	}{alias(t), t.Status()})
}

// Points is what completing a task of the given difficulty is worth.
func Points(difficulty string) int {
	switch difficulty {
	case DifficultyMedium:
		return 20
	case DifficultyHard:
		return 30
	default:
		return 10
	}
}

// TaskPatch carries the optional fields of a task update. Owners may only
// send Completed, InProgress and Code; the admin path accepts all of them.
type TaskPatch struct {
	Completed           *bool       `json:"completed,omitempty"`
	InProgress          *bool       `json:"in_progress,omitempty"`
	Code                *string     `json:"code,omitempty"`
	Prompt              *string     `json:"prompt,omitempty"`
	UserID              *string     `json:"user_id,omitempty" validate:"omitempty,uuid"`
	ProjectID           *string     `json:"project_id,omitempty" validate:"omitempty,uuid"`
	Title               *string     `json:"title,omitempty"`
	Description         *string     `json:"description,omitempty"`
	Difficulty          *string     `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
	DueDate             *time.Time  `json:"due_date,omitempty"`
	PromptType          *PromptType `json:"prompt_type,omitempty" validate:"omitempty,oneof=text code file"`
	TaskURL             *string     `json:"task_url,omitempty"`
	FileUploadRequired  *bool       `json:"file_upload_required,omitempty"`
	DownloadableFileURL *string     `json:"downloadable_file_url,omitempty"`
}

// OwnerFields keeps only the fields a task owner is allowed to change.
func (p TaskPatch) OwnerFields() TaskPatch {
	return TaskPatch{Completed: p.Completed, InProgress: p.InProgress, Code: p.Code}
}

// Apply merges the non-nil fields into t. It reports whether the task moved
// from not completed to completed.
func (p TaskPatch) Apply(t *Task) (completedNow bool) {
	wasCompleted := t.Completed
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.InProgress != nil {
		t.InProgress = *p.InProgress
	}
	if p.Code != nil {
		code := *p.Code
		t.Code = &code
	}
	if p.Prompt != nil {
		t.Prompt = *p.Prompt
	}
	if p.UserID != nil {
		t.UserID = *p.UserID
	}
	if p.ProjectID != nil {
		id := *p.ProjectID
		t.ProjectID = &id
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Difficulty != nil {
		t.Difficulty = *p.Difficulty
	}
	if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.PromptType != nil {
		t.PromptType = *p.PromptType
	}
	if p.TaskURL != nil {
		t.TaskURL = *p.TaskURL
	}
	if p.FileUploadRequired != nil {
		t.FileUploadRequired = *p.FileUploadRequired
	}
	if p.DownloadableFileURL != nil {
		url := *p.DownloadableFileURL
		t.DownloadableFileURL = &url
	}
	return !wasCompleted && t.Completed
}

// TaskStatusCounts is the admin tri-state breakdown.
type TaskStatusCounts struct {
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	NotStarted int `json:"not_started"`
}

type Overview struct {
	TotalUsers     int     `json:"total_users"`
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	CompletionRate float64 `json:"completion_rate"`
}

type DailyCompletion struct {
	Date           string `json:"date"`
	CompletedTasks int    `json:"completed_tasks"`
}
