package model

import "time"

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionReviewed SubmissionStatus = "reviewed"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

type Submission struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	TaskID          string           `json:"task_id"`
	Code            *string          `json:"code,omitempty"`
	UploadedFileURL *string          `json:"uploaded_file_url,omitempty"`
	FileType        *string          `json:"file_type,omitempty"`
	SubmissionType  PromptType       `json:"submission_type"`
	Status          SubmissionStatus `json:"status"`
	Feedback        *string          `json:"feedback,omitempty"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	TaskTitle *string `json:"task_title,omitempty"` // For display
}
