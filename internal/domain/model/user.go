package model

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                 string     `json:"id"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	HashedPassword     string     `json:"-"` // Not exposed
	Role               string     `json:"role"`
	Bio                string     `json:"bio"`
	Skills             []string   `json:"skills"`
	TotalPoints        int        `json:"total_points"`
	LastNotificationAt *time.Time `json:"last_notification_at,omitempty"`
	LastEmailAt        *time.Time `json:"last_email_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserPatch carries the optional fields of a profile update. Role is only
// honoured on the admin path.
type UserPatch struct {
	Username *string   `json:"username,omitempty" validate:"omitempty,min=1,max=64"`
	Email    *string   `json:"email,omitempty" validate:"omitempty,email"`
	Role     *string   `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
	Bio      *string   `json:"bio,omitempty" validate:"omitempty,max=2000"`
	Skills   *[]string `json:"skills,omitempty" validate:"omitempty,dive,min=1,max=64"`
}

// Apply merges the non-nil fields into u and reports whether anything changed.
func (p UserPatch) Apply(u *User) bool {
	changed := false
	if p.Username != nil && *p.Username != u.Username {
		u.Username = *p.Username
		changed = true
	}
	if p.Email != nil {
		email := NormalizeEmail(*p.Email)
		if email != u.Email {
			u.Email = email
			changed = true
		}
	}
	if p.Role != nil && *p.Role != u.Role {
		u.Role = *p.Role
		changed = true
	}
	if p.Bio != nil && *p.Bio != u.Bio {
		u.Bio = *p.Bio
		changed = true
	}
	if p.Skills != nil {
		u.Skills = append([]string{}, (*p.Skills)...)
		changed = true
	}
	return changed
}

// UserTaskSummary is the per-user roll-up used by the admin listings.
type UserTaskSummary struct {
	UserID          string     `json:"user_id"`
	Username        string     `json:"username"`
	Email           string     `json:"email,omitempty"`
	Role            string     `json:"role,omitempty"`
	TotalTasks      int        `json:"total_tasks"`
	CompletedTasks  int        `json:"completed_tasks"`
	InProgressTasks int        `json:"in_progress_tasks"`
	LastActive      *time.Time `json:"last_active"`
}
