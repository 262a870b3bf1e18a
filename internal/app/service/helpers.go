package service

import (
	"errors"
	"net/http"

	"groqy/internal/common"
	"groqy/internal/domain/model"
)

var (
	errTaskNotFound    = common.NewError(common.ErrNotFound, "Task not found")
	errUserNotFound    = common.NewError(common.ErrNotFound, "User not found")
	errProjectNotFound = common.NewError(common.ErrNotFound, "Project not found")
	errAdminOnly       = common.NewError(common.ErrForbidden, "Access denied. Admin only.")
)

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}

// canManage is the owner-or-admin rule shared by tasks, uploads and projects.
func canManage(actor *model.User, ownerID string) bool {
	return actor != nil && (actor.ID == ownerID || actor.IsAdmin())
}

func isConflict(err error) bool {
	return common.HTTPStatusFromError(err) == http.StatusConflict
}
