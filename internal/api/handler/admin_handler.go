package handler

import (
	"net/http"

	"groqy/internal/app/service"
	"groqy/internal/common"
	"groqy/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

// AdminHandler serves /admin. The router puts Authenticator and AdminOnly in
// front of every route here.
type AdminHandler struct {
	userService      *service.UserService
	taskService      *service.TaskService
	analyticsService *service.AnalyticsService
}

func NewAdminHandler(us *service.UserService, ts *service.TaskService, as *service.AnalyticsService) *AdminHandler {
	return &AdminHandler{userService: us, taskService: ts, analyticsService: as}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/overview", h.overview)
	r.Get("/task-status", h.taskStatus)
	r.Get("/analytics/task-completion", h.taskCompletion)
	r.Get("/analytics/user-activity", h.userActivity)

	r.Get("/users", h.listUsers)
	r.Get("/users/{userID}", h.getUser)
	r.Put("/users/{userID}", h.updateUser)
	r.Delete("/users/{userID}", h.deleteUser)
	r.Post("/promote", h.promote)

	r.Post("/tasks/assign", h.assignTask)
	r.Put("/tasks/{taskID}", h.updateTask)
	r.Delete("/tasks/{taskID}", h.deleteTask)
}

func (h *AdminHandler) overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.analyticsService.Overview(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, overview)
}

func (h *AdminHandler) taskStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := h.analyticsService.TaskStatus(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, counts)
}

func (h *AdminHandler) taskCompletion(w http.ResponseWriter, r *http.Request) {
	trend, err := h.analyticsService.CompletionTrend(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, trend)
}

func (h *AdminHandler) userActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.analyticsService.UserActivity(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, activity)
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListWithTaskSummary(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	var patch model.UserPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	user, err := h.userService.AdminUpdateUser(r.Context(), chi.URLParam(r, "userID"), patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.DeleteUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "User and associated data deleted successfully")
}

func (h *AdminHandler) promote(w http.ResponseWriter, r *http.Request) {
	var req service.PromoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.userService.Promote(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "User "+user.Email+" promoted to admin")
}

func (h *AdminHandler) assignTask(w http.ResponseWriter, r *http.Request) {
	var req service.AssignTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := h.taskService.Assign(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, task)
}

func (h *AdminHandler) updateTask(w http.ResponseWriter, r *http.Request) {
	var patch model.TaskPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	task, err := h.taskService.AdminUpdate(r.Context(), chi.URLParam(r, "taskID"), patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, task)
}

func (h *AdminHandler) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.taskService.AdminDelete(r.Context(), chi.URLParam(r, "taskID")); err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Task deleted successfully")
}
