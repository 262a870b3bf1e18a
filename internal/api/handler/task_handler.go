package handler

import (
	"net/http"

	"groqy/internal/app/service"
	"groqy/internal/common"
	"groqy/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type TaskHandler struct {
	taskService    *service.TaskService
	commentService *service.CommentService
}

func NewTaskHandler(ts *service.TaskService, cs *service.CommentService) *TaskHandler {
	return &TaskHandler{taskService: ts, commentService: cs}
}

func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listTasks)
	r.Post("/", h.createTask)
	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", h.getTask)
		r.Put("/", h.updateTask)
		r.Patch("/", h.updateTask)
		r.Delete("/", h.deleteTask)
		r.Get("/comments", h.listComments)
	})
}

func (h *TaskHandler) listTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	tasks, err := h.taskService.List(r.Context(), user)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) createTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := h.taskService.Create(r.Context(), user, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) getTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	task, err := h.taskService.Get(r.Context(), user, chi.URLParam(r, "taskID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, task)
}

// updateTask serves both PUT and PATCH; either way only the fields sent are
// changed.
func (h *TaskHandler) updateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var patch model.TaskPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	task, err := h.taskService.Update(r.Context(), user, chi.URLParam(r, "taskID"), patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) deleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.taskService.Delete(r.Context(), user, chi.URLParam(r, "taskID")); err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Task deleted successfully")
}

func (h *TaskHandler) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.commentService.ListByTask(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, comments)
}
