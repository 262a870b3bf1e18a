package handler

import (
	"net/http"

	"groqy/internal/app/service"
	"groqy/internal/common"

	"github.com/go-chi/chi/v5"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(cs *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: cs}
}

func (h *CommentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.createComment)
	r.Get("/{taskID}", h.listComments)
}

func (h *CommentHandler) createComment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comment, err := h.commentService.Create(r.Context(), user, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, comment)
}

func (h *CommentHandler) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.commentService.ListByTask(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, comments)
}
