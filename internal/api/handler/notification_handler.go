package handler

import (
	"net/http"
	"strconv"

	"groqy/internal/app/service"
	"groqy/internal/common"

	"github.com/go-chi/chi/v5"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(ns *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: ns}
}

func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/{notificationID}/read", h.markRead)
}

func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	list, err := h.notificationService.List(r.Context(), user, unreadOnly)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) markRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(r.Context(), user, chi.URLParam(r, "notificationID")); err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Notification marked as read")
}
