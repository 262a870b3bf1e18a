package handler

import (
	"net/http"
	"strconv"

	"groqy/internal/app/service"
	"groqy/internal/common"
	"groqy/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(us *service.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

// RegisterRoutes mounts the authenticated self-service routes.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.getMe)
	r.Put("/me", h.updateMe)
}

func (h *UserHandler) getMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) updateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var patch model.UserPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	updated, err := h.userService.UpdateProfile(r.Context(), user, patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.userService.Leaderboard(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

// RegisterLeaderboard mounts GET /leaderboard.
func (h *UserHandler) RegisterLeaderboard(r chi.Router) {
	r.Get("/", h.leaderboard)
}
