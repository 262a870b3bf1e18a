package handler

import (
	"net/http"

	"groqy/internal/app/service"
	"groqy/internal/common"
	"groqy/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ProjectHandler struct {
	projectService *service.ProjectService
}

func NewProjectHandler(ps *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: ps}
}

func (h *ProjectHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProjects)
	r.Post("/", h.createProject)
	r.Get("/{projectID}", h.getProject)
	r.Put("/{projectID}", h.updateProject)
	r.Delete("/{projectID}", h.deleteProject)
}

func (h *ProjectHandler) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) createProject(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.CreateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	project, err := h.projectService.Create(r.Context(), user, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) getProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.projectService.Get(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) updateProject(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var patch model.ProjectPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	project, err := h.projectService.Update(r.Context(), user, chi.URLParam(r, "projectID"), patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) deleteProject(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.projectService.Delete(r.Context(), user, chi.URLParam(r, "projectID")); err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Project deleted successfully")
}
