package handler

import (
	"errors"
	"net/http"

	"groqy/internal/app/service"
	"groqy/internal/common"

	"github.com/go-chi/chi/v5"
)

// Multipart parts beyond this stay on disk while the form is parsed.
const multipartMemory = 8 << 20

type UploadHandler struct {
	uploadService *service.UploadService
	maxBytes      int64
}

func NewUploadHandler(us *service.UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploadService: us, maxBytes: maxBytes}
}

func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.upload)
}

func (h *UploadHandler) upload(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if h.maxBytes > 0 {
		// Leave room for the other form fields.
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+(1<<20))
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.RespondWithError(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	taskID := r.FormValue("task_id")
	if taskID == "" {
		taskID = r.FormValue("taskId")
	}

	resp, err := h.uploadService.Upload(r.Context(), user, service.UploadRequest{
		TaskID:      taskID,
		Code:        r.FormValue("code"),
		Description: r.FormValue("description"),
		Filename:    header.Filename,
		File:        file,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}
