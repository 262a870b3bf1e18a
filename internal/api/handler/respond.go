package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"groqy/internal/api/middleware"
	"groqy/internal/common"
	"groqy/internal/domain/model"

	"github.com/rs/zerolog/hlog"
)

const maxJSONBody = 1 << 20

// respondError writes the status mapped from err. Server errors are logged
// and replaced by a generic message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatusFromError(err)
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		common.RespondWithError(w, status, common.InternalErrorMessage)
		return
	}
	common.RespondWithError(w, status, common.ClientMessage(err))
}

// decodeJSON reads the body into dst and answers 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			common.RespondWithError(w, http.StatusBadRequest, "Request body must not be empty")
			return false
		}
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

// currentUser returns the user resolved by the auth middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return nil, false
	}
	return user, true
}
