package middleware

import (
	"context"
	"errors"
	"net/http"

	"groqy/internal/common"
	"groqy/internal/common/security"
	"groqy/internal/domain/model"
	"groqy/internal/domain/repository"

	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/zerolog/hlog"
)

type contextKey string

const UserCtxKey contextKey = "user"

// Authenticator rejects requests without a valid bearer token and loads the
// token's user from the store, so deleted users are refused and role changes
// apply immediately. It must run after jwtauth.Verify.
func Authenticator(users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				if errors.Is(err, jwtauth.ErrNoTokenFound) {
					common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				} else if errors.Is(err, jwtauth.ErrExpired) {
					common.RespondWithError(w, http.StatusUnauthorized, "Token has expired")
				} else {
					common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				}
				return
			}
			if token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims")
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					common.RespondWithError(w, http.StatusUnauthorized, "User no longer exists")
					return
				}
				hlog.FromRequest(r).Error().Err(err).Str("user_id", userID).Msg("failed to resolve token user")
				common.RespondWithError(w, http.StatusInternalServerError, common.InternalErrorMessage)
				return
			}

			logClaimDrift(r, claims, user)

			ctx := context.WithValue(r.Context(), UserCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly checks the role of the user resolved by Authenticator.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r.Context())
		if !ok || !user.IsAdmin() {
			common.RespondWithError(w, http.StatusForbidden, "Access denied. Admin only.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(*model.User)
	return user, ok && user != nil
}

// logClaimDrift notes tokens whose role or email no longer match the stored
// user. The live record always wins.
func logClaimDrift(r *http.Request, claims map[string]interface{}, user *model.User) {
	role, _ := security.GetUserRoleFromClaims(claims)
	email, _ := security.GetEmailFromClaims(claims)
	if role == user.Role && email == user.Email {
		return
	}
	hlog.FromRequest(r).Info().
		Str("user_id", user.ID).
		Str("token_role", role).
		Str("role", user.Role).
		Bool("email_changed", email != user.Email).
		Msg("token claims are stale")
}
