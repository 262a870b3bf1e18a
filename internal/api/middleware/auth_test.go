package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"groqy/internal/common/security"
	"groqy/internal/domain/model"
	"groqy/internal/domain/repository/memory"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(t *testing.T, logs *bytes.Buffer) (*memory.Store, http.Handler) {
	t.Helper()
	security.InitJWT([]byte("middleware-test-secret"), time.Hour)
	store := memory.NewStore()

	r := chi.NewRouter()
	r.Use(RequestLogger(zerolog.New(logs)))
	r.Use(jwtauth.Verify(security.TokenAuth, jwtauth.TokenFromHeader))
	r.Use(Authenticator(store.Users()))
	r.With(AdminOnly).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(user.Role))
	})
	return store, r
}

func bearer(t *testing.T, user *model.User, path string) *http.Request {
	t.Helper()
	token, err := security.GenerateToken(user)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAuthenticatorUsesLiveRole(t *testing.T) {
	var logs bytes.Buffer
	store, router := newAuthRouter(t, &logs)
	ctx := context.Background()

	alice := &model.User{ID: "u1", Username: "alice", Email: "alice@example.com", Role: model.RoleUser, Skills: []string{}}
	require.NoError(t, store.Users().Create(ctx, nil, alice))
	req := bearer(t, alice, "/admin")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, logs.String(), "token claims are stale")

	promoted := *alice
	promoted.Role = model.RoleAdmin
	require.NoError(t, store.Users().Update(ctx, nil, &promoted))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code, "the old token carries role user")
	assert.Contains(t, logs.String(), "token claims are stale")
	assert.Contains(t, logs.String(), `"token_role":"user"`)
}

func TestAuthenticatorRejectsDeletedUser(t *testing.T) {
	var logs bytes.Buffer
	store, router := newAuthRouter(t, &logs)
	ctx := context.Background()

	bob := &model.User{ID: "u2", Username: "bob", Email: "bob@example.com", Role: model.RoleUser, Skills: []string{}}
	require.NoError(t, store.Users().Create(ctx, nil, bob))
	req := bearer(t, bob, "/me")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleUser, rec.Body.String())

	require.NoError(t, store.Users().Delete(ctx, nil, bob.ID))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "User no longer exists")
}
