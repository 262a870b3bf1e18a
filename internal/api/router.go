package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"groqy/internal/api/handler"
	"groqy/internal/api/middleware"
	"groqy/internal/app/service"
	"groqy/internal/common/security"
	"groqy/internal/domain/repository"
	"groqy/internal/platform/storage"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Auth          *service.AuthService
	Users         *service.UserService
	Tasks         *service.TaskService
	Uploads       *service.UploadService
	Projects      *service.ProjectService
	Comments      *service.CommentService
	Submissions   *service.SubmissionService
	Notifications *service.NotificationService
	Analytics     *service.AnalyticsService
}

type Options struct {
	UploadDir      string
	UploadMaxBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the HTTP API. ctx bounds background helpers such as the
// rate limiter's sweeper.
func NewRouter(ctx context.Context, svc Services, userRepo repository.UserRepository, opts Options) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Only the Authorization header is consulted; a token in a cookie or query
	// string is ignored.
	r.Use(jwtauth.Verify(security.TokenAuth, jwtauth.TokenFromHeader))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	if opts.UploadDir != "" {
		files := http.StripPrefix(storage.URLPrefix, http.FileServer(http.Dir(opts.UploadDir)))
		r.Get(storage.URLPrefix+"*", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}
			files.ServeHTTP(w, r)
		})
	}

	authenticate := middleware.Authenticator(userRepo)
	limiter := middleware.NewRateLimiter(ctx, opts.RateLimitRPS, opts.RateLimitBurst)

	authHandler := handler.NewAuthHandler(svc.Auth)
	userHandler := handler.NewUserHandler(svc.Users)
	taskHandler := handler.NewTaskHandler(svc.Tasks, svc.Comments)
	commentHandler := handler.NewCommentHandler(svc.Comments)
	uploadHandler := handler.NewUploadHandler(svc.Uploads, opts.UploadMaxBytes)
	submissionHandler := handler.NewSubmissionHandler(svc.Submissions)
	projectHandler := handler.NewProjectHandler(svc.Projects)
	notificationHandler := handler.NewNotificationHandler(svc.Notifications)
	adminHandler := handler.NewAdminHandler(svc.Users, svc.Tasks, svc.Analytics)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/users", func(users chi.Router) {
			users.Group(func(public chi.Router) {
				public.Use(limiter.Handler)
				authHandler.RegisterRoutes(public)
			})
			users.Group(func(private chi.Router) {
				private.Use(authenticate)
				userHandler.RegisterRoutes(private)
			})
		})

		v1.Group(func(private chi.Router) {
			private.Use(authenticate)
			private.Route("/tasks", taskHandler.RegisterRoutes)
			private.Route("/comments", commentHandler.RegisterRoutes)
			private.Route("/upload", uploadHandler.RegisterRoutes)
			private.Route("/submissions", submissionHandler.RegisterRoutes)
			private.Route("/projects", projectHandler.RegisterRoutes)
			private.Route("/notifications", notificationHandler.RegisterRoutes)
			private.Route("/leaderboard", userHandler.RegisterLeaderboard)
		})

		v1.Route("/admin", func(admin chi.Router) {
			admin.Use(authenticate)
			admin.Use(middleware.AdminOnly)
			adminHandler.RegisterRoutes(admin)
		})
	})

	return r
}
