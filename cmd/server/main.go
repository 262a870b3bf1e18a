package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"groqy/internal/api"
	"groqy/internal/app/service"
	"groqy/internal/app/worker"
	"groqy/internal/common/security"
	"groqy/internal/domain/repository"
	"groqy/internal/domain/repository/memory"
	"groqy/internal/platform/config"
	"groqy/internal/platform/database"
	"groqy/internal/platform/logger"
	"groqy/internal/platform/mailer"
	"groqy/internal/platform/queue"
	"groqy/internal/platform/storage"

	"github.com/rs/zerolog/log"
)

type repositories struct {
	users         repository.UserRepository
	tasks         repository.TaskRepository
	projects      repository.ProjectRepository
	submissions   repository.SubmissionRepository
	comments      repository.CommentRepository
	notifications repository.NotificationRepository
	tx            repository.Transactor
}

func main() {
	// 1. Load Configuration
	config.Load()
	cfg := config.AppConfig
	logger.Init(cfg.LogLevel, cfg.LogPretty)
	log.Info().Str("storage", cfg.StorageDriver).Msg("configuration loaded")

	// 2. Initialize JWT
	security.InitJWT(cfg.JWTKey, cfg.JWTExp)

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// 3. Initialize storage
	var repos repositories
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		repos = repositories{
			users:         store.Users(),
			tasks:         store.Tasks(),
			projects:      store.Projects(),
			submissions:   store.Submissions(),
			comments:      store.Comments(),
			notifications: store.Notifications(),
			tx:            store.Transactor(),
		}
		log.Warn().Msg("using in-memory storage, data is lost on restart")
	case config.StorageDriverPostgres:
		database.Connect()
		defer database.Close()
		migrateCtx, cancel := context.WithTimeout(appCtx, 30*time.Second)
		if err := database.Migrate(migrateCtx, database.DB); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("schema migration failed")
		}
		cancel()
		repos = repositories{
			users:         repository.NewPgUserRepository(database.DB),
			tasks:         repository.NewPgTaskRepository(database.DB),
			projects:      repository.NewPgProjectRepository(database.DB),
			submissions:   repository.NewPgSubmissionRepository(database.DB),
			comments:      repository.NewPgCommentRepository(database.DB),
			notifications: repository.NewPgNotificationRepository(database.DB),
			tx:            repository.NewSQLTransactor(database.DB),
		}
	default:
		log.Fatal().Str("driver", cfg.StorageDriver).Msg("unknown STORAGE_DRIVER")
	}

	files, err := storage.NewLocal(cfg.UploadDir, cfg.UploadMaxBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("upload storage unavailable")
	}

	// 4. Initialize Redis. An empty REDIS_ADDR keeps notifications in-app only.
	var notificationQueue *queue.NotificationQueue
	if cfg.RedisAddr != "" {
		queue.ConnectRedis()
		defer queue.CloseRedis()
		notificationQueue = queue.NewNotificationQueue(queue.RDB, cfg.NotificationQueueName)
	} else {
		log.Warn().Msg("REDIS_ADDR is empty, email notifications are disabled")
	}

	// 5. Initialize Services
	var jobQueue service.NotificationQueue
	if notificationQueue != nil {
		jobQueue = notificationQueue
	}
	notificationService := service.NewNotificationService(repos.notifications, repos.tasks, repos.users, jobQueue)
	services := api.Services{
		Auth:          service.NewAuthService(repos.users, repos.tasks, repos.tx, notificationService),
		Users:         service.NewUserService(repos.users, repos.tasks, repos.submissions, repos.comments, repos.notifications, repos.tx),
		Tasks:         service.NewTaskService(repos.tasks, repos.users, repos.projects, repos.submissions, repos.tx, notificationService),
		Uploads:       service.NewUploadService(repos.tasks, repos.submissions, repos.tx, files),
		Projects:      service.NewProjectService(repos.projects),
		Comments:      service.NewCommentService(repos.comments, repos.tasks),
		Submissions:   service.NewSubmissionService(repos.submissions),
		Notifications: notificationService,
		Analytics:     service.NewAnalyticsService(repos.users, repos.tasks),
	}

	// 6. Background work: notification emails and the reminder sweep.
	workerDone := make(chan struct{})
	if notificationQueue != nil {
		var sender mailer.Sender = mailer.LogMailer{}
		if cfg.SMTPHost != "" {
			sender = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPSender)
		}
		notificationWorker := worker.NewNotificationWorker(notificationQueue, queue.NewLocker(queue.RDB), repos.users, sender, cfg.EmailThrottle)
		go func() {
			defer close(workerDone)
			notificationWorker.Start(appCtx)
		}()
	} else {
		close(workerDone)
	}

	reminders := worker.NewReminderScheduler(notificationService, cfg.ReminderWindow)
	if _, err := reminders.Schedule(cfg.ReminderSchedule); err != nil {
		log.Fatal().Err(err).Msg("could not schedule reminders")
	}
	reminders.Start()

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(appCtx, services, repos.users, api.Options{
		UploadDir:      files.Dir(),
		UploadMaxBytes: cfg.UploadMaxBytes,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.APIPort).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Str("port", cfg.APIPort).Msg("could not listen")
		}
	}()

	<-stop // Wait for interrupt signal

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	reminders.Stop()
	appCancel() // Signal worker to stop
	<-workerDone

	log.Info().Msg("server and workers stopped gracefully")
}
