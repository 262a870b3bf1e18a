package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"groqy/internal/domain/model"
	"groqy/internal/domain/repository"
	"groqy/internal/platform/mailer"
	"groqy/internal/platform/queue"

	"github.com/rs/zerolog/log"
)

const (
	throttleKeyPrefix = "notification:email_throttle:"
	defaultPoll       = 5 * time.Second
	errorBackoff      = 5 * time.Second
)

// JobSource is the consuming side of the notification queue.
type JobSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error)
}

// NotificationWorker turns queued notification jobs into emails. A user gets
// at most one email per throttle period; the in-app notification is already
// stored by the time a job is queued, so a throttled job is just dropped.
type NotificationWorker struct {
	source   JobSource
	locker   *queue.Locker
	userRepo repository.UserRepository
	mail     mailer.Sender
	throttle time.Duration
	poll     time.Duration
	now      func() time.Time
}

func NewNotificationWorker(source JobSource, locker *queue.Locker, userRepo repository.UserRepository, mail mailer.Sender, throttle time.Duration) *NotificationWorker {
	return &NotificationWorker{
		source:   source,
		locker:   locker,
		userRepo: userRepo,
		mail:     mail,
		throttle: throttle,
		poll:     defaultPoll,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start blocks until ctx is cancelled.
func (w *NotificationWorker) Start(ctx context.Context) {
	log.Info().Msg("notification worker started")
	for {
		if ctx.Err() != nil {
			log.Info().Msg("notification worker stopping")
			return
		}
		raw, err := w.source.Dequeue(ctx, w.poll)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			log.Error().Err(err).Msg("failed to pop notification job")
			select {
			case <-ctx.Done():
			case <-time.After(errorBackoff):
			}
			continue
		}
		w.handle(ctx, raw)
	}
}

// handle reports whether an email went out.
func (w *NotificationWorker) handle(ctx context.Context, raw []byte) bool {
	var job model.NotificationJob
	if err := json.Unmarshal(raw, &job); err != nil || job.UserID == "" {
		log.Warn().Err(err).Bytes("payload", raw).Msg("dropping malformed notification job")
		return false
	}
	logger := log.With().Str("notification_id", job.NotificationID).Str("user_id", job.UserID).Logger()

	user, err := w.userRepo.FindByID(ctx, job.UserID)
	if err != nil {
		logger.Warn().Err(err).Msg("dropping notification job, user not loadable")
		return false
	}

	key := throttleKeyPrefix + user.ID
	token, ok, err := w.locker.Acquire(ctx, key, w.throttle)
	if err != nil {
		logger.Error().Err(err).Msg("failed to take email throttle lock")
		return false
	}
	if !ok {
		logger.Debug().Msg("email throttled")
		return false
	}

	msg := mailer.Message{To: user.Email, Username: user.Username, Subject: job.Subject, Body: job.Body}
	if err := w.mail.Send(ctx, msg); err != nil {
		logger.Error().Err(err).Msg("failed to email notification")
		// Free the slot so the next notification can try again.
		if _, rerr := w.locker.Release(context.WithoutCancel(ctx), key, token); rerr != nil {
			logger.Error().Err(rerr).Msg("failed to release email throttle lock")
		}
		return false
	}

	if err := w.userRepo.TouchLastEmail(ctx, user.ID, w.now()); err != nil {
		logger.Error().Err(err).Msg("failed to stamp last email")
	}
	logger.Info().Str("type", string(job.Type)).Msg("notification emailed")
	return true
}
