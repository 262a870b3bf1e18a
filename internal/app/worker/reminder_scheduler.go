package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ReminderSender is the part of the notification service the sweep needs.
type ReminderSender interface {
	SendDueReminders(ctx context.Context, now time.Time, window time.Duration) (int, error)
}

// ReminderScheduler runs the due-date reminder sweep on a cron schedule.
type ReminderScheduler struct {
	cron    *cron.Cron
	sender  ReminderSender
	window  time.Duration
	timeout time.Duration
	now     func() time.Time
}

func NewReminderScheduler(sender ReminderSender, window time.Duration) *ReminderScheduler {
	return &ReminderScheduler{
		cron:    cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sender:  sender,
		window:  window,
		timeout: 5 * time.Minute,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Schedule registers the sweep. schedule accepts standard five-field cron
// lines and descriptors such as "@every 1h".
func (s *ReminderScheduler) Schedule(schedule string) (cron.EntryID, error) {
	if s.window <= 0 {
		return 0, fmt.Errorf("reminder window must be positive")
	}
	id, err := s.cron.AddFunc(schedule, func() { s.RunOnce(context.Background()) })
	if err != nil {
		return 0, fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}
	return id, nil
}

// RunOnce performs a single sweep.
func (s *ReminderScheduler) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	sent, err := s.sender.SendDueReminders(ctx, s.now(), s.window)
	if err != nil {
		log.Error().Err(err).Int("sent", sent).Msg("reminder sweep failed")
		return sent
	}
	log.Info().Int("sent", sent).Msg("reminder sweep finished")
	return sent
}

func (s *ReminderScheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running sweep to finish.
func (s *ReminderScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
