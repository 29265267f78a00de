package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type VerificationPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type ResetPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler purges stale workflow tokens on a cron cadence. Expired
// verification tokens go hourly; anything older than 30 days goes in the
// nightly sweep regardless of expiry.
type Scheduler struct {
	cron          *cron.Cron
	verifications VerificationPurger
	resets        ResetPurger
	log           zerolog.Logger
}

func NewScheduler(verifications VerificationPurger, resets ResetPurger, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:          cron.New(cron.WithSeconds()),
		verifications: verifications,
		resets:        resets,
		log:           log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.purgeExpired); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 0 * * *", s.purgeStale); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.CancelFunc {
	_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		s.cron.Stop()
		cancel()
	}()
	return cancel
}

func (s *Scheduler) purgeExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.verifications.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("purge expired verification tokens failed")
		return
	}
	if n > 0 {
		s.log.Info().Int64("count", n).Msg("purged expired verification tokens")
	}
}

func (s *Scheduler) purgeStale() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -30)

	if n, err := s.verifications.DeleteOlderThan(ctx, cutoff); err != nil {
		s.log.Error().Err(err).Msg("purge stale verification tokens failed")
	} else if n > 0 {
		s.log.Info().Int64("count", n).Msg("purged stale verification tokens")
	}

	if n, err := s.resets.DeleteOlderThan(ctx, cutoff); err != nil {
		s.log.Error().Err(err).Msg("purge stale reset tokens failed")
	} else if n > 0 {
		s.log.Info().Int64("count", n).Msg("purged stale reset tokens")
	}
}
