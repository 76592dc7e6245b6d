package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"userhub/api/internal/repository"
)

// Scheduler sweeps expired verification codes and sessions so the tables
// stay bounded. Auth correctness never depends on the sweep; expiry is
// re-checked on every read.
type Scheduler struct {
	cron     *cron.Cron
	codes    *repository.CodeRepository
	sessions *repository.SessionRepository
	log      zerolog.Logger
}

func NewScheduler(codes *repository.CodeRepository, sessions *repository.SessionRepository, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		codes:    codes,
		sessions: sessions,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 * * * *", s.sweep); err != nil { // hourly
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for any running sweep, up to a bound.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	codes, err := s.codes.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("expired code sweep failed")
	}

	sessions, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("expired session sweep failed")
	}

	s.log.Debug().
		Int64("codes", codes).
		Int64("sessions", sessions).
		Msg("expiry sweep complete")
}
