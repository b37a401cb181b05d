// Package scheduler registers the pipeline's recurring jobs on a cron
// clock, guaranteeing at most one run of each job at a time.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one scheduled unit of work. Run receives the context the
// scheduler was started with, cancelled on Stop.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler wraps a cron.Cron configured with SkipIfStillRunning on every
// job, so a slow run still in flight at its next trigger is skipped rather
// than queued or run concurrently.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
	log  zerolog.Logger
}

// New creates a Scheduler bound to ctx; ctx is passed to every Job.Run and
// should be cancelled by the caller on shutdown.
func New(ctx context.Context, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		ctx:  ctx,
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start begins executing registered jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop blocks until any in-flight job finishes, then returns.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers job on schedule (standard five-field cron syntax),
// wrapped with per-job non-overlap and structured success/failure logging.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		s.log.Debug().Str("job", job.Name()).Msg("job starting")

		if err := job.Run(s.ctx); err != nil {
			s.log.Error().Err(err).Str("job", job.Name()).Msg("job failed")
			return
		}
		s.log.Debug().Str("job", job.Name()).Msg("job completed")
	}))

	_, err := s.cron.AddJob(schedule, wrapped)
	if err != nil {
		return err
	}

	s.log.Info().Str("schedule", schedule).Str("job", job.Name()).Msg("job registered")
	return nil
}
