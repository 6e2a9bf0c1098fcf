// Package reminders runs the periodic reminder sweep for bids nearing their due date.
package reminders

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"procurement/internal/logger"
)

const (
	defaultSchedule = "@every 1h"
	defaultTimeout  = 5 * time.Minute
)

// Sweeper reminds pending vendors and returns how many bids it reminded.
type Sweeper interface {
	SweepReminders(ctx context.Context) (int, error)
}

// Scheduler runs a Sweeper on a cron schedule.
type Scheduler struct {
	sweeper  Sweeper
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
	log      *zap.Logger
}

type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

func WithSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

// WithTimeout bounds a single sweep.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewScheduler(sweeper Sweeper, opts ...Option) *Scheduler {
	s := &Scheduler{
		sweeper:  sweeper,
		schedule: defaultSchedule,
		timeout:  defaultTimeout,
		log:      logger.WithModule("reminders"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return s
}

// Start registers the sweep and launches the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("reminder sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("reminder sweep scheduled", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the scheduler. The returned context is done once a running sweep finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce performs a single sweep.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	n, err := s.sweeper.SweepReminders(ctx)
	if n > 0 {
		s.log.Info("reminder sweep finished", zap.Int("bids", n))
	}
	return err
}
