// Package scheduler runs the end-of-day summary task at a fixed local
// time.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Task is the work run on each tick.
type Task func(ctx context.Context, day time.Time) error

// Scheduler fires a Task once per day at hour:minute local time.
type Scheduler struct {
	hour   int
	minute int
	task   Task
	now    func() time.Time // overridable in tests
}

func New(hour, minute int, task Task) *Scheduler {
	return &Scheduler{hour: hour, minute: minute, task: task, now: time.Now}
}

// nextRun returns the next hour:minute after t.
func (s *Scheduler) nextRun(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), s.hour, s.minute, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run blocks until ctx is cancelled, firing the task at each scheduled
// time. A failing task is logged and the schedule continues.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		now := s.now()
		next := s.nextRun(now)
		log.Info().Time("next_run", next).Msg("daily summary scheduled")

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("scheduler stopped")
			return
		case fired := <-timer.C:
			day := time.Date(fired.Year(), fired.Month(), fired.Day(), 0, 0, 0, 0, fired.Location())
			if err := s.task(ctx, day); err != nil {
				log.Error().Err(err).Msg("daily summary task failed")
			}
		}
	}
}
