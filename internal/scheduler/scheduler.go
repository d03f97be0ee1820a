// Package scheduler drives the bot's timed jobs: a one-shot startup
// notice and the daily checks. All daily times are evaluated in the
// configured local timezone. Jobs run sequentially on one goroutine.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"butler_bot/internal/config"
)

// Job is a timed callback. It runs to completion before the next job can
// fire, so jobs never interleave with each other.
type Job func(ctx context.Context)

type entry struct {
	name  string
	next  time.Time
	daily bool
	at    config.ClockTime
	run   Job
}

// Scheduler fires registered jobs at their local-time schedule.
type Scheduler struct {
	loc  *time.Location
	log  *slog.Logger
	now  func() time.Time
	jobs []*entry
}

// New creates a Scheduler for the given timezone.
func New(loc *time.Location, log *slog.Logger) *Scheduler {
	return &Scheduler{
		loc: loc,
		log: log,
		now: time.Now,
	}
}

// SetNow overrides the clock (useful for testing).
func (s *Scheduler) SetNow(now func() time.Time) {
	s.now = now
}

// Once registers a job that fires a single time after the given delay.
func (s *Scheduler) Once(name string, delay time.Duration, run Job) {
	s.jobs = append(s.jobs, &entry{
		name: name,
		next: s.now().Add(delay),
		run:  run,
	})
}

// Daily registers a job that fires every day at the given local time.
func (s *Scheduler) Daily(name string, at config.ClockTime, run Job) {
	s.jobs = append(s.jobs, &entry{
		name:  name,
		next:  NextDaily(s.now(), at, s.loc),
		daily: true,
		at:    at,
		run:   run,
	})
}

// NextDaily returns the next occurrence of the given local time of day
// strictly after now.
func NextDaily(now time.Time, at config.ClockTime, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), at.Hour, at.Minute, at.Second, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run fires jobs in due order, blocking until ctx is cancelled or no jobs
// remain. Every job is invoked from this goroutine only.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		e := s.earliest()
		if e == nil {
			return
		}

		timer := time.NewTimer(e.next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.log.Debug("job fired", "name", e.name)
		e.run(ctx)

		if e.daily {
			e.next = NextDaily(s.now(), e.at, s.loc)
		} else {
			e.next = time.Time{}
		}
	}
}

func (s *Scheduler) earliest() *entry {
	var min *entry
	for _, e := range s.jobs {
		if e.next.IsZero() {
			continue
		}
		if min == nil || e.next.Before(min.next) {
			min = e
		}
	}
	return min
}
