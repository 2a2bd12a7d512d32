// Package scheduler runs named jobs on RRULE schedules until its context ends.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teambition/rrule-go"
)

// JobFunc is the work run at each occurrence.
type JobFunc func(ctx context.Context) error

// Job binds a name and a recurrence rule to a function.
type Job struct {
	Name string
	Rule *rrule.RRule
	Run  JobFunc
}

// ParseRule parses an RRULE string such as "FREQ=DAILY;BYHOUR=3;BYMINUTE=0;BYSECOND=0".
// Occurrences are anchored at the start of the current UTC day, so BYHOUR values are UTC.
func ParseRule(rule string) (*rrule.RRule, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule %q: %w", rule, err)
	}
	y, m, d := time.Now().UTC().Date()
	r.DTStart(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	return r, nil
}

// NextRun is the first occurrence strictly after now, or zero if the rule is exhausted.
func NextRun(rule *rrule.RRule, now time.Time) time.Time {
	return rule.After(now, false)
}

// Scheduler runs registered jobs, each on its own goroutine.
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger
	now    func() time.Time
	wg     sync.WaitGroup
}

func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{logger: logger, now: time.Now}
}

// Register adds a job. Call before Start.
func (s *Scheduler) Register(name string, rule *rrule.RRule, fn JobFunc) {
	s.jobs = append(s.jobs, Job{Name: name, Rule: rule, Run: fn})
}

// Start launches every registered job. They stop when ctx is cancelled; Wait blocks until they have.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go func(job Job) {
			defer s.wg.Done()
			s.loop(ctx, job)
		}(job)
	}
}

func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	logger := s.logger.With(slog.String("job", job.Name))
	for {
		next := NextRun(job.Rule, s.now())
		if next.IsZero() {
			logger.Info("Schedule exhausted, job stopped")
			return
		}
		logger.Debug("Next run scheduled", slog.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.runOnce(ctx, logger, job)
	}
}

func (s *Scheduler) runOnce(ctx context.Context, logger *slog.Logger, job Job) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", slog.Any("panic", r))
		}
	}()
	if err := job.Run(ctx); err != nil {
		logger.Error("Job failed", slog.String("error", err.Error()), slog.Duration("duration", time.Since(start)))
		return
	}
	logger.Info("Job finished", slog.Duration("duration", time.Since(start)))
}
