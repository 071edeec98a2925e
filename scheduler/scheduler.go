package scheduler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"room-availability/config"

	"github.com/sirupsen/logrus"
)

// Job is one availability check pass.
type Job interface {
	FindAvailableDates(ctx context.Context) (bool, error)
}

// FailureNotifier sends the alert for a run that failed.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context) error
}

// Options controls when and how often the job runs.
type Options struct {
	MinInterval    time.Duration
	MaxInterval    time.Duration
	PollInterval   time.Duration
	Deadline       time.Time
	BreakWhenFound bool
	RunImmediately bool
}

// OptionsFromConfig converts the main_schedule section to Options.
func OptionsFromConfig(cfg config.MainSchedule) Options {
	return Options{
		MinInterval:    cfg.MinInterval.Std(),
		MaxInterval:    cfg.MaxInterval.Std(),
		PollInterval:   cfg.PollInterval.Std(),
		Deadline:       cfg.Deadline.Time,
		BreakWhenFound: cfg.BreakWhenFound,
		RunImmediately: cfg.RunImmediately,
	}
}

// State is the scheduler lifecycle: Idle between runs, Running during one, Terminated after Run returns.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Outcome says why Run returned.
type Outcome int

const (
	OutcomeDeadline Outcome = iota
	OutcomeFound
	OutcomeCancelled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDeadline:
		return "deadline"
	case OutcomeFound:
		return "found"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Scheduler runs the job at random intervals until the deadline. Runs are
// strictly sequential.
type Scheduler struct {
	opts   Options
	job    Job
	alerts FailureNotifier
	logger logrus.FieldLogger

	state     atomic.Int32
	completed atomic.Int64
	nextRun   time.Time

	now func() time.Time
}

// New validates opts and returns an idle Scheduler. A deadline is required.
func New(opts Options, job Job, alerts FailureNotifier, logger logrus.FieldLogger) (*Scheduler, error) {
	if opts.Deadline.IsZero() {
		return nil, fmt.Errorf("%w: main_schedule.deadline is required", config.ErrInvalidConfig)
	}
	if opts.MinInterval < 0 || opts.MaxInterval < opts.MinInterval {
		return nil, fmt.Errorf("%w: intervals must satisfy 0 <= min_interval <= max_interval", config.ErrInvalidConfig)
	}
	if opts.PollInterval <= 0 {
		return nil, fmt.Errorf("%w: poll_interval must be positive", config.ErrInvalidConfig)
	}
	return &Scheduler{
		opts:   opts,
		job:    job,
		alerts: alerts,
		logger: logger,
		now:    time.Now,
	}, nil
}

// State returns the current state. Safe to call from other goroutines.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Completed returns the number of runs that finished without error.
func (s *Scheduler) Completed() int64 {
	return s.completed.Load()
}

// Run blocks until the deadline passes, a run finds rooms with
// BreakWhenFound set, a run fails, or ctx is cancelled. A failed run sends
// the failure alert and its error is returned.
func (s *Scheduler) Run(ctx context.Context) (Outcome, error) {
	defer s.state.Store(int32(StateTerminated))

	s.logger.WithFields(map[string]interface{}{
		"min_interval":  s.opts.MinInterval.String(),
		"max_interval":  s.opts.MaxInterval.String(),
		"poll_interval": s.opts.PollInterval.String(),
		"deadline":      s.opts.Deadline.Format(time.RFC3339),
	}).Info("Scheduler started")

	if s.opts.RunImmediately {
		s.nextRun = s.now()
	} else {
		s.scheduleNext(s.now())
	}

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		now := s.now()
		if !now.Before(s.opts.Deadline) {
			s.logger.Info("----- Scheduler finished -----")
			return OutcomeDeadline, nil
		}

		if !now.Before(s.nextRun) {
			found, err := s.runJob(ctx)
			if err != nil {
				if ctx.Err() != nil {
					s.logger.WithError(err).Info("Scheduler cancelled during a run")
					return OutcomeCancelled, ctx.Err()
				}
				s.logger.WithError(err).Error("Error in main scheduler")
				s.sendAlert(ctx)
				return OutcomeFailed, err
			}
			if found && s.opts.BreakWhenFound {
				s.logger.Info("Found dates, closing the app")
				return OutcomeFound, nil
			}
			s.scheduleNext(s.now())
		}

		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler cancelled")
			return OutcomeCancelled, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) scheduleNext(from time.Time) {
	s.nextRun = from.Add(randomBetween(s.opts.MinInterval, s.opts.MaxInterval))
	s.logger.WithField("next_run", s.nextRun.Format(time.RFC3339)).Debug("Next run scheduled")
}

func (s *Scheduler) runJob(ctx context.Context) (found bool, err error) {
	s.state.Store(int32(StateRunning))
	defer s.state.Store(int32(StateIdle))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	s.logger.Info("----- Launching DatesFinder job -----")
	found, err = s.job.FindAvailableDates(ctx)
	if err == nil {
		s.completed.Add(1)
	}
	return found, err
}

// sendAlert is best effort: its own failure is logged and does not replace
// the run error.
func (s *Scheduler) sendAlert(ctx context.Context) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.NotifyFailure(ctx); err != nil {
		s.logger.WithError(err).Error("Failed to send failure alert")
	}
}

func randomBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min+1)
}
