package scraping

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"room-availability/config"
	"room-availability/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNavigation marks a page that could not be loaded. It is never used for a
// page that loaded without the availability marker.
var ErrNavigation = errors.New("page navigation failed")

// Browser opens one Session per check pass.
type Browser interface {
	Open(ctx context.Context) (Session, error)
}

// Session loads pages and looks for the availability marker.
type Session interface {
	// HasMarker loads url and reports whether an element with the given class
	// is present. A loaded page without the marker returns (false, nil); load
	// failures return an error wrapping ErrNavigation.
	HasMarker(ctx context.Context, url, class string) (bool, error)
	Close() error
}

// Notifier delivers the availability message.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Checker walks the candidate date ranges and notifies when rooms are found.
type Checker struct {
	cfg      config.DatesFinder
	browser  Browser
	notifier Notifier
	metrics  *metrics.Metrics
	logger   logrus.FieldLogger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewChecker returns a Checker that probes cfg's ranges with browser and reports through notifier.
func NewChecker(cfg config.DatesFinder, browser Browser, notifier Notifier, m *metrics.Metrics, logger logrus.FieldLogger) *Checker {
	return &Checker{
		cfg:      cfg,
		browser:  browser,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// runLogger tags every line of one pass with the same run_id.
func (c *Checker) runLogger() logrus.FieldLogger {
	return c.logger.WithField("run_id", uuid.NewString())
}

// check loads every candidate range in order and returns the ones whose page
// shows the marker. The first navigation failure aborts the pass.
func (c *Checker) check(ctx context.Context, logger logrus.FieldLogger) (available []config.DateRange, tmpl URLTemplate, err error) {
	tmpl, err = NewURLTemplate(c.cfg)
	if err != nil {
		return nil, URLTemplate{}, err
	}

	session, err := c.browser.Open(ctx)
	if err != nil {
		return nil, tmpl, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.WithError(cerr).Warn("Failed to close browser session")
		}
	}()

	for i, r := range c.cfg.PossibleDates {
		if i > 0 {
			if err := c.sleep(ctx, randomBetween(c.cfg.MinDelay.Std(), c.cfg.MaxDelay.Std())); err != nil {
				return nil, tmpl, err
			}
		}

		url := tmpl.Expand(r)
		logger.WithField("url", url).Debug("Testing url")

		found, err := session.HasMarker(ctx, url, c.cfg.MarkerClass)
		c.metrics.ObserveCheck(found, err)
		if err != nil {
			return nil, tmpl, fmt.Errorf("checking %s: %w", r, err)
		}

		if found {
			logger.Infof("*** Found rooms for %s! ***", r)
			available = append(available, r)
		} else {
			logger.Infof("No rooms for %s", r)
		}
	}

	return available, tmpl, nil
}

// FindAvailableDates runs one check pass and, when any range is available,
// sends a single notification listing all of them. It reports whether
// anything was found.
func (c *Checker) FindAvailableDates(ctx context.Context) (bool, error) {
	logger := c.runLogger()
	available, tmpl, err := c.check(ctx, logger)
	if err != nil {
		c.metrics.ObserveRun(0, err)
		return false, err
	}
	c.metrics.ObserveRun(len(available), nil)

	if len(available) == 0 {
		return false, nil
	}

	logger.WithField("count", len(available)).Info("Sending all available dates")
	if err := c.notifier.Notify(ctx, FormatMessage(tmpl, available)); err != nil {
		return true, fmt.Errorf("failed to send availability notification: %w", err)
	}
	logger.Info("Done!")
	return true, nil
}

func randomBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min+1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
