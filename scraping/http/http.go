package http_source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"room-availability/scraping"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// Options configures the plain HTTP probe.
type Options struct {
	UserAgent string
	Timeout   time.Duration
}

// Browser fetches result pages over plain HTTP and inspects the served HTML.
// Pages that build their results with JavaScript need the chrome probe.
type Browser struct {
	opts   Options
	logger logrus.FieldLogger
}

// NewBrowser returns an HTTP probe using opts.
func NewBrowser(opts Options, logger logrus.FieldLogger) *Browser {
	return &Browser{opts: opts, logger: logger}
}

// Open returns a session with its own client and connection pool.
func (b *Browser) Open(ctx context.Context) (scraping.Session, error) {
	return &session{
		client: &http.Client{Timeout: b.opts.Timeout},
		opts:   b.opts,
		logger: b.logger,
	}, nil
}

type session struct {
	client *http.Client
	opts   Options
	logger logrus.FieldLogger
}

func (s *session) HasMarker(ctx context.Context, url, class string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("%w: failed to create request: %v", scraping.ErrNavigation, err)
	}
	if s.opts.UserAgent != "" {
		req.Header.Set("User-Agent", s.opts.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: HTTP request failed: %v", scraping.ErrNavigation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: unexpected status code %d", scraping.ErrNavigation, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return false, fmt.Errorf("%w: failed to parse response body: %v", scraping.ErrNavigation, err)
	}

	matches := doc.Find("." + class).Length()
	s.logger.WithFields(map[string]interface{}{
		"status_code":   resp.StatusCode,
		"response_time": int(time.Since(start).Milliseconds()),
		"matches":       matches,
	}).Debug("Page fetched")

	return matches > 0, nil
}

func (s *session) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
