package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"room-availability/scraping"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultPageTimeout  = 30 * time.Second
)

// Options configures the headless Chrome probe.
type Options struct {
	Headless  bool
	UserAgent string
	ExecPath  string

	// PageTimeout bounds navigation until the document body is ready.
	PageTimeout time.Duration
	// MarkerWait is how long a loaded page may take to render the marker.
	MarkerWait   time.Duration
	PollInterval time.Duration
}

// Browser starts one Chrome process per session.
type Browser struct {
	opts   Options
	logger logrus.FieldLogger
}

// NewBrowser returns a Chrome probe, filling in default poll and page timeouts.
func NewBrowser(opts Options, logger logrus.FieldLogger) *Browser {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = defaultPageTimeout
	}
	return &Browser{opts: opts, logger: logger}
}

func (b *Browser) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if b.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.opts.UserAgent))
	}
	if b.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(b.opts.ExecPath))
	}
	return opts
}

// Open launches Chrome. The process lives until Close.
func (b *Browser) Open(ctx context.Context) (scraping.Session, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(b.logger.Debugf),
		chromedp.WithErrorf(b.logger.Warnf),
	)

	// An empty Run starts the browser so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("%w: failed to start chrome: %v", scraping.ErrNavigation, err)
	}
	b.logger.Debug("Chrome started")

	return &session{
		browserCtx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
		opts:   b.opts,
		logger: b.logger,
	}, nil
}

type session struct {
	browserCtx context.Context
	cancel     func()
	opts       Options
	logger     logrus.FieldLogger
}

// markerExpression evaluates to true once an element with class is in the DOM.
func markerExpression(class string) string {
	literal, _ := json.Marshal(class)
	return "document.getElementsByClassName(" + string(literal) + ").length > 0"
}

// checkResponse rejects a main document that did not load with a 2xx status.
// Error pages render a body too, so they would otherwise read as "no rooms".
func checkResponse(resp *network.Response) error {
	if resp == nil {
		return fmt.Errorf("%w: no response for main document", scraping.ErrNavigation)
	}
	if resp.Status < 200 || resp.Status > 299 {
		return fmt.Errorf("%w: unexpected status code %d", scraping.ErrNavigation, resp.Status)
	}
	return nil
}

func (s *session) HasMarker(ctx context.Context, url, class string) (bool, error) {
	tabCtx, cancelTab := chromedp.NewContext(s.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	navCtx, cancelNav := context.WithTimeout(tabCtx, s.opts.PageTimeout)
	defer cancelNav()
	resp, err := chromedp.RunResponse(navCtx, chromedp.Navigate(url))
	if err != nil {
		return false, fmt.Errorf("%w: %v", scraping.ErrNavigation, err)
	}
	if err := checkResponse(resp); err != nil {
		return false, err
	}
	if err := chromedp.Run(navCtx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return false, fmt.Errorf("%w: %v", scraping.ErrNavigation, err)
	}

	expr := markerExpression(class)
	deadline := time.Now().Add(s.opts.MarkerWait)
	for {
		var found bool
		if err := chromedp.Run(tabCtx, chromedp.Evaluate(expr, &found)); err != nil {
			return false, fmt.Errorf("%w: evaluating marker: %v", scraping.ErrNavigation, err)
		}
		if found {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}

		timer := time.NewTimer(s.opts.PollInterval)
		select {
		case <-tabCtx.Done():
			timer.Stop()
			return false, fmt.Errorf("%w: %v", scraping.ErrNavigation, tabCtx.Err())
		case <-timer.C:
		}
	}
}

// Close stops the Chrome process.
func (s *session) Close() error {
	s.cancel()
	return nil
}
