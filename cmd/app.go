package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"room-availability/config"
	"room-availability/logging"
	"room-availability/mailer"
	"room-availability/metrics"
	"room-availability/scraping"
	"room-availability/scraping/chrome"
	http_source "room-availability/scraping/http"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// app is the wired set of components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	registry *prometheus.Registry
	mailer   *mailer.Mailer
	checker  *scraping.Checker
}

func newApp(opts *rootOptions) (*app, error) {
	// Missing .env is normal; anything else is reported once logging is up.
	envErr := godotenv.Load()
	if errors.Is(envErr, fs.ErrNotExist) {
		envErr = nil
	}

	cfg, err := config.LoadConfig(opts.configFile, opts.credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.Setup(logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		FileLevel:  cfg.Logging.FileLevel,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("logger initialization failed: %w", err)
	}
	if envErr != nil {
		logger.WithError(envErr).Warn("Failed to load .env file")
	}
	logger.WithFields(map[string]interface{}{
		"config_file":      opts.configFile,
		"credentials_file": opts.credentialsFile,
		"date_ranges":      len(cfg.DatesFinder.PossibleDates),
		"driver":           cfg.Browser.Driver,
	}).Debug("Configuration loaded")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	ml := mailer.New(cfg.Mailer, logger.WithField("component", "mailer"), mailer.WithMetrics(m))
	checker := scraping.NewChecker(
		cfg.DatesFinder,
		newBrowser(cfg.Browser, logger),
		ml,
		m,
		logger.WithField("component", "checker"),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		mailer:   ml,
		checker:  checker,
	}, nil
}

func newBrowser(cfg config.Browser, logger *logrus.Logger) scraping.Browser {
	entry := logger.WithField("component", "browser")
	if cfg.Driver == config.DriverHTTP {
		return http_source.NewBrowser(http_source.Options{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.PageTimeout.Std(),
		}, entry)
	}
	return chrome.NewBrowser(chrome.Options{
		Headless:    cfg.IsHeadless(),
		UserAgent:   cfg.UserAgent,
		ExecPath:    cfg.ExecPath,
		PageTimeout: cfg.PageTimeout.Std(),
		MarkerWait:  cfg.MarkerWait.Std(),
	}, entry)
}
