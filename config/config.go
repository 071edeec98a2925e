package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	yamlmerge "room-availability/yaml"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the whole config.yaml document, merged with credentials.yaml.
// It is loaded once and never mutated afterwards.
type Config struct {
	DatesFinder  DatesFinder  `yaml:"dates_finder"`
	Browser      Browser      `yaml:"browser"`
	Mailer       Mailer       `yaml:"mailer"`
	MainSchedule MainSchedule `yaml:"main_schedule"`
	Logging      Logging      `yaml:"logging"`
	Server       Server       `yaml:"server"`
}

// DatesFinder describes the candidate stays and the booking page to probe.
type DatesFinder struct {
	PossibleDates []DateRange `yaml:"possible_dates"`
	NumAdults     int         `yaml:"num_adults"`
	NumChildren   int         `yaml:"num_children"`
	NumInfants    int         `yaml:"num_infants"`
	BaseURL       string      `yaml:"base_url"`
	Hotel         int         `yaml:"hotel"`
	Lang          string      `yaml:"lang"`
	Rooms         int         `yaml:"rooms"`
	MarkerClass   string      `yaml:"marker_class"`
	MinDelay      Duration    `yaml:"min_delay"`
	MaxDelay      Duration    `yaml:"max_delay"`
}

// Browser selects and tunes the page probe.
type Browser struct {
	Driver      string   `yaml:"driver"`
	Headless    *bool    `yaml:"headless"`
	UserAgent   string   `yaml:"user_agent"`
	ExecPath    string   `yaml:"exec_path"`
	PageTimeout Duration `yaml:"page_timeout"`
	MarkerWait  Duration `yaml:"marker_wait"`
}

// Mailer holds the SMTP account and the notification recipients.
type Mailer struct {
	Sender             string   `yaml:"sender"`
	Receivers          []string `yaml:"receivers"`
	GmailPasswordToken string   `yaml:"gmail_password_token"`
	Subject            string   `yaml:"subject"`
	SendToSender       bool     `yaml:"send_to_sender"`
	Host               string   `yaml:"host"`
	Port               int      `yaml:"port"`
	Auth               string   `yaml:"auth"`
	OAuth              OAuth    `yaml:"oauth"`
	FailureSubject     string   `yaml:"failure_subject"`
	FailureBody        string   `yaml:"failure_body"`
}

// OAuth holds the Gmail XOAUTH2 client credentials used when Auth is "xoauth2".
type OAuth struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
}

// MainSchedule controls the schedule command loop.
type MainSchedule struct {
	BreakWhenFound bool     `yaml:"break_when_found"`
	MinInterval    Duration `yaml:"min_interval"`
	MaxInterval    Duration `yaml:"max_interval"`
	PollInterval   Duration `yaml:"poll_interval"`
	Deadline       Deadline `yaml:"deadline"`
	RunImmediately bool     `yaml:"run_immediately"`
}

// Logging configures the console and rotating file targets.
type Logging struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	FileLevel  string `yaml:"file_level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Server configures the optional metrics and health endpoint.
type Server struct {
	MetricsAddr string      `yaml:"metrics_addr"`
	MetricsAuth MetricsAuth `yaml:"metrics_auth"`
}

// MetricsAuth protects /metrics. An empty Type leaves it open.
type MetricsAuth struct {
	Type     string `yaml:"type"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Token    string `yaml:"token"`
}

const (
	DriverChrome = "chrome"
	DriverHTTP   = "http"

	AuthPlain   = "plain"
	AuthXOAuth2 = "xoauth2"

	MetricsAuthBasic  = "basic"
	MetricsAuthBearer = "bearer"

	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/60.0.3112.50 Safari/537.36"
)

// Recipients returns the configured receivers, plus the sender when
// send_to_sender is set and the sender is not already listed.
func (m Mailer) Recipients() []string {
	recipients := make([]string, 0, len(m.Receivers)+1)
	recipients = append(recipients, m.Receivers...)
	if !m.SendToSender {
		return recipients
	}
	for _, r := range recipients {
		if strings.EqualFold(r, m.Sender) {
			return recipients
		}
	}
	return append(recipients, m.Sender)
}

// IsHeadless reports whether the browser runs without a window (default true).
func (b Browser) IsHeadless() bool {
	return b.Headless == nil || *b.Headless
}

// LoadConfig loads configFile, overlays credentialsFile when it exists,
// applies environment overrides and defaults, and validates the result.
func LoadConfig(configFile, credentialsFile string) (*Config, error) {
	doc, err := yamlmerge.MergeFiles(configFile, credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg := &Config{}
	if err := yamlmerge.Decode(doc, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", configFile, err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if password := os.Getenv("MAILER_PASSWORD"); password != "" {
		cfg.Mailer.GmailPasswordToken = password
	}
	if token := os.Getenv("MAILER_OAUTH_REFRESH_TOKEN"); token != "" {
		cfg.Mailer.OAuth.RefreshToken = token
	}
	if token := os.Getenv("METRICS_TOKEN"); token != "" {
		cfg.Server.MetricsAuth.Token = token
	}
}

func applyDefaults(cfg *Config) {
	df := &cfg.DatesFinder
	if df.BaseURL == "" {
		df.BaseURL = "https://secure-hotels.net/INPA/BE_Results.aspx"
	}
	if df.Hotel == 0 {
		df.Hotel = 9
	}
	if df.Lang == "" {
		df.Lang = "heb"
	}
	if df.Rooms == 0 {
		df.Rooms = 1
	}
	if df.MarkerClass == "" {
		df.MarkerClass = "rooms-list-title"
	}
	if df.MinDelay == 0 && df.MaxDelay == 0 {
		df.MinDelay = Duration(time.Second)
		df.MaxDelay = Duration(5 * time.Second)
	}

	b := &cfg.Browser
	if b.Driver == "" {
		b.Driver = DriverChrome
	}
	if b.UserAgent == "" {
		b.UserAgent = DefaultUserAgent
	}
	if b.PageTimeout == 0 {
		b.PageTimeout = Duration(30 * time.Second)
	}
	if b.MarkerWait == 0 {
		b.MarkerWait = Duration(10 * time.Second)
	}

	m := &cfg.Mailer
	if m.Host == "" {
		m.Host = "smtp.gmail.com"
	}
	if m.Port == 0 {
		m.Port = 465
	}
	if m.Auth == "" {
		m.Auth = AuthPlain
	}
	if m.FailureSubject == "" {
		m.FailureSubject = "📛 הסקריפט שלך נפל! 📛"
	}
	if m.FailureBody == "" {
		m.FailureBody = "Check this one please..."
	}

	s := &cfg.MainSchedule
	if s.MinInterval == 0 && s.MaxInterval == 0 {
		s.MinInterval = Duration(time.Hour)
		s.MaxInterval = Duration(2 * time.Hour)
	}
	if s.PollInterval == 0 {
		s.PollInterval = Duration(15 * time.Minute)
	}

	l := &cfg.Logging
	if l.Level == "" {
		l.Level = "info"
	}
	if l.File == "" {
		l.File = "debug.log"
	}
	if l.FileLevel == "" {
		l.FileLevel = "debug"
	}
	if l.MaxSizeMB == 0 {
		l.MaxSizeMB = 10
	}
	if l.MaxBackups == 0 {
		l.MaxBackups = 3
	}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// validateConfig checks the merged configuration after defaults are applied.
func validateConfig(cfg *Config) error {
	df := cfg.DatesFinder
	if len(df.PossibleDates) == 0 {
		return invalid("dates_finder.possible_dates must list at least one date range")
	}
	for i, r := range df.PossibleDates {
		if !r.Valid() {
			return invalid("dates_finder.possible_dates[%d]: check-in %s is not before check-out %s", i, r.CheckIn, r.CheckOut)
		}
	}
	if df.NumAdults < 1 {
		return invalid("num_adults must be >= 1")
	}
	if df.NumChildren < 0 {
		return invalid("num_children must be >= 0")
	}
	if df.NumInfants < 0 {
		return invalid("num_infants must be >= 0")
	}
	if df.Rooms < 1 {
		return invalid("dates_finder.rooms must be >= 1")
	}
	if u, err := url.Parse(df.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("dates_finder.base_url %q is not an absolute URL", df.BaseURL)
	}
	if df.MinDelay < 0 || df.MaxDelay < df.MinDelay {
		return invalid("dates_finder delays must satisfy 0 <= min_delay <= max_delay")
	}

	b := cfg.Browser
	if b.Driver != DriverChrome && b.Driver != DriverHTTP {
		return invalid("browser.driver %q must be %q or %q", b.Driver, DriverChrome, DriverHTTP)
	}
	if b.PageTimeout < 0 || b.MarkerWait < 0 {
		return invalid("browser timeouts must not be negative")
	}

	m := cfg.Mailer
	if m.Sender == "" {
		return invalid("mailer.sender is required")
	}
	if len(m.Recipients()) == 0 {
		return invalid("mailer.receivers must list at least one address or send_to_sender must be set")
	}
	switch m.Auth {
	case AuthPlain:
		if m.GmailPasswordToken == "" {
			return invalid("mailer.gmail_password_token is required for plain auth")
		}
	case AuthXOAuth2:
		if m.OAuth.ClientID == "" || m.OAuth.ClientSecret == "" || m.OAuth.RefreshToken == "" {
			return invalid("mailer.oauth requires client_id, client_secret and refresh_token for xoauth2 auth")
		}
	default:
		return invalid("mailer.auth %q must be %q or %q", m.Auth, AuthPlain, AuthXOAuth2)
	}
	if m.Port < 1 || m.Port > 65535 {
		return invalid("mailer.port %d is out of range", m.Port)
	}

	s := cfg.MainSchedule
	if s.MinInterval <= 0 || s.MaxInterval < s.MinInterval {
		return invalid("main_schedule intervals must satisfy 0 < min_interval <= max_interval")
	}
	if s.PollInterval <= 0 {
		return invalid("main_schedule.poll_interval must be positive")
	}

	auth := cfg.Server.MetricsAuth
	switch auth.Type {
	case "":
	case MetricsAuthBasic:
		if auth.Username == "" || auth.Password == "" {
			return invalid("server.metrics_auth requires username and password for basic auth")
		}
	case MetricsAuthBearer:
		if auth.Token == "" {
			return invalid("server.metrics_auth requires a token for bearer auth")
		}
	default:
		return invalid("server.metrics_auth.type %q must be %q or %q", auth.Type, MetricsAuthBasic, MetricsAuthBearer)
	}

	return nil
}

// GetEnv returns the environment variable name, or defaultValue when unset or empty.
func GetEnv(name, defaultValue string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return defaultValue
}
