package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"room-availability/config"
	"room-availability/metrics"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
	"golang.org/x/oauth2"
)

const dialTimeout = 30 * time.Second

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer sends plaintext mail over implicit TLS. Nothing is retried.
type Mailer struct {
	cfg     config.Mailer
	tokens  oauth2.TokenSource
	metrics *metrics.Metrics
	logger  logrus.FieldLogger

	newSender func(password string) (sender, error)
}

// Option customizes a Mailer.
type Option func(*mailerOptions)

type mailerOptions struct {
	endpoint oauth2.Endpoint
	metrics  *metrics.Metrics
}

// WithOAuthEndpoint overrides the Google token endpoint used for xoauth2.
func WithOAuthEndpoint(endpoint oauth2.Endpoint) Option {
	return func(o *mailerOptions) { o.endpoint = endpoint }
}

// WithMetrics records every send attempt.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *mailerOptions) { o.metrics = m }
}

// New returns a Mailer for cfg. With xoauth2 auth it refreshes access tokens from the stored refresh token.
func New(cfg config.Mailer, logger logrus.FieldLogger, opts ...Option) *Mailer {
	o := mailerOptions{endpoint: googleEndpoint}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Mailer{
		cfg:     cfg,
		metrics: o.metrics,
		logger:  logger,
	}
	if cfg.Auth == config.AuthXOAuth2 {
		m.tokens = newTokenSource(cfg.OAuth, o.endpoint)
	}
	m.newSender = m.dial
	return m
}

func (m *Mailer) dial(password string) (sender, error) {
	authType := mail.SMTPAuthPlain
	if m.cfg.Auth == config.AuthXOAuth2 {
		authType = mail.SMTPAuthXOAUTH2
	}
	client, err := mail.NewClient(m.cfg.Host,
		mail.WithSSL(),
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(authType),
		mail.WithUsername(m.cfg.Sender),
		mail.WithPassword(password),
		mail.WithTimeout(dialTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return client, nil
}

// password returns the app password, or a fresh access token for xoauth2.
func (m *Mailer) password() (string, error) {
	if m.tokens == nil {
		return m.cfg.GmailPasswordToken, nil
	}
	token, err := m.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("failed to obtain OAuth access token: %w", err)
	}
	return token.AccessToken, nil
}

// Notify sends text to the configured recipients.
func (m *Mailer) Notify(ctx context.Context, text string) error {
	recipients := m.cfg.Recipients()
	m.logger.WithField("receivers", strings.Join(recipients, ", ")).Info("Sending availability mail")

	err := m.send(ctx, m.cfg.Subject, text, recipients)
	m.metrics.ObserveNotification(metrics.KindAvailability, err)
	return err
}

// NotifyFailure sends the fixed failure alert to the sender only.
func (m *Mailer) NotifyFailure(ctx context.Context) error {
	m.logger.WithField("receiver", m.cfg.Sender).Info("Sending failure alert mail")

	err := m.send(ctx, m.cfg.FailureSubject, m.cfg.FailureBody, []string{m.cfg.Sender})
	m.metrics.ObserveNotification(metrics.KindFailure, err)
	return err
}

func (m *Mailer) send(ctx context.Context, subject, text string, recipients []string) error {
	msg, err := m.newMessage(subject, text, recipients)
	if err != nil {
		return err
	}

	password, err := m.password()
	if err != nil {
		return err
	}
	client, err := m.newSender(password)
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail via %s:%d: %w", m.cfg.Host, m.cfg.Port, err)
	}
	return nil
}

func (m *Mailer) newMessage(subject, text string, recipients []string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.Sender); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.cfg.Sender, err)
	}
	if err := msg.To(recipients...); err != nil {
		return nil, fmt.Errorf("invalid recipients %v: %w", recipients, err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, text)
	return msg, nil
}
