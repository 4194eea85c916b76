// Package mail delivers one-time codes to users.
package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"restopos/internal/config"
	"restopos/internal/logging"
)

const otpSubject = "Your Verification OTP"

// Sender delivers a verification code. It returns only after the message
// has been handed to the transport.
type Sender interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	fromName    string
	fromAddress string
	send        func(*gomail.Message) error
}

var _ Sender = (*SMTPMailer)(nil)

// NewSMTPMailer builds a mailer from the mail configuration.
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.Secure
	return &SMTPMailer{
		fromName:    cfg.FromName,
		fromAddress: cfg.FromAddress,
		send: func(m *gomail.Message) error {
			return d.DialAndSend(m)
		},
	}
}

// SendOTP sends the code as a plain text message with an HTML alternative.
func (s *SMTPMailer) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := NewOTPMessage(s.fromName, s.fromAddress, to, code, ttl)
	if err := s.send(m); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}

// NewOTPMessage composes the verification email.
func NewOTPMessage(fromName, fromAddress, to, code string, ttl time.Duration) *gomail.Message {
	minutes := int(ttl.Minutes())

	m := gomail.NewMessage()
	m.SetAddressHeader("From", fromAddress, fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", otpSubject)
	m.SetBody("text/plain", fmt.Sprintf("Your OTP is: %s. It will expire in %d minutes.", code, minutes))
	m.AddAlternative("text/html", fmt.Sprintf("<p>Your OTP is: <strong>%s</strong>. It will expire in %d minutes.</p>", code, minutes))
	return m
}

// LogMailer writes codes to the log instead of sending them.
// Used when no SMTP host is configured.
type LogMailer struct {
	log logging.Logger
}

var _ Sender = (*LogMailer)(nil)

// NewLogMailer creates a log-only sender.
func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log.With("component", "mail")}
}

func (l *LogMailer) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	l.log.Info(ctx, "otp mail not sent, no smtp host configured", "to", to, "code", code, "ttl", ttl.String())
	return nil
}

// ErrNoTransport is returned by New when production runs without an SMTP host.
var ErrNoTransport = errors.New("mail: EMAIL_HOST is required in production")

// New picks the SMTP mailer when a host is configured. Otherwise it falls
// back to the log mailer, except in production where codes must not reach the log.
func New(cfg config.MailConfig, production bool, log logging.Logger) (Sender, error) {
	if cfg.Host != "" {
		return NewSMTPMailer(cfg), nil
	}
	if production {
		return nil, ErrNoTransport
	}
	log.Warn(context.Background(), "EMAIL_HOST not set, otp codes will be written to the log")
	return NewLogMailer(log), nil
}
