package notification

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ms-booking/internal/config"
	"ms-booking/internal/gateway"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/wneessen/go-mail"
)

// Transport delivers one e-mail. Errors are reported to the dispatcher, which
// only logs them.
type Transport interface {
	Deliver(ctx context.Context, email models.EmailRequest) error
}

// ConsoleTransport writes the e-mail to the log instead of sending it.
type ConsoleTransport struct {
	Logger *logger.Logger
}

func (c ConsoleTransport) Deliver(ctx context.Context, email models.EmailRequest) error {
	c.Logger.Info("NOTIFICATION", fmt.Sprintf("=== EMAIL ===\nTo: %s\nSubject: %s\nBody:\n%s\n=============",
		email.To, email.Subject, email.Body))
	return nil
}

// smtpTimeout bounds a single dial or protocol exchange inside go-mail.
const smtpTimeout = 15 * time.Second

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

type sendFunc func(ctx context.Context, msg *mail.Msg) error

// SMTPTransport opens one go-mail client per e-mail so concurrent workers
// never share a connection.
type SMTPTransport struct {
	host string
	from string
	opts []mail.Option
	send sendFunc
}

func NewSMTPTransport(cfg config.NotificationConfig) (*SMTPTransport, error) {
	port, err := strconv.Atoi(cfg.SMTPPort)
	if err != nil {
		return nil, fmt.Errorf("smtp port %q: %w", cfg.SMTPPort, err)
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTimeout(smtpTimeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	if _, err := mail.NewClient(cfg.SMTPHost, opts...); err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	t := &SMTPTransport{host: cfg.SMTPHost, from: cfg.From, opts: opts}
	t.send = t.dialAndSend
	return t, nil
}

func (s *SMTPTransport) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(s.host, s.opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// Deliver returns as soon as ctx is done even if the server stops answering.
func (s *SMTPTransport) Deliver(ctx context.Context, email models.EmailRequest) error {
	if strings.TrimSpace(email.To) == "" {
		return fmt.Errorf("smtp: empty recipient")
	}
	msg, err := s.buildMessage(email)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- s.send(ctx, msg) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("smtp send to %s: %w", email.To, err)
	}
	return nil
}

// buildMessage validates both addresses and keeps the subject on one header
// line. go-mail encodes non-ASCII header text as RFC 2047 words.
func (s *SMTPTransport) buildMessage(email models.EmailRequest) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, fmt.Errorf("smtp sender %q: %w", s.from, err)
	}
	if err := msg.To(email.To); err != nil {
		return nil, fmt.Errorf("smtp recipient %q: %w", email.To, err)
	}
	msg.Subject(headerBreaks.Replace(email.Subject))
	msg.SetBodyString(mail.TypeTextPlain, email.Body)
	return msg, nil
}

// RemoteTransport hands the e-mail to the notification service.
type RemoteTransport struct {
	Client gateway.NotificationClient
}

func (r RemoteTransport) Deliver(ctx context.Context, email models.EmailRequest) error {
	return r.Client.SendEmail(ctx, email)
}

// NewTransport picks the transport named by cfg.Transport. Unknown names fall
// back to the console transport.
func NewTransport(cfg config.NotificationConfig, client gateway.NotificationClient, log *logger.Logger) Transport {
	switch strings.ToLower(cfg.Transport) {
	case "smtp":
		t, err := NewSMTPTransport(cfg)
		if err == nil {
			return t
		}
		log.Error("NOTIFICATION", fmt.Sprintf("SMTP transport unavailable, using console: %v", err))
	case "remote":
		if client != nil {
			return RemoteTransport{Client: client}
		}
		log.Warn("NOTIFICATION", "Remote transport requested without a notification client, using console")
	case "console", "":
	default:
		log.Warn("NOTIFICATION", fmt.Sprintf("Unknown notification transport %q, using console", cfg.Transport))
	}
	return ConsoleTransport{Logger: log}
}
