package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/vetclinic/internal/config"
	"github.com/jwalitptl/vetclinic/pkg/logger"
)

// Service delivers plain-text mail.
type Service interface {
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type SMTPService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg config.SMTPConfig) *SMTPService {
	return &SMTPService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.message(to, subject, content)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func (s *SMTPService) message(to, subject, content string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)
	return m
}

// LogService writes mails to the log instead of sending them. Used when no
// SMTP host is configured.
type LogService struct {
	logger *logger.Logger
}

func NewLogService(log *logger.Logger) *LogService {
	return &LogService{logger: log}
}

func (s *LogService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	s.logger.Info("email not sent, smtp disabled", "to", to, "subject", subject, "bytes", len(content))
	return nil
}

// New picks the SMTP sender when a host is configured.
func New(cfg config.SMTPConfig, log *logger.Logger) Service {
	if cfg.Host == "" {
		return NewLogService(log)
	}
	return NewSMTPService(cfg)
}
