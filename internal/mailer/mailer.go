// Package mailer renders and delivers the transactional emails of the shop:
// account activation and password reset. Delivery is asynchronous through a
// bounded worker pool; the HTTP request path never waits on SMTP.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/altenshop/backend/domain"
)

// Message is a fully rendered email ready for transport.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers a rendered message over some transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig carries transport settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type smtpSender struct {
	cfg SMTPConfig
}

// NewSMTPSender builds a Sender speaking plain SMTP with optional AUTH.
func NewSMTPSender(cfg SMTPConfig) Sender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(_ context.Context, msg Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	addr := s.cfg.Host + ":" + s.cfg.Port
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	return smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, []byte(b.String()))
}

// Service composes the shop's emails and hands them to the pool. Links point
// at the front application and embed the locale segment.
type Service struct {
	pool     *Pool
	frontURL string
	logger   *zap.Logger
}

func NewService(pool *Pool, frontURL string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		pool:     pool,
		frontURL: strings.TrimRight(frontURL, "/"),
		logger:   logger,
	}
}

// SendAccountActivation emails the activation code and link to a freshly
// registered (or re-issued) user.
func (s *Service) SendAccountActivation(ctx context.Context, user *domain.User, locale, code string) error {
	activationURL := fmt.Sprintf("%s/#/%s/activate-account?code=%s&locale=%s", s.frontURL, locale, code, locale)

	body, err := Render(TemplateActivateAccount, map[string]any{
		"Username":        user.FullName(),
		"ConfirmationURL": activationURL,
		"ActivationCode":  code,
	})
	if err != nil {
		return err
	}

	return s.pool.Enqueue(Message{
		To:      user.Email,
		Subject: "Activate your Alten Shop account",
		Body:    body,
	})
}

// SendPasswordReset emails a reset link embedding the bearer token.
func (s *Service) SendPasswordReset(ctx context.Context, email, tok, locale string) error {
	resetURL := fmt.Sprintf("%s/#/%s/reset-password?token=%s", s.frontURL, locale, tok)

	body, err := Render(TemplateResetPassword, map[string]any{
		"Username":        "",
		"ConfirmationURL": resetURL,
	})
	if err != nil {
		return err
	}

	return s.pool.Enqueue(Message{
		To:      email,
		Subject: "Reset your Alten Shop password",
		Body:    body,
	})
}
