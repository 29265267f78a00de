package mail

import (
	"context"
	"embed"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"adminauth/internal/config"
	"adminauth/internal/mailqueue"
)

//go:embed templates
var templates embed.FS

// Mailer renders embedded HTML templates and delivers them over SMTP. It is
// the worker-side handler for the send-email stream.
type Mailer struct {
	cfg         config.MailConfig
	environment string
	log         zerolog.Logger
}

func NewMailer(cfg config.MailConfig, environment string, log zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, environment: environment, log: log}
}

func (m *Mailer) Handle(ctx context.Context, msg mailqueue.Message) error {
	body, err := m.render(msg.Template, msg.Variables)
	if err != nil {
		return err
	}

	subject := msg.Subject
	if m.environment != "production" {
		subject = fmt.Sprintf("[%s] %s", strings.ToUpper(m.environment), subject)
	}

	m.log.Info().
		Str("job_id", msg.ID).
		Str("to", msg.To).
		Str("subject", subject).
		Msg("sending email")

	if err := m.send(msg.To, subject, body); err != nil {
		m.log.Error().Err(err).Str("job_id", msg.ID).Str("to", msg.To).Msg("email delivery failed")
		return err
	}
	return nil
}

func (m *Mailer) render(name string, variables map[string]string) (string, error) {
	path := "templates/" + strings.TrimPrefix(name, "/") + ".html"
	raw, err := templates.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load template %s: %w", name, err)
	}

	body := string(raw)
	for key, value := range variables {
		body = strings.ReplaceAll(body, "{{"+key+"}}", value)
	}
	return body, nil
}

func (m *Mailer) send(to string, subject string, htmlBody string) error {
	var headers strings.Builder
	fmt.Fprintf(&headers, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&headers, "To: %s\r\n", to)
	fmt.Fprintf(&headers, "Subject: %s\r\n", subject)
	headers.WriteString("MIME-Version: 1.0\r\n")
	headers.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	headers.WriteString("\r\n")
	headers.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(headers.String()))
}
