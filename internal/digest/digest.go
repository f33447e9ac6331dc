// Package digest renders the tracked jobs into a plain-text summary and
// mails it to the user.
package digest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/ruslanmv/jobcraft/internal/config"
	"github.com/ruslanmv/jobcraft/internal/tracker"
)

// ErrNotConfigured is returned when the SMTP settings are incomplete.
var ErrNotConfigured = errors.New("smtp settings are not configured")

// maxDigestJobs caps the digest body.
const maxDigestJobs = 200

// DefaultSubject is used when the caller does not supply one.
const DefaultSubject = "JobCraft Digest"

// Render produces one line per tracked job, newest activity first, capped at
// maxDigestJobs entries.
func Render(jobs []tracker.Job) string {
	if len(jobs) == 0 {
		return "No tracked jobs yet."
	}
	if len(jobs) > maxDigestJobs {
		jobs = jobs[:maxDigestJobs]
	}

	lines := make([]string, 0, len(jobs))
	for _, j := range jobs {
		lines = append(lines, fmt.Sprintf("%s | %s — %s | %s",
			strings.ToUpper(string(j.Status)), j.Company, j.Title, j.URL))
	}
	return strings.Join(lines, "\n")
}

// Sender mails digests over SMTP with STARTTLS.
type Sender struct {
	smtp   config.SMTPSettings
	logger *zap.Logger

	// send is swapped out in tests.
	send func(ctx context.Context, s *Sender, msg *mail.Msg) error
}

func NewSender(smtp config.SMTPSettings, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{smtp: smtp, logger: logger, send: smtpSend}
}

// Send delivers the body to the recipient. It fails with ErrNotConfigured
// when any required SMTP setting is missing.
func (s *Sender) Send(ctx context.Context, toEmail, subject, body string) error {
	if s.smtp.Host == "" || s.smtp.Username == "" || s.smtp.Password == "" || s.smtp.From == "" {
		return ErrNotConfigured
	}
	if subject == "" {
		subject = DefaultSubject
	}

	msg := mail.NewMsg()
	if err := msg.From(s.smtp.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.send(ctx, s, msg); err != nil {
		return fmt.Errorf("sending digest: %w", err)
	}

	s.logger.Info("digest sent", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}

func smtpSend(ctx context.Context, s *Sender, msg *mail.Msg) error {
	client, err := mail.NewClient(s.smtp.Host,
		mail.WithPort(s.smtp.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.smtp.Username),
		mail.WithPassword(s.smtp.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}
