package service

import (
	"context"
	"fmt"
	"html"
	"time"

	"library-backend/internal/config"
	"library-backend/internal/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// mailSender is the part of the SendGrid client we use.
type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type sendgridEmailService struct {
	client   mailSender
	from     string
	fromName string
}

// NewEmailService picks the provider named in the mail config.
func NewEmailService(cfg config.MailConfig) EmailService {
	if cfg.Provider == "sendgrid" {
		return newSendgridEmailService(sendgrid.NewSendClient(cfg.APIKey), cfg.From, cfg.FromName)
	}
	return &logEmailService{}
}

func newSendgridEmailService(client mailSender, from, fromName string) *sendgridEmailService {
	if fromName == "" {
		fromName = "Library"
	}
	return &sendgridEmailService{client: client, from: from, fromName: fromName}
}

func (s *sendgridEmailService) SendOverdueReminder(ctx context.Context, email, name, bookTitle string, dueOn time.Time) error {
	subject, plain, body := overdueReminder(name, bookTitle, dueOn)
	message := mail.NewSingleEmail(mail.NewEmail(s.fromName, s.from), subject, mail.NewEmail(name, email), plain, body)

	logger.ExternalServiceCall(ctx, "sendgrid", "SendOverdueReminder", "to", email)
	response, err := s.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult(ctx, "sendgrid", "SendOverdueReminder", err, "to", email)
	if err != nil {
		return fmt.Errorf("failed to send overdue reminder: %w", err)
	}
	return nil
}

// logEmailService writes messages to the log instead of sending them.
type logEmailService struct{}

func (logEmailService) SendOverdueReminder(ctx context.Context, email, name, bookTitle string, dueOn time.Time) error {
	subject, plain, _ := overdueReminder(name, bookTitle, dueOn)
	logger.InfoContext(ctx, "Email not sent (log provider)", "to", email, "subject", subject, "body", plain)
	return nil
}

func overdueReminder(name, bookTitle string, dueOn time.Time) (subject, plain, body string) {
	due := dueOn.Format("2006-01-02")
	subject = fmt.Sprintf("Overdue: %s", bookTitle)
	plain = fmt.Sprintf("Hello %s,\n\nThe book \"%s\" was due on %s. Please return it as soon as possible.\n\nThank you,\nThe Library Team", name, bookTitle, due)
	body = fmt.Sprintf(`<p>Hello %s,</p><p>The book <strong>%s</strong> was due on %s. Please return it as soon as possible.</p><p>Thank you,<br>The Library Team</p>`,
		html.EscapeString(name), html.EscapeString(bookTitle), due)
	return subject, plain, body
}
