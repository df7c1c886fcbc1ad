// Package mail sends notification emails through SendGrid.
package mail

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Client is the part of *sendgrid.Client the mailer needs.
type Client interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer sends plain-text emails from a fixed sender address.
type SendGridMailer struct {
	Client   Client
	From     string
	FromName string
	log      *zap.SugaredLogger
}

func NewSendGridMailer(apiKey, from, fromName string, log *zap.SugaredLogger) *SendGridMailer {
	return NewSendGridMailerWithClient(sendgrid.NewSendClient(apiKey), from, fromName, log)
}

func NewSendGridMailerWithClient(client Client, from, fromName string, log *zap.SugaredLogger) *SendGridMailer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SendGridMailer{Client: client, From: from, FromName: fromName, log: log}
}

func (m *SendGridMailer) Send(ctx context.Context, to, subject, body string) error {
	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(m.FromName, m.From),
		subject,
		sgmail.NewEmail("", to),
		body,
		"",
	)
	response, err := m.Client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: send to %s: %w", to, err)
	}
	if response.StatusCode >= 400 {
		m.log.Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", to)
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	m.log.Debugw("email sent", "to", to, "subject", subject)
	return nil
}
