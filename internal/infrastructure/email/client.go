// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"

	"github.com/resendlabs/resend-go"

	"github.com/ForesightHQ/foresight-go/internal/infrastructure/email/templates"
	"github.com/ForesightHQ/foresight-go/pkg/config"
)

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendShareReportEmail(toEmail, shareURL, modelLabel, senderNote string, horizon, expiresHours int) error
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewService creates a new email service client, returning the Service interface.
func NewService() (Service, error) {
	if config.ResendAPIKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY is required when email sharing is enabled")
	}

	return &ResendClient{
		client:    resend.NewClient(config.ResendAPIKey),
		fromEmail: config.EmailFromAddr,
		fromName:  config.EmailFromName,
	}, nil
}

// SendShareReportEmail composes and sends the forecast share email. The mail
// carries only the share link and model label; no uploaded data.
func (c *ResendClient) SendShareReportEmail(toEmail, shareURL, modelLabel, senderNote string, horizon, expiresHours int) error {
	subject := "A forecast was shared with you"

	content := templates.GetShareReportEmailContent(templates.ShareReportEmailProps{
		SenderNote:   senderNote,
		ShareURL:     shareURL,
		ModelLabel:   modelLabel,
		Horizon:      horizon,
		ExpiresHours: expiresHours,
	})

	htmlContent := templates.GetEmailLayout(templates.EmailLayoutProps{
		Preheader: subject,
		Content:   content,
	})

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlContent,
	}

	if _, err := c.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send share email via Resend: %w", err)
	}
	return nil
}
