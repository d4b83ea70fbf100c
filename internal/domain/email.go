package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// WelcomeMessageEmailData holds data for the welcome email sent at registration.
type WelcomeMessageEmailData struct {
	Email     string
	FirstName string
}

// EmailService defines the contract for sending account-level emails.
// Outreach message dispatch is not routed through this service; the message
// domain only records MessageSend rows for an external delivery worker.
type EmailService interface {
	SendWelcomeMessage(ctx context.Context, data *WelcomeMessageEmailData) error
}
