package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/resend/resend-go/v2"

	"portfolio/common"
	"portfolio/models"
)

// EmailService sends site notifications and keeps the newsletter audience
// in sync. In development nothing leaves the process; messages are logged.
type EmailService struct {
	client     *resend.Client
	from       string
	owner      string
	audienceID string
	isDev      bool
}

func NewEmailService(cfg *common.Config) *EmailService {
	var client *resend.Client
	if cfg.ResendAPIKey != "" && !cfg.IsDevelopment() {
		client = resend.NewClient(cfg.ResendAPIKey)
	}

	return &EmailService{
		client:     client,
		from:       cfg.EmailFrom,
		owner:      cfg.ContactEmail,
		audienceID: cfg.ResendAudienceID,
		isDev:      cfg.IsDevelopment(),
	}
}

// NotifyContact forwards a contact form submission to the site owner.
func (e *EmailService) NotifyContact(ctx context.Context, contact *models.Contact) error {
	subject, body := contactTemplate(contact)

	if e.isDev {
		slog.Info("email sent (dev mode)", "type", "contact", "to", e.owner, "subject", subject, "from", contact.Email)
		return nil
	}
	if e.owner == "" {
		slog.Warn("contact notification skipped, CONTACT_EMAIL not set", "contact_id", contact.ID)
		return nil
	}
	if e.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	_, err := e.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    e.from,
		To:      []string{e.owner},
		ReplyTo: contact.Email,
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return fmt.Errorf("sending contact notification: %w", err)
	}

	slog.Info("email sent", "type", "contact", "contact_id", contact.ID)
	return nil
}

// SubscribeNewsletter adds the subscriber to the Resend audience.
func (e *EmailService) SubscribeNewsletter(ctx context.Context, sub *models.NewsletterSubscriber) error {
	if e.isDev {
		slog.Info("newsletter subscription (dev mode)", "email", sub.Email)
		return nil
	}
	if e.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}
	if e.audienceID == "" {
		slog.Warn("newsletter subscription requested but no audience configured", "email", sub.Email)
		return nil
	}

	first, last := splitName(sub.Name)
	_, err := e.client.Contacts.CreateWithContext(ctx, &resend.CreateContactRequest{
		Email:      sub.Email,
		AudienceId: e.audienceID,
		FirstName:  first,
		LastName:   last,
	})
	if err != nil {
		return fmt.Errorf("adding audience contact: %w", err)
	}

	slog.Info("newsletter subscription synced", "email", sub.Email)
	return nil
}

// UnsubscribeNewsletter marks the audience contact as unsubscribed.
func (e *EmailService) UnsubscribeNewsletter(ctx context.Context, address string) error {
	if e.isDev {
		slog.Info("newsletter unsubscription (dev mode)", "email", address)
		return nil
	}
	if e.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}
	if e.audienceID == "" {
		return nil
	}

	req := &resend.UpdateContactRequest{Email: address, AudienceId: e.audienceID}
	req.SetUnsubscribed(true)
	if _, err := e.client.Contacts.UpdateWithContext(ctx, req); err != nil {
		return fmt.Errorf("unsubscribing audience contact: %w", err)
	}
	return nil
}

func contactTemplate(c *models.Contact) (string, string) {
	subject := "New contact: " + c.Subject
	body := fmt.Sprintf(`You received a new message from the portfolio contact form.

Name: %s
Email: %s
Subject: %s

%s
`, c.Name, c.Email, c.Subject, c.Message)
	return subject, body
}

func splitName(name string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	return first, strings.TrimSpace(last)
}
