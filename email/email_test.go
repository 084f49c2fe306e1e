package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"portfolio/common"
	"portfolio/models"
)

func TestDevModeOnlyLogs(t *testing.T) {
	svc := NewEmailService(&common.Config{AppEnv: "development", ResendAPIKey: "re_test"})
	ctx := context.Background()

	assert.Nil(t, svc.client)
	assert.NoError(t, svc.NotifyContact(ctx, &models.Contact{Email: "a@b.test", Subject: "Hello"}))
	assert.NoError(t, svc.SubscribeNewsletter(ctx, &models.NewsletterSubscriber{Email: "a@b.test"}))
	assert.NoError(t, svc.UnsubscribeNewsletter(ctx, "a@b.test"))
}

func TestUnconfiguredProductionFails(t *testing.T) {
	svc := NewEmailService(&common.Config{AppEnv: "production", ContactEmail: "me@site.test"})

	err := svc.NotifyContact(context.Background(), &models.Contact{Email: "a@b.test"})
	assert.ErrorContains(t, err, "RESEND_API_KEY")
}

func TestContactTemplate(t *testing.T) {
	subject, body := contactTemplate(&models.Contact{
		Name:    "Jo Doe",
		Email:   "jo@example.com",
		Subject: "Project inquiry",
		Message: "Would you like to build something together?",
	})

	assert.Equal(t, "New contact: Project inquiry", subject)
	assert.Contains(t, body, "jo@example.com")
	assert.Contains(t, body, "Would you like to build something together?")
}

func TestSplitName(t *testing.T) {
	first, last := splitName(" Ada  Lovelace King ")
	assert.Equal(t, "Ada", first)
	assert.Equal(t, "Lovelace King", last)

	first, last = splitName("")
	assert.Empty(t, first)
	assert.Empty(t, last)
}
