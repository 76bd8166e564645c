package email_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/totpguard/pkg/email"
)

func validConfig() email.Config {
	return email.Config{
		PostmarkServerToken:  "test-server-token",
		PostmarkAccountToken: "test-account-token",
		SenderEmail:          "sender@example.com",
		SupportEmail:         "support@example.com",
	}
}

func TestNewPostmarkClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *email.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *email.Config) {}},
		{name: "no server token", mutate: func(c *email.Config) { c.PostmarkServerToken = "" }, wantErr: "PostmarkServerToken"},
		{name: "no account token", mutate: func(c *email.Config) { c.PostmarkAccountToken = "" }, wantErr: "PostmarkAccountToken"},
		{name: "missing sender", mutate: func(c *email.Config) { c.SenderEmail = "" }, wantErr: "SenderEmail"},
		{name: "bad sender", mutate: func(c *email.Config) { c.SenderEmail = "nope" }, wantErr: "SenderEmail"},
		{name: "bad support", mutate: func(c *email.Config) { c.SupportEmail = "nope@" }, wantErr: "SupportEmail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(&cfg)
			client, err := email.NewPostmarkClient(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, client)
				return
			}
			require.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Nil(t, client)
		})
	}
}

func TestMustNewPostmarkClient(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() { email.MustNewPostmarkClient(validConfig()) })
	assert.Panics(t, func() { email.MustNewPostmarkClient(email.Config{}) })
}

func TestPostmarkClient_SendEmail_ValidatesFirst(t *testing.T) {
	t.Parallel()
	client, err := email.NewPostmarkClient(validConfig())
	require.NoError(t, err)

	// Validation fails before any request is made.
	err = client.SendEmail(context.Background(), email.SendEmailParams{SendTo: "user@example.com"})
	assert.ErrorIs(t, err, email.ErrInvalidParams)
}
