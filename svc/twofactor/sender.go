package twofactor

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/totpguard/pkg/email"
)

// CodeSender delivers a one-time code to a recipient.
type CodeSender interface {
	SendCode(ctx context.Context, recipient, code string, validFor time.Duration) error
}

// CodeSenderFunc adapts a function to CodeSender.
type CodeSenderFunc func(ctx context.Context, recipient, code string, validFor time.Duration) error

func (f CodeSenderFunc) SendCode(ctx context.Context, recipient, code string, validFor time.Duration) error {
	return f(ctx, recipient, code, validFor)
}

// EmailCodeSender sends codes as plain-text email.
type EmailCodeSender struct {
	Sender  email.EmailSender
	Subject string
	Issuer  string
}

// NewEmailCodeSender creates an EmailCodeSender with a default subject.
func NewEmailCodeSender(sender email.EmailSender, issuer string) *EmailCodeSender {
	return &EmailCodeSender{
		Sender:  sender,
		Subject: "Your sign-in code",
		Issuer:  issuer,
	}
}

func (s *EmailCodeSender) SendCode(ctx context.Context, recipient, code string, validFor time.Duration) error {
	body := fmt.Sprintf("Your %s sign-in code is %s.\n\nIt expires in %s. If you did not try to sign in, ignore this message.\n",
		s.Issuer, code, validFor.Round(time.Second))

	return s.Sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   recipient,
		Subject:  s.Subject,
		BodyText: body,
		Tag:      "two-factor-code",
	})
}

// validFor returns how long a code generated at now stays acceptable,
// counting the look-ahead window.
func (s *service) validFor(now time.Time) time.Duration {
	p := s.engine.Params()
	period := time.Duration(p.Period) * time.Second
	elapsed := time.Duration(max(now.Unix(), 0)%int64(p.Period)) * time.Second
	return period - elapsed + time.Duration(p.Skew)*period
}
