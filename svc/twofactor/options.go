package twofactor

import (
	"log/slog"

	"github.com/dmitrymomot/totpguard/pkg/ratelimiter"
)

type Option func(*service)

// WithLogger sets the service logger. Defaults to discarding output.
func WithLogger(l *slog.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIssuer sets the issuer shown in authenticator apps.
func WithIssuer(issuer string) Option {
	return func(s *service) {
		s.issuer = issuer
	}
}

// WithAccountName maps a user id to the account label in the provisioning
// URI, usually an email address. Defaults to the user id.
func WithAccountName(fn func(userID string) string) Option {
	return func(s *service) {
		if fn != nil {
			s.accountName = fn
		}
	}
}

// WithQRCode renders a size x size QR data URI into every Enrollment.
func WithQRCode(size int) Option {
	return func(s *service) {
		s.qrSize = size
	}
}

// WithAttemptLimiter bounds confirmation and login attempts per user.
func WithAttemptLimiter(l ratelimiter.RateLimiter) Option {
	return func(s *service) {
		s.limiter = l
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *service) {
		s.metrics = m
	}
}

// WithCodeSender enables SendCode.
func WithCodeSender(sender CodeSender) Option {
	return func(s *service) {
		s.sender = sender
	}
}

// WithIDGenerator replaces uuid.NewString for pending enrollment ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *service) {
		if fn != nil {
			s.newID = fn
		}
	}
}
