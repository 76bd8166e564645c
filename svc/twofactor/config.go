package twofactor

import (
	"github.com/dmitrymomot/totpguard/pkg/ratelimiter"
)

// Config holds env-driven service settings. Engine parameters and the
// issuer come from totp.Config.
type Config struct {
	QRSize           int                `env:"TOTP_QR_SIZE" envDefault:"0"` // 0 disables QR rendering
	LimitAttempts    bool               `env:"TOTP_LIMIT_ATTEMPTS" envDefault:"true"`
	Attempts         ratelimiter.Config `envPrefix:"TOTP_ATTEMPTS_"`
	CodeEmailSubject string             `env:"TOTP_CODE_EMAIL_SUBJECT" envDefault:"Your sign-in code"`
}
