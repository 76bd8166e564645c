package totp

import "errors"

// ErrInvalidParameter marks programmer errors: bad digit count, unsupported
// algorithm, malformed secret or an unusable engine configuration.
// Every parameter validation error below wraps it.
var ErrInvalidParameter = errors.New("invalid TOTP parameter")

var (
	ErrInvalidDigits    = errors.New("digits must be between 6 and 8")
	ErrInvalidAlgorithm = errors.New("unsupported HMAC algorithm")
	ErrInvalidPeriod    = errors.New("period must be greater than 0")
	ErrInvalidSkew      = errors.New("skew must not be negative")
	ErrSecretTooShort   = errors.New("secret size must be at least 20 bytes")
	ErrInvalidSecret    = errors.New("invalid secret")
	ErrMissingSecret    = errors.New("missing secret")
)

var (
	ErrMissingAccountName = errors.New("missing account name")
	ErrMissingIssuer      = errors.New("missing issuer")
)

var (
	ErrFailedToGenerateSecretKey     = errors.New("failed to generate TOTP secret key")
	ErrFailedToEncryptSecret         = errors.New("failed to encrypt TOTP secret")
	ErrFailedToDecryptSecret         = errors.New("failed to decrypt TOTP secret")
	ErrInvalidCipherTooShort         = errors.New("cipher text too short")
	ErrFailedToGenerateEncryptionKey = errors.New("failed to generate encryption key")
	ErrFailedToLoadEncryptionKey     = errors.New("failed to load encryption key")
	ErrInvalidEncryptionKeyLength    = errors.New("invalid encryption key length")
	ErrEncryptionKeyNotSet           = errors.New("TOTP encryption key not set")
	ErrFailedToDeriveKey             = errors.New("failed to derive per-user encryption key")
)

var (
	ErrInvalidRecoveryCodeCount     = errors.New("recovery code count must be positive")
	ErrFailedToGenerateRecoveryCode = errors.New("failed to generate recovery code")
)
