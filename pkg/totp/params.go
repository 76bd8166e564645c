package totp

import (
	"crypto/sha1" //nolint:gosec // HMAC-SHA1 is mandated by RFC 4226/6238 and remains the interoperable default
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"hash"
	"strings"
)

const (
	DefaultDigits     = 6  // Standard 6-digit TOTP codes
	DefaultPeriod     = 30 // 30-second validity window (RFC 6238 standard)
	DefaultSkew       = 1  // One step either side of the current one
	DefaultSecretSize = 20 // 160-bit secret (RFC 4226 recommendation)

	MinDigits = 6
	MaxDigits = 8
)

// Algorithm is the HMAC hash used for code computation.
type Algorithm string

const (
	AlgorithmSHA1   Algorithm = "SHA1"
	AlgorithmSHA256 Algorithm = "SHA256"
	AlgorithmSHA512 Algorithm = "SHA512"

	DefaultAlgorithm = AlgorithmSHA1
)

// ParseAlgorithm accepts the common spellings used by authenticator apps
// ("sha1", "SHA-256", ...).
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "") {
	case "SHA1":
		return AlgorithmSHA1, nil
	case "SHA256":
		return AlgorithmSHA256, nil
	case "SHA512":
		return AlgorithmSHA512, nil
	}
	return "", errors.Join(ErrInvalidParameter, ErrInvalidAlgorithm)
}

func (a Algorithm) String() string {
	return string(a)
}

func (a Algorithm) hash() (func() hash.Hash, error) {
	switch a {
	case AlgorithmSHA1:
		return sha1.New, nil
	case AlgorithmSHA256:
		return sha256.New, nil
	case AlgorithmSHA512:
		return sha512.New, nil
	}
	return nil, errors.Join(ErrInvalidParameter, ErrInvalidAlgorithm)
}

// Params describes how codes are computed and verified.
type Params struct {
	Digits     int       // Code length, 6..8
	Period     int       // Time step in seconds
	Algorithm  Algorithm // HMAC hash
	Skew       int       // Look-around steps accepted on either side of the current one
	SecretSize int       // Random bytes per generated secret
}

// DefaultParams returns the widely interoperable RFC 6238 settings.
func DefaultParams() Params {
	return Params{
		Digits:     DefaultDigits,
		Period:     DefaultPeriod,
		Algorithm:  DefaultAlgorithm,
		Skew:       DefaultSkew,
		SecretSize: DefaultSecretSize,
	}
}

// WithDefaults returns a copy with zero-valued fields replaced by defaults.
// Skew is left alone since zero is a meaningful value.
func (p Params) WithDefaults() Params {
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	if p.SecretSize == 0 {
		p.SecretSize = DefaultSecretSize
	}
	return p
}

// Validate reports the first invalid field, wrapped in ErrInvalidParameter.
func (p Params) Validate() error {
	if p.Digits < MinDigits || p.Digits > MaxDigits {
		return errors.Join(ErrInvalidParameter, ErrInvalidDigits)
	}
	if p.Period <= 0 {
		return errors.Join(ErrInvalidParameter, ErrInvalidPeriod)
	}
	if p.Skew < 0 {
		return errors.Join(ErrInvalidParameter, ErrInvalidSkew)
	}
	if p.SecretSize < DefaultSecretSize {
		return errors.Join(ErrInvalidParameter, ErrSecretTooShort)
	}
	if _, err := p.Algorithm.hash(); err != nil {
		return err
	}
	return nil
}
