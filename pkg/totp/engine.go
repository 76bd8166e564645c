package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"
	"math"
	"regexp"
	"strings"
	"time"
)

// validSecretRegex ensures Base32 format: uppercase A-Z, digits 2-7, no padding.
var validSecretRegex = regexp.MustCompile("^[A-Z2-7]+$")

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

var pow10 = [...]uint32{1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000}

// Engine computes and verifies time-based one-time passwords.
// It holds no per-user state and is safe for concurrent use.
type Engine struct {
	params Params
	random io.Reader
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithParams overrides the default parameters. Zero-valued fields fall back to defaults.
func WithParams(p Params) Option {
	return func(e *Engine) {
		e.params = p.WithDefaults()
	}
}

// WithRandom sets the randomness source used for secret generation.
// Production code must keep the default crypto/rand reader; deterministic
// readers are meant for tests only.
func WithRandom(r io.Reader) Option {
	return func(e *Engine) {
		if r != nil {
			e.random = r
		}
	}
}

// WithClock sets the time source used by Generate and Verify.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine with RFC 6238 defaults unless overridden.
// Returns an error wrapping ErrInvalidParameter for unusable parameters.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		params: DefaultParams(),
		random: rand.Reader,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.params.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// MustNewEngine is like NewEngine but panics on invalid configuration.
func MustNewEngine(opts ...Option) *Engine {
	e, err := NewEngine(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create TOTP engine: %v", err))
	}
	return e
}

// Params returns the engine configuration.
func (e *Engine) Params() Params {
	return e.params
}

// Now returns the current time according to the engine clock.
func (e *Engine) Now() time.Time {
	return e.now()
}

// GenerateSecret returns a new Base32-encoded (unpadded) random secret.
func (e *Engine) GenerateSecret() (string, error) {
	secret := make([]byte, e.params.SecretSize)
	if _, err := io.ReadFull(e.random, secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return b32.EncodeToString(secret), nil
}

// Generate returns the code for the current time step.
func (e *Engine) Generate(secret string) (string, error) {
	return e.GenerateAt(secret, e.now())
}

// GenerateAt returns the code for the time step containing t.
func (e *Engine) GenerateAt(secret string, t time.Time) (string, error) {
	return ComputeCode(secret, Counter(t, e.params.Period), e.params.Digits, e.params.Algorithm)
}

// Verify checks code against the current time using the configured skew.
func (e *Engine) Verify(secret, code string) (bool, error) {
	return e.VerifyAt(secret, code, e.now())
}

// VerifyAt checks code against the time step containing now, accepting
// any step within the configured skew.
func (e *Engine) VerifyAt(secret, code string, now time.Time) (bool, error) {
	return verify(secret, code, now, e.params.Period, e.params.Skew, e.params.Digits, e.params.Algorithm)
}

// GenerateSecretKey generates a default-sized secret from crypto/rand.
func GenerateSecretKey() (string, error) {
	secret := make([]byte, DefaultSecretSize)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return b32.EncodeToString(secret), nil
}

// NormalizeSecret uppercases the secret and strips whitespace and padding,
// the forms users typically paste from authenticator apps.
func NormalizeSecret(secret string) string {
	secret = strings.ToUpper(strings.Join(strings.Fields(secret), ""))
	return strings.TrimRight(secret, "=")
}

// DecodeSecret returns the raw key bytes of a Base32 secret.
func DecodeSecret(secret string) ([]byte, error) {
	secret = NormalizeSecret(secret)
	if secret == "" {
		return nil, errors.Join(ErrInvalidParameter, ErrMissingSecret)
	}
	if !validSecretRegex.MatchString(secret) {
		return nil, errors.Join(ErrInvalidParameter, ErrInvalidSecret)
	}
	key, err := b32.DecodeString(secret)
	if err != nil {
		return nil, errors.Join(ErrInvalidParameter, ErrInvalidSecret, err)
	}
	return key, nil
}

// ValidateSecret reports whether secret decodes to a usable key.
func ValidateSecret(secret string) error {
	_, err := DecodeSecret(secret)
	return err
}

// Counter returns the RFC 6238 time step index: floor(unix / period).
// Times before the epoch map to step 0.
func Counter(t time.Time, period int) uint64 {
	if period <= 0 {
		period = DefaultPeriod
	}
	unix := t.Unix()
	if unix < 0 {
		return 0
	}
	return uint64(unix) / uint64(period)
}

// ComputeCode implements the RFC 4226 HOTP algorithm: HMAC over the big-endian
// counter, dynamic truncation, modulo 10^digits, zero-padded.
func ComputeCode(secret string, counter uint64, digits int, alg Algorithm) (string, error) {
	if digits < MinDigits || digits > MaxDigits {
		return "", errors.Join(ErrInvalidParameter, ErrInvalidDigits)
	}
	newHash, err := alg.hash()
	if err != nil {
		return "", err
	}
	key, err := DecodeSecret(secret)
	if err != nil {
		return "", err
	}
	return hotp(key, counter, digits, newHash), nil
}

// VerifyCode checks code against the step containing now and skew steps on
// either side, using the default digits and algorithm.
func VerifyCode(secret, code string, now time.Time, period, skew int) (bool, error) {
	return verify(secret, code, now, period, skew, DefaultDigits, DefaultAlgorithm)
}

// verify walks the whole window [c-skew, c+skew] without returning early so
// the running time does not depend on where (or whether) a match occurred.
func verify(secret, code string, now time.Time, period, skew, digits int, alg Algorithm) (bool, error) {
	if period <= 0 {
		return false, errors.Join(ErrInvalidParameter, ErrInvalidPeriod)
	}
	if skew < 0 {
		return false, errors.Join(ErrInvalidParameter, ErrInvalidSkew)
	}
	if digits < MinDigits || digits > MaxDigits {
		return false, errors.Join(ErrInvalidParameter, ErrInvalidDigits)
	}
	newHash, err := alg.hash()
	if err != nil {
		return false, err
	}
	key, err := DecodeSecret(secret)
	if err != nil {
		return false, err
	}

	submitted := []byte(strings.TrimSpace(code))
	counter := Counter(now, period)

	matched := 0
	for i := -skew; i <= skew; i++ {
		c, inRange := offsetCounter(counter, i)
		candidate := hotp(key, c, digits, newHash)
		eq := subtle.ConstantTimeCompare([]byte(candidate), submitted)
		matched |= eq & boolToInt(inRange)
	}
	return matched == 1, nil
}

// offsetCounter applies delta to counter. Out-of-range results are clamped
// and reported so the caller can still spend the same work on them.
func offsetCounter(counter uint64, delta int) (uint64, bool) {
	if delta < 0 {
		d := uint64(-delta)
		if counter < d {
			return 0, false
		}
		return counter - d, true
	}
	d := uint64(delta)
	if counter > math.MaxUint64-d {
		return math.MaxUint64, false
	}
	return counter + d, true
}

func hotp(key []byte, counter uint64, digits int, newHash func() hash.Hash) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(newHash, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	// Dynamic truncation: low nibble of the last byte selects a 31-bit window.
	offset := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%0*d", digits, value%pow10[digits])
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
