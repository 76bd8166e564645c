package twofactor

import (
	"errors"

	"github.com/dmitrymomot/totpguard/pkg/secretstore"
	"github.com/dmitrymomot/totpguard/pkg/totp"
)

var (
	ErrVerificationFailed = errors.New("two-factor code verification failed")
	ErrNotEnrolled        = errors.New("two-factor authentication is not enrolled")
	ErrStoreUnavailable   = errors.New("two-factor secret store unavailable")
	ErrInvalidParameter   = errors.New("invalid two-factor parameter")
)

var (
	ErrEmptyUserID        = errors.New("user id is required")
	ErrEnrollmentConflict = errors.New("enrollment was replaced before confirmation")
	ErrTooManyAttempts    = errors.New("too many two-factor attempts")
	ErrLoginFinished      = errors.New("login attempt already finished")
	ErrNoCodeSender       = errors.New("no code sender configured")
	ErrMissingIssuer      = errors.New("issuer is required")
)

// storeError maps a secretstore failure onto the service error set. Records
// that cannot be decrypted count as not enrolled.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, secretstore.ErrNotFound):
		return ErrNotEnrolled
	case errors.Is(err, secretstore.ErrCorruptSecret):
		return errors.Join(ErrNotEnrolled, err)
	case errors.Is(err, secretstore.ErrConflict):
		return ErrEnrollmentConflict
	case errors.Is(err, secretstore.ErrEmptyUserID):
		return ErrEmptyUserID
	case errors.Is(err, totp.ErrInvalidParameter):
		return errors.Join(ErrInvalidParameter, err)
	default:
		return errors.Join(ErrStoreUnavailable, err)
	}
}
