package twofactor

import (
	"errors"

	"github.com/dmitrymomot/totpguard/pkg/totp"
)

// Outcome is the flow result reported to the host application.
type Outcome string

const (
	OutcomeVerified         Outcome = "verified"
	OutcomeFailed           Outcome = "failed"
	OutcomeNotEnrolled      Outcome = "not_enrolled"
	OutcomeStoreUnavailable Outcome = "store_unavailable"
	OutcomeInvalidParameter Outcome = "invalid_parameter"
)

// OutcomeOf maps an error returned by Service to an Outcome. A nil error is
// OutcomeVerified. Unknown errors are OutcomeFailed.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeVerified
	case errors.Is(err, ErrStoreUnavailable):
		return OutcomeStoreUnavailable
	case errors.Is(err, ErrNotEnrolled):
		return OutcomeNotEnrolled
	case errors.Is(err, ErrInvalidParameter),
		errors.Is(err, ErrEmptyUserID),
		errors.Is(err, ErrMissingIssuer),
		errors.Is(err, totp.ErrInvalidParameter):
		return OutcomeInvalidParameter
	default:
		return OutcomeFailed
	}
}

func (o Outcome) String() string { return string(o) }
