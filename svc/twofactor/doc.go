// Package twofactor runs TOTP enrollment and login verification.
//
// The flow is a state machine over these states:
//
//	not_enrolled ──enroll──▶ enrollment_pending ──confirm──▶ enrolled
//	enrolled ──begin_login──▶ awaiting_code ──submit_code──▶ verified | failed
//	awaiting_code ──abandon──▶ failed ──retry──▶ awaiting_code
//
// Persistent state lives in a secretstore.Store. Each call loads the user's
// record, derives the current state and fires one event on a machine
// started at that state. Enrollment stores the new secret only
// provisionally; ConfirmEnrollment enables it through the store's
// compare-and-swap, so of two racing enrollments at most one wins.
//
//	svc, err := twofactor.New(store, engine, twofactor.WithIssuer("Example"))
//	enrollment, err := svc.StartEnrollment(ctx, userID)
//	// show enrollment.ProvisioningURI as a QR code, then
//	err = svc.ConfirmEnrollment(ctx, userID, code)
//	...
//	err = svc.VerifyLogin(ctx, userID, code)
//	switch twofactor.OutcomeOf(err) {
//	case twofactor.OutcomeVerified:
//	case twofactor.OutcomeNotEnrolled:
//	case twofactor.OutcomeStoreUnavailable:
//	default:
//	}
//
// Store failures surface as ErrStoreUnavailable and are never reported as
// a wrong code. Every mismatch returns the same ErrVerificationFailed.
package twofactor
