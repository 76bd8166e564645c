package twofactor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/totpguard/pkg/logger"
	"github.com/dmitrymomot/totpguard/pkg/qrcode"
	"github.com/dmitrymomot/totpguard/pkg/ratelimiter"
	"github.com/dmitrymomot/totpguard/pkg/secretstore"
	sm "github.com/dmitrymomot/totpguard/pkg/statemachine"
	"github.com/dmitrymomot/totpguard/pkg/totp"
)

// Service runs TOTP enrollment and login verification for users whose
// secrets live in a secretstore.Store.
type Service interface {
	// StartEnrollment generates a new secret and stores it provisionally.
	StartEnrollment(ctx context.Context, userID string) (*Enrollment, error)
	// ConfirmEnrollment enables the pending secret when code matches it.
	ConfirmEnrollment(ctx context.Context, userID, code string) error
	// BeginLogin opens a login attempt for an enrolled user.
	BeginLogin(ctx context.Context, userID string) (*Login, error)
	// VerifyLogin is BeginLogin followed by a single Submit.
	VerifyLogin(ctx context.Context, userID, code string) error
	// SendCode delivers the current code out of band.
	SendCode(ctx context.Context, userID, recipient string) error
	// Status reports the user's enrollment state.
	Status(ctx context.Context, userID string) (State, error)
	// Disable removes the user's secrets.
	Disable(ctx context.Context, userID string) error
}

// Enrollment is what the user needs to configure an authenticator app.
// It contains the raw secret and must not be logged.
type Enrollment struct {
	Secret          string
	ProvisioningURI string
	QRCode          string // data URI, empty unless WithQRCode is set
}

const (
	flowEnrollment = "enrollment"
	flowLogin      = "login"
)

type service struct {
	store       secretstore.Store
	engine      *totp.Engine
	flow        *sm.Machine[State, Event]
	logger      *slog.Logger
	issuer      string
	accountName func(userID string) string
	qrSize      int
	limiter     ratelimiter.RateLimiter
	metrics     *Metrics
	sender      CodeSender
	newID       func() string
}

// New creates the two-factor service. An issuer is required because it
// labels the account in authenticator apps.
func New(store secretstore.Store, engine *totp.Engine, opts ...Option) (Service, error) {
	if store == nil || engine == nil {
		return nil, fmt.Errorf("%w: store and engine are required", ErrInvalidParameter)
	}

	s := &service{
		store:       store,
		engine:      engine,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		accountName: func(userID string) string { return userID },
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.issuer == "" {
		return nil, ErrMissingIssuer
	}
	if s.metrics != nil {
		s.store = &instrumentedStore{next: s.store, metrics: s.metrics}
	}
	s.flow = s.newFlow()
	return s, nil
}

func (s *service) StartEnrollment(ctx context.Context, userID string) (*Enrollment, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	rec, err := s.load(ctx, userID)
	if err != nil {
		s.metrics.enrollment("error")
		return nil, err
	}

	a := &attempt{userID: userID, record: rec}
	if err := s.flow.At(enrollmentState(rec)).Fire(ctx, EventEnroll, a); err != nil {
		s.metrics.enrollment("error")
		err = s.flowError(err)
		s.logger.ErrorContext(ctx, "failed to start two-factor enrollment",
			logger.UserID(userID),
			logger.Flow(flowEnrollment),
			logger.Error(err),
		)
		return nil, err
	}

	s.metrics.enrollment("started")
	s.logger.InfoContext(ctx, "two-factor enrollment started",
		logger.UserID(userID),
		logger.Flow(flowEnrollment),
	)
	return a.enrollment, nil
}

func (s *service) ConfirmEnrollment(ctx context.Context, userID, code string) error {
	err := s.confirm(ctx, userID, code)
	s.report(ctx, flowEnrollment, userID, err)
	if err == nil {
		s.metrics.enrollment("confirmed")
	}
	return err
}

func (s *service) confirm(ctx context.Context, userID, code string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if err := s.allow(ctx, flowEnrollment, userID); err != nil {
		return err
	}

	rec, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if !rec.HasPending() {
		return ErrNotEnrolled
	}

	a := &attempt{userID: userID, code: code, record: rec}
	if err := s.flow.At(StateEnrollmentPending).Fire(ctx, EventConfirm, a); err != nil {
		return s.flowError(err)
	}
	s.resetAttempts(ctx, flowEnrollment, userID)
	return nil
}

func (s *service) VerifyLogin(ctx context.Context, userID, code string) error {
	login, err := s.BeginLogin(ctx, userID)
	if err != nil {
		s.report(ctx, flowLogin, userID, err)
		return err
	}
	return login.Submit(ctx, code)
}

func (s *service) BeginLogin(ctx context.Context, userID string) (*Login, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !rec.Active() || totp.ValidateSecret(rec.Secret) != nil {
		return nil, ErrNotEnrolled
	}

	m := s.flow.At(StateEnrolled)
	if err := m.Fire(ctx, EventBeginLogin, nil); err != nil {
		return nil, s.flowError(err)
	}
	return &Login{svc: s, machine: m, userID: userID, record: rec}, nil
}

func (s *service) SendCode(ctx context.Context, userID, recipient string) error {
	if s.sender == nil {
		return ErrNoCodeSender
	}
	if userID == "" {
		return ErrEmptyUserID
	}

	rec, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if !rec.Active() {
		return ErrNotEnrolled
	}

	now := s.engine.Now()
	code, err := s.engine.GenerateAt(rec.Secret, now)
	if err != nil {
		return errors.Join(ErrNotEnrolled, err)
	}
	if err := s.sender.SendCode(ctx, recipient, code, s.validFor(now)); err != nil {
		s.logger.ErrorContext(ctx, "failed to send two-factor code",
			logger.UserID(userID),
			logger.Error(err),
		)
		return err
	}

	s.logger.InfoContext(ctx, "two-factor code sent", logger.UserID(userID))
	return nil
}

func (s *service) Status(ctx context.Context, userID string) (State, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}
	rec, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}
	return enrollmentState(rec), nil
}

func (s *service) Disable(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if err := s.store.Disable(ctx, userID); err != nil {
		return storeError(err)
	}
	s.logger.InfoContext(ctx, "two-factor disabled", logger.UserID(userID))
	return nil
}

// load returns nil without error for unknown users.
func (s *service) load(ctx context.Context, userID string) (*secretstore.Record, error) {
	rec, err := s.store.Load(ctx, userID)
	if errors.Is(err, secretstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	return rec, nil
}

// savePending is the enroll action.
func (s *service) savePending(ctx context.Context, _, _ State, _ Event, data any) error {
	a := attemptOf(data)
	if a == nil {
		return ErrInvalidParameter
	}

	secret, err := s.engine.GenerateSecret()
	if err != nil {
		return err
	}
	uri, err := s.engine.ProvisioningURI(secret, s.accountName(a.userID), s.issuer)
	if err != nil {
		return errors.Join(ErrInvalidParameter, err)
	}

	enrollment := &Enrollment{Secret: secret, ProvisioningURI: uri}
	if s.qrSize > 0 {
		if enrollment.QRCode, err = qrcode.DataURI(uri, qrcode.WithSize(s.qrSize)); err != nil {
			return err
		}
	}

	if err := s.store.SavePending(ctx, a.userID, s.newID(), secret); err != nil {
		return storeError(err)
	}
	a.enrollment = enrollment
	return nil
}

// enable is the confirm action. It promotes exactly the pending enrollment
// whose code was checked.
func (s *service) enable(ctx context.Context, _, _ State, _ Event, data any) error {
	a := attemptOf(data)
	if a == nil {
		return ErrInvalidParameter
	}
	return storeError(s.store.Enable(ctx, a.userID, a.record.PendingID))
}

// flowError turns state machine errors into service errors. A rejected guard
// is a code mismatch.
func (s *service) flowError(err error) error {
	switch {
	case sm.IsRejected(err):
		return ErrVerificationFailed
	case sm.IsNoTransition(err):
		return errors.Join(ErrInvalidParameter, err)
	default:
		return err
	}
}

func (s *service) allow(ctx context.Context, flow, userID string) error {
	if s.limiter == nil {
		return nil
	}
	res, err := s.limiter.Allow(ctx, flow+":"+userID)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if !res.Allowed() {
		return ErrTooManyAttempts
	}
	return nil
}

func (s *service) resetAttempts(ctx context.Context, flow, userID string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Reset(ctx, flow+":"+userID); err != nil {
		s.logger.WarnContext(ctx, "failed to reset two-factor attempts",
			logger.UserID(userID),
			logger.Error(err),
		)
	}
}

// report logs and counts the outcome of a verification. Codes and secrets
// never reach the log.
func (s *service) report(ctx context.Context, flow, userID string, err error) {
	outcome := OutcomeOf(err)
	s.metrics.verification(flow, outcome)

	attrs := []any{logger.UserID(userID), logger.Flow(flow), logger.Outcome(outcome.String())}
	switch outcome {
	case OutcomeVerified:
		s.logger.InfoContext(ctx, "two-factor code accepted", attrs...)
	case OutcomeStoreUnavailable, OutcomeInvalidParameter:
		s.logger.ErrorContext(ctx, "two-factor verification error", append(attrs, logger.Error(err))...)
	default:
		s.logger.WarnContext(ctx, "two-factor code rejected", append(attrs, logger.Error(err))...)
	}
}
