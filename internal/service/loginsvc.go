package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"authflow/internal/attempts"
	"authflow/internal/domain"
	"authflow/internal/messages"
	"authflow/internal/provider"
	"authflow/internal/session"
	"authflow/internal/validate"
)

// DefaultNavigateDelay is how long the success banner stays up before the
// post-login navigation fires.
const DefaultNavigateDelay = 1500 * time.Millisecond

// IDPSigner runs an interactive federated sign-in and returns the resulting
// identity token credential.
type IDPSigner interface {
	SignIn(ctx context.Context) (provider.IDPCredential, error)
}

// LoginService orchestrates one login submission: lockout gate, validation,
// provider call, attempt tracking, and presenter feedback. No internal
// concurrency; a second submission is prevented by the loading/disabled
// state the presenter maintains, not by a lock.
type LoginService struct {
	Provider provider.Provider
	Attempts *attempts.Tracker
	Sessions *session.Cache
	IDP      IDPSigner
	Logger   *slog.Logger

	MinPasswordLen int
	Destination    string
	NavigateDelay  time.Duration
	Sleep          func(time.Duration)
}

// Login runs the email/password flow. The returned error reports why the
// flow stopped; everything user-facing has already gone through the
// presenter by the time it returns.
func (s *LoginService) Login(ctx context.Context, p Presenter, sub FormSubmission) error {
	if s.gateLocked(ctx, p) {
		return domain.ErrLockedOut
	}

	fields := validate.LoginForm(sub.Email, sub.Password, s.MinPasswordLen)
	if len(fields) > 0 {
		showFieldErrors(p, fields)
		return domain.NewValidationError(fields)
	}

	return s.authenticate(ctx, p, func(ctx context.Context) (domain.Session, error) {
		return s.Provider.SignIn(ctx, validate.NormalizeEmail(sub.Email), sub.Password)
	})
}

// LoginFederated runs the browser-based federated flow. Same gate and same
// failure accounting as the password flow; there are no form fields to
// validate.
func (s *LoginService) LoginFederated(ctx context.Context, p Presenter) error {
	if s.IDP == nil {
		return errors.New("federated sign-in not configured")
	}
	if s.gateLocked(ctx, p) {
		return domain.ErrLockedOut
	}

	return s.authenticate(ctx, p, func(ctx context.Context) (domain.Session, error) {
		cred, err := s.IDP.SignIn(ctx)
		if err != nil {
			return domain.Session{}, err
		}
		return s.Provider.SignInWithIDP(ctx, cred)
	})
}

// authenticate is steps 3-7 of a submission: loading on, provider call,
// then either the success or the failure path. Loading is always cleared,
// whatever branch runs.
func (s *LoginService) authenticate(ctx context.Context, p Presenter, signIn func(context.Context) (domain.Session, error)) error {
	p.SetLoading(true)
	defer p.SetLoading(false)
	p.ClearMessages()

	sess, err := signIn(ctx)
	if err != nil {
		s.fail(ctx, p, err)
		return err
	}

	if err := s.Attempts.Reset(ctx); err != nil {
		s.logger().Warn("reset attempt record failed", "err", err)
	}
	if err := s.Sessions.Save(ctx, sess); err != nil {
		s.logger().Warn("persist session failed", "err", err)
	}

	p.ShowMessage(LevelSuccess, "Signed in successfully. Redirecting...")
	s.scheduleNavigate(p)
	return nil
}

func (s *LoginService) fail(ctx context.Context, p Presenter, err error) {
	if recErr := s.Attempts.RecordFailure(ctx); recErr != nil {
		s.logger().Warn("record login failure failed", "err", recErr)
	}

	code, fallback := "", ""
	var pe *provider.Error
	if errors.As(err, &pe) {
		code, fallback = pe.Code, pe.Message
	} else {
		s.logger().Error("login failed", "err", err)
	}
	p.ShowMessage(LevelError, messages.Translate(code, fallback))

	if s.Attempts.IsLocked(ctx) {
		s.showLockout(ctx, p)
	}
}

// gateLocked short-circuits a submission while the lockout window is open.
func (s *LoginService) gateLocked(ctx context.Context, p Presenter) bool {
	if !s.Attempts.IsLocked(ctx) {
		return false
	}
	s.showLockout(ctx, p)
	return true
}

func (s *LoginService) showLockout(ctx context.Context, p Presenter) {
	mins := s.Attempts.RemainingLockoutMinutes(ctx)
	if mins < 1 {
		mins = 1
	}
	p.ShowMessage(LevelWarning, lockoutMessage(mins))
	p.SetInputsEnabled(false)
}

func (s *LoginService) scheduleNavigate(p Presenter) {
	delay := s.NavigateDelay
	if delay <= 0 {
		delay = DefaultNavigateDelay
	}
	sleep := s.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(delay)
	p.Navigate(s.Destination)
}

func (s *LoginService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func lockoutMessage(mins int) string {
	if mins == 1 {
		return "Too many failed attempts. Try again in 1 minute."
	}
	return fmt.Sprintf("Too many failed attempts. Try again in %d minutes.", mins)
}

func showFieldErrors(p Presenter, fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p.ShowFieldError(k, fields[k])
	}
}
