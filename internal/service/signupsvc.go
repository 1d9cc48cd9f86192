package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"authflow/internal/domain"
	"authflow/internal/messages"
	"authflow/internal/provider"
	"authflow/internal/session"
	"authflow/internal/validate"
)

// SignupService orchestrates account creation. Deliberately no lockout gate
// and no failure accounting: rate limiting applies to login only.
type SignupService struct {
	Provider provider.Provider
	Sessions *session.Cache
	Logger   *slog.Logger

	MinPasswordLen int
	Destination    string
	NavigateDelay  time.Duration
	Sleep          func(time.Duration)
}

func (s *SignupService) Signup(ctx context.Context, p Presenter, sub FormSubmission) error {
	fields := validate.SignupForm(sub.Email, sub.Password, sub.ConfirmPassword, s.MinPasswordLen)
	if len(fields) > 0 {
		showFieldErrors(p, fields)
		return domain.NewValidationError(fields)
	}

	p.SetLoading(true)
	defer p.SetLoading(false)
	p.ClearMessages()

	email := validate.NormalizeEmail(sub.Email)
	sess, err := s.Provider.CreateAccount(ctx, email, sub.Password)
	if err != nil {
		code, fallback := "", ""
		var pe *provider.Error
		if errors.As(err, &pe) {
			code, fallback = pe.Code, pe.Message
		} else {
			s.logger().Error("signup failed", "err", err)
		}
		p.ShowMessage(LevelError, messages.Translate(code, fallback))
		return err
	}

	// Default display name comes from the email local part. Not worth
	// failing a created account over.
	name := validate.DisplayNameFromEmail(email)
	if named, err := s.Provider.UpdateDisplayName(ctx, sess, name); err != nil {
		s.logger().Warn("set display name failed", "err", err)
	} else {
		sess = named
	}

	if err := s.Sessions.Save(ctx, sess); err != nil {
		s.logger().Warn("persist session failed", "err", err)
	}

	p.ShowMessage(LevelSuccess, "Account created successfully. Redirecting...")
	s.scheduleNavigate(p)
	return nil
}

func (s *SignupService) scheduleNavigate(p Presenter) {
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

func (s *SignupService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
