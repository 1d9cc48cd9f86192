package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"authflow/internal/domain"
	"authflow/internal/provider"
	"authflow/internal/session"
)

func newSignupService(t *testing.T) (*SignupService, *stubProvider, *memKV) {
	t.Helper()
	kv := newMemKV()
	p := &stubProvider{t: t}
	svc := &SignupService{
		Provider:       p,
		Sessions:       session.NewCache(kv, session.ModeMemory),
		MinPasswordLen: 6,
		Destination:    "/dashboard",
		Sleep:          func(time.Duration) {},
	}
	return svc, p, kv
}

func TestSignupSuccessSetsDisplayName(t *testing.T) {
	svc, prov, _ := newSignupService(t)

	prov.createAccountFunc = func(_ context.Context, email, password string) (domain.Session, error) {
		if email != "jane.doe@example.com" {
			t.Fatalf("email = %q", email)
		}
		return domain.Session{UserID: "uid-1", Email: email, IDToken: "tok"}, nil
	}
	var gotName string
	prov.updateDisplayNameFunc = func(_ context.Context, sess domain.Session, name string) (domain.Session, error) {
		gotName = name
		sess.DisplayName = name
		return sess, nil
	}

	p := newRecordingPresenter()
	err := svc.Signup(context.Background(), p, FormSubmission{
		Email:           "Jane.Doe@Example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	if gotName != "jane.doe" {
		t.Fatalf("display name = %q, want local part", gotName)
	}
	if p.lastLevel() != LevelSuccess {
		t.Fatalf("messages = %+v", p.messages)
	}
	if len(p.navigatedTo) != 1 {
		t.Fatalf("navigatedTo = %v", p.navigatedTo)
	}

	sess, err := svc.Sessions.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sess.DisplayName != "jane.doe" {
		t.Fatalf("session = %+v", sess)
	}
}

func TestSignupConfirmMismatch(t *testing.T) {
	svc, _, _ := newSignupService(t)

	p := newRecordingPresenter()
	err := svc.Signup(context.Background(), p, FormSubmission{
		Email:           "a@b.com",
		Password:        "secret1",
		ConfirmPassword: "secret2",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
	if p.fieldErrors["confirm_password"] == "" {
		t.Fatalf("fieldErrors = %v", p.fieldErrors)
	}
	if len(p.loadingStates) != 0 {
		t.Fatal("no loading toggle on validation failure")
	}
}

func TestSignupEmailInUse(t *testing.T) {
	svc, prov, kv := newSignupService(t)
	prov.createAccountFunc = func(context.Context, string, string) (domain.Session, error) {
		return domain.Session{}, &provider.Error{Code: provider.CodeEmailInUse, Message: "EMAIL_EXISTS"}
	}

	p := newRecordingPresenter()
	err := svc.Signup(context.Background(), p, FormSubmission{
		Email:           "a@b.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	if err == nil {
		t.Fatal("expected error")
	}

	if want := "An account already exists with this email address."; p.messages[len(p.messages)-1].text != want {
		t.Fatalf("text = %q", p.messages[len(p.messages)-1].text)
	}
	// Signup failures are not rate limited; nothing may land in storage.
	if len(kv.values) != 0 {
		t.Fatalf("kv = %v, want empty", kv.values)
	}
	if len(p.loadingStates) != 2 || p.loadingStates[1] {
		t.Fatalf("loading states = %v", p.loadingStates)
	}
}

func TestSignupDisplayNameFailureIsNonFatal(t *testing.T) {
	svc, prov, _ := newSignupService(t)
	prov.createAccountFunc = func(_ context.Context, email, _ string) (domain.Session, error) {
		return domain.Session{UserID: "uid-1", Email: email}, nil
	}
	prov.updateDisplayNameFunc = func(context.Context, domain.Session, string) (domain.Session, error) {
		return domain.Session{}, &provider.Error{Code: provider.CodeInternal}
	}

	p := newRecordingPresenter()
	err := svc.Signup(context.Background(), p, FormSubmission{
		Email:           "a@b.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	if err != nil {
		t.Fatalf("Signup should succeed despite display-name failure: %v", err)
	}
	if p.lastLevel() != LevelSuccess {
		t.Fatalf("messages = %+v", p.messages)
	}
}
