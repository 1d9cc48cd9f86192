// Package provider is the boundary to the hosted identity service. The
// service owns accounts, credential checks, and token issuance; this client
// only submits requests and normalizes failures into stable error codes.
package provider

import (
	"context"

	"authflow/internal/domain"
)

// Canonical error codes. Everything above this package matches on these,
// never on the raw strings the wire API returns.
const (
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeUserDisabled      = "auth/user-disabled"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeWeakPassword      = "auth/weak-password"
	CodeTooManyRequests   = "auth/too-many-requests"
	CodeNetworkFailed     = "auth/network-request-failed"
	CodePopupClosed       = "auth/popup-closed-by-user"
	CodePopupBlocked      = "auth/popup-blocked"
	CodeInternal          = "auth/internal-error"
)

// Error is a classified provider failure. Code is always one of the
// canonical constants above; Message is the provider's own wording, kept as
// the translation fallback.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// IDPCredential carries a federated identity token obtained through an
// interactive browser flow.
type IDPCredential struct {
	ProviderID string // "google.com" or "apple.com"
	IDToken    string
}

// Provider is the set of identity operations this client consumes.
type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (domain.Session, error)
	SignIn(ctx context.Context, email, password string) (domain.Session, error)
	SignInWithIDP(ctx context.Context, cred IDPCredential) (domain.Session, error)
	UpdateDisplayName(ctx context.Context, sess domain.Session, name string) (domain.Session, error)
}
