package idp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendrickPhan/go-verify-apple-id-token/validator"

	"authflow/internal/provider"
)

// AppleFlow verifies an Apple ID token obtained from a native Sign in with
// Apple flow. Apple's web flow requires a registered https return URL, so
// unlike Google there is no loopback variant; ReadToken supplies the token
// produced by the native flow.
type AppleFlow struct {
	ServiceID string
	ReadToken func(ctx context.Context) (string, error)
}

// SignIn collects an Apple ID token through ReadToken and verifies it.
func (f *AppleFlow) SignIn(ctx context.Context) (provider.IDPCredential, error) {
	if f.ReadToken == nil {
		return provider.IDPCredential{}, errors.New("missing apple token source")
	}
	token, err := f.ReadToken(ctx)
	if err != nil {
		return provider.IDPCredential{}, fmt.Errorf("read apple id token: %w", err)
	}
	return f.Credential(ctx, token)
}

func (f *AppleFlow) Credential(ctx context.Context, tokenString string) (provider.IDPCredential, error) {
	if _, err := VerifyAppleIDToken(ctx, tokenString, f.ServiceID); err != nil {
		return provider.IDPCredential{}, err
	}
	return provider.IDPCredential{ProviderID: "apple.com", IDToken: tokenString}, nil
}

// VerifyAppleIDToken checks signature, audience, and issuer of an Apple ID
// token before it is forwarded to the identity provider.
func VerifyAppleIDToken(ctx context.Context, tokenString, expectedAud string) (*ExternalTokenClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, errors.New("missing id token")
	}
	if strings.TrimSpace(expectedAud) == "" {
		return nil, errors.New("missing apple service id")
	}

	client := validator.NewClient()
	idToken, err := client.VerifyIdToken(expectedAud, tokenString)
	if err != nil {
		return nil, err
	}
	if idToken.Iss != "https://appleid.apple.com" {
		return nil, fmt.Errorf("unexpected issuer: %s", idToken.Iss)
	}

	_ = ctx
	return &ExternalTokenClaims{
		Issuer:  idToken.Iss,
		Subject: idToken.Sub,
		Email:   strings.TrimSpace(strings.ToLower(idToken.Email)),
	}, nil
}
