// Package idp runs the interactive federated sign-in flows and verifies the
// identity tokens they return. The heavy lifting (consent UI, credential
// checks) happens in the user's browser against the upstream provider; this
// package only brokers the round trip.
package idp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"authflow/internal/provider"
)

const callbackTimeout = 3 * time.Minute

// GoogleFlow performs the browser-based authorization-code flow against
// Google and returns a verified ID token credential. The Go stand-in for a
// popup window: a loopback callback server plus the system browser.
type GoogleFlow struct {
	ClientID     string
	ClientSecret string

	// OpenURL launches the user's browser at the consent page. Tests stub
	// this to drive the callback directly.
	OpenURL func(url string) error

	// Timeout bounds how long to wait for the user to finish the consent
	// flow. Zero means callbackTimeout.
	Timeout time.Duration
}

type callbackResult struct {
	code string
	err  error
}

// SignIn runs the flow. A user who abandons the browser window surfaces as
// provider.CodePopupClosed; failure to open a browser or bind the loopback
// listener as provider.CodePopupBlocked.
func (f *GoogleFlow) SignIn(ctx context.Context) (provider.IDPCredential, error) {
	if f.ClientID == "" || f.ClientSecret == "" {
		return provider.IDPCredential{}, errors.New("google client id and secret required")
	}
	if f.OpenURL == nil {
		return provider.IDPCredential{}, errors.New("browser opener required")
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return provider.IDPCredential{}, &provider.Error{Code: provider.CodePopupBlocked, Message: err.Error()}
	}
	defer ln.Close()

	conf := &oauth2.Config{
		ClientID:     f.ClientID,
		ClientSecret: f.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  fmt.Sprintf("http://%s/callback", ln.Addr().String()),
		Scopes:       []string{"openid", "email", "profile"},
	}

	state, err := randomState()
	if err != nil {
		return provider.IDPCredential{}, err
	}

	results := make(chan callbackResult, 1)
	srv := &http.Server{Handler: callbackHandler(state, results)}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	if err := f.OpenURL(conf.AuthCodeURL(state, oauth2.AccessTypeOnline)); err != nil {
		return provider.IDPCredential{}, &provider.Error{Code: provider.CodePopupBlocked, Message: err.Error()}
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = callbackTimeout
	}

	var res callbackResult
	select {
	case res = <-results:
	case <-time.After(timeout):
		return provider.IDPCredential{}, &provider.Error{Code: provider.CodePopupClosed, Message: "sign-in flow timed out"}
	case <-ctx.Done():
		return provider.IDPCredential{}, &provider.Error{Code: provider.CodePopupClosed, Message: ctx.Err().Error()}
	}
	if res.err != nil {
		return provider.IDPCredential{}, &provider.Error{Code: provider.CodePopupClosed, Message: res.err.Error()}
	}

	token, err := conf.Exchange(ctx, res.code)
	if err != nil {
		return provider.IDPCredential{}, &provider.Error{Code: provider.CodeNetworkFailed, Message: err.Error()}
	}

	rawID, _ := token.Extra("id_token").(string)
	if rawID == "" {
		return provider.IDPCredential{}, errors.New("token response missing id_token")
	}

	if _, err := VerifyGoogleIDToken(ctx, rawID, f.ClientID); err != nil {
		return provider.IDPCredential{}, err
	}

	return provider.IDPCredential{ProviderID: "google.com", IDToken: rawID}, nil
}

func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/callback" {
			http.NotFound(w, r)
			return
		}

		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			sendResult(results, callbackResult{err: errors.New("state mismatch")})
		case q.Get("error") != "":
			sendResult(results, callbackResult{err: fmt.Errorf("consent denied: %s", q.Get("error"))})
		case q.Get("code") == "":
			sendResult(results, callbackResult{err: errors.New("callback missing code")})
		default:
			sendResult(results, callbackResult{code: q.Get("code")})
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>Sign-in complete. You can close this window.</body></html>"))
	})
}

func sendResult(results chan<- callbackResult, res callbackResult) {
	select {
	case results <- res:
	default:
	}
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ExternalTokenClaims is the subset of ID token claims this client cares
// about.
type ExternalTokenClaims struct {
	Issuer  string
	Subject string
	Email   string
}

// VerifyGoogleIDToken checks signature, audience, and issuer of a Google ID
// token before it is forwarded to the identity provider.
func VerifyGoogleIDToken(ctx context.Context, tokenString, expectedAud string) (*ExternalTokenClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, errors.New("missing id token")
	}
	if strings.TrimSpace(expectedAud) == "" {
		return nil, errors.New("missing google client id")
	}

	payload, err := idtoken.Validate(ctx, tokenString, expectedAud)
	if err != nil {
		return nil, err
	}
	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return nil, fmt.Errorf("unexpected issuer: %s", payload.Issuer)
	}

	email := ""
	if raw, ok := payload.Claims["email"]; ok {
		if v, ok := raw.(string); ok {
			email = v
		}
	}

	return &ExternalTokenClaims{
		Issuer:  payload.Issuer,
		Subject: payload.Subject,
		Email:   strings.TrimSpace(strings.ToLower(email)),
	}, nil
}
