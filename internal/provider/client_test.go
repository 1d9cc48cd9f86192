package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"authflow/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "test-key")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return c
}

func TestSignInSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts:signInWithPassword" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key, query = %q", r.URL.RawQuery)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["email"] != "a@b.com" {
			t.Errorf("email = %v", body["email"])
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"localId":      "uid-1",
			"email":        "a@b.com",
			"displayName":  "A",
			"idToken":      "tok",
			"refreshToken": "ref",
			"expiresIn":    "3600",
		})
	})

	sess, err := c.SignIn(context.Background(), "a@b.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if sess.UserID != "uid-1" || sess.IDToken != "tok" || sess.RefreshToken != "ref" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if want := time.Unix(1_700_003_600, 0); !sess.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", sess.ExpiresAt, want)
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		wireMessage string
		wantCode    string
	}{
		{"EMAIL_NOT_FOUND", CodeUserNotFound},
		{"INVALID_PASSWORD", CodeWrongPassword},
		{"INVALID_LOGIN_CREDENTIALS", CodeInvalidCredential},
		{"USER_DISABLED", CodeUserDisabled},
		{"EMAIL_EXISTS", CodeEmailInUse},
		{"TOO_MANY_ATTEMPTS_TRY_LATER", CodeTooManyRequests},
		{"WEAK_PASSWORD : Password should be at least 6 characters", CodeWeakPassword},
		{"SOMETHING_NEW", CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.wireMessage, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"code": 400, "message": tc.wireMessage},
				})
			})

			_, err := c.SignIn(context.Background(), "a@b.com", "secret1")
			var pe *Error
			if !errors.As(err, &pe) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if pe.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", pe.Code, tc.wantCode)
			}
			if pe.Message != tc.wireMessage {
				t.Fatalf("message = %q, want wire message", pe.Message)
			}
		})
	}
}

func TestGarbledErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream broke</html>"))
	})

	_, err := c.SignIn(context.Background(), "a@b.com", "secret1")
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if pe.Code != CodeInternal {
		t.Fatalf("code = %q, want %q", pe.Code, CodeInternal)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // nothing listening anymore

	c, err := NewClient(url, "test-key")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = c.SignIn(context.Background(), "a@b.com", "secret1")
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if pe.Code != CodeNetworkFailed {
		t.Fatalf("code = %q, want %q", pe.Code, CodeNetworkFailed)
	}
}

func TestUpdateDisplayNameKeepsSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts:update" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"localId":     "uid-1",
			"displayName": "jane",
		})
	})

	orig := domain.Session{
		UserID:       "uid-1",
		Email:        "a@b.com",
		IDToken:      "tok",
		RefreshToken: "ref",
	}
	updated, err := c.UpdateDisplayName(context.Background(), orig, "jane")
	if err != nil {
		t.Fatalf("UpdateDisplayName: %v", err)
	}
	if updated.DisplayName != "jane" {
		t.Fatalf("DisplayName = %q", updated.DisplayName)
	}
	if updated.IDToken != orig.IDToken || updated.RefreshToken != orig.RefreshToken {
		t.Fatalf("tokens should survive a partial update echo: %+v", updated)
	}
}
