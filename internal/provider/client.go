package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"authflow/internal/domain"
)

const DefaultEndpoint = "https://identitytoolkit.googleapis.com/v1"

// Client talks to an Identity-Toolkit-style REST API.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
	now      func() time.Time
}

func NewClient(endpoint, apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("provider api key required")
	}
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
		now:      time.Now,
	}, nil
}

func (c *Client) CreateAccount(ctx context.Context, email, password string) (domain.Session, error) {
	return c.sessionCall(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

func (c *Client) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	return c.sessionCall(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

func (c *Client) SignInWithIDP(ctx context.Context, cred IDPCredential) (domain.Session, error) {
	return c.sessionCall(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":            "id_token=" + cred.IDToken + "&providerId=" + cred.ProviderID,
		"requestUri":          "http://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	})
}

func (c *Client) UpdateDisplayName(ctx context.Context, sess domain.Session, name string) (domain.Session, error) {
	updated, err := c.sessionCall(ctx, "accounts:update", map[string]any{
		"idToken":           sess.IDToken,
		"displayName":       name,
		"returnSecureToken": true,
	})
	if err != nil {
		return domain.Session{}, err
	}

	// accounts:update echoes only the fields it touched; keep the rest of
	// the session intact.
	sess.DisplayName = updated.DisplayName
	if updated.IDToken != "" {
		sess.IDToken = updated.IDToken
	}
	if updated.RefreshToken != "" {
		sess.RefreshToken = updated.RefreshToken
	}
	return sess, nil
}

type sessionResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) sessionCall(ctx context.Context, method string, payload map[string]any) (domain.Session, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Session{}, fmt.Errorf("marshal %s payload: %w", method, err)
	}

	url := c.endpoint + "/" + method + "?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.Session{}, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Session{}, &Error{Code: CodeNetworkFailed, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Session{}, &Error{Code: CodeNetworkFailed, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Session{}, classifyError(raw, resp.StatusCode)
	}

	var sr sessionResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return domain.Session{}, fmt.Errorf("decode %s response: %w", method, err)
	}

	sess := domain.Session{
		UserID:       sr.LocalID,
		Email:        sr.Email,
		DisplayName:  sr.DisplayName,
		IDToken:      sr.IDToken,
		RefreshToken: sr.RefreshToken,
	}
	if secs, err := strconv.Atoi(sr.ExpiresIn); err == nil && secs > 0 {
		sess.ExpiresAt = c.now().Add(time.Duration(secs) * time.Second)
	}
	return sess, nil
}

// wireCodes maps the REST API's error identifiers to canonical codes. The
// wire message is sometimes suffixed ("WEAK_PASSWORD : Password should be
// at least 6 characters"), so matching happens on the first token.
var wireCodes = map[string]string{
	"EMAIL_NOT_FOUND":             CodeUserNotFound,
	"INVALID_PASSWORD":            CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   CodeInvalidCredential,
	"INVALID_EMAIL":               CodeInvalidEmail,
	"USER_DISABLED":               CodeUserDisabled,
	"EMAIL_EXISTS":                CodeEmailInUse,
	"WEAK_PASSWORD":               CodeWeakPassword,
	"TOO_MANY_ATTEMPTS_TRY_LATER": CodeTooManyRequests,
}

func classifyError(raw []byte, status int) error {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err != nil || er.Error.Message == "" {
		return &Error{
			Code:    CodeInternal,
			Message: fmt.Sprintf("unexpected provider response: status %d", status),
		}
	}

	token, _, _ := strings.Cut(er.Error.Message, " ")
	token = strings.TrimSpace(token)
	if code, ok := wireCodes[token]; ok {
		return &Error{Code: code, Message: er.Error.Message}
	}
	return &Error{Code: CodeInternal, Message: er.Error.Message}
}
