package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultMinPasswordLen is the password policy floor applied when callers
// pass a non-positive minimum.
const DefaultMinPasswordLen = 6

// No-space local part, @, domain with at least one dot. Rejects "a@b",
// which net/mail accepts. No deliverability check.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func NormalizeEmail(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func Email(s string) bool {
	return emailPattern.MatchString(s)
}

// LoginForm checks email format and password policy. The returned map is
// keyed by field name; an empty map means the form is valid. Pure: no
// storage, no network.
func LoginForm(email, password string, minPasswordLen int) map[string]string {
	if minPasswordLen <= 0 {
		minPasswordLen = DefaultMinPasswordLen
	}

	fields := map[string]string{}

	email = strings.TrimSpace(email)
	switch {
	case email == "":
		fields["email"] = "Email is required."
	case !Email(email):
		fields["email"] = "Enter a valid email address."
	}

	switch {
	case password == "":
		fields["password"] = "Password is required."
	case len(password) < minPasswordLen:
		fields["password"] = fmt.Sprintf("Password must be at least %d characters.", minPasswordLen)
	}

	return fields
}

// SignupForm applies the login rules plus a confirm-password match.
func SignupForm(email, password, confirmPassword string, minPasswordLen int) map[string]string {
	fields := LoginForm(email, password, minPasswordLen)

	if _, bad := fields["password"]; !bad && confirmPassword != password {
		fields["confirm_password"] = "Passwords do not match."
	}

	return fields
}

// DisplayNameFromEmail derives a default display name from the local part
// of the address, matching what the signup flow sets after account creation.
func DisplayNameFromEmail(email string) string {
	email = strings.TrimSpace(email)
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
