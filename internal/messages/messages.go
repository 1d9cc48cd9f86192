// Package messages turns provider error codes into user-facing sentences.
package messages

// DefaultError is shown when the provider reports a code we do not know and
// supplies no usable message of its own.
const DefaultError = "Something went wrong. Please try again."

var byCode = map[string]string{
	"auth/user-not-found":         "No account found with this email address.",
	"auth/wrong-password":         "Incorrect password. Please try again.",
	"auth/invalid-credential":     "Incorrect email or password. Please try again.",
	"auth/invalid-email":          "Please enter a valid email address.",
	"auth/user-disabled":          "This account has been disabled.",
	"auth/email-already-in-use":   "An account already exists with this email address.",
	"auth/weak-password":          "Password is too weak. Use at least 6 characters.",
	"auth/too-many-requests":      "Too many attempts. Please try again later.",
	"auth/network-request-failed": "Network error. Check your connection and try again.",
	"auth/popup-closed-by-user":   "Sign-in was cancelled before it completed.",
	"auth/popup-blocked":          "Sign-in window was blocked. Allow it and try again.",
}

// Translate maps a provider error code to a canned sentence. Unknown codes
// fall back to the provider's own message, then to DefaultError. Never
// fails: an unrecognized code must still produce something renderable.
func Translate(code, fallback string) string {
	if msg, ok := byCode[code]; ok {
		return msg
	}
	if fallback != "" {
		return fallback
	}
	return DefaultError
}
