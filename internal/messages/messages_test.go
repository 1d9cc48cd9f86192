package messages

import "testing"

func TestTranslateKnownCodes(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{"auth/wrong-password", "Incorrect password. Please try again."},
		{"auth/user-not-found", "No account found with this email address."},
		{"auth/too-many-requests", "Too many attempts. Please try again later."},
		{"auth/popup-closed-by-user", "Sign-in was cancelled before it completed."},
	}
	for _, tc := range cases {
		// A known code wins over whatever fallback the caller supplies.
		if got := Translate(tc.code, "fallback"); got != tc.want {
			t.Errorf("Translate(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestTranslateUnknownCode(t *testing.T) {
	if got := Translate("auth/unknown-code-xyz", "oops"); got != "oops" {
		t.Fatalf("got %q, want fallback", got)
	}
	if got := Translate("auth/unknown-code-xyz", ""); got != DefaultError {
		t.Fatalf("got %q, want default", got)
	}
	if got := Translate("", ""); got != DefaultError {
		t.Fatalf("got %q, want default", got)
	}
}
