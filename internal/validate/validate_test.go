package validate

import "testing"

func TestEmail(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"a@b.co", true},
		{"user.name+tag@example.org", true},
		{"a@b", false},
		{"a b@c.com", false},
		{"a@b .com", false},
		{"@b.com", false},
		{"a@.", false},
		{"", false},
		{"plain", false},
	}
	for _, tc := range cases {
		if got := Email(tc.in); got != tc.want {
			t.Errorf("Email(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLoginForm(t *testing.T) {
	t.Run("empty email", func(t *testing.T) {
		fields := LoginForm("", "x", 0)
		if fields["email"] == "" {
			t.Fatalf("expected email error, got %v", fields)
		}
		if _, ok := fields["password"]; !ok {
			t.Fatalf("expected password policy error, got %v", fields)
		}
	})

	t.Run("short password only", func(t *testing.T) {
		fields := LoginForm("a@b.com", "12345", 6)
		if len(fields) != 1 {
			t.Fatalf("expected exactly one error, got %v", fields)
		}
		if fields["password"] == "" {
			t.Fatalf("expected password error, got %v", fields)
		}
	})

	t.Run("valid", func(t *testing.T) {
		if fields := LoginForm("a@b.com", "123456", 6); len(fields) != 0 {
			t.Fatalf("expected no errors, got %v", fields)
		}
	})

	t.Run("bad format", func(t *testing.T) {
		fields := LoginForm("a@b", "123456", 6)
		if fields["email"] == "" {
			t.Fatalf("expected email error, got %v", fields)
		}
	})
}

func TestSignupForm(t *testing.T) {
	t.Run("mismatch", func(t *testing.T) {
		fields := SignupForm("a@b.com", "123456", "123457", 6)
		if fields["confirm_password"] == "" {
			t.Fatalf("expected confirm error, got %v", fields)
		}
	})

	t.Run("match", func(t *testing.T) {
		if fields := SignupForm("a@b.com", "123456", "123456", 6); len(fields) != 0 {
			t.Fatalf("expected no errors, got %v", fields)
		}
	})

	t.Run("no confirm error while password invalid", func(t *testing.T) {
		fields := SignupForm("a@b.com", "123", "123", 6)
		if _, ok := fields["confirm_password"]; ok {
			t.Fatalf("confirm error should not stack on policy error: %v", fields)
		}
	})
}

func TestDisplayNameFromEmail(t *testing.T) {
	if got := DisplayNameFromEmail("jane.doe@example.com"); got != "jane.doe" {
		t.Fatalf("got %q", got)
	}
	if got := DisplayNameFromEmail("nodomain"); got != "nodomain" {
		t.Fatalf("got %q", got)
	}
}
