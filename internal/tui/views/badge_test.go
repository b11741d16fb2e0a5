package views

import "testing"

func TestBadgeLabel(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{0, ""},
		{-3, ""},
		{1, "1"},
		{42, "42"},
		{99, "99"},
		{100, "99+"},
		{2500, "99+"},
	}
	for _, tc := range cases {
		if got := BadgeLabel(tc.n); got != tc.want {
			t.Errorf("BadgeLabel(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestSanitizeForTerminal(t *testing.T) {
	// Thumbs up with skin tone modifier collapses to plain thumbs up.
	in := "ok \U0001F44D\U0001F3FB"
	want := "ok \U0001F44D"
	if got := sanitizeForTerminal(in); got != want {
		t.Errorf("sanitize(%q) = %q, want %q", in, got, want)
	}

	// ZWJ sequence loses the joiner only.
	if got := sanitizeForTerminal("a‍b"); got != "ab" {
		t.Errorf("ZWJ not stripped: %q", got)
	}

	if got := sanitizeForTerminal("plain text"); got != "plain text" {
		t.Errorf("plain text altered: %q", got)
	}
}
