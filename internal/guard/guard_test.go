package guard

import (
	"context"
	"strings"
	"testing"
)

func TestCheckerDecisions(t *testing.T) {
	c := NewChecker([]string{"mailinator.com", " @Spam.Example "})
	ctx := context.Background()

	cases := []struct {
		email   string
		allowed bool
		reason  string
	}{
		{"alice@example.com", true, ""},
		{"not-an-email", false, ReasonInvalid},
		{"", false, ReasonInvalid},
		{"bob@mailinator.com", false, ReasonBlockedDomain},
		{"bob@MAILINATOR.com", false, ReasonBlockedDomain},
		{"carol@eu.spam.example", false, ReasonBlockedDomain},
		{"dave@notmailinator.com", true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.email, func(t *testing.T) {
			d, err := c.Check(ctx, tc.email)
			if err != nil {
				t.Fatalf("check: %v", err)
			}
			if d.Allowed != tc.allowed || d.Reason != tc.reason {
				t.Fatalf("got %+v, want allowed=%v reason=%q", d, tc.allowed, tc.reason)
			}
		})
	}
}

// Entries split from a comma-separated env value keep their surrounding
// spaces; they must still block.
func TestCheckerNormalizesBlockedDomains(t *testing.T) {
	c := NewChecker(strings.Split("mailinator.com, @spam.example ,\t@TempMail.Dev\t, ", ","))
	ctx := context.Background()

	for _, email := range []string{"a@mailinator.com", "b@spam.example", "c@x.spam.example", "d@tempmail.dev"} {
		d, err := c.Check(ctx, email)
		if err != nil {
			t.Fatalf("check %s: %v", email, err)
		}
		if d.Allowed || d.Reason != ReasonBlockedDomain {
			t.Fatalf("%s: got %+v, want blocked", email, d)
		}
	}
	if len(c.blocked) != 3 {
		t.Fatalf("blocked set = %v, want 3 entries", c.blocked)
	}
}

func TestCheckerHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewChecker(nil).Check(ctx, "alice@example.com"); err == nil {
		t.Fatalf("expected context error")
	}
}
