package jwtsigner

import (
	"errors"
	"strings"
	"testing"
	"time"

	"auth/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := New(testSecret, "taskhub-test")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return s
}

func TestIssueAndVerify(t *testing.T) {
	s := newTestSigner(t)
	sub := uuid.New()

	tok, err := s.Issue(sub, domain.PurposeLogin, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	v, err := s.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if v.SubjectID != sub {
		t.Fatalf("subject mismatch: got %s want %s", v.SubjectID, sub)
	}
	if v.Purpose != domain.PurposeLogin {
		t.Fatalf("purpose mismatch: %q", v.Purpose)
	}
	if v.Expired {
		t.Fatalf("fresh token reported expired")
	}
}

func TestIssueProducesDistinctTokens(t *testing.T) {
	s := newTestSigner(t)
	sub := uuid.New()
	a, _ := s.Issue(sub, domain.PurposeRefresh, time.Hour)
	b, _ := s.Issue(sub, domain.PurposeRefresh, time.Hour)
	if a == b {
		t.Fatalf("expected distinct tokens for same subject and second")
	}
}

func TestVerifyExpired(t *testing.T) {
	s := newTestSigner(t)
	past := time.Now().Add(-2 * time.Hour)
	old := s.WithClock(func() time.Time { return past })

	tok, err := old.Issue(uuid.New(), domain.PurposeResetPassword, 15*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := s.Verify(tok); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	v, err := s.VerifyAllowExpired(tok)
	if err != nil {
		t.Fatalf("verify allow expired: %v", err)
	}
	if !v.Expired || v.Purpose != domain.PurposeResetPassword {
		t.Fatalf("unexpected claims: %+v", v)
	}
}

func TestVerifyMalformed(t *testing.T) {
	s := newTestSigner(t)
	other, err := New([]byte("ffffffffffffffffffffffffffffffff"), "taskhub-test")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	foreign, _ := other.Issue(uuid.New(), domain.PurposeLogin, time.Minute)

	otherIssuer, _ := New(testSecret, "someone-else")
	wrongIss, _ := otherIssuer.Issue(uuid.New(), domain.PurposeLogin, time.Minute)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Purpose: domain.PurposeLogin})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"empty":          "",
		"garbage":        "not.a.token",
		"wrong secret":   foreign,
		"wrong issuer":   wrongIss,
		"alg none":       unsigned,
		"truncated":      foreign[:len(foreign)-4],
		"tampered claim": strings.Replace(wrongIss, ".", ".x", 1),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := s.VerifyAllowExpired(tok); !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestIssueRejectsUnknownPurpose(t *testing.T) {
	s := newTestSigner(t)
	if _, err := s.Issue(uuid.New(), domain.TokenPurpose("admin"), time.Minute); err == nil {
		t.Fatalf("expected error for unknown purpose")
	}
}

func TestNewRejectsShortSecret(t *testing.T) {
	if _, err := New([]byte("short"), "iss"); !errors.Is(err, ErrSecretTooShort) {
		t.Fatalf("expected ErrSecretTooShort, got %v", err)
	}
}
