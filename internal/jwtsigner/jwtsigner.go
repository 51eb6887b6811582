package jwtsigner

import (
	"errors"
	"fmt"
	"time"

	"auth/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLen is the shortest HS256 secret accepted by New.
const MinSecretLen = 32

var (
	// ErrMalformed covers bad signatures, wrong algorithms, foreign issuers and
	// anything that does not parse as one of our tokens.
	ErrMalformed = errors.New("malformed token")
	// ErrExpired is returned for a well-formed token past its exp claim.
	ErrExpired = errors.New("token expired")
	// ErrSecretTooShort is returned by New.
	ErrSecretTooShort = errors.New("signing secret too short")
)

// Claims is what every token carries besides the registered claims.
type Claims struct {
	Purpose domain.TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Verified is the decoded view of a token handed to callers.
type Verified struct {
	SubjectID domain.UserID
	Purpose   domain.TokenPurpose
	IssuedAt  time.Time
	ExpiresAt time.Time
	Expired   bool
}

// Signer issues and verifies HS256 tokens with a process-wide secret.
type Signer struct {
	secret []byte
	Issuer string
	now    func() time.Time
}

func New(secret []byte, iss string) (*Signer, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrSecretTooShort
	}
	return &Signer{
		secret: append([]byte(nil), secret...),
		Issuer: iss,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock returns a copy of s that reads time from now. Used by tests.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now
	return &cp
}

// Issue signs a token for subject with the given purpose and lifetime.
func (s *Signer) Issue(sub domain.UserID, purpose domain.TokenPurpose, ttl time.Duration) (string, error) {
	if !purpose.Valid() {
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}
	now := s.now()
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Issuer,
			Subject:   sub.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(), // keeps tokens minted in the same second distinct
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify checks signature, structure and expiry.
func (s *Signer) Verify(token string) (*Verified, error) {
	v, err := s.VerifyAllowExpired(token)
	if err != nil {
		return nil, err
	}
	if v.Expired {
		return nil, ErrExpired
	}
	return v, nil
}

// VerifyAllowExpired checks signature and structure only. A token past its exp
// is returned with Expired set so the caller can report expiry distinctly.
func (s *Signer) VerifyAllowExpired(token string) (*Verified, error) {
	if token == "" {
		return nil, ErrMalformed
	}
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if claims.Issuer != s.Issuer {
		return nil, fmt.Errorf("%w: bad issuer", ErrMalformed)
	}
	if !claims.Purpose.Valid() {
		return nil, fmt.Errorf("%w: bad purpose", ErrMalformed)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing time claims", ErrMalformed)
	}
	sub, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrMalformed)
	}

	exp := claims.ExpiresAt.Time
	return &Verified{
		SubjectID: sub,
		Purpose:   claims.Purpose,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: exp,
		Expired:   !s.now().Before(exp),
	}, nil
}
