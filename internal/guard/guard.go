// Package guard screens email addresses offered at registration.
package guard

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	ReasonInvalid       = "invalid-address"
	ReasonBlockedDomain = "blocked-domain"
)

type Decision struct {
	Allowed bool
	Reason  string
}

func (d Decision) Denied() bool { return !d.Allowed }

// Checker denies syntactically invalid addresses and addresses under a
// blocked domain. Subdomains of a blocked domain are blocked too.
type Checker struct {
	validate *validator.Validate
	blocked  map[string]struct{}
}

func NewChecker(blockedDomains []string) *Checker {
	blocked := make(map[string]struct{}, len(blockedDomains))
	for _, d := range blockedDomains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "@")
		if d != "" {
			blocked[d] = struct{}{}
		}
	}
	return &Checker{validate: validator.New(), blocked: blocked}
}

func (c *Checker) Check(ctx context.Context, email string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	if err := c.validate.Var(email, "required,email"); err != nil {
		return Decision{Reason: ReasonInvalid}, nil
	}
	at := strings.LastIndexByte(email, '@')
	domain := strings.ToLower(email[at+1:])
	for {
		if _, ok := c.blocked[domain]; ok {
			return Decision{Reason: ReasonBlockedDomain}, nil
		}
		dot := strings.IndexByte(domain, '.')
		if dot < 0 {
			break
		}
		domain = domain[dot+1:]
	}
	return Decision{Allowed: true}, nil
}
