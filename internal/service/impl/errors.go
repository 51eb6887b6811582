package impl

import (
	"errors"
	"fmt"

	"auth/internal/domain"
)

var (
	ErrEmptyPassword = errors.New("empty password")
	ErrNilStore      = errors.New("nil store")
)

// internal wraps an unexpected failure so it is reported as ErrInternal while
// the cause stays available to logs.
func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrInternal, op, err)
}
