package impl

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"

	"auth/internal/service"

	"golang.org/x/crypto/argon2"
)

var _ service.PasswordService = (*PasswordServiceImpl)(nil)

const algoArgon2id = "argon2id"

// Argon2Params is persisted as password_params next to each hash.
type Argon2Params struct {
	Time    uint32 `json:"t"`
	Memory  uint32 `json:"m"` // KiB
	Threads uint8  `json:"p"`
	KeyLen  uint32 `json:"k"`
	SaltLen uint32 `json:"s"`
}

// PasswordPolicy is the cost applied to new hashes. Stored hashes made under
// a different Version or Params are upgraded on the next successful login.
type PasswordPolicy struct {
	Version int
	Params  Argon2Params
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		Version: 1,
		Params:  Argon2Params{Time: 3, Memory: 64 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16},
	}
}

func (p PasswordPolicy) validate() error {
	var errs []error
	if p.Version < 1 {
		errs = append(errs, errors.New("version must be at least 1"))
	}
	if p.Params.Time == 0 || p.Params.Threads == 0 {
		errs = append(errs, errors.New("time and threads must be positive"))
	}
	if p.Params.Memory < 8*uint32(p.Params.Threads) {
		errs = append(errs, fmt.Errorf("memory must be at least %d KiB", 8*uint32(p.Params.Threads)))
	}
	if p.Params.KeyLen < 16 || p.Params.SaltLen < 8 {
		errs = append(errs, errors.New("key length must be >= 16 and salt length >= 8"))
	}
	return errors.Join(errs...)
}

type PasswordServiceImpl struct {
	policy     PasswordPolicy
	paramsJSON []byte
}

func NewPasswordServiceArgon2id(policy PasswordPolicy) (*PasswordServiceImpl, error) {
	if err := policy.validate(); err != nil {
		return nil, fmt.Errorf("argon2id policy: %w", err)
	}
	raw, err := json.Marshal(policy.Params)
	if err != nil {
		return nil, err
	}
	return &PasswordServiceImpl{policy: policy, paramsJSON: raw}, nil
}

func derive(password string, salt []byte, p Argon2Params) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

func (s *PasswordServiceImpl) Hash(password string) (hash, salt, paramsJSON []byte, algo string, ver int, err error) {
	if password == "" {
		return nil, nil, nil, "", 0, ErrEmptyPassword
	}
	salt = make([]byte, s.policy.Params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, nil, "", 0, fmt.Errorf("read salt: %w", err)
	}
	paramsJSON = append([]byte(nil), s.paramsJSON...)
	return derive(password, salt, s.policy.Params), salt, paramsJSON, algoArgon2id, s.policy.Version, nil
}

// Verify compares in constant time with the cost the hash was made with.
// rehashNeeded is only ever true together with ok.
func (s *PasswordServiceImpl) Verify(password string, cred service.Credential) (rehashNeeded bool, ok bool) {
	stored, good := storedParams(cred)
	if !good {
		return false, false
	}
	if subtle.ConstantTimeCompare(derive(password, cred.GetSalt(), stored), cred.GetHash()) != 1 {
		return false, false
	}
	return cred.GetPasswordVer() != s.policy.Version || stored != s.policy.Params, true
}

// storedParams rejects credentials from another algorithm and params that
// could not have produced a hash.
func storedParams(cred service.Credential) (Argon2Params, bool) {
	var p Argon2Params
	if cred.GetAlgo() != algoArgon2id {
		return p, false
	}
	if err := json.Unmarshal(cred.GetParamsJSON(), &p); err != nil {
		return p, false
	}
	if p.KeyLen == 0 || p.Time == 0 || p.Threads == 0 {
		return p, false
	}
	return p, true
}
