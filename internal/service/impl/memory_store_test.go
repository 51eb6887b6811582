package impl

import (
	"context"
	"sync"
	"time"

	"auth/internal/domain"
	"auth/internal/store"

	"github.com/google/uuid"
)

// memoryStore mirrors the constraints of the gorm store: unique email, one
// ephemeral token per user, unique session token hash and conditional
// revocation.
type memoryStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*domain.User
	tokens   map[uuid.UUID]*domain.EphemeralToken
	sessions map[uuid.UUID]*domain.Session
}

type storeSnapshot struct {
	users    map[uuid.UUID]*domain.User
	tokens   map[uuid.UUID]*domain.EphemeralToken
	sessions map[uuid.UUID]*domain.Session
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:    make(map[uuid.UUID]*domain.User),
		tokens:   make(map[uuid.UUID]*domain.EphemeralToken),
		sessions: make(map[uuid.UUID]*domain.Session),
	}
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(memoryView{store: m, inTx: true}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

func (m *memoryStore) Users() userStore { return memoryView{store: m}.Users() }

func (m *memoryStore) EphemeralTokens() ephemeralTokenStore {
	return memoryView{store: m}.EphemeralTokens()
}

func (m *memoryStore) Sessions() sessionStore { return memoryView{store: m}.Sessions() }

func cloneMap[T any](in map[uuid.UUID]*T) map[uuid.UUID]*T {
	out := make(map[uuid.UUID]*T, len(in))
	for id, v := range in {
		cp := *v
		out[id] = &cp
	}
	return out
}

func (m *memoryStore) snapshot() storeSnapshot {
	return storeSnapshot{
		users:    cloneMap(m.users),
		tokens:   cloneMap(m.tokens),
		sessions: cloneMap(m.sessions),
	}
}

func (m *memoryStore) restore(s storeSnapshot) {
	m.users = s.users
	m.tokens = s.tokens
	m.sessions = s.sessions
}

func (m *memoryStore) userByEmail(email string) (*domain.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, true
		}
	}
	return nil, false
}

func (m *memoryStore) deleteUser(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

func (m *memoryStore) tokensFor(userID uuid.UUID) []domain.EphemeralToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.EphemeralToken
	for _, t := range m.tokens {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out
}

func (m *memoryStore) sessionsFor(userID uuid.UUID) []domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out
}

// expireSessions moves the stored expiry of every session of userID into the past.
func (m *memoryStore) expireSessions(userID uuid.UUID, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID {
			s.ExpiresAt = at
		}
	}
}

// memoryView locks per call unless it belongs to a transaction, which
// already holds the lock.
type memoryView struct {
	store *memoryStore
	inTx  bool
}

func (v memoryView) lock() func() {
	if v.inTx {
		return func() {}
	}
	v.store.mu.Lock()
	return v.store.mu.Unlock
}

func (v memoryView) Users() userStore { return memoryUserStore{v} }

func (v memoryView) EphemeralTokens() ephemeralTokenStore { return memoryTokenStore{v} }

func (v memoryView) Sessions() sessionStore { return memorySessionStore{v} }

type memoryUserStore struct{ memoryView }

func (u memoryUserStore) Create(ctx context.Context, usr *domain.User) error {
	defer u.lock()()
	for _, existing := range u.store.users {
		if existing.Email == usr.Email {
			return store.ErrDuplicate
		}
	}
	if usr.ID == uuid.Nil {
		usr.ID = uuid.New()
	}
	now := time.Now().UTC()
	usr.CreatedAt, usr.UpdatedAt = now, now
	cp := *usr
	u.store.users[usr.ID] = &cp
	return nil
}

func (u memoryUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	defer u.lock()()
	usr, ok := u.store.users[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	cp := *usr
	return &cp, nil
}

func (u memoryUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer u.lock()()
	for _, usr := range u.store.users {
		if usr.Email == email {
			cp := *usr
			return &cp, nil
		}
	}
	return nil, store.ErrRecordNotFound
}

func (u memoryUserStore) Save(ctx context.Context, usr *domain.User) error {
	defer u.lock()()
	if _, ok := u.store.users[usr.ID]; !ok {
		return store.ErrRecordNotFound
	}
	usr.UpdatedAt = time.Now().UTC()
	cp := *usr
	u.store.users[usr.ID] = &cp
	return nil
}

type memoryTokenStore struct{ memoryView }

func (e memoryTokenStore) Create(ctx context.Context, t *domain.EphemeralToken) error {
	defer e.lock()()
	for _, existing := range e.store.tokens {
		if existing.UserID == t.UserID || existing.Token == t.Token {
			return store.ErrDuplicate
		}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now().UTC()
	cp := *t
	e.store.tokens[t.ID] = &cp
	return nil
}

func (e memoryTokenStore) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.EphemeralToken, error) {
	defer e.lock()()
	for _, t := range e.store.tokens {
		if t.UserID == userID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrRecordNotFound
}

func (e memoryTokenStore) GetByUserAndToken(ctx context.Context, userID uuid.UUID, token string) (*domain.EphemeralToken, error) {
	defer e.lock()()
	for _, t := range e.store.tokens {
		if t.UserID == userID && t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrRecordNotFound
}

func (e memoryTokenStore) Delete(ctx context.Context, id uuid.UUID) error {
	defer e.lock()()
	delete(e.store.tokens, id)
	return nil
}

func (e memoryTokenStore) Consume(ctx context.Context, id uuid.UUID) error {
	defer e.lock()()
	if _, ok := e.store.tokens[id]; !ok {
		return store.ErrRecordNotFound
	}
	delete(e.store.tokens, id)
	return nil
}

type memorySessionStore struct{ memoryView }

func (s memorySessionStore) Create(ctx context.Context, sess *domain.Session) error {
	defer s.lock()()
	for _, existing := range s.store.sessions {
		if existing.TokenHash == sess.TokenHash {
			return store.ErrDuplicate
		}
	}
	if sess.ID == uuid.Nil {
		sess.ID = uuid.New()
	}
	sess.CreatedAt = time.Now().UTC()
	cp := *sess
	s.store.sessions[sess.ID] = &cp
	return nil
}

func (s memorySessionStore) FindActive(ctx context.Context, tokenHash string, userID uuid.UUID) (*domain.Session, error) {
	defer s.lock()()
	for _, sess := range s.store.sessions {
		if sess.TokenHash == tokenHash && sess.UserID == userID && !sess.Revoked {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, store.ErrRecordNotFound
}

func (s memorySessionStore) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	defer s.lock()()
	for _, sess := range s.store.sessions {
		if sess.TokenHash == tokenHash {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, store.ErrRecordNotFound
}

func (s memorySessionStore) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	defer s.lock()()
	if sess, ok := s.store.sessions[id]; ok && !sess.Revoked {
		sess.Revoked = true
		sess.RevokedAt = &at
	}
	return nil
}

func (s memorySessionStore) RevokeIfActive(ctx context.Context, id uuid.UUID, at time.Time) error {
	defer s.lock()()
	sess, ok := s.store.sessions[id]
	if !ok || sess.Revoked {
		return store.ErrAlreadyRevoked
	}
	sess.Revoked = true
	sess.RevokedAt = &at
	return nil
}

func (s memorySessionStore) ListActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.Session, error) {
	defer s.lock()()
	var out []domain.Session
	for _, sess := range s.store.sessions {
		if sess.UserID == userID && !sess.Revoked && !sess.Expired(now) {
			out = append(out, *sess)
		}
	}
	return out, nil
}

func (s memorySessionStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	defer s.lock()()
	var n int64
	for _, sess := range s.store.sessions {
		if sess.UserID == userID && !sess.Revoked {
			sess.Revoked = true
			sess.RevokedAt = &at
			n++
		}
	}
	return n, nil
}
