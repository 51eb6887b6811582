package impl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"auth/internal/domain"
	"auth/internal/dto"
	"auth/internal/netutil"
	"auth/internal/observability/metrics"
	"auth/internal/observability/middleware"
	"auth/internal/service"
	"auth/internal/store"
)

var _ service.TokenService = (*TokenServiceImpl)(nil)

type TokenServiceImpl struct {
	Store dataStore
	Codec service.TokenCodec
	Now   func() time.Time
}

func NewTokenServiceImpl(st *store.Store, codec service.TokenCodec) *TokenServiceImpl {
	return &TokenServiceImpl{Store: gormStoreAdapter{store: st}, Codec: codec}
}

func (t *TokenServiceImpl) now() time.Time {
	if t.Now != nil {
		return t.Now().UTC()
	}
	return time.Now().UTC()
}

// Issue mints an access/refresh pair and records a refresh session carrying
// the device metadata.
func (t *TokenServiceImpl) Issue(ctx context.Context, user *domain.User, device domain.DeviceInfo) (*dto.TokenResponse, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues("issue", result).Inc()
	}()

	access, refresh, err := t.mint(user.ID)
	if err != nil {
		result = "failure"
		return nil, internal("mint tokens", err)
	}
	sess := &domain.Session{
		UserID:    user.ID,
		TokenHash: hashToken(refresh),
		ExpiresAt: t.now().Add(domain.RefreshTokenTTL),
		UserAgent: netutil.TruncateUserAgent(device.UserAgent),
		IPAddress: normalizeIP(device.IPAddress),
	}
	if err := t.Store.Sessions().Create(ctx, sess); err != nil {
		result = "failure"
		return nil, internal("create session", err)
	}

	slog.Info("issued tokens", "session_id", sess.ID, "user_id", user.ID,
		"request_id", middleware.RequestIDFromContext(ctx), "trace_id", middleware.TraceIDFromContext(ctx))
	return tokenResponse(access, refresh), nil
}

// Refresh rotates a refresh token. The old session is revoked with a
// conditional update, so of several concurrent calls with the same token
// exactly one succeeds.
func (t *TokenServiceImpl) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues("refresh", result).Inc()
	}()

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		result = "missing"
		return nil, domain.ErrMissingToken
	}
	claims, err := t.Codec.Verify(refreshToken)
	if err != nil || claims.Purpose != domain.PurposeRefresh {
		result = "invalid"
		return nil, domain.ErrInvalidToken
	}

	sess, err := t.Store.Sessions().FindActive(ctx, hashToken(refreshToken), claims.SubjectID)
	if errors.Is(err, store.ErrRecordNotFound) {
		result = "invalid"
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		result = "failure"
		return nil, internal("find session", err)
	}

	now := t.now()
	if sess.Expired(now) {
		if err := t.Store.Sessions().Revoke(ctx, sess.ID, now); err != nil {
			result = "failure"
			return nil, internal("revoke expired session", err)
		}
		result = "expired"
		return nil, domain.ErrTokenExpired
	}

	user, err := t.Store.Users().GetByID(ctx, sess.UserID)
	if errors.Is(err, store.ErrRecordNotFound) {
		result = "failure"
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		result = "failure"
		return nil, internal("load user", err)
	}

	access, refresh, err := t.mint(user.ID)
	if err != nil {
		result = "failure"
		return nil, internal("mint tokens", err)
	}
	next := &domain.Session{
		UserID:    user.ID,
		TokenHash: hashToken(refresh),
		ExpiresAt: now.Add(domain.RefreshTokenTTL),
		UserAgent: sess.UserAgent,
		IPAddress: sess.IPAddress,
	}
	err = t.Store.WithTx(ctx, func(tx storeTx) error {
		if err := tx.Sessions().RevokeIfActive(ctx, sess.ID, now); err != nil {
			return err
		}
		return tx.Sessions().Create(ctx, next)
	})
	if errors.Is(err, store.ErrAlreadyRevoked) {
		result = "replayed"
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		result = "failure"
		return nil, internal("rotate session", err)
	}

	slog.Info("refreshed tokens", "old_session_id", sess.ID, "session_id", next.ID, "user_id", user.ID,
		"request_id", middleware.RequestIDFromContext(ctx), "trace_id", middleware.TraceIDFromContext(ctx))
	return tokenResponse(access, refresh), nil
}

// Logout revokes the session behind refreshToken whatever its state. Unknown
// and empty tokens are not an error.
func (t *TokenServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	sess, err := t.Store.Sessions().GetByTokenHash(ctx, hashToken(refreshToken))
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return internal("find session", err)
	}
	if err := t.Store.Sessions().Revoke(ctx, sess.ID, t.now()); err != nil {
		return internal("revoke session", err)
	}
	slog.Info("logged out", "session_id", sess.ID, "user_id", sess.UserID,
		"request_id", middleware.RequestIDFromContext(ctx), "trace_id", middleware.TraceIDFromContext(ctx))
	return nil
}

func (t *TokenServiceImpl) ListSessions(ctx context.Context, userID domain.UserID) ([]dto.SessionView, error) {
	rows, err := t.Store.Sessions().ListActiveForUser(ctx, userID, t.now())
	if err != nil {
		return nil, internal("list sessions", err)
	}
	out := make([]dto.SessionView, 0, len(rows))
	for _, s := range rows {
		out = append(out, dto.SessionView{
			ID:        s.ID.String(),
			UserAgent: s.UserAgent,
			IPAddress: s.IPAddress,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
		})
	}
	return out, nil
}

func (t *TokenServiceImpl) RevokeAll(ctx context.Context, userID domain.UserID) (int64, error) {
	n, err := t.Store.Sessions().RevokeAllForUser(ctx, userID, t.now())
	if err != nil {
		return 0, internal("revoke all sessions", err)
	}
	slog.Info("revoked all sessions", "user_id", userID, "count", n,
		"request_id", middleware.RequestIDFromContext(ctx), "trace_id", middleware.TraceIDFromContext(ctx))
	return n, nil
}

func (t *TokenServiceImpl) mint(userID domain.UserID) (access, refresh string, err error) {
	access, err = t.Codec.Issue(userID, domain.PurposeLogin, domain.AccessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = t.Codec.Issue(userID, domain.PurposeRefresh, domain.RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func tokenResponse(access, refresh string) *dto.TokenResponse {
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(domain.AccessTokenTTL.Seconds()),
	}
}

// hashToken is the at-rest form of a refresh token.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func normalizeIP(ip string) string {
	if normalized, ok := netutil.NormalizeIP(ip); ok {
		return normalized
	}
	return strings.TrimSpace(ip)
}
