// Package authz authenticates bearer access tokens on protected routes.
package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"auth/internal/domain"
	"auth/internal/httpx"
	"auth/internal/jwtsigner"
	"auth/internal/observability/metrics"
	obsmw "auth/internal/observability/middleware"
	"auth/internal/store"

	"github.com/google/uuid"
)

type Verifier interface {
	Verify(token string) (*jwtsigner.Verified, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Gate admits requests carrying a live login token for an existing user.
// Missing, malformed and expired tokens all get the same 401 so clients fall
// back to the refresh flow.
type Gate struct {
	codec Verifier
	users UserLookup
}

func NewGate(codec Verifier, users UserLookup) *Gate {
	return &Gate{codec: codec, users: users}
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := "success"
		defer func() {
			metrics.GateAttemptsTotal.WithLabelValues(result).Inc()
		}()
		reqID := obsmw.RequestIDFromContext(r.Context())
		traceID := obsmw.TraceIDFromContext(r.Context())

		tok, ok := bearerToken(r)
		if !ok {
			result = "missing"
			unauthorized(w)
			slog.Warn("auth gate missing bearer", "request_id", reqID, "trace_id", traceID)
			return
		}

		claims, err := g.codec.Verify(tok)
		if err != nil {
			result = "invalid"
			if errors.Is(err, jwtsigner.ErrExpired) {
				result = "expired"
			}
			unauthorized(w)
			slog.Warn("auth gate rejected token", "result", result, "request_id", reqID, "trace_id", traceID)
			return
		}
		if claims.Purpose != domain.PurposeLogin {
			result = "wrong_purpose"
			unauthorized(w)
			slog.Warn("auth gate wrong purpose", "purpose", claims.Purpose, "request_id", reqID, "trace_id", traceID)
			return
		}

		user, err := g.users.GetByID(r.Context(), claims.SubjectID)
		if errors.Is(err, store.ErrRecordNotFound) {
			result = "unknown_user"
			unauthorized(w)
			slog.Warn("auth gate unknown subject", "subject", claims.SubjectID, "request_id", reqID, "trace_id", traceID)
			return
		}
		if err != nil {
			result = "error"
			httpx.WriteError(w, http.StatusInternalServerError, "InternalError", "internal error")
			slog.Error("auth gate user lookup", "err", err, "request_id", reqID, "trace_id", traceID)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	raw := r.Header.Get("Authorization")
	scheme, tok, found := strings.Cut(raw, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

func unauthorized(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
}

type userKey struct{}

func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom returns the user resolved by the gate.
func UserFrom(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(*domain.User)
	return u, ok && u != nil
}
