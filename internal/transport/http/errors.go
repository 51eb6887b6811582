package http

import (
	"errors"
	"log/slog"
	"net/http"

	"auth/internal/domain"
	"auth/internal/httpx"
	"auth/internal/observability/middleware"
)

type errorKind struct {
	target error
	status int
	code   string
}

var errorKinds = []errorKind{
	{domain.ErrEmailInUse, http.StatusConflict, "EmailInUse"},
	{domain.ErrUserNotFound, http.StatusNotFound, "UserNotFound"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "InvalidCredentials"},
	{domain.ErrEmailNotVerified, http.StatusForbidden, "EmailNotVerified"},
	{domain.ErrAlreadyVerified, http.StatusConflict, "AlreadyVerified"},
	{domain.ErrResetAlreadyRequested, http.StatusConflict, "ResetAlreadyRequested"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{domain.ErrTokenExpired, http.StatusUnauthorized, "TokenExpired"},
	{domain.ErrPasswordMismatch, http.StatusBadRequest, "PasswordMismatch"},
	{domain.ErrEmailDeliveryFailed, http.StatusBadGateway, "EmailDeliveryFailed"},
	{domain.ErrMissingToken, http.StatusUnauthorized, "MissingToken"},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "InvalidToken"},
	{domain.ErrEmailRejected, http.StatusForbidden, "EmailRejected"},
}

// writeServiceError maps a service error to its status. The message is the
// kind's own text; wrapped detail is logged, never returned.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			if k.status >= http.StatusInternalServerError {
				slog.Error("request failed", "code", k.code, "err", err,
					"request_id", middleware.RequestIDFromContext(r.Context()), "trace_id", middleware.TraceIDFromContext(r.Context()))
			}
			httpx.WriteError(w, k.status, k.code, k.target.Error())
			return
		}
	}
	slog.Error("internal error", "err", err,
		"request_id", middleware.RequestIDFromContext(r.Context()), "trace_id", middleware.TraceIDFromContext(r.Context()))
	httpx.WriteError(w, http.StatusInternalServerError, "InternalError", domain.ErrInternal.Error())
}
