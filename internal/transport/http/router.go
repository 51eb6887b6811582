package http

import (
	"context"
	"net/http"
	"time"

	"auth/internal/authz"
	"auth/internal/domain"
	"auth/internal/dto"
	"auth/internal/httpx"
	"auth/internal/netutil"
	"auth/internal/observability/middleware"
	"auth/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const APIPrefix = "/api-v1/auth"

type Options struct {
	AllowedOrigins     []string
	TrustProxy         bool
	RateLimitPerMinute int // 0 disables limiting
	RequestTimeout     time.Duration
	// Ready backs /readyz; nil reports ready.
	Ready func(ctx context.Context) error
}

type handler struct {
	auth       service.AuthService
	tokens     service.TokenService
	validate   *validator.Validate
	trustProxy bool
}

func NewRouter(auth service.AuthService, tokens service.TokenService, gate func(http.Handler) http.Handler, opts Options) http.Handler {
	h := &handler{auth: auth, tokens: tokens, validate: newValidator(), trustProxy: opts.TrustProxy}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.WithRequestAndTrace)
	r.Use(httpx.LogRequests)
	r.Use(httpx.WithMetrics)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.HeaderRequestID, middleware.HeaderTraceID},
		ExposedHeaders:   []string{middleware.HeaderRequestID, middleware.HeaderTraceID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(r.Context()); err != nil {
				httpx.WriteError(w, http.StatusServiceUnavailable, "NotReady", "dependencies unavailable")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route(APIPrefix, func(r chi.Router) {
		r.Group(func(pub chi.Router) {
			if opts.RateLimitPerMinute > 0 {
				pub.Use(httprate.Limit(opts.RateLimitPerMinute, time.Minute,
					httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
						return netutil.ClientIP(r, opts.TrustProxy), nil
					}),
					httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
						httpx.WriteError(w, http.StatusTooManyRequests, "RateLimited", "too many requests")
					}),
				))
			}
			pub.Post("/register", h.register)
			pub.Post("/login", h.login)
			pub.Post("/verify-email", h.verifyEmail)
			pub.Post("/reset-password-request", h.resetPasswordRequest)
			pub.Post("/reset-password", h.resetPassword)
			pub.Post("/refresh-token", h.refreshToken)
			pub.Post("/logout", h.logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(gate)
			pr.Get("/me", h.me)
			pr.Get("/sessions", h.sessions)
			pr.Post("/logout-all", h.logoutAll)
		})
	})
	return r
}

func (h *handler) device(r *http.Request) domain.DeviceInfo {
	return domain.DeviceInfo{
		UserAgent: netutil.TruncateUserAgent(r.UserAgent()),
		IPAddress: netutil.ClientIP(r, h.trustProxy),
	}
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, res)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.auth.Login(r.Context(), req, h.device(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.VerificationEmailSent {
		status = http.StatusCreated
	}
	httpx.WriteJSON(w, status, res)
}

func (h *handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyEmailRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.auth.VerifyEmail(r.Context(), req.Token); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "Email verified successfully"})
}

func (h *handler) resetPasswordRequest(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequestRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "Reset password email sent"})
}

func (h *handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "Password reset successfully"})
}

func (h *handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.tokens.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	var req dto.LogoutRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.tokens.Logout(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "Logged out successfully"})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := authz.UserFrom(r.Context())
	if !ok {
		writeServiceError(w, r, domain.ErrUnauthorized)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.NewUserView(user))
}

func (h *handler) sessions(w http.ResponseWriter, r *http.Request) {
	user, ok := authz.UserFrom(r.Context())
	if !ok {
		writeServiceError(w, r, domain.ErrUnauthorized)
		return
	}
	views, err := h.tokens.ListSessions(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, views)
}

func (h *handler) logoutAll(w http.ResponseWriter, r *http.Request) {
	user, ok := authz.UserFrom(r.Context())
	if !ok {
		writeServiceError(w, r, domain.ErrUnauthorized)
		return
	}
	n, err := h.tokens.RevokeAll(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dto.LogoutAllResponse{Message: "Logged out of all sessions", Revoked: n})
}
