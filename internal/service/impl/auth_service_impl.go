package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"auth/internal/domain"
	"auth/internal/dto"
	"auth/internal/observability/metrics"
	"auth/internal/observability/middleware"
	"auth/internal/service"
	"auth/internal/store"
)

var _ service.AuthService = (*AuthServiceImpl)(nil)

type AuthServiceImpl struct {
	Store           dataStore
	PasswordService service.PasswordService
	TService        service.TokenService
	Codec           service.TokenCodec
	Email           service.EmailService
	Guard           service.EmailGuard
	Now             func() time.Time
}

func NewAuthServiceImpl(
	st *store.Store,
	passwordService service.PasswordService,
	tokenService service.TokenService,
	codec service.TokenCodec,
	email service.EmailService,
	guard service.EmailGuard,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		Store:           gormStoreAdapter{store: st},
		PasswordService: passwordService,
		TService:        tokenService,
		Codec:           codec,
		Email:           email,
		Guard:           guard,
	}
}

func (a *AuthServiceImpl) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}

func (a *AuthServiceImpl) Register(ctx context.Context, r dto.RegisterRequest) (*dto.RegisterResponse, error) {
	result := "success"
	defer func() {
		metrics.AuthRegistrationsTotal.WithLabelValues(result).Inc()
	}()

	if a.Guard != nil {
		decision, err := a.Guard.Check(ctx, r.Email)
		if err != nil {
			result = "failure"
			return nil, internal("email guard", err)
		}
		if decision.Denied() {
			result = "rejected"
			slog.Warn("registration rejected by email guard", "reason", decision.Reason,
				"request_id", middleware.RequestIDFromContext(ctx), "trace_id", middleware.TraceIDFromContext(ctx))
			return nil, domain.ErrEmailRejected
		}
	}

	if _, err := a.Store.Users().GetByEmail(ctx, r.Email); err == nil {
		result = "email_in_use"
		return nil, domain.ErrEmailInUse
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		result = "failure"
		return nil, internal("lookup email", err)
	}

	hash, salt, paramsJSON, algo, ver, err := a.PasswordService.Hash(r.Password)
	if err != nil {
		result = "failure"
		return nil, internal("hash password", err)
	}

	var (
		user  *domain.User
		token string
	)
	now := a.now()
	err = a.Store.WithTx(ctx, func(tx storeTx) error {
		u := &domain.User{
			Email: r.Email,
			Name:  r.Name,
			Password: domain.PasswordCredential{
				Algo:        algo,
				Hash:        hash,
				Salt:        salt,
				ParamsJSON:  paramsJSON,
				PasswordVer: ver,
			},
		}
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		tok, err := a.Codec.Issue(u.ID, domain.PurposeEmailVerification, domain.VerificationTokenTTL)
		if err != nil {
			return err
		}
		if err := tx.EphemeralTokens().Create(ctx, &domain.EphemeralToken{
			UserID:    u.ID,
			Token:     tok,
			Purpose:   domain.PurposeEmailVerification,
			ExpiresAt: now.Add(domain.VerificationTokenTTL),
		}); err != nil {
			return err
		}
		user, token = u, tok
		return nil
	})
	if errors.Is(err, store.ErrDuplicate) {
		result = "email_in_use"
		return nil, domain.ErrEmailInUse
	}
	if err != nil {
		result = "failure"
		return nil, internal("create user", err)
	}

	if err := a.Email.SendVerification(ctx, user.Email, token); err != nil {
		result = "mail_failed"
		slog.Error("verification email failed", "user_id", user.ID, "err", err,
			"request_id", middleware.RequestIDFromContext(ctx), "trace_id", middleware.TraceIDFromContext(ctx))
		return nil, fmt.Errorf("%w: %v", domain.ErrEmailDeliveryFailed, err)
	}

	slog.Info("user registered", "user_id", user.ID,
		"request_id", middleware.RequestIDFromContext(ctx), "trace_id", middleware.TraceIDFromContext(ctx))
	return &dto.RegisterResponse{
		UserID:                    user.ID.String(),
		RequiresEmailVerification: true,
		Message:                   "Verification email sent. Please check your inbox to verify your account.",
	}, nil
}

func (a *AuthServiceImpl) Login(ctx context.Context, r dto.LoginRequest, device domain.DeviceInfo) (*dto.LoginResponse, error) {
	result := "success"
	defer func() {
		metrics.AuthLoginsTotal.WithLabelValues(result).Inc()
	}()

	user, err := a.Store.Users().GetByEmail(ctx, r.Email)
	if errors.Is(err, store.ErrRecordNotFound) {
		result = "invalid_credentials"
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		result = "failure"
		return nil, internal("lookup user", err)
	}

	if !user.EmailVerified {
		result = "unverified"
		return a.resendVerification(ctx, user)
	}

	rehashNeeded, ok := a.PasswordService.Verify(r.Password, &user.Password)
	if !ok {
		result = "invalid_credentials"
		return nil, domain.ErrInvalidCredentials
	}
	if rehashNeeded {
		hash, salt, paramsJSON, algo, ver, err := a.PasswordService.Hash(r.Password)
		if err != nil {
			result = "failure"
			return nil, internal("rehash password", err)
		}
		user.Password = domain.PasswordCredential{Algo: algo, Hash: hash, Salt: salt, ParamsJSON: paramsJSON, PasswordVer: ver}
	}

	now := a.now()
	user.LastLogin = &now
	if err := a.Store.Users().Save(ctx, user); err != nil {
		result = "failure"
		return nil, internal("save user", err)
	}

	tokens, err := a.TService.Issue(ctx, user, device)
	if err != nil {
		result = "failure"
		return nil, err
	}

	slog.Info("user logged in", "user_id", user.ID, "rehashed", rehashNeeded,
		"request_id", middleware.RequestIDFromContext(ctx), "trace_id", middleware.TraceIDFromContext(ctx))
	return &dto.LoginResponse{
		Message:      "Login successful",
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		User:         dto.NewUserView(user),
	}, nil
}

// resendVerification handles a login by an unverified user. A live
// verification token means the earlier mail is still usable; otherwise a
// new token replaces the stale one and is mailed.
func (a *AuthServiceImpl) resendVerification(ctx context.Context, user *domain.User) (*dto.LoginResponse, error) {
	now := a.now()
	if err := a.clearStaleToken(ctx, user.ID, now); err != nil {
		if errors.Is(err, errLiveToken) {
			return nil, domain.ErrEmailNotVerified
		}
		return nil, err
	}

	token, err := a.Codec.Issue(user.ID, domain.PurposeEmailVerification, domain.VerificationTokenTTL)
	if err != nil {
		return nil, internal("mint verification token", err)
	}
	err = a.Store.EphemeralTokens().Create(ctx, &domain.EphemeralToken{
		UserID:    user.ID,
		Token:     token,
		Purpose:   domain.PurposeEmailVerification,
		ExpiresAt: now.Add(domain.VerificationTokenTTL),
	})
	if errors.Is(err, store.ErrDuplicate) {
		// a concurrent login already issued a fresh token
		return nil, domain.ErrEmailNotVerified
	}
	if err != nil {
		return nil, internal("store verification token", err)
	}

	if err := a.Email.SendVerification(ctx, user.Email, token); err != nil {
		slog.Error("verification email resend failed", "user_id", user.ID, "err", err,
			"request_id", middleware.RequestIDFromContext(ctx), "trace_id", middleware.TraceIDFromContext(ctx))
		return nil, fmt.Errorf("%w: %v", domain.ErrEmailDeliveryFailed, err)
	}
	slog.Info("verification email resent", "user_id", user.ID,
		"request_id", middleware.RequestIDFromContext(ctx), "trace_id", middleware.TraceIDFromContext(ctx))
	return &dto.LoginResponse{
		Message:               "Email not verified. A new verification email has been sent.",
		VerificationEmailSent: true,
	}, nil
}

var errLiveToken = errors.New("live ephemeral token")

// clearStaleToken deletes the user's ephemeral token if it has expired and
// reports errLiveToken if it has not.
func (a *AuthServiceImpl) clearStaleToken(ctx context.Context, userID domain.UserID, now time.Time) error {
	existing, err := a.Store.EphemeralTokens().GetByUser(ctx, userID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return internal("lookup ephemeral token", err)
	}
	if !existing.Expired(now) {
		return errLiveToken
	}
	if err := a.Store.EphemeralTokens().Delete(ctx, existing.ID); err != nil {
		return internal("delete stale token", err)
	}
	return nil
}

func (a *AuthServiceImpl) VerifyEmail(ctx context.Context, token string) error {
	rec, user, err := a.redeem(ctx, token, domain.PurposeEmailVerification)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return domain.ErrAlreadyVerified
	}

	user.EmailVerified = true
	err = a.Store.WithTx(ctx, func(tx storeTx) error {
		if err := tx.EphemeralTokens().Consume(ctx, rec.ID); err != nil {
			return err
		}
		return tx.Users().Save(ctx, user)
	})
	if errors.Is(err, store.ErrRecordNotFound) {
		// another request redeemed the token first
		return domain.ErrUnauthorized
	}
	if err != nil {
		return internal("mark verified", err)
	}
	slog.Info("email verified", "user_id", user.ID,
		"request_id", middleware.RequestIDFromContext(ctx), "trace_id", middleware.TraceIDFromContext(ctx))
	return nil
}

func (a *AuthServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	result := "success"
	defer func() {
		metrics.PasswordResetsTotal.WithLabelValues("request", result).Inc()
	}()

	user, err := a.Store.Users().GetByEmail(ctx, email)
	if errors.Is(err, store.ErrRecordNotFound) {
		result = "user_not_found"
		return domain.ErrUserNotFound
	}
	if err != nil {
		result = "failure"
		return internal("lookup user", err)
	}
	if !user.EmailVerified {
		result = "unverified"
		return domain.ErrEmailNotVerified
	}

	now := a.now()
	if err := a.clearStaleToken(ctx, user.ID, now); err != nil {
		if errors.Is(err, errLiveToken) {
			result = "already_requested"
			return domain.ErrResetAlreadyRequested
		}
		result = "failure"
		return err
	}

	token, err := a.Codec.Issue(user.ID, domain.PurposeResetPassword, domain.ResetTokenTTL)
	if err != nil {
		result = "failure"
		return internal("mint reset token", err)
	}
	err = a.Store.EphemeralTokens().Create(ctx, &domain.EphemeralToken{
		UserID:    user.ID,
		Token:     token,
		Purpose:   domain.PurposeResetPassword,
		ExpiresAt: now.Add(domain.ResetTokenTTL),
	})
	if errors.Is(err, store.ErrDuplicate) {
		result = "already_requested"
		return domain.ErrResetAlreadyRequested
	}
	if err != nil {
		result = "failure"
		return internal("store reset token", err)
	}

	if err := a.Email.SendPasswordReset(ctx, user.Email, token); err != nil {
		result = "mail_failed"
		slog.Error("password reset email failed", "user_id", user.ID, "err", err,
			"request_id", middleware.RequestIDFromContext(ctx), "trace_id", middleware.TraceIDFromContext(ctx))
		return fmt.Errorf("%w: %v", domain.ErrEmailDeliveryFailed, err)
	}
	slog.Info("password reset requested", "user_id", user.ID,
		"request_id", middleware.RequestIDFromContext(ctx), "trace_id", middleware.TraceIDFromContext(ctx))
	return nil
}

func (a *AuthServiceImpl) ResetPassword(ctx context.Context, r dto.ResetPasswordRequest) error {
	result := "success"
	defer func() {
		metrics.PasswordResetsTotal.WithLabelValues("complete", result).Inc()
	}()

	rec, user, err := a.redeem(ctx, r.Token, domain.PurposeResetPassword)
	if err != nil {
		result = "rejected"
		return err
	}
	if r.NewPassword != r.ConfirmPassword {
		result = "mismatch"
		return domain.ErrPasswordMismatch
	}

	hash, salt, paramsJSON, algo, ver, err := a.PasswordService.Hash(r.NewPassword)
	if err != nil {
		result = "failure"
		return internal("hash password", err)
	}
	user.Password = domain.PasswordCredential{Algo: algo, Hash: hash, Salt: salt, ParamsJSON: paramsJSON, PasswordVer: ver}
	err = a.Store.WithTx(ctx, func(tx storeTx) error {
		if err := tx.EphemeralTokens().Consume(ctx, rec.ID); err != nil {
			return err
		}
		return tx.Users().Save(ctx, user)
	})
	if errors.Is(err, store.ErrRecordNotFound) {
		result = "rejected"
		return domain.ErrUnauthorized
	}
	if err != nil {
		result = "failure"
		return internal("save password", err)
	}
	slog.Info("password reset", "user_id", user.ID,
		"request_id", middleware.RequestIDFromContext(ctx), "trace_id", middleware.TraceIDFromContext(ctx))
	return nil
}

// redeem resolves a mailed token to its stored record and user. Signature
// expiry is tolerated; the stored expiry decides. The read is advisory: the
// caller must Consume the record in the transaction that applies it.
func (a *AuthServiceImpl) redeem(ctx context.Context, token string, purpose domain.TokenPurpose) (*domain.EphemeralToken, *domain.User, error) {
	claims, err := a.Codec.VerifyAllowExpired(token)
	if err != nil || claims.Purpose != purpose {
		return nil, nil, domain.ErrUnauthorized
	}

	rec, err := a.Store.EphemeralTokens().GetByUserAndToken(ctx, claims.SubjectID, token)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, nil, internal("lookup ephemeral token", err)
	}
	if rec.Purpose != purpose {
		return nil, nil, domain.ErrUnauthorized
	}
	if rec.Expired(a.now()) {
		return nil, nil, domain.ErrTokenExpired
	}

	user, err := a.Store.Users().GetByID(ctx, rec.UserID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, nil, internal("load user", err)
	}
	return rec, user, nil
}
