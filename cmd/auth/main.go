package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auth/internal/authz"
	"auth/internal/config"
	"auth/internal/guard"
	"auth/internal/jwtsigner"
	"auth/internal/mailer"
	"auth/internal/observability/logging"
	"auth/internal/observability/metrics"
	impl "auth/internal/service/impl"
	"auth/internal/store"
	transport "auth/internal/transport/http"
	"auth/pkg/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: "auth",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	logger.Info("starting service")

	metrics.MustRegister("auth")

	// 1) DB
	gdb, err := db.OpenGorm(db.Config{Driver: cfg.DBDriver, DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		logger.Error("gorm open", "error", err)
		os.Exit(1)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Error("gorm db handle", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		if err := store.Migrate(gdb); err != nil {
			logger.Error("migrate", "error", err)
			os.Exit(1)
		}
	}
	st := store.New(gdb)

	// 2) Token codec + mail
	signer, err := jwtsigner.New([]byte(cfg.JWTSecret), cfg.Issuer)
	if err != nil {
		logger.Error("jwt signer", "error", err)
		os.Exit(1)
	}

	var sender mailer.Sender = mailer.LogSender{Logger: logger}
	if cfg.MailEnabled() {
		sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.MailFrom,
			Timeout:  cfg.SMTP.Timeout,
		})
	} else {
		logger.Warn("SMTP_HOST not set, mail will only be logged")
	}

	// 3) Services
	passwords, err := impl.NewPasswordServiceArgon2id(impl.PasswordPolicy{
		Version: cfg.Argon2.PolicyVersion,
		Params: impl.Argon2Params{
			Time:    cfg.Argon2.Time,
			Memory:  cfg.Argon2.MemoryKiB,
			Threads: cfg.Argon2.Threads,
			KeyLen:  32,
			SaltLen: 16,
		},
	})
	if err != nil {
		logger.Error("password policy", "error", err)
		os.Exit(1)
	}
	ts := impl.NewTokenServiceImpl(st, signer)
	as := impl.NewAuthServiceImpl(
		st,
		passwords,
		ts,
		signer,
		impl.NewEmailServiceImpl(sender, cfg.FrontendURL),
		guard.NewChecker(cfg.BlockedEmailDomains),
	)
	gate := authz.NewGate(signer, st.Users())

	// 4) HTTP
	handler := transport.NewRouter(as, ts, gate.Middleware, transport.Options{
		AllowedOrigins:     cfg.AllowedOrigins(),
		TrustProxy:         cfg.TrustProxy,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              sqlDB.PingContext,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runJanitor(ctx, st, cfg.PurgeInterval, cfg.SessionRetention)

	go func() {
		slog.Info("auth service listening", "addr", srv.Addr, "issuer", cfg.Issuer)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("auth service stopped")
}

// runJanitor deletes expired ephemeral tokens and dead refresh sessions on
// every tick. Read paths check expiry themselves, so a missed run only
// delays cleanup.
func runJanitor(ctx context.Context, st *store.Store, every, retention time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			counts, err := st.PurgeExpired(ctx, time.Now().UTC(), retention)
			if err != nil {
				slog.Error("purge expired", "error", err)
				continue
			}
			slog.Info("purged expired rows", "ephemeral_tokens", counts["ephemeralTokens"], "refresh_sessions", counts["refreshSessions"])
		}
	}
}
