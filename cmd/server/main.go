package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"surveyhub/internal/auth"
	"surveyhub/internal/cache"
	"surveyhub/internal/captcha"
	"surveyhub/internal/config"
	"surveyhub/internal/db"
	"surveyhub/internal/handler"
	"surveyhub/internal/logger"
	"surveyhub/internal/mail"
	"surveyhub/internal/messaging"
	"surveyhub/internal/repository"
	"surveyhub/internal/router"
	"surveyhub/internal/service"
	"surveyhub/internal/session"
	"surveyhub/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SkipValidation {
		zl.Warn("SKIP_ENV_VALIDATION set, configuration was not validated")
	}

	gormDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if cfg.ResetDB {
		zl.Warn("RESET_DB=true detected, dropping all tables")
		err = db.Reset(gormDB)
	} else {
		err = db.Migrate(gormDB)
	}
	if err != nil {
		return err
	}

	store, err := cache.Open(ctx, cfg.Redis, zl)
	if err != nil {
		return err
	}
	layer := cache.NewLayer(store, zl)

	var mailer mail.Mailer
	if cfg.Resend.APIKey != "" {
		mailer = mail.NewResendMailer(cfg.Resend.APIKey, cfg.Resend.FromAddress, cfg.AppName, zl)
	} else {
		zl.Warn("RESEND_API_KEY not set, OTP codes will be logged")
		mailer = mail.NewLogMailer(zl)
	}

	var verifier captcha.Verifier
	if cfg.Turnstile != "" {
		verifier = captcha.NewTurnstile(cfg.Turnstile, zl)
	} else {
		zl.Warn("TURNSTILE_SECRET_KEY not set, captcha checks are skipped")
		verifier = captcha.NewNoop(zl)
	}

	var avatars storage.AvatarStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		avatars = s3Storage
	}

	var publisher messaging.Publisher = messaging.NoopPublisher{}
	if cfg.NATSURL != "" {
		if publisher, err = messaging.NewNATSPublisher(cfg.NATSURL, zl); err != nil {
			return err
		}
	}
	defer publisher.Close()

	var jwtService *auth.JWTService
	if cfg.APITokenSecret != "" {
		jwtService = auth.NewJWTService(cfg.APITokenSecret)
	}

	sessions, err := session.NewManager(session.Options{
		Name:   cfg.Session.Name,
		Secret: cfg.Session.Secret,
		MaxAge: cfg.Session.MaxAge,
		Secure: cfg.Session.Secure,
	})
	if err != nil {
		return err
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	tokenRepo := repository.NewVerificationTokenRepository(gormDB)
	surveyRepo := repository.NewSurveyRepository(gormDB)
	responseRepo := repository.NewResponseRepository(gormDB)

	// Initialize services
	userService := service.NewUserService(userRepo, responseRepo, layer, verifier, avatars, zl)
	authService := service.NewAuthService(tokenRepo, userRepo, layer, auth.NewOTPService(), jwtService, mailer, verifier, service.AuthOptions{
		OTPExpiry:      cfg.OTPExpiry,
		OTPMaxAttempts: cfg.OTPMaxAttempts,
		IsAdminEmail:   cfg.IsAdminEmail,
	}, zl)
	surveyService := service.NewSurveyService(surveyRepo, responseRepo, layer, zl)
	responseService := service.NewResponseService(responseRepo, surveyService, layer, verifier, publisher, zl)
	analyticsService := service.NewAnalyticsService(surveyService, responseRepo)
	luckyDrawService := service.NewLuckyDrawService(userRepo, responseRepo, layer, publisher, zl)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, zl, sessions, auth.NewAuthorizer(userService, zl), jwtService, router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		User:      handler.NewUserHandler(userService),
		Survey:    handler.NewSurveyHandler(surveyService),
		Response:  handler.NewResponseHandler(responseService),
		Analytics: handler.NewAnalyticsHandler(analyticsService),
		LuckyDraw: handler.NewLuckyDrawHandler(luckyDrawService),
		System: handler.NewSystemHandler(func(ctx context.Context) error {
			return db.Ping(ctx, gormDB)
		}, layer, zl),
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.ServerPort
		zl.Info("server listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
