package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"surveyhub/internal/auth"
	"surveyhub/internal/cache"
	"surveyhub/internal/captcha"
	"surveyhub/internal/errors"
	"surveyhub/internal/mail"
	"surveyhub/internal/model"
	"surveyhub/internal/repository"
)

// AuthOptions carry the OTP policy and admin allow-list.
type AuthOptions struct {
	OTPExpiry      time.Duration
	OTPMaxAttempts int
	IsAdminEmail   func(email string) bool
}

// AuthService handles email OTP sign-in and API tokens.
type AuthService interface {
	// RequestLogin issues and mails a code, returning the normalized email.
	RequestLogin(ctx context.Context, email, captchaToken, remoteIP string) (string, error)
	// VerifyOTP consumes a code and returns the signed-in user.
	VerifyOTP(ctx context.Context, email, code string) (*model.User, error)
	IssueAPIToken(ctx context.Context, user *model.User) (string, time.Time, error)
}

type authService struct {
	tokens  repository.VerificationTokenRepository
	users   repository.UserRepository
	cache   *cache.Layer
	otp     *auth.OTPService
	jwt     *auth.JWTService
	mailer  mail.Mailer
	captcha captcha.Verifier
	opts    AuthOptions
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuthService creates a new authentication service. jwt may be nil when
// API tokens are disabled.
func NewAuthService(
	tokens repository.VerificationTokenRepository,
	users repository.UserRepository,
	cache *cache.Layer,
	otp *auth.OTPService,
	jwt *auth.JWTService,
	mailer mail.Mailer,
	verifier captcha.Verifier,
	opts AuthOptions,
	logger *zap.Logger,
) AuthService {
	if opts.IsAdminEmail == nil {
		opts.IsAdminEmail = func(string) bool { return false }
	}
	return &authService{
		tokens:  tokens,
		users:   users,
		cache:   cache,
		otp:     otp,
		jwt:     jwt,
		mailer:  mailer,
		captcha: verifier,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) RequestLogin(ctx context.Context, email, captchaToken, remoteIP string) (string, error) {
	if err := s.captcha.Verify(ctx, captchaToken, remoteIP); err != nil {
		return "", err
	}

	email = NormalizeEmail(email)
	code, err := s.otp.Issue()
	if err != nil {
		return "", err
	}
	digest, err := s.otp.Hash(code, email)
	if err != nil {
		return "", err
	}
	if err := s.tokens.Upsert(ctx, email, digest, s.now().Add(s.opts.OTPExpiry)); err != nil {
		return "", fmt.Errorf("store verification token: %w", err)
	}

	// The token stays valid if delivery fails; a retry reissues it.
	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		return "", err
	}
	s.logger.Info("otp issued", zap.String("email", email))
	return email, nil
}

func (s *authService) VerifyOTP(ctx context.Context, email, code string) (*model.User, error) {
	email = NormalizeEmail(email)

	token, err := s.tokens.Find(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ErrOTPInvalid
		}
		return nil, fmt.Errorf("find verification token: %w", err)
	}

	if s.now().After(token.Expires) {
		if err := s.tokens.Delete(ctx, email); err != nil {
			return nil, fmt.Errorf("delete expired token: %w", err)
		}
		return nil, errors.ErrOTPExpired
	}

	attempts, err := s.tokens.IncrementAttempts(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ErrOTPInvalid
		}
		return nil, fmt.Errorf("count attempt: %w", err)
	}
	if attempts > s.opts.OTPMaxAttempts {
		s.logger.Warn("otp attempts exhausted", zap.String("email", email), zap.Int("attempts", attempts))
		return nil, errors.ErrOTPTooManyAttempts
	}

	if !s.otp.Verify(code, email, token.Token) {
		return nil, errors.ErrOTPInvalid
	}
	consumed, err := s.tokens.Consume(ctx, email, token.Token)
	if err != nil {
		return nil, fmt.Errorf("consume verification token: %w", err)
	}
	if !consumed {
		return nil, errors.ErrOTPInvalid
	}

	addr := email
	user, err := s.users.FindByEmailOrCreate(ctx, &model.User{
		Email: &addr,
		Name:  displayName(email),
		Admin: s.opts.IsAdminEmail(email),
	})
	if err != nil {
		return nil, fmt.Errorf("materialize user: %w", err)
	}
	if err := s.cache.UserSaved(ctx, user, nil); err != nil {
		return nil, err
	}
	s.logger.Info("otp verified", zap.String("user_id", user.ID))
	return user, nil
}

// displayName is the local part of an address, used until the user sets a name.
func displayName(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

func (s *authService) IssueAPIToken(_ context.Context, user *model.User) (string, time.Time, error) {
	if s.jwt == nil {
		return "", time.Time{}, errors.BadRequest("api tokens are not enabled")
	}
	token, expires, err := s.jwt.GenerateAPIToken(user.ID, user.EmailAddress())
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign api token: %w", err)
	}
	return token, expires, nil
}
