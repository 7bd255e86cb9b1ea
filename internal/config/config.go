package config

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const minSecretLength = 32

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string
	AppName    string
	ResetDB    bool

	DatabaseURL string

	OTPExpiry      time.Duration
	OTPMaxAttempts int
	AdminEmails    []string

	Session   SessionConfig
	Redis     RedisConfig
	Resend    ResendConfig
	Storage   StorageConfig
	Log       LogConfig
	NATSURL   string
	Turnstile string

	// APITokenSecret signs bearer tokens for scripted admin access.
	// Empty disables bearer authentication.
	APITokenSecret string

	SkipValidation bool
}

type SessionConfig struct {
	Name   string
	Secret string
	MaxAge time.Duration
	Secure bool
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Username string
	Password string
	DB       int
}

type ResendConfig struct {
	APIKey      string
	FromAddress string
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

type LogConfig struct {
	Level string
	JSON  bool
}

// Load builds Config from environment with sensible defaults and validates it.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("APP_NAME", "World Skills ASEAN")
	v.SetDefault("OTP_EXPIRY", "600")
	v.SetDefault("OTP_MAX_ATTEMPTS", "3")
	v.SetDefault("SESSION_NAME", "surveyhub")
	v.SetDefault("SESSION_MAX_AGE", "720h")
	v.SetDefault("SESSION_SECURE", "true")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", "0")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		ServerPort:  v.GetString("SERVER_PORT"),
		AppName:     v.GetString("APP_NAME"),
		ResetDB:     parseBool(v.GetString("RESET_DB")),
		DatabaseURL: strings.TrimSpace(v.GetString("DATABASE_URL")),
		AdminEmails: splitCSV(strings.ToLower(v.GetString("ADMIN_EMAILS"))),
		Session: SessionConfig{
			Name:   v.GetString("SESSION_NAME"),
			Secret: v.GetString("SESSION_SECRET"),
			Secure: parseBool(v.GetString("SESSION_SECURE")),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(v.GetString("REDIS_ENABLED")),
			Addr:     v.GetString("REDIS_ADDR"),
			Username: v.GetString("REDIS_USERNAME"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		Resend: ResendConfig{
			APIKey:      v.GetString("RESEND_API_KEY"),
			FromAddress: v.GetString("RESEND_FROM_ADDRESS"),
		},
		Storage: StorageConfig{
			Enabled:   parseBool(v.GetString("STORAGE_ENABLED")),
			Endpoint:  v.GetString("S3_ENDPOINT"),
			Region:    v.GetString("S3_REGION"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			Bucket:    v.GetString("S3_BUCKET"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			JSON:  parseBool(v.GetString("LOG_JSON")),
		},
		NATSURL:        v.GetString("NATS_URL"),
		Turnstile:      v.GetString("TURNSTILE_SECRET_KEY"),
		APITokenSecret: v.GetString("API_TOKEN_SECRET"),
		SkipValidation: parseBool(v.GetString("SKIP_ENV_VALIDATION")),
	}

	expiry, err := strconv.Atoi(v.GetString("OTP_EXPIRY"))
	if err != nil {
		return nil, fmt.Errorf("parse OTP_EXPIRY: %w", err)
	}
	cfg.OTPExpiry = time.Duration(expiry) * time.Second

	if cfg.OTPMaxAttempts, err = strconv.Atoi(v.GetString("OTP_MAX_ATTEMPTS")); err != nil {
		return nil, fmt.Errorf("parse OTP_MAX_ATTEMPTS: %w", err)
	}
	if cfg.Redis.DB, err = strconv.Atoi(v.GetString("REDIS_DB")); err != nil {
		return nil, fmt.Errorf("parse REDIS_DB: %w", err)
	}
	if cfg.Session.MaxAge, err = time.ParseDuration(v.GetString("SESSION_MAX_AGE")); err != nil {
		return nil, fmt.Errorf("parse SESSION_MAX_AGE: %w", err)
	}

	if cfg.SkipValidation {
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and co-required groups.
func (c *Config) Validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	} else if u, err := url.Parse(c.DatabaseURL); err != nil || u.Scheme == "" {
		errs = append(errs, "DATABASE_URL must be a valid URL")
	}
	if c.OTPExpiry <= 0 {
		errs = append(errs, "OTP_EXPIRY must be > 0")
	}
	if c.OTPMaxAttempts <= 0 {
		errs = append(errs, "OTP_MAX_ATTEMPTS must be > 0")
	}
	if len(c.Session.Secret) < minSecretLength {
		errs = append(errs, fmt.Sprintf("SESSION_SECRET must be at least %d chars", minSecretLength))
	}
	if c.Session.Name == "" {
		errs = append(errs, "SESSION_NAME must not be empty")
	}
	if c.Resend.APIKey != "" {
		if c.Resend.FromAddress == "" {
			errs = append(errs, "RESEND_FROM_ADDRESS is required when RESEND_API_KEY is set")
		} else if _, err := mail.ParseAddress(c.Resend.FromAddress); err != nil {
			errs = append(errs, "RESEND_FROM_ADDRESS must be a valid email address")
		}
	}
	if c.Storage.Enabled {
		required := map[string]string{
			"S3_ENDPOINT":   c.Storage.Endpoint,
			"S3_REGION":     c.Storage.Region,
			"S3_ACCESS_KEY": c.Storage.AccessKey,
			"S3_SECRET_KEY": c.Storage.SecretKey,
			"S3_BUCKET":     c.Storage.Bucket,
		}
		for _, key := range []string{"S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET"} {
			if required[key] == "" {
				errs = append(errs, key+" is required when STORAGE_ENABLED is set")
			}
		}
	}
	if c.APITokenSecret != "" && len(c.APITokenSecret) < minSecretLength {
		errs = append(errs, fmt.Sprintf("API_TOKEN_SECRET must be at least %d chars", minSecretLength))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// IsAdminEmail reports whether email is on the admin allow-list.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range c.AdminEmails {
		if a == email {
			return true
		}
	}
	return false
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trim := strings.TrimSpace(p); trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
