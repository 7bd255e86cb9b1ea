package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"surveyhub/internal/errors"
)

// SiteVerifyURL is the Cloudflare Turnstile verification endpoint.
const SiteVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Verifier checks a client captcha token.
type Verifier interface {
	// Verify returns errors.ErrCaptchaFailed when the token is rejected.
	Verify(ctx context.Context, token, remoteIP string) error
}

// Turnstile verifies tokens against Cloudflare Turnstile.
type Turnstile struct {
	secret   string
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewTurnstile creates a Turnstile verifier.
func NewTurnstile(secret string, logger *zap.Logger) *Turnstile {
	return &Turnstile{
		secret:   secret,
		endpoint: SiteVerifyURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func (t *Turnstile) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return errors.ErrCaptchaFailed
	}

	form := url.Values{"secret": {t.secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("verify captcha: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("verify captcha: unexpected status %d", resp.StatusCode)
	}
	var out siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode captcha response: %w", err)
	}
	if !out.Success {
		t.logger.Info("captcha rejected", zap.Strings("error_codes", out.ErrorCodes))
		return errors.ErrCaptchaFailed
	}
	return nil
}

// Noop accepts every token. Used when no Turnstile secret is configured.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a Noop verifier.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) Verify(context.Context, string, string) error {
	n.logger.Debug("captcha verification skipped")
	return nil
}
