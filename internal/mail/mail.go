package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Mailer delivers one-time codes.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

var otpTemplate = template.Must(template.New("otp").Parse(`<!doctype html>
<html>
<body style="font-family: sans-serif">
<p>Your {{.AppName}} verification code is</p>
<p style="font-size: 28px; letter-spacing: 6px"><strong>{{.Code}}</strong></p>
<p>The code expires shortly. If you did not request it, ignore this email.</p>
</body>
</html>`))

type otpView struct {
	AppName string
	Code    string
}

// RenderOTP renders the OTP email body.
func RenderOTP(appName, code string) (string, error) {
	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, otpView{AppName: appName, Code: code}); err != nil {
		return "", fmt.Errorf("render otp email: %w", err)
	}
	return buf.String(), nil
}

// Subject returns the OTP email subject line.
func Subject(appName string) string {
	return "Sign in to " + appName
}

type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendMailer sends mail through the Resend API.
type ResendMailer struct {
	emails  emailSender
	from    string
	appName string
	logger  *zap.Logger
}

// NewResendMailer creates a Resend backed mailer.
func NewResendMailer(apiKey, from, appName string, logger *zap.Logger) *ResendMailer {
	client := resend.NewClient(apiKey)
	return newResendMailer(client.Emails, from, appName, logger)
}

func newResendMailer(emails emailSender, from, appName string, logger *zap.Logger) *ResendMailer {
	return &ResendMailer{emails: emails, from: from, appName: appName, logger: logger}
}

func (m *ResendMailer) SendOTP(ctx context.Context, to, code string) error {
	html, err := RenderOTP(m.appName, code)
	if err != nil {
		return err
	}
	sent, err := m.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: Subject(m.appName),
		Html:    html,
	})
	if err != nil {
		m.logger.Error("failed to send otp email", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("send otp email: %w", err)
	}
	m.logger.Info("otp email sent", zap.String("to", to), zap.String("email_id", sent.Id))
	return nil
}

// LogMailer writes codes to the log instead of sending them. Development only.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendOTP(_ context.Context, to, code string) error {
	m.logger.Warn("email delivery disabled, logging otp", zap.String("to", to), zap.String("code", code))
	return nil
}
