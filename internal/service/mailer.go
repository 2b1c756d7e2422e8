package service

import (
	"context"
	"net/url"
	"strings"

	"usof/internal/middleware"
)

// Mailer delivers account links. Delivery itself lives outside this service.
type Mailer interface {
	SendEmailVerification(ctx context.Context, to, token string) error
	SendPasswordReset(ctx context.Context, to, token string) error
}

// LogMailer writes the links it would send to the application log. It is
// the development stand-in for a real transport.
type LogMailer struct {
	BaseURL string
}

func (m LogMailer) link(path, token string) string {
	return strings.TrimRight(m.BaseURL, "/") + path + "?" + url.Values{"token": {token}}.Encode()
}

func (m LogMailer) SendEmailVerification(ctx context.Context, to, token string) error {
	middleware.Logger.InfoContext(ctx, "email verification link",
		"to", to, "link", m.link("/api/auth/verify-email", token))
	return nil
}

func (m LogMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	middleware.Logger.InfoContext(ctx, "password reset link",
		"to", to, "link", m.link("/reset-password", token))
	return nil
}
