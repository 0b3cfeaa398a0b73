package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/novelhub/readerkit/internal/i18n"
)

type forgotPasswordBody struct {
	Email string `json:"email"`
}

// ForgotPassword asks the server to mail a password reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*Envelope, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, &Error{
			Kind:    KindInvalid,
			Method:  http.MethodPost,
			Path:    "/api/identity/forget-password",
			Message: i18n.Text(c.locale, i18n.InvalidInput),
		}
	}
	var env Envelope
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/identity/forget-password",
		body:   forgotPasswordBody{Email: email},
	}, &env)
	if err != nil {
		return nil, err
	}
	if env.Message == "" {
		env.Message = i18n.Text(c.locale, i18n.ResetEmailSent)
	}
	return &env, nil
}
