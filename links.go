package social

import (
	"fmt"
	"strings"
)

// LinkBuilder renders the URLs embedded in outbound emails.
type LinkBuilder interface {
	VerificationLink(token string) string
	PasswordResetLink(token string) string
}

// DefaultLinkBuilder builds links off a configured base URL. An empty
// base produces relative paths, which is what the dev mailer logs.
type DefaultLinkBuilder struct {
	BaseURL string
}

var _ LinkBuilder = DefaultLinkBuilder{}

func (b DefaultLinkBuilder) VerificationLink(token string) string {
	return fmt.Sprintf("%s/auth/verify-email/%s", b.base(), token)
}

func (b DefaultLinkBuilder) PasswordResetLink(token string) string {
	return fmt.Sprintf("%s/auth/reset-password/%s", b.base(), token)
}

func (b DefaultLinkBuilder) base() string {
	return strings.TrimSuffix(b.BaseURL, "/")
}
