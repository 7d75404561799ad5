package social_test

import (
	"context"
	"testing"

	social "github.com/goliatone/go-social"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserContext(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		user := &social.User{ID: uuid.New(), Username: "ctxuser"}

		ctx := social.WithContext(context.Background(), user)

		got, ok := social.FromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, user, got)
	})

	t.Run("missing user", func(t *testing.T) {
		got, ok := social.FromContext(context.Background())
		assert.False(t, ok)
		assert.Nil(t, got)
	})
}

func TestClaimsContext(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		claims := &social.JWTClaims{UID: uuid.NewString(), UserRole: social.RoleUser}

		ctx := social.WithClaimsContext(context.Background(), claims)

		got, ok := social.GetClaims(ctx)
		require.True(t, ok)
		assert.Equal(t, claims.UID, got.UserID())
	})

	t.Run("missing claims", func(t *testing.T) {
		got, ok := social.GetClaims(context.Background())
		assert.False(t, ok)
		assert.Nil(t, got)
	})
}

func TestDefaultLinkBuilder(t *testing.T) {
	t.Run("with base url", func(t *testing.T) {
		links := social.DefaultLinkBuilder{BaseURL: "https://example.com/"}
		assert.Equal(t, "https://example.com/auth/verify-email/tok", links.VerificationLink("tok"))
		assert.Equal(t, "https://example.com/auth/reset-password/tok", links.PasswordResetLink("tok"))
	})

	t.Run("empty base produces relative paths", func(t *testing.T) {
		links := social.DefaultLinkBuilder{}
		assert.Equal(t, "/auth/verify-email/tok", links.VerificationLink("tok"))
	})
}
