package social_test

import (
	"testing"
	"time"

	social "github.com/goliatone/go-social"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionObjectAccessors(t *testing.T) {
	userID := uuid.New()
	issuedAt := time.Now()

	session := &social.SessionObject{
		UserID:   userID.String(),
		Audience: []string{"web"},
		Issuer:   "test-issuer",
		IssuedAt: &issuedAt,
		Data: map[string]any{
			"role":  social.RoleMonitor,
			"email": "test@example.com",
		},
	}

	assert.Equal(t, userID.String(), session.GetUserID())
	assert.Equal(t, []string{"web"}, session.GetAudience())
	assert.Equal(t, "test-issuer", session.GetIssuer())
	assert.Equal(t, &issuedAt, session.GetIssuedAt())

	parsed, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestSessionObjectRoles(t *testing.T) {
	t.Run("role from data", func(t *testing.T) {
		session := &social.SessionObject{
			Data: map[string]any{"role": social.RoleAdmin},
		}

		assert.True(t, session.HasRole(social.RoleAdmin))
		assert.False(t, session.HasRole(social.RoleUser))
		assert.True(t, session.IsAtLeast(social.RoleMonitor))
	})

	t.Run("missing role falls back to user", func(t *testing.T) {
		session := &social.SessionObject{}

		assert.True(t, session.HasRole(social.RoleUser))
		assert.False(t, session.IsAtLeast(social.RoleMonitor))
	})

	t.Run("invalid role falls back to user", func(t *testing.T) {
		session := &social.SessionObject{
			Data: map[string]any{"role": "owner"},
		}

		assert.True(t, session.HasRole(social.RoleUser))
	})
}

func TestSessionRoundtripThroughToken(t *testing.T) {
	auther := social.NewAuthenticator(stubIdentityProvider{}, testConfig{})

	identity := testIdentity{
		id:       uuid.NewString(),
		username: "roundtrip",
		email:    "roundtrip@example.com",
		role:     social.RoleMonitor,
	}

	token, err := auther.TokenService().Generate(identity)
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)

	assert.Equal(t, identity.id, session.GetUserID())
	assert.Equal(t, "test-issuer", session.GetIssuer())

	data := session.GetData()
	assert.Equal(t, social.RoleMonitor, data["role"])
	assert.Equal(t, identity.email, data["email"])
}
