package social_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	social "github.com/goliatone/go-social"
	"github.com/stretchr/testify/assert"
)

func TestSentinelTextCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      *goerrors.Error
		textCode string
	}{
		{"duplicate email", social.ErrDuplicateEmail, social.TextCodeDuplicateEmail},
		{"already verified", social.ErrAlreadyVerified, social.TextCodeAlreadyVerified},
		{"invalid credentials", social.ErrInvalidCredentials, social.TextCodeInvalidCredentials},
		{"email not verified", social.ErrEmailNotVerified, social.TextCodeEmailNotVerified},
		{"token invalid", social.ErrTokenInvalid, social.TextCodeTokenInvalid},
		{"reset token invalid", social.ErrInvalidResetToken, social.TextCodeResetTokenInvalid},
		{"self follow", social.ErrSelfFollow, social.TextCodeSelfFollow},
		{"target not found", social.ErrTargetNotFound, social.TextCodeTargetNotFound},
		{"already following", social.ErrAlreadyFollowing, social.TextCodeAlreadyFollowing},
		{"not following", social.ErrNotFollowing, social.TextCodeNotFollowing},
		{"mail delivery", social.ErrMailDelivery, social.TextCodeMailDelivery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.textCode, tt.err.TextCode)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.False(t, social.IsTokenExpiredError(nil))
	assert.True(t, social.IsTokenExpiredError(social.ErrTokenExpired))
	assert.True(t, social.IsTokenExpiredError(errors.New("token is expired")))
	assert.False(t, social.IsTokenExpiredError(errors.New("some other error")))
}

func TestIsMalformedError(t *testing.T) {
	assert.False(t, social.IsMalformedError(nil))
	assert.True(t, social.IsMalformedError(social.ErrTokenMalformed))
	assert.True(t, social.IsMalformedError(errors.New("token is malformed")))
	assert.True(t, social.IsMalformedError(errors.New("missing or malformed JWT")))
	assert.False(t, social.IsMalformedError(errors.New("some other error")))
}
