package social_test

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	social "github.com/goliatone/go-social"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestCredentialManagerCreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("hashes the password and forces unverified", func(t *testing.T) {
		repo := newStubRepo()
		repo.users.registerTx = func(ctx context.Context, tx bun.IDB, user *social.User) (*social.User, error) {
			return user, nil
		}

		manager := social.NewCredentialManager(repo, nil)

		user := &social.User{
			Email:    "new@example.com",
			Verified: true, // callers cannot smuggle a verified account in
		}

		record, err := manager.CreateAccountTx(ctx, nil, user, "password123")
		require.NoError(t, err)

		assert.False(t, record.Verified)
		assert.NotEmpty(t, record.PasswordHash)
		assert.NotEqual(t, "password123", record.PasswordHash)
		assert.NoError(t, social.ComparePasswordAndHash("password123", record.PasswordHash))
	})

	t.Run("empty password is rejected", func(t *testing.T) {
		repo := newStubRepo()
		manager := social.NewCredentialManager(repo, nil)

		_, err := manager.CreateAccountTx(ctx, nil, &social.User{Email: "new@example.com"}, "")
		assert.Error(t, err)
	})

	t.Run("unique violation reads as duplicate email", func(t *testing.T) {
		repo := newStubRepo()
		repo.users.registerTx = func(ctx context.Context, tx bun.IDB, user *social.User) (*social.User, error) {
			return nil, errors.New("UNIQUE constraint failed: users.email")
		}

		manager := social.NewCredentialManager(repo, nil)

		_, err := manager.CreateAccountTx(ctx, nil, &social.User{Email: "dup@example.com"}, "password123")
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, social.TextCodeDuplicateEmail, richErr.TextCode)
	})

	t.Run("other insert failures are not duplicates", func(t *testing.T) {
		repo := newStubRepo()
		repo.users.registerTx = func(ctx context.Context, tx bun.IDB, user *social.User) (*social.User, error) {
			return nil, errors.New("driver: bad connection")
		}

		manager := social.NewCredentialManager(repo, nil)

		_, err := manager.CreateAccountTx(ctx, nil, &social.User{Email: "new@example.com"}, "password123")
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.NotEqual(t, social.TextCodeDuplicateEmail, richErr.TextCode)
		assert.Equal(t, goerrors.CategoryInternal, richErr.Category)
	})
}

func TestCredentialManagerVerifyPassword(t *testing.T) {
	ctx := context.Background()
	manager := social.NewCredentialManager(newStubRepo(), nil)

	hash, err := social.HashPassword("password123")
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		user := &social.User{PasswordHash: hash}
		assert.NoError(t, manager.VerifyPassword(ctx, user, "password123"))
	})

	t.Run("wrong password", func(t *testing.T) {
		user := &social.User{PasswordHash: hash}
		assert.ErrorIs(t, manager.VerifyPassword(ctx, user, "wrong"), social.ErrInvalidCredentials)
	})

	t.Run("nil user", func(t *testing.T) {
		assert.ErrorIs(t, manager.VerifyPassword(ctx, nil, "password123"), social.ErrInvalidCredentials)
	})

	t.Run("empty hash", func(t *testing.T) {
		user := &social.User{}
		assert.ErrorIs(t, manager.VerifyPassword(ctx, user, "password123"), social.ErrInvalidCredentials)
	})
}

func TestCredentialManagerMarkVerified(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("flips the flag", func(t *testing.T) {
		repo := newStubRepo()
		repo.users.getByIdentifier = func(ctx context.Context, identifier string) (*social.User, error) {
			return &social.User{ID: userID, Verified: false}, nil
		}

		marked := false
		repo.users.markVerifiedTx = func(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
			marked = true
			assert.Equal(t, userID, id)
			return nil
		}

		manager := social.NewCredentialManager(repo, nil)

		require.NoError(t, manager.MarkVerifiedTx(ctx, nil, userID))
		assert.True(t, marked)
	})

	t.Run("already verified", func(t *testing.T) {
		repo := newStubRepo()
		repo.users.getByIdentifier = func(ctx context.Context, identifier string) (*social.User, error) {
			return &social.User{ID: userID, Verified: true}, nil
		}

		manager := social.NewCredentialManager(repo, nil)

		assert.ErrorIs(t, manager.MarkVerifiedTx(ctx, nil, userID), social.ErrAlreadyVerified)
	})

	t.Run("unknown account", func(t *testing.T) {
		repo := newStubRepo()
		repo.users.getByIdentifier = func(ctx context.Context, identifier string) (*social.User, error) {
			return nil, repository.NewRecordNotFound()
		}

		manager := social.NewCredentialManager(repo, nil)

		assert.ErrorIs(t, manager.MarkVerifiedTx(ctx, nil, userID), social.ErrIdentityNotFound)
	})
}

func TestCredentialManagerSetPassword(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("rotates the hash", func(t *testing.T) {
		repo := newStubRepo()

		var storedHash string
		repo.users.resetPassword = func(ctx context.Context, id uuid.UUID, passwordHash string) error {
			assert.Equal(t, userID, id)
			storedHash = passwordHash
			return nil
		}

		manager := social.NewCredentialManager(repo, nil)

		require.NoError(t, manager.SetPassword(ctx, userID, "newPassword123"))
		assert.NoError(t, social.ComparePasswordAndHash("newPassword123", storedHash))
	})

	t.Run("unknown account", func(t *testing.T) {
		repo := newStubRepo()
		repo.users.resetPassword = func(ctx context.Context, id uuid.UUID, passwordHash string) error {
			return repository.NewRecordNotFound()
		}

		manager := social.NewCredentialManager(repo, nil)

		assert.ErrorIs(t, manager.SetPassword(ctx, userID, "newPassword123"), social.ErrIdentityNotFound)
	})

	t.Run("empty password", func(t *testing.T) {
		manager := social.NewCredentialManager(newStubRepo(), nil)
		assert.Error(t, manager.SetPassword(ctx, userID, ""))
	})
}
