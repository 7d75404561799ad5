package social_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	social "github.com/goliatone/go-social"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTokenDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	for _, ddl := range []string{
		`CREATE TABLE email_verification_tokens (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP
		)`,
		`CREATE TABLE password_reset_tokens (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP
		)`,
	} {
		_, err = db.Exec(ddl)
		require.NoError(t, err)
	}

	return db
}

func TestTokenStoreIssueAndConsume(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	for _, purpose := range []social.TokenPurpose{social.PurposeVerification, social.PurposeReset} {
		t.Run(string(purpose), func(t *testing.T) {
			db := setupTokenDB(t)
			store := social.NewTokenStore(db)

			token, err := store.Issue(ctx, purpose, userID)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			// Validate does not spend the token
			got, err := store.Validate(ctx, purpose, token)
			require.NoError(t, err)
			assert.Equal(t, userID, got)

			got, err = store.Consume(ctx, purpose, token)
			require.NoError(t, err)
			assert.Equal(t, userID, got)

			// the token is single use
			_, err = store.Consume(ctx, purpose, token)
			assert.Error(t, err)

			_, err = store.Validate(ctx, purpose, token)
			assert.Error(t, err)
		})
	}
}

func TestTokenStoreInvalidTokens(t *testing.T) {
	ctx := context.Background()
	db := setupTokenDB(t)
	store := social.NewTokenStore(db)

	t.Run("unknown verification token", func(t *testing.T) {
		_, err := store.Consume(ctx, social.PurposeVerification, "does-not-exist")
		assert.ErrorIs(t, err, social.ErrTokenInvalid)
	})

	t.Run("unknown reset token", func(t *testing.T) {
		_, err := store.Consume(ctx, social.PurposeReset, "does-not-exist")
		assert.ErrorIs(t, err, social.ErrInvalidResetToken)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := store.Consume(ctx, social.PurposeVerification, "")
		assert.ErrorIs(t, err, social.ErrTokenInvalid)
	})

	t.Run("purposes are isolated", func(t *testing.T) {
		token, err := store.Issue(ctx, social.PurposeVerification, uuid.New())
		require.NoError(t, err)

		_, err = store.Consume(ctx, social.PurposeReset, token)
		assert.ErrorIs(t, err, social.ErrInvalidResetToken)

		// still spendable for its own purpose
		_, err = store.Consume(ctx, social.PurposeVerification, token)
		assert.NoError(t, err)
	})
}

func TestTokenStoreExpiration(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	now := time.Now()
	clock := func() time.Time { return now }

	t.Run("verification token expires after 24h", func(t *testing.T) {
		db := setupTokenDB(t)
		store := social.NewTokenStore(db, social.WithTokenStoreClock(clock))

		token, err := store.Issue(ctx, social.PurposeVerification, userID)
		require.NoError(t, err)

		now = now.Add(social.VerificationTokenTTL + time.Minute)

		_, err = store.Consume(ctx, social.PurposeVerification, token)
		assert.ErrorIs(t, err, social.ErrTokenInvalid)
	})

	t.Run("token is invalid at the exact expiry instant", func(t *testing.T) {
		db := setupTokenDB(t)
		now = time.Now()
		store := social.NewTokenStore(db, social.WithTokenStoreClock(clock))

		token, err := store.Issue(ctx, social.PurposeVerification, userID)
		require.NoError(t, err)

		// current time == expires_at must already fail
		now = now.Add(social.VerificationTokenTTL)

		_, err = store.Validate(ctx, social.PurposeVerification, token)
		assert.ErrorIs(t, err, social.ErrTokenInvalid)

		_, err = store.Consume(ctx, social.PurposeVerification, token)
		assert.ErrorIs(t, err, social.ErrTokenInvalid)
	})

	t.Run("reset token expires after 1h", func(t *testing.T) {
		db := setupTokenDB(t)
		now = time.Now()
		store := social.NewTokenStore(db, social.WithTokenStoreClock(clock))

		token, err := store.Issue(ctx, social.PurposeReset, userID)
		require.NoError(t, err)

		now = now.Add(social.ResetTokenTTL + time.Minute)

		_, err = store.Validate(ctx, social.PurposeReset, token)
		assert.ErrorIs(t, err, social.ErrInvalidResetToken)

		_, err = store.Consume(ctx, social.PurposeReset, token)
		assert.ErrorIs(t, err, social.ErrInvalidResetToken)
	})
}

func TestTokenStoreMultipleOutstandingTokens(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	db := setupTokenDB(t)
	store := social.NewTokenStore(db)

	// asking twice leaves both links live until their own expiry
	first, err := store.Issue(ctx, social.PurposeReset, userID)
	require.NoError(t, err)

	second, err := store.Issue(ctx, social.PurposeReset, userID)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	got, err := store.Consume(ctx, social.PurposeReset, first)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	got, err = store.Consume(ctx, social.PurposeReset, second)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	// each is still single use
	_, err = store.Consume(ctx, social.PurposeReset, first)
	assert.ErrorIs(t, err, social.ErrInvalidResetToken)
}
