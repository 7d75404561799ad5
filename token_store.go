package social

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TokenStore issues and redeems single-use expiring tokens for email
// verification and password resets. Redemption deletes the row in the
// same statement that reads it, so two concurrent redeemers cannot
// both succeed.
type TokenStore interface {
	Issue(ctx context.Context, purpose TokenPurpose, userID uuid.UUID) (string, error)
	IssueTx(ctx context.Context, tx bun.IDB, purpose TokenPurpose, userID uuid.UUID) (string, error)
	Consume(ctx context.Context, purpose TokenPurpose, token string) (uuid.UUID, error)
	ConsumeTx(ctx context.Context, tx bun.IDB, purpose TokenPurpose, token string) (uuid.UUID, error)
	Validate(ctx context.Context, purpose TokenPurpose, token string) (uuid.UUID, error)
}

type tokenStore struct {
	db     *bun.DB
	logger Logger
	now    func() time.Time
}

var _ TokenStore = (*tokenStore)(nil)

type TokenStoreOption func(*tokenStore)

// WithTokenStoreClock overrides the clock, for tests.
func WithTokenStoreClock(now func() time.Time) TokenStoreOption {
	return func(s *tokenStore) {
		if now != nil {
			s.now = now
		}
	}
}

func WithTokenStoreLogger(logger Logger) TokenStoreOption {
	return func(s *tokenStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewTokenStore(db *bun.DB, opts ...TokenStoreOption) TokenStore {
	store := &tokenStore{
		db:     db,
		logger: defLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func tokenTTL(purpose TokenPurpose) time.Duration {
	if purpose == PurposeReset {
		return ResetTokenTTL
	}
	return VerificationTokenTTL
}

func (s *tokenStore) Issue(ctx context.Context, purpose TokenPurpose, userID uuid.UUID) (string, error) {
	return s.IssueTx(ctx, s.db, purpose, userID)
}

// IssueTx mints a fresh token without touching earlier ones: a user
// may hold several outstanding tokens, each valid until its own
// expiry. Stale rows are cleared lazily at redemption.
func (s *tokenStore) IssueTx(ctx context.Context, tx bun.IDB, purpose TokenPurpose, userID uuid.UUID) (string, error) {
	token := uuid.NewString()
	now := s.now()
	expiresAt := now.Add(tokenTTL(purpose))

	var err error
	switch purpose {
	case PurposeReset:
		_, err = tx.NewInsert().
			Model(&PasswordResetToken{
				ID:        uuid.New(),
				UserID:    userID,
				Token:     token,
				ExpiresAt: expiresAt,
				CreatedAt: &now,
			}).
			Exec(ctx)
	default:
		_, err = tx.NewInsert().
			Model(&VerificationToken{
				ID:        uuid.New(),
				UserID:    userID,
				Token:     token,
				ExpiresAt: expiresAt,
				CreatedAt: &now,
			}).
			Exec(ctx)
	}

	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to issue token").
			WithMetadata(map[string]any{
				"purpose": string(purpose),
				"user_id": userID.String(),
			})
	}

	return token, nil
}

func (s *tokenStore) Consume(ctx context.Context, purpose TokenPurpose, token string) (uuid.UUID, error) {
	return s.ConsumeTx(ctx, s.db, purpose, token)
}

// ConsumeTx redeems a token exactly once. Unknown and expired tokens
// are indistinguishable to the caller; deleting an expired row here
// doubles as lazy cleanup.
func (s *tokenStore) ConsumeTx(ctx context.Context, tx bun.IDB, purpose TokenPurpose, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, s.invalidError(purpose)
	}

	var userID uuid.UUID
	var expiresAt time.Time
	var err error

	switch purpose {
	case PurposeReset:
		record := &PasswordResetToken{}
		err = tx.NewRaw(
			`DELETE FROM "password_reset_tokens" WHERE "token" = ? RETURNING *`,
			token,
		).Scan(ctx, record)
		userID, expiresAt = record.UserID, record.ExpiresAt
	default:
		record := &VerificationToken{}
		err = tx.NewRaw(
			`DELETE FROM "email_verification_tokens" WHERE "token" = ? RETURNING *`,
			token,
		).Scan(ctx, record)
		userID, expiresAt = record.UserID, record.ExpiresAt
	}

	if err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, s.invalidError(purpose)
		}
		return uuid.Nil, errors.Wrap(err, errors.CategoryInternal, "failed to consume token")
	}

	// a token is dead the instant it reaches its expiry
	if !s.now().Before(expiresAt) {
		s.logger.Debug("token expired at redemption", "purpose", string(purpose), "expired_at", expiresAt)
		return uuid.Nil, s.invalidError(purpose)
	}

	return userID, nil
}

// Validate checks a token without redeeming it, so a reset form can be
// rendered before the user submits a new password.
func (s *tokenStore) Validate(ctx context.Context, purpose TokenPurpose, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, s.invalidError(purpose)
	}

	var userID uuid.UUID
	var expiresAt time.Time
	var err error

	switch purpose {
	case PurposeReset:
		record := &PasswordResetToken{}
		err = s.db.NewSelect().
			Model(record).
			Where("token = ?", token).
			Scan(ctx)
		userID, expiresAt = record.UserID, record.ExpiresAt
	default:
		record := &VerificationToken{}
		err = s.db.NewSelect().
			Model(record).
			Where("token = ?", token).
			Scan(ctx)
		userID, expiresAt = record.UserID, record.ExpiresAt
	}

	if err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, s.invalidError(purpose)
		}
		return uuid.Nil, errors.Wrap(err, errors.CategoryInternal, "failed to validate token")
	}

	if !s.now().Before(expiresAt) {
		return uuid.Nil, s.invalidError(purpose)
	}

	return userID, nil
}

func (s *tokenStore) invalidError(purpose TokenPurpose) error {
	if purpose == PurposeReset {
		return ErrInvalidResetToken
	}
	return ErrTokenInvalid
}
