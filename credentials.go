package social

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CredentialManager owns password hashes and the verified flag. The
// cleartext password never leaves this type unhashed.
type CredentialManager interface {
	CreateAccountTx(ctx context.Context, tx bun.IDB, user *User, password string) (*User, error)
	VerifyPassword(ctx context.Context, user *User, password string) error
	MarkVerifiedTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
	SetPassword(ctx context.Context, userID uuid.UUID, password string) error
	SetPasswordTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, password string) error
}

type credentialManager struct {
	repo   RepositoryManager
	logger Logger
}

var _ CredentialManager = (*credentialManager)(nil)

func NewCredentialManager(repo RepositoryManager, logger Logger) CredentialManager {
	if logger == nil {
		logger = defLogger{}
	}
	return &credentialManager{
		repo:   repo,
		logger: logger,
	}
}

// CreateAccountTx hashes the password and inserts the user row. New
// accounts always start unverified regardless of what the caller set.
func (m *credentialManager) CreateAccountTx(ctx context.Context, tx bun.IDB, user *User, password string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid password").
			WithTextCode(TextCodeInvalidCredentials)
	}

	user.PasswordHash = hash
	user.Verified = false

	record, err := m.repo.Users().RegisterTx(ctx, tx, user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Wrap(err, errors.CategoryConflict, "email already registered").
				WithTextCode(TextCodeDuplicateEmail).
				WithMetadata(map[string]any{
					"email": user.Email,
				})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create account")
	}

	return record, nil
}

// isUniqueViolation matches the duplicate-key failures the supported
// dialects report. Anything else is an infrastructure error, not a
// duplicate email.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func (m *credentialManager) VerifyPassword(ctx context.Context, user *User, password string) error {
	if user == nil || user.PasswordHash == "" {
		return ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return errors.Wrap(err, errors.CategoryInternal, "password comparison failed")
	}

	return nil
}

// MarkVerifiedTx flips the verified flag. Re-verifying an already
// verified account is an error so callers can keep the spent token
// from being wasted on a no-op.
func (m *credentialManager) MarkVerifiedTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	user, err := m.repo.Users().GetByIdentifierTx(ctx, tx, userID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrIdentityNotFound
		}
		return err
	}

	if user.Verified {
		return ErrAlreadyVerified
	}

	return m.repo.Users().MarkVerifiedTx(ctx, tx, userID)
}

func (m *credentialManager) SetPassword(ctx context.Context, userID uuid.UUID, password string) error {
	return m.setPassword(ctx, nil, userID, password)
}

func (m *credentialManager) SetPasswordTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, password string) error {
	return m.setPassword(ctx, tx, userID, password)
}

func (m *credentialManager) setPassword(ctx context.Context, tx bun.IDB, userID uuid.UUID, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid password").
			WithTextCode(TextCodeInvalidCredentials)
	}

	rotate := func() error {
		if tx != nil {
			return m.repo.Users().ResetPasswordTx(ctx, tx, userID, hash)
		}
		return m.repo.Users().ResetPassword(ctx, userID, hash)
	}

	if err := rotate(); err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrIdentityNotFound
		}
		return err
	}

	m.logger.Info("password rotated", "user_id", userID.String())

	return nil
}
