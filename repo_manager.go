package social

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	VerificationTokens() repository.Repository[*VerificationToken]
	PasswordResetTokens() repository.Repository[*PasswordResetToken]
	Follows() Follows
	Notifications() Notifications
}

func NewVerificationTokensRepository(db *bun.DB) repository.Repository[*VerificationToken] {
	handlers := repository.ModelHandlers[*VerificationToken]{
		NewRecord: func() *VerificationToken {
			return &VerificationToken{}
		},
		GetID: func(record *VerificationToken) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *VerificationToken, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "token"
		},
	}
	return repository.NewRepository(db, handlers)
}

func NewPasswordResetTokensRepository(db *bun.DB) repository.Repository[*PasswordResetToken] {
	handlers := repository.ModelHandlers[*PasswordResetToken]{
		NewRecord: func() *PasswordResetToken {
			return &PasswordResetToken{}
		},
		GetID: func(record *PasswordResetToken) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *PasswordResetToken, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "token"
		},
	}
	return repository.NewRepository(db, handlers)
}

type mngr struct {
	db                  *bun.DB
	users               Users
	verificationTokens  repository.Repository[*VerificationToken]
	passwordResetTokens repository.Repository[*PasswordResetToken]
	follows             Follows
	notifications       Notifications
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:                  db,
		users:               NewUsersRepository(db),
		verificationTokens:  NewVerificationTokensRepository(db),
		passwordResetTokens: NewPasswordResetTokensRepository(db),
		follows:             NewFollowsRepository(db),
		notifications:       NewNotificationsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.verificationTokens == nil {
		return errors.New("repository verificationTokens should be initialized")
	}

	if m.passwordResetTokens == nil {
		return errors.New("repository passwordResetTokens should be initialized")
	}

	if m.follows == nil {
		return errors.New("repository follows should be initialized")
	}

	if m.notifications == nil {
		return errors.New("repository notifications should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) VerificationTokens() repository.Repository[*VerificationToken] {
	return m.verificationTokens
}

func (m mngr) PasswordResetTokens() repository.Repository[*PasswordResetToken] {
	return m.passwordResetTokens
}

func (m mngr) Follows() Follows {
	return m.follows
}

func (m mngr) Notifications() Notifications {
	return m.notifications
}
