package social

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "account.password_reset_init" }

type InitializePasswordResetResponse struct {
	UserID  string
	Token   string
	Success bool
}

// InitializePasswordResetHandler issues a reset token for a known
// email and mails the link. Unknown emails are reported as not found;
// issuing replaces any earlier outstanding reset token.
type InitializePasswordResetHandler struct {
	repo   RepositoryManager
	tokens TokenStore
	mailer Mailer
	links  LinkBuilder
	logger Logger
}

// NewInitializePasswordResetHandler creates a handler with sane defaults.
func NewInitializePasswordResetHandler(repo RepositoryManager, tokens TokenStore, mailer Mailer) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:   repo,
		tokens: tokens,
		mailer: mailer,
		links:  DefaultLinkBuilder{},
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithLinkBuilder overrides how emailed URLs are rendered.
func (h *InitializePasswordResetHandler) WithLinkBuilder(links LinkBuilder) *InitializePasswordResetHandler {
	if links != nil {
		h.links = links
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	user := &User{}
	token := ""

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var err error

	user, err = h.repo.Users().GetByIdentifier(ctx, NormalizeEmail(event.Email))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrIdentityNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		token, err = h.tokens.IssueTx(ctx, tx, PurposeReset, user.ID)
		return err
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	if err := h.sendResetEmail(ctx, user, token); err != nil {
		return goerrors.Wrap(err, ErrMailDelivery.Category, ErrMailDelivery.Message).
			WithTextCode(ErrMailDelivery.TextCode).
			WithCode(ErrMailDelivery.Code)
	}

	if event.OnResponse != nil {
		event.OnResponse(&InitializePasswordResetResponse{
			UserID:  user.ID.String(),
			Token:   token,
			Success: true,
		})
	}

	return nil
}

func (h *InitializePasswordResetHandler) sendResetEmail(ctx context.Context, user *User, token string) error {
	link := h.links.PasswordResetLink(token)
	body := fmt.Sprintf(
		`<p>Hi %s,</p><p>We received a request to reset your password:</p><p><a href="%s">Reset password</a></p><p>The link expires in 1 hour. If you did not ask for this you can ignore this email.</p>`,
		user.FullName,
		link,
	)
	return h.mailer.Send(ctx, user.Email, "Reset your password", body)
}

type ValidateResetTokenMessage struct {
	Token      string `json:"token"`
	OnResponse func(resp *ValidateResetTokenResponse)
}

func (p ValidateResetTokenMessage) Type() string { return "account.password_reset_validate" }

type ValidateResetTokenResponse struct {
	UserID string
	Valid  bool
}

// ValidateResetTokenHandler checks a reset token without spending it,
// so a reset form can be rendered before the new password arrives.
type ValidateResetTokenHandler struct {
	tokens TokenStore
}

func NewValidateResetTokenHandler(tokens TokenStore) *ValidateResetTokenHandler {
	return &ValidateResetTokenHandler{tokens: tokens}
}

func (h *ValidateResetTokenHandler) Execute(ctx context.Context, event ValidateResetTokenMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during reset token validation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ValidateResetTokenHandler) execute(ctx context.Context, event ValidateResetTokenMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	userID, err := h.tokens.Validate(ctx, PurposeReset, event.Token)
	if err != nil {
		if goerrors.Is(err, ErrInvalidResetToken) {
			if event.OnResponse != nil {
				event.OnResponse(&ValidateResetTokenResponse{Valid: false})
			}
			return ErrInvalidResetToken
		}
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(&ValidateResetTokenResponse{
			UserID: userID.String(),
			Valid:  true,
		})
	}

	return nil
}
