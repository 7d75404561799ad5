package social

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (p FinalizePasswordResetMessage) Type() string { return "account.password_reset_finalize" }

// FinalizePasswordResetHandler redeems the reset token and rotates the
// password hash in one transaction. The token is spent even if the
// same link is clicked twice: the second redemption finds no row.
// Only the hash changes; the verified flag is left alone.
type FinalizePasswordResetHandler struct {
	repo        RepositoryManager
	credentials CredentialManager
	tokens      TokenStore
	activity    ActivitySink
	logger      Logger
}

// NewFinalizePasswordResetHandler creates a handler with sane defaults.
func NewFinalizePasswordResetHandler(repo RepositoryManager, credentials CredentialManager, tokens TokenStore) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:        repo,
		credentials: credentials,
		tokens:      tokens,
		activity:    noopActivitySink{},
		logger:      defLogger{},
	}
}

// WithActivitySink sets the sink used to emit password reset events.
func (h *FinalizePasswordResetHandler) WithActivitySink(sink ActivitySink) *FinalizePasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	var userID uuid.UUID

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		id, err := h.tokens.ConsumeTx(ctx, tx, PurposeReset, event.Token)
		if err != nil {
			return err
		}

		if err := h.credentials.SetPasswordTx(ctx, tx, id, event.Password); err != nil {
			return err
		}

		userID = id
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	h.recordActivity(ctx, userID)

	return nil
}

func (h *FinalizePasswordResetHandler) recordActivity(ctx context.Context, userID uuid.UUID) {
	event := ActivityEvent{
		EventType: ActivityEventPasswordResetSuccess,
		Actor: ActorRef{
			ID:   userID.String(),
			Type: "user",
		},
		UserID:     userID.String(),
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during password reset: %v", err)
	}
}
