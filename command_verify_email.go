package social

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type VerifyEmailMessage struct {
	Token      string `json:"token"`
	OnResponse func(resp *VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "account.verify_email" }

type VerifyEmailResponse struct {
	UserID  string
	Success bool
}

// VerifyEmailHandler redeems a verification token and flips the
// account's verified flag. Redemption and the flag update share one
// transaction: an already verified account aborts the tx, so the
// token row rolls back unspent.
type VerifyEmailHandler struct {
	repo        RepositoryManager
	credentials CredentialManager
	tokens      TokenStore
	activity    ActivitySink
	logger      Logger
}

// NewVerifyEmailHandler creates a handler with sane defaults.
func NewVerifyEmailHandler(repo RepositoryManager, credentials CredentialManager, tokens TokenStore) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:        repo,
		credentials: credentials,
		tokens:      tokens,
		activity:    noopActivitySink{},
		logger:      defLogger{},
	}
}

// WithActivitySink sets the sink used to emit verification events.
func (h *VerifyEmailHandler) WithActivitySink(sink ActivitySink) *VerifyEmailHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	var userID string

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		id, err := h.tokens.ConsumeTx(ctx, tx, PurposeVerification, event.Token)
		if err != nil {
			return err
		}

		if err := h.credentials.MarkVerifiedTx(ctx, tx, id); err != nil {
			return err
		}

		userID = id.String()
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "email verification transaction failed")
	}

	h.recordActivity(ctx, userID)

	if event.OnResponse != nil {
		event.OnResponse(&VerifyEmailResponse{
			UserID:  userID,
			Success: true,
		})
	}

	return nil
}

func (h *VerifyEmailHandler) recordActivity(ctx context.Context, userID string) {
	event := ActivityEvent{
		EventType: ActivityEventAccountVerified,
		Actor: ActorRef{
			ID:   userID,
			Type: "user",
		},
		UserID:     userID,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during email verification: %v", err)
	}
}
