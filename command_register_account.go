package social

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterAccountMessage struct {
	FullName   string `json:"full_name"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	Private    bool   `json:"is_private"`
	UseHashid  bool
	OnResponse func(resp *RegisterAccountResponse)
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

type RegisterAccountResponse struct {
	User    *User
	Token   string
	Success bool
}

// RegisterAccountHandler creates the account, issues a verification
// token, and emails the link. The row only survives if the email went
// out: a delivery failure rolls the registration back by hard deleting
// the user so the address frees up for a retry.
type RegisterAccountHandler struct {
	repo        RepositoryManager
	credentials CredentialManager
	tokens      TokenStore
	mailer      Mailer
	links       LinkBuilder
	activity    ActivitySink
	logger      Logger
}

// NewRegisterAccountHandler creates a handler with sane defaults.
func NewRegisterAccountHandler(repo RepositoryManager, credentials CredentialManager, tokens TokenStore, mailer Mailer) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		repo:        repo,
		credentials: credentials,
		tokens:      tokens,
		mailer:      mailer,
		links:       DefaultLinkBuilder{},
		activity:    noopActivitySink{},
		logger:      defLogger{},
	}
}

// WithActivitySink sets the sink used to emit registration events.
func (h *RegisterAccountHandler) WithActivitySink(sink ActivitySink) *RegisterAccountHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterAccountHandler) WithLogger(logger Logger) *RegisterAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithLinkBuilder overrides how emailed URLs are rendered.
func (h *RegisterAccountHandler) WithLinkBuilder(links LinkBuilder) *RegisterAccountHandler {
	if links != nil {
		h.links = links
	}
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	user := &User{}
	token := ""

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := NormalizeEmail(event.Email)

	if _, err := h.repo.Users().GetByIdentifier(ctx, email); err == nil {
		return ErrDuplicateEmail
	} else if !repository.IsRecordNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user.Email = email
		user.Phone = event.Phone
		user.FullName = event.FullName
		user.Private = event.Private
		user.Username = getUsername(event.Username, email)
		if event.UseHashid {
			if id, err := hashid.NewUUID(email); err == nil {
				user.ID = id
			}
		}

		var err error
		if user, err = h.credentials.CreateAccountTx(ctx, tx, user, event.Password); err != nil {
			return err
		}

		if token, err = h.tokens.IssueTx(ctx, tx, PurposeVerification, user.ID); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	if err := h.sendVerificationEmail(ctx, user, token); err != nil {
		h.compensate(ctx, user)
		return goerrors.Wrap(err, ErrMailDelivery.Category, ErrMailDelivery.Message).
			WithTextCode(ErrMailDelivery.TextCode).
			WithCode(ErrMailDelivery.Code)
	}

	h.recordActivity(ctx, user)

	if event.OnResponse != nil {
		event.OnResponse(&RegisterAccountResponse{
			User:    user,
			Token:   token,
			Success: true,
		})
	}

	return nil
}

func (h *RegisterAccountHandler) sendVerificationEmail(ctx context.Context, user *User, token string) error {
	link := h.links.VerificationLink(token)
	body := fmt.Sprintf(
		`<p>Hi %s,</p><p>Confirm your email address to activate your account:</p><p><a href="%s">Verify email</a></p><p>The link expires in 24 hours.</p>`,
		user.FullName,
		link,
	)
	return h.mailer.Send(ctx, user.Email, "Verify your email", body)
}

// compensate undoes the committed registration after a failed email.
// Hard delete, not soft: a tombstone would keep holding the unique email.
func (h *RegisterAccountHandler) compensate(ctx context.Context, user *User) {
	if err := h.repo.Users().HardDelete(ctx, user.ID); err != nil {
		h.logger.Error("failed to roll back registration after mail failure",
			"error", err,
			"user_id", user.ID.String(),
		)
	}
}

func (h *RegisterAccountHandler) recordActivity(ctx context.Context, user *User) {
	event := ActivityEvent{
		EventType: ActivityEventAccountRegistered,
		Actor: ActorRef{
			ID:   user.ID.String(),
			Type: "user",
		},
		UserID: user.ID.String(),
		Metadata: map[string]any{
			"username": user.Username,
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during registration: %v", err)
	}
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
