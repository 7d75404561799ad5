package social

import (
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// RouteRegistrar captures the router methods used by the controllers.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// APIController handles the JSON auth, follow, and notification routes.
type APIController struct {
	Logger        Logger
	Repo          RepositoryManager
	Config        Config
	Auther        HTTPAuthenticator
	Relationships RelationshipEngine
	Notifier      NotificationEmitter
	Register      *RegisterAccountHandler
	VerifyEmail   *VerifyEmailHandler
	ResetInit     *InitializePasswordResetHandler
	ResetValidate *ValidateResetTokenHandler
	ResetFinalize *FinalizePasswordResetHandler
}

type APIControllerOption func(*APIController) *APIController

func NewAPIController(opts ...APIControllerOption) *APIController {
	c := &APIController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in api controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in api controller...")
	}

	if c.Config == nil {
		panic("Missing Config in api controller...")
	}

	return c
}

// RegisterAPIRoutes mounts the public auth endpoints and the
// session-protected follow and notification endpoints.
func RegisterAPIRoutes(app RouteRegistrar, c *APIController) {
	app.Post("/auth/register", c.RegistrationCreate)
	app.Post("/auth/login", c.LoginPost)
	app.Post("/auth/logout", c.LogoutPost)
	app.Get("/auth/verify-email/:token", c.VerifyEmailGet)
	app.Post("/auth/forgot-password", c.ForgotPasswordPost)
	app.Get("/auth/reset-password/:token", c.ResetPasswordGet)
	app.Post("/auth/reset-password/:token", c.ResetPasswordPost)

	protected := c.Auther.ProtectedRoute(c.Config, respondError)

	app.Get("/auth/me", c.MeGet, protected)

	app.Post("/users/:id/follow", c.FollowPost, protected)
	app.Delete("/users/:id/follow", c.FollowDelete, protected)
	app.Get("/users/:id/followers", c.FollowersGet, protected)
	app.Get("/users/:id/following", c.FollowingGet, protected)
	app.Post("/follow-requests/:id/accept", c.FollowRequestAccept, protected)
	app.Get("/me/follow-requests", c.FollowRequestsGet, protected)

	app.Get("/me/notifications", c.NotificationsGet, protected)
	app.Get("/me/notifications/unread-count", c.NotificationsUnreadCount, protected)
	app.Post("/me/notifications/:id/read", c.NotificationRead, protected)
	app.Post("/me/notifications/read-all", c.NotificationsReadAll, protected)
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// GetExtendedSession will return the remember flag
func (r LoginRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (c *APIController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(ctx, err)
	}

	if err := c.Auther.Login(ctx, payload); err != nil {
		return respondError(ctx, err)
	}

	token, _ := ctx.Locals("session_token").(string)

	return ctx.JSON(router.StatusOK, map[string]any{
		"token": token,
	})
}

func (c *APIController) LogoutPost(ctx router.Context) error {
	c.Auther.Logout(ctx)
	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "logged out",
	})
}

// RegistrationCreatePayload is the registration body
type RegistrationCreatePayload struct {
	FullName        string `form:"full_name" json:"full_name"`
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	Private         bool   `form:"is_private" json:"is_private"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Username, validation.Length(3, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (c *APIController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		c.Logger.Error("register account parse payload: ", "error", err)
		return respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		c.Logger.Error("register account validate payload: ", "error", err)
		return respondValidationError(ctx, err)
	}

	var res *RegisterAccountResponse

	req := RegisterAccountMessage{
		FullName: payload.FullName,
		Username: payload.Username,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
		Private:  payload.Private,
		OnResponse: func(resp *RegisterAccountResponse) {
			res = resp
		},
	}

	if err := c.Register.Execute(ctx.Context(), req); err != nil {
		c.Logger.Error("register account error: ", "error", err)
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"user":    res.User,
		"message": "Registration successful, please verify your email",
	})
}

func (c *APIController) VerifyEmailGet(ctx router.Context) error {
	token := ctx.Param("token", "")

	req := VerifyEmailMessage{Token: token}

	if err := c.VerifyEmail.Execute(ctx.Context(), req); err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "Email verified",
	})
}

// ForgotPasswordPayload holds the reset request body
type ForgotPasswordPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r ForgotPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

func (c *APIController) ForgotPasswordPost(ctx router.Context) error {
	payload := new(ForgotPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		return respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(ctx, err)
	}

	req := InitializePasswordResetMessage{Email: payload.Email}

	if err := c.ResetInit.Execute(ctx.Context(), req); err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "Password reset email sent",
	})
}

func (c *APIController) ResetPasswordGet(ctx router.Context) error {
	token := ctx.Param("token", "")

	var res *ValidateResetTokenResponse
	req := ValidateResetTokenMessage{
		Token: token,
		OnResponse: func(resp *ValidateResetTokenResponse) {
			res = resp
		},
	}

	if err := c.ResetValidate.Execute(ctx.Context(), req); err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"valid": res.Valid,
	})
}

// ResetPasswordPayload holds the new password
type ResetPasswordPayload struct {
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(10, 100),
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (c *APIController) ResetPasswordPost(ctx router.Context) error {
	token := ctx.Param("token", "")
	payload := new(ResetPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		return respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(ctx, err)
	}

	req := FinalizePasswordResetMessage{
		Token:    token,
		Password: payload.Password,
	}

	if err := c.ResetFinalize.Execute(ctx.Context(), req); err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "Password updated",
	})
}

// MeGet resolves the session into the current account record.
func (c *APIController) MeGet(ctx router.Context) error {
	actorID, err := c.sessionUserID(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	user, err := c.Repo.Users().GetByIdentifier(ctx.Context(), actorID.String())
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": user,
	})
}

func (c *APIController) FollowPost(ctx router.Context) error {
	actorID, err := c.sessionUserID(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	targetID, err := paramUUID(ctx, "id")
	if err != nil {
		return respondError(ctx, err)
	}

	edge, err := c.Relationships.Follow(ctx.Context(), actorID, targetID)
	if err != nil {
		return respondError(ctx, err)
	}

	message := "Following"
	if edge.IsPending() {
		message = "Follow request sent"
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"follow":  edge,
		"message": message,
	})
}

func (c *APIController) FollowDelete(ctx router.Context) error {
	actorID, err := c.sessionUserID(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	targetID, err := paramUUID(ctx, "id")
	if err != nil {
		return respondError(ctx, err)
	}

	if err := c.Relationships.Unfollow(ctx.Context(), actorID, targetID); err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "Unfollowed",
	})
}

func (c *APIController) FollowRequestAccept(ctx router.Context) error {
	actorID, err := c.sessionUserID(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	followID, err := paramUUID(ctx, "id")
	if err != nil {
		return respondError(ctx, err)
	}

	edge, err := c.Relationships.AcceptRequest(ctx.Context(), actorID, followID)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"follow":  edge,
		"message": "Follow request accepted",
	})
}

func (c *APIController) FollowersGet(ctx router.Context) error {
	userID, err := paramUUID(ctx, "id")
	if err != nil {
		return respondError(ctx, err)
	}

	limit, offset := pagination(ctx)

	edges, err := c.Relationships.Followers(ctx.Context(), userID, limit, offset)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"followers": followUsers(edges, func(f *Follow) *User { return f.Follower }),
	})
}

func (c *APIController) FollowingGet(ctx router.Context) error {
	userID, err := paramUUID(ctx, "id")
	if err != nil {
		return respondError(ctx, err)
	}

	limit, offset := pagination(ctx)

	edges, err := c.Relationships.Following(ctx.Context(), userID, limit, offset)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"following": followUsers(edges, func(f *Follow) *User { return f.Following }),
	})
}

func (c *APIController) FollowRequestsGet(ctx router.Context) error {
	actorID, err := c.sessionUserID(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	limit, offset := pagination(ctx)

	edges, err := c.Relationships.PendingRequests(ctx.Context(), actorID, limit, offset)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"requests": edges,
	})
}

func (c *APIController) NotificationsGet(ctx router.Context) error {
	actorID, err := c.sessionUserID(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	limit, offset := pagination(ctx)

	rows, err := c.Notifier.List(ctx.Context(), actorID, limit, offset)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"notifications": rows,
	})
}

func (c *APIController) NotificationsUnreadCount(ctx router.Context) error {
	actorID, err := c.sessionUserID(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	count, err := c.Notifier.CountUnread(ctx.Context(), actorID)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"unread": count,
	})
}

func (c *APIController) NotificationRead(ctx router.Context) error {
	actorID, err := c.sessionUserID(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	id, err := paramUUID(ctx, "id")
	if err != nil {
		return respondError(ctx, err)
	}

	if err := c.Notifier.MarkRead(ctx.Context(), actorID, id); err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "Notification marked as read",
	})
}

func (c *APIController) NotificationsReadAll(ctx router.Context) error {
	actorID, err := c.sessionUserID(ctx)
	if err != nil {
		return respondError(ctx, err)
	}

	updated, err := c.Notifier.MarkAllRead(ctx.Context(), actorID)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"updated": updated,
	})
}

func (c *APIController) sessionUserID(ctx router.Context) (uuid.UUID, error) {
	claims, ok := GetRouterClaims(ctx, c.Config.GetContextKey())
	if !ok {
		return uuid.Nil, ErrUnableToFindSession
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return uuid.Nil, ErrUnableToDecodeSession
	}

	return id, nil
}

func paramUUID(ctx router.Context, name string) (uuid.UUID, error) {
	raw := ctx.Param(name, "")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, goerrors.New("invalid identifier", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{name: raw})
	}
	return id, nil
}

func pagination(ctx router.Context) (int, int) {
	limit, _ := strconv.Atoi(ctx.Query("limit", "50"))
	offset, _ := strconv.Atoi(ctx.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return normalizeLimit(limit), offset
}

func followUsers(edges []*Follow, pick func(*Follow) *User) []*User {
	users := make([]*User, 0, len(edges))
	for _, edge := range edges {
		if u := pick(edge); u != nil {
			users = append(users, u)
		}
	}
	return users
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return fmt.Errorf("values must match")
		}
		return nil
	}
}

// ValidatePhoneNumber accepts empty values and otherwise requires a
// parseable, valid number. Bare national numbers default to US.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return fmt.Errorf("invalid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return fmt.Errorf("invalid phone number")
	}

	return nil
}

func respondValidationError(ctx router.Context, err error) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"error":      "Validation failed",
		"validation": FormatValidationErrorToMap(err),
	})
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	var verrs validation.Errors
	if goerrors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
