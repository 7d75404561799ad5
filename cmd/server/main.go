package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	social "github.com/goliatone/go-social"
	"github.com/goliatone/go-social/cmd/server/config"
	"github.com/goliatone/go-social/mailer"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// App carries the wired application components
type App struct {
	config *gconfig.Container[*config.BaseConfig]
	bunDB  *bun.DB
	repo   social.RepositoryManager
	auth   social.Authenticator
	auther social.HTTPAuthenticator
	mailer social.Mailer
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Debug),
		glog.WithName("social"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	WithMailer(app)

	if err := WithAuth(ctx, app); err != nil {
		panic(err)
	}

	WithHTTPServer(app)

	RegisterRoutes(app)

	app.srv.Serve(app.Config().GetApp().GetAddress())

	WaitExitSignal()
}

// WaitExitSignal blocks until an interrupt or termination signal arrives
func WaitExitSignal() os.Signal {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	return <-sigs
}

// WithPersistence opens the database, runs migrations, and builds
// the repository manager.
func WithPersistence(ctx context.Context, app *App) error {
	pcfg := app.Config().GetPersistence()

	db, err := sql.Open(sqliteshim.ShimName, pcfg.GetDSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*social.User)(nil))
	persistence.RegisterModel((*social.VerificationToken)(nil))
	persistence.RegisterModel((*social.PasswordResetToken)(nil))
	persistence.RegisterModel((*social.Follow)(nil))
	persistence.RegisterModel((*social.Notification)(nil))

	client, err := persistence.New(pcfg, db, sqlitedialect.New())
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(social.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = social.NewRepositoryManager(client.DB())

	return app.repo.Validate()
}

// WithMailer selects SendGrid when an API key is configured, the
// logging mailer otherwise.
func WithMailer(app *App) {
	mcfg := app.Config().GetMailer()
	if mcfg.GetAPIKey() == "" {
		app.mailer = mailer.NewDevLogMailer(app.GetLogger("mailer"))
		return
	}
	app.mailer = mailer.NewSendGridMailer(
		mcfg.GetAPIKey(),
		mcfg.GetFromEmail(),
		mcfg.GetFromName(),
	)
}

type userTrackerAdapter struct {
	users social.Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*social.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *social.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSucccessfulLogin(ctx context.Context, user *social.User) error {
	return a.users.TrackSucccessfulLogin(ctx, user)
}

// WithAuth wires the identity provider, the authenticator, and the
// HTTP session layer.
func WithAuth(ctx context.Context, app *App) error {
	acfg := app.Config().GetAuth()

	provider := social.NewUserProvider(userTrackerAdapter{users: app.repo.Users()})
	provider.WithLogger(app.GetLogger("auth:prv"))

	authenticator := social.NewAuthenticator(provider, acfg)
	authenticator.WithLogger(app.GetLogger("auth:authn"))

	app.auth = authenticator

	auther, err := social.NewHTTPAuthenticator(authenticator, acfg)
	if err != nil {
		return err
	}

	app.auther = auther

	return nil
}

// WithHTTPServer builds the fiber backed router
func WithHTTPServer(app *App) {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
			AppName:       app.Config().GetApp().GetName(),
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	app.srv = srv
}

// RegisterRoutes builds the domain services and mounts the API
func RegisterRoutes(app *App) {
	acfg := app.Config().GetAuth()
	baseURL := app.Config().GetApp().GetBaseURL()

	links := social.DefaultLinkBuilder{BaseURL: baseURL}

	tokens := social.NewTokenStore(app.bunDB,
		social.WithTokenStoreLogger(app.GetLogger("tokens")),
	)

	credentials := social.NewCredentialManager(app.repo, app.GetLogger("credentials"))

	notifier := social.NewNotificationEmitter(app.repo, app.GetLogger("notifier"))

	relationships := social.NewRelationshipEngine(app.repo, notifier,
		social.WithRelationshipLogger(app.GetLogger("relationships")),
	)

	register := social.NewRegisterAccountHandler(app.repo, credentials, tokens, app.mailer).
		WithLinkBuilder(links).
		WithLogger(app.GetLogger("register"))

	verify := social.NewVerifyEmailHandler(app.repo, credentials, tokens).
		WithLogger(app.GetLogger("verify"))

	resetInit := social.NewInitializePasswordResetHandler(app.repo, tokens, app.mailer).
		WithLinkBuilder(links).
		WithLogger(app.GetLogger("reset"))

	resetValidate := social.NewValidateResetTokenHandler(tokens)

	resetFinalize := social.NewFinalizePasswordResetHandler(app.repo, credentials, tokens).
		WithLogger(app.GetLogger("reset"))

	controller := social.NewAPIController(func(c *social.APIController) *social.APIController {
		c.Logger = app.GetLogger("api")
		c.Repo = app.repo
		c.Config = acfg
		c.Auther = app.auther
		c.Relationships = relationships
		c.Notifier = notifier
		c.Register = register
		c.VerifyEmail = verify
		c.ResetInit = resetInit
		c.ResetValidate = resetValidate
		c.ResetFinalize = resetFinalize
		return c
	})

	social.RegisterAPIRoutes(app.srv.Router(), controller)
}
