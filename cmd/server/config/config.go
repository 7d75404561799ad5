package config

import (
	"fmt"
	"time"
)

// BaseConfig is the root application configuration, loaded from
// config files and environment overrides by go-config.
type BaseConfig struct {
	App         App         `json:"app"`
	Auth        Auth        `json:"auth"`
	Persistence Persistence `json:"persistence"`
	Mailer      Mailer      `json:"mailer"`
}

func (c BaseConfig) Validate() error {
	if c.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key is required")
	}
	return nil
}

func (c BaseConfig) GetApp() App {
	return c.App
}

func (c BaseConfig) GetAuth() Auth {
	return c.Auth
}

func (c BaseConfig) GetPersistence() Persistence {
	return c.Persistence
}

func (c BaseConfig) GetMailer() Mailer {
	return c.Mailer
}

// App holds process level options
type App struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	BaseURL string `json:"base_url"`
}

func (a App) GetName() string {
	if a.Name == "" {
		return "social"
	}
	return a.Name
}

func (a App) GetAddress() string {
	if a.Address == "" {
		return ":8572"
	}
	return a.Address
}

func (a App) GetBaseURL() string {
	if a.BaseURL == "" {
		return "http://localhost:8572"
	}
	return a.BaseURL
}

// Auth implements the options the authenticator and the JWT
// middleware expect.
type Auth struct {
	SigningKey            string   `json:"signing_key"`
	SigningMethod         string   `json:"signing_method"`
	ContextKey            string   `json:"context_key"`
	TokenExpiration       int      `json:"token_expiration"`
	ExtendedTokenDuration int      `json:"extended_token_duration"`
	TokenLookup           string   `json:"token_lookup"`
	AuthScheme            string   `json:"auth_scheme"`
	Issuer                string   `json:"issuer"`
	Audience              []string `json:"audience"`
}

func (a Auth) GetSigningKey() string {
	return a.SigningKey
}

func (a Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "user"
	}
	return a.ContextKey
}

// GetTokenExpiration is expressed in hours
func (a Auth) GetTokenExpiration() int {
	if a.TokenExpiration == 0 {
		return 24
	}
	return a.TokenExpiration
}

// GetExtendedTokenDuration is expressed in hours
func (a Auth) GetExtendedTokenDuration() int {
	if a.ExtendedTokenDuration == 0 {
		return 24 * 30
	}
	return a.ExtendedTokenDuration
}

func (a Auth) GetTokenLookup() string {
	if a.TokenLookup == "" {
		return "header:Authorization,cookie:social_session"
	}
	return a.TokenLookup
}

func (a Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

func (a Auth) GetIssuer() string {
	if a.Issuer == "" {
		return "social"
	}
	return a.Issuer
}

func (a Auth) GetAudience() []string {
	return a.Audience
}

// Persistence holds database options
type Persistence struct {
	Driver                string `json:"driver"`
	DSN                   string `json:"dsn"`
	PingTimeoutExpression string `json:"ping_timeout"`
	Debug                 bool   `json:"debug"`
}

func (p Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p Persistence) GetDSN() string {
	if p.DSN == "" {
		return "file::memory:?cache=shared"
	}
	return p.DSN
}

// GetServer satisfies persistence.Config; the connection is opened
// from the DSN so this mirrors GetDSN.
func (p Persistence) GetServer() string {
	return p.GetDSN()
}

// GetOtelIdentifier satisfies persistence.Config; empty disables the
// otel query hook.
func (p Persistence) GetOtelIdentifier() string {
	return ""
}

func (p Persistence) GetDebug() bool {
	return p.Debug
}

func (p Persistence) GetPingTimeout() time.Duration {
	if p.PingTimeoutExpression == "" {
		return 5 * time.Second
	}
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}

// Mailer holds mail delivery options. An empty APIKey selects the
// dev logger mailer instead of SendGrid.
type Mailer struct {
	APIKey    string `json:"api_key"`
	FromEmail string `json:"from_email"`
	FromName  string `json:"from_name"`
}

func (m Mailer) GetAPIKey() string {
	return m.APIKey
}

func (m Mailer) GetFromEmail() string {
	if m.FromEmail == "" {
		return "no-reply@localhost"
	}
	return m.FromEmail
}

func (m Mailer) GetFromName() string {
	if m.FromName == "" {
		return "Social"
	}
	return m.FromName
}
