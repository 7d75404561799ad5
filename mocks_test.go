package social_test

import (
	"context"
	"database/sql"
	"sync"

	"github.com/goliatone/go-repository-bun"
	social "github.com/goliatone/go-social"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockUserTracker implements social.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*social.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*social.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *social.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSucccessfulLogin(ctx context.Context, user *social.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockMailer implements social.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

// MockTokenStore implements social.TokenStore
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Issue(ctx context.Context, purpose social.TokenPurpose, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, purpose, userID)
	return args.String(0), args.Error(1)
}

func (m *MockTokenStore) IssueTx(ctx context.Context, tx bun.IDB, purpose social.TokenPurpose, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, tx, purpose, userID)
	return args.String(0), args.Error(1)
}

func (m *MockTokenStore) Consume(ctx context.Context, purpose social.TokenPurpose, token string) (uuid.UUID, error) {
	args := m.Called(ctx, purpose, token)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}

func (m *MockTokenStore) ConsumeTx(ctx context.Context, tx bun.IDB, purpose social.TokenPurpose, token string) (uuid.UUID, error) {
	args := m.Called(ctx, tx, purpose, token)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}

func (m *MockTokenStore) Validate(ctx context.Context, purpose social.TokenPurpose, token string) (uuid.UUID, error) {
	args := m.Called(ctx, purpose, token)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}

// stubRepo satisfies social.RepositoryManager by embedding it; only
// the accessors the code under test touches are overridden, so a stray
// call into anything else panics loudly.
type stubRepo struct {
	social.RepositoryManager
	users         *stubUsers
	follows       *stubFollows
	notifications *stubNotifications
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:         &stubUsers{},
		follows:       &stubFollows{},
		notifications: &stubNotifications{},
	}
}

func (s *stubRepo) Validate() error { return nil }

func (s *stubRepo) Users() social.Users { return s.users }

func (s *stubRepo) Follows() social.Follows { return s.follows }

func (s *stubRepo) Notifications() social.Notifications { return s.notifications }

// RunInTx executes the callback with a zero Tx. Stubbed repositories
// never touch the handle.
func (s *stubRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

type stubUsers struct {
	social.Users

	getByIdentifier func(ctx context.Context, identifier string) (*social.User, error)
	registerTx      func(ctx context.Context, tx bun.IDB, user *social.User) (*social.User, error)
	markVerifiedTx  func(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	resetPassword   func(ctx context.Context, id uuid.UUID, passwordHash string) error
	hardDelete      func(ctx context.Context, id uuid.UUID) error

	mu          sync.Mutex
	hardDeleted []uuid.UUID
}

func (s *stubUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*social.User, error) {
	return s.getByIdentifier(ctx, identifier)
}

func (s *stubUsers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*social.User, error) {
	return s.getByIdentifier(ctx, identifier)
}

func (s *stubUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *social.User) (*social.User, error) {
	return s.registerTx(ctx, tx, user)
}

func (s *stubUsers) MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	return s.markVerifiedTx(ctx, tx, id)
}

func (s *stubUsers) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return s.resetPassword(ctx, id, passwordHash)
}

func (s *stubUsers) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	return s.resetPassword(ctx, id, passwordHash)
}

func (s *stubUsers) HardDelete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	s.hardDeleted = append(s.hardDeleted, id)
	s.mu.Unlock()
	if s.hardDelete != nil {
		return s.hardDelete(ctx, id)
	}
	return nil
}

type stubFollows struct {
	social.Follows

	createTx       func(ctx context.Context, tx bun.IDB, edge *social.Follow) (*social.Follow, error)
	getByID        func(ctx context.Context, id uuid.UUID) (*social.Follow, error)
	getByPair      func(ctx context.Context, followerID, followingID uuid.UUID) (*social.Follow, error)
	acceptTx       func(ctx context.Context, tx bun.IDB, id uuid.UUID) (*social.Follow, error)
	deleteByPairTx func(ctx context.Context, tx bun.IDB, followerID, followingID uuid.UUID) (*social.Follow, error)
	listFollowers  func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*social.Follow, error)
	listFollowing  func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*social.Follow, error)
	listPendingFor func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*social.Follow, error)
}

func (s *stubFollows) CreateTx(ctx context.Context, tx bun.IDB, edge *social.Follow) (*social.Follow, error) {
	return s.createTx(ctx, tx, edge)
}

func (s *stubFollows) GetByID(ctx context.Context, id uuid.UUID) (*social.Follow, error) {
	return s.getByID(ctx, id)
}

func (s *stubFollows) GetByPair(ctx context.Context, followerID, followingID uuid.UUID) (*social.Follow, error) {
	return s.getByPair(ctx, followerID, followingID)
}

func (s *stubFollows) AcceptTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*social.Follow, error) {
	return s.acceptTx(ctx, tx, id)
}

func (s *stubFollows) DeleteByPair(ctx context.Context, followerID, followingID uuid.UUID) (*social.Follow, error) {
	return s.deleteByPairTx(ctx, nil, followerID, followingID)
}

func (s *stubFollows) DeleteByPairTx(ctx context.Context, tx bun.IDB, followerID, followingID uuid.UUID) (*social.Follow, error) {
	return s.deleteByPairTx(ctx, tx, followerID, followingID)
}

func (s *stubFollows) ListFollowers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*social.Follow, error) {
	return s.listFollowers(ctx, userID, limit, offset)
}

func (s *stubFollows) ListFollowing(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*social.Follow, error) {
	return s.listFollowing(ctx, userID, limit, offset)
}

func (s *stubFollows) ListPendingFor(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*social.Follow, error) {
	return s.listPendingFor(ctx, userID, limit, offset)
}

// stubNotifications records created rows in memory
type stubNotifications struct {
	social.Notifications

	createErr error

	mu      sync.Mutex
	created []*social.Notification
}

func (s *stubNotifications) Create(ctx context.Context, n *social.Notification) (*social.Notification, error) {
	return s.CreateTx(ctx, nil, n)
}

func (s *stubNotifications) CreateTx(ctx context.Context, tx bun.IDB, n *social.Notification) (*social.Notification, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	s.mu.Lock()
	s.created = append(s.created, n)
	s.mu.Unlock()
	return n, nil
}


// capturedEvents collects activity events through an ActivitySinkFunc
type capturedEvents struct {
	mu     sync.Mutex
	events []social.ActivityEvent
}

func (c *capturedEvents) sink() social.ActivitySinkFunc {
	return func(ctx context.Context, event social.ActivityEvent) error {
		c.mu.Lock()
		c.events = append(c.events, event)
		c.mu.Unlock()
		return nil
	}
}

func (c *capturedEvents) types() []social.ActivityEventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]social.ActivityEventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.EventType)
	}
	return out
}

// testConfig implements social.Config
type testConfig struct {
	signingKey string
	issuer     string
	audience   []string
	expiration int
}

func (c testConfig) GetSigningKey() string {
	if c.signingKey == "" {
		return "test-signing-key"
	}
	return c.signingKey
}

func (c testConfig) GetSigningMethod() string { return "HS256" }

func (c testConfig) GetContextKey() string { return "user" }

func (c testConfig) GetTokenExpiration() int {
	if c.expiration == 0 {
		return 1
	}
	return c.expiration
}

func (c testConfig) GetExtendedTokenDuration() int { return 24 }

func (c testConfig) GetTokenLookup() string { return "header:Authorization" }

func (c testConfig) GetAuthScheme() string { return "Bearer" }

func (c testConfig) GetIssuer() string {
	if c.issuer == "" {
		return "test-issuer"
	}
	return c.issuer
}

func (c testConfig) GetAudience() []string { return c.audience }

// stubIdentityProvider implements social.IdentityProvider
type stubIdentityProvider struct {
	verify func(ctx context.Context, identifier, password string) (social.Identity, error)
	find   func(ctx context.Context, identifier string) (social.Identity, error)
}

func (s stubIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (social.Identity, error) {
	return s.verify(ctx, identifier, password)
}

func (s stubIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (social.Identity, error) {
	return s.find(ctx, identifier)
}

// testIdentity implements social.Identity
type testIdentity struct {
	id       string
	username string
	email    string
	role     string
}

func (t testIdentity) ID() string       { return t.id }
func (t testIdentity) Username() string { return t.username }
func (t testIdentity) Email() string    { return t.email }
func (t testIdentity) Role() string     { return t.role }
