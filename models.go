package social

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is a regular account (follow, post, interact)
	RoleUser UserRole = "user"
	// RoleMonitor is a read-mostly moderation role
	RoleMonitor UserRole = "monitor"
	// RoleAdmin is an administrative role
	RoleAdmin UserRole = "admin"
)

// User is the account model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	FullName       string     `bun:"full_name,notnull" json:"full_name,omitempty"`
	Username       string     `bun:"username,notnull" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	Verified       bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	Private        bool       `bun:"is_private" json:"is_private,omitempty"`
	Bio            string     `bun:"bio" json:"bio,omitempty"`
	Avatar         string     `bun:"avatar" json:"avatar,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// TokenPurpose scopes a single-use token to the flow that issued it
type TokenPurpose = string

const (
	// PurposeVerification tokens confirm account email ownership
	PurposeVerification TokenPurpose = "verification"
	// PurposeReset tokens authorize a password rotation
	PurposeReset TokenPurpose = "reset"
)

const (
	// VerificationTokenTTL is how long an email verification link stays valid
	VerificationTokenTTL = 24 * time.Hour
	// ResetTokenTTL is how long a password reset link stays valid
	ResetTokenTTL = time.Hour
)

// VerificationToken is a single-use email verification record
type VerificationToken struct {
	bun.BaseModel `bun:"table:email_verification_tokens,alias:evt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"token,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// PasswordResetToken is a single-use password reset record
type PasswordResetToken struct {
	bun.BaseModel `bun:"table:password_reset_tokens,alias:prt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"token,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// FollowStatus is the lifecycle state of a follow edge
type FollowStatus = string

const (
	// FollowPending means the target is private and has not accepted yet
	FollowPending FollowStatus = "pending"
	// FollowAccepted means the edge is live
	FollowAccepted FollowStatus = "accepted"
)

// Follow is a directed relationship edge between two accounts.
// At most one edge exists per ordered (follower, following) pair;
// the unique index in the schema is the source of truth.
type Follow struct {
	bun.BaseModel `bun:"table:follows,alias:flw"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FollowerID    uuid.UUID    `bun:"follower_id,notnull,type:uuid" json:"follower_id,omitempty"`
	FollowingID   uuid.UUID    `bun:"following_id,notnull,type:uuid" json:"following_id,omitempty"`
	Follower      *User        `bun:"rel:belongs-to,join:follower_id=id" json:"follower,omitempty"`
	Following     *User        `bun:"rel:belongs-to,join:following_id=id" json:"following,omitempty"`
	Status        FollowStatus `bun:"status,notnull" json:"status,omitempty"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsPending reports whether the edge still awaits acceptance
func (f *Follow) IsPending() bool {
	return f != nil && f.Status == FollowPending
}

// NotificationType enumerates the events that produce notifications
type NotificationType = string

const (
	// NotificationFollow is emitted when an edge is auto-accepted or a request accepted
	NotificationFollow NotificationType = "follow"
	// NotificationFollowRequest is emitted when a private target receives a request
	NotificationFollowRequest NotificationType = "follow_request"
	// NotificationThreadLike is emitted when a thread is liked
	NotificationThreadLike NotificationType = "thread_like"
	// NotificationThreadReply is emitted when a thread receives a reply
	NotificationThreadReply NotificationType = "thread_reply"
)

// Notification is an append-only fact record. Only the read flag is
// ever mutated after creation.
type Notification struct {
	bun.BaseModel   `bun:"table:notifications,alias:ntf"`
	ID              uuid.UUID        `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RecipientID     uuid.UUID        `bun:"recipient_id,notnull,type:uuid" json:"recipient_id,omitempty"`
	SenderID        uuid.UUID        `bun:"sender_id,notnull,type:uuid" json:"sender_id,omitempty"`
	Sender          *User            `bun:"rel:belongs-to,join:sender_id=id" json:"sender,omitempty"`
	Type            NotificationType `bun:"type,notnull" json:"type,omitempty"`
	Message         string           `bun:"message,notnull" json:"message,omitempty"`
	Read            bool             `bun:"is_read" json:"read"`
	RelatedThreadID *uuid.UUID       `bun:"related_thread_id,nullzero,type:uuid" json:"related_thread_id,omitempty"`
	CreatedAt       *time.Time       `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
