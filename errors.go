package social

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeDuplicateEmail     = "EMAIL_EXISTS"
	TextCodeAlreadyVerified    = "ALREADY_VERIFIED"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	TextCodeTokenInvalid       = "TOKEN_INVALID"
	TextCodeResetTokenInvalid  = "RESET_TOKEN_INVALID"
	TextCodeSelfFollow         = "SELF_FOLLOW"
	TextCodeTargetNotFound     = "USER_NOT_FOUND"
	TextCodeAlreadyFollowing   = "ALREADY_FOLLOWING"
	TextCodeNotFollowing       = "NOT_FOLLOWING"
	TextCodeForbidden          = "FORBIDDEN"
	TextCodeNotFound           = "NOT_FOUND"
	TextCodeMailDelivery       = "MAIL_DELIVERY_FAILED"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeTooManyAttempts    = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeInvalidRole        = "INVALID_ROLE"
)

// ErrDuplicateEmail is returned when registering an email that is already taken.
var ErrDuplicateEmail = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeConflict)

// ErrAlreadyVerified is returned when verifying an account twice.
var ErrAlreadyVerified = errors.New("email already verified", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials covers both unknown email and wrong password;
// callers cannot tell the two apart.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrEmailNotVerified is returned on login before the verification token is consumed.
var ErrEmailNotVerified = errors.New("please verify your email before logging in", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeUnauthorized)

// ErrTokenInvalid covers unknown and expired single-use tokens with one message.
var ErrTokenInvalid = errors.New("invalid or expired token", errors.CategoryValidation).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeBadRequest)

// ErrInvalidResetToken is the reset-flow flavor of ErrTokenInvalid.
var ErrInvalidResetToken = errors.New("invalid or expired reset token", errors.CategoryValidation).
	WithTextCode(TextCodeResetTokenInvalid).
	WithCode(errors.CodeBadRequest)

// ErrSelfFollow is returned when an account tries to follow itself.
var ErrSelfFollow = errors.New("you cannot follow yourself", errors.CategoryBadInput).
	WithTextCode(TextCodeSelfFollow).
	WithCode(errors.CodeBadRequest)

// ErrTargetNotFound is returned when the follow target does not exist.
var ErrTargetNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeTargetNotFound).
	WithCode(errors.CodeNotFound)

// ErrAlreadyFollowing is returned when an edge already exists for the ordered pair.
var ErrAlreadyFollowing = errors.New("already following this user", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyFollowing).
	WithCode(errors.CodeConflict)

// ErrNotFollowing is returned when unfollowing a pair with no edge.
var ErrNotFollowing = errors.New("not following this user", errors.CategoryNotFound).
	WithTextCode(TextCodeNotFollowing).
	WithCode(errors.CodeNotFound)

// ErrForbidden is returned when the acting identity lacks rights over the resource.
var ErrForbidden = errors.New("not authorized to perform this action", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrNotFound is returned for absent notifications and follow requests.
var ErrNotFound = errors.New("resource not found", errors.CategoryNotFound).
	WithTextCode(TextCodeNotFound).
	WithCode(errors.CodeNotFound)

// ErrMailDelivery signals the mail collaborator failed; distinguishable
// from validation failures so the facade can compensate.
var ErrMailDelivery = errors.New("mail delivery failed", errors.CategoryOperation).
	WithTextCode(TextCodeMailDelivery).
	WithCode(errors.CodeInternal)

// ErrTokenExpired is returned for session credentials past their expiry.
var ErrTokenExpired = errors.New("session token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for session credentials that fail to parse or verify.
var ErrTokenMalformed = errors.New("session token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned while the cool-down window is active.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryAuth).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword is returned when a password does not match its hash
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrUnableToFindSession is the error when our request has no credential
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode JWT from session credential
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired session tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
