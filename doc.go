// Package social provides the identity and relationship core of a
// social network backend: account registration with email
// verification, password based login with JWT sessions, password
// resets, follow edges, and the notifications those actions emit.
//
// Accounts and credentials:
//   - CredentialManager owns password hashing (bcrypt) and the email
//     verified flag. Accounts always start unverified; login is gated
//     until a verification token is consumed.
//   - TokenStore issues and consumes the single-use, expiring tokens
//     backing email verification and password resets. Consumption is
//     a single atomic delete-returning statement, so a token can only
//     ever be spent once regardless of concurrent requests.
//
// Sessions:
//   - Auther verifies credentials through an IdentityProvider and
//     mints signed JWTs via TokenService. RouteAuthenticator adapts
//     it to HTTP with cookie handling and the jwtware middleware.
//
// Relationships:
//   - RelationshipEngine manages directed follow edges. Following a
//     private account produces a pending request the target must
//     accept; public accounts accept immediately. Every transition
//     emits a Notification for the affected account in the same
//     transaction that mutates the edge.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther,
//     the command handlers, and the relationship engine to describe
//     login, registration, verification, reset, and follow events.
//     Sinks run best-effort (errors are logged) so you can forward to
//     a database or queue without blocking the main flow.
package social
