// Package authclient is the session and role based authorization core of the
// character catalog admin client.
//
// Session:
//   - Store owns the single current Identity. It is restored from durable
//     Storage at startup (file, sqlite or redis backed), persisted on every
//     change and replayed to subscribers, first with the current value and
//     then on every change.
//
// Credentials:
//   - Gateway talks to the auth service (login, register, reset password,
//     update account) and writes successful outcomes into the Store. Failures
//     are go-errors values carrying a text code and, when the service supplied
//     one, a human readable reason.
//   - BearerTransport attaches the session token to other catalog calls and
//     ends the session when the token is rejected.
//
// Authorization:
//   - Capabilities derive from the role: USER is authenticated, EMPLOYEE is
//     admin-class, ADMIN is admin-only. Guards are pure predicates over the
//     current identity and the RouteTable binds paths to the capability they
//     require. Navigator follows guard redirects and enters the final view.
//
// Re-authentication:
//   - ReauthFlow keeps sensitive screens Unverified until the current password
//     is checked again. AccountSettings drives it for username, email and
//     password changes.
package authclient
