// Package middleware exposes the gin admin gate built on top of
// backoffice.Engine validation.
//
// # Guards
//
//   - [AdminGuard] — token + live session + super-admin role, fail-closed.
//
// The guard reads the access token from the Authorization header or the
// session cookie, calls Engine.Validate, and injects the validated result
// into the gin context. Browser navigations that fail the gate are
// redirected to the login page with a redirectedFrom parameter; API
// requests receive a 401 JSON envelope.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.Validate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from Engine.Validate
//     plus the super-admin flag it returns.
package middleware
