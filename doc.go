// Package backoffice provides the admin back-office engine for a marketing
// website: Redis-backed admin sessions with JWT access tokens, an inactivity
// watchdog with warning/timeout deadlines, a session lifecycle state machine,
// and partial-failure-tolerant dashboard aggregation.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// backoffice is the public surface. It exposes [Engine], [Builder], [Config],
// [Watchdog], [Lifecycle], [Dashboard], and value types (AuthResult,
// DashboardReport, MetricsSnapshot, etc.). Internal coordination — rate
// limiting, audit dispatch, metric storage — lives under internal/ and is
// never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, gorm handles, or encoding details in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports backoffice (no import cycles).
//
// # Performance contract
//
// Validate is the hot path: every gated admin request passes through it. It is
// allowed one Redis round-trip per call (session load plus sliding renewal in
// the same connection). Login, Logout, and password operations are allowed a
// handful of Redis round-trips each.
package backoffice
