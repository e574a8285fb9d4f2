// Package session provides Redis-backed persistence for admin back-office
// sessions.
//
// # Encoding
//
// Sessions are stored in Redis as versioned JSON blobs. The payload is small
// (one admin identity plus timestamps) and gets read by operators in
// redis-cli during support work, so legibility wins over compactness here.
// The schema version field exists so a future format change can migrate on
// read.
//
// # Expiry model
//
// Two clocks bound a session: the Redis key TTL carries the idle timeout
// (renewed on every touch when sliding expiration is on), and the ExpiresAt
// field carries the absolute cap that no amount of activity can extend.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Session] model.
// It does NOT interpret JWT tokens or enforce authorization policy — those
// responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import backoffice or jwt (no upward imports).
//   - Perform application-level authorization decisions.
//   - Store plaintext credentials in [Session] fields.
package session
