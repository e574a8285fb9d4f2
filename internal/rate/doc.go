// Package rate provides the Redis-backed login throttle for the back-office
// engine.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - bl:  — login per-email
//   - bli: — login per-IP
//
// # What this package must NOT do
//
//   - Implement lockout or notification policy (the Engine decides what a
//     limited login means).
//   - Be imported outside the backoffice module.
package rate
