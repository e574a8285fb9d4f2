// Package audit defines the structured audit event model and the sink
// implementations that consume it.
//
// # Components
//
//   - [Event] — structured audit record with timestamp, type, staff, IP, metadata.
//   - [Sink] — interface for event consumers (channel, JSON writer, no-op).
//
// # Architecture boundaries
//
// This package owns the event shape and sink delivery. It does NOT decide
// which events to emit — that responsibility belongs to the engine.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import the root backoffice package or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
