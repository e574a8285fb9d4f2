package backoffice

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/brightpixel/backoffice/internal/audit"
)

// StaffStatus represents the lifecycle state of a staff account.
type StaffStatus uint8

const (
	// StaffActive is an exported constant or variable used by the back-office engine.
	StaffActive StaffStatus = iota
	// StaffInactive is an exported constant or variable used by the back-office engine.
	StaffInactive
)

// StaffProvider is the interface callers implement to integrate the engine
// with their staff database. It covers credential lookup, role lookup, and
// password updates. [internal/content.Store] is the gorm-backed production
// implementation.
type StaffProvider interface {
	GetStaffByEmail(ctx context.Context, email string) (StaffRecord, error)
	GetStaffByID(ctx context.Context, staffID string) (StaffRecord, error)
	GetRole(ctx context.Context, staffID string) (RoleRecord, error)
	UpdatePasswordHash(ctx context.Context, staffID, newHash string) error
}

// StaffRecord is the account record returned by [StaffProvider]. It carries
// the credential hash, status, and the super-admin flag the role gate
// checks at login.
type StaffRecord struct {
	StaffID      string
	Email        string
	DisplayName  string
	PasswordHash string
	IsSuperAdmin bool
	Status       StaffStatus
}

// AuthResult is returned by [Engine.Validate]. It identifies the staff
// member and session behind a valid access token.
type AuthResult struct {
	StaffID      string
	Email        string
	SessionID    string
	IsSuperAdmin bool
}

// SessionInfo is the read-only session view returned by
// [Engine.SessionInfo], consumed by the admin UI's session indicator.
type SessionInfo struct {
	SessionID      string
	StaffID        string
	Email          string
	IsSuperAdmin   bool
	CreatedAt      time.Time
	LastActivityAt time.Time
	TimeRemaining  time.Duration
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
