package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptSession is returned when a stored session blob cannot be
// decoded.
var ErrCorruptSession = errors.New("corrupt session blob")

// Encode serializes a [Session] for storage. The SessionID is carried in
// the Redis key, never in the blob.
func Encode(sess *Session) ([]byte, error) {
	if sess == nil {
		return nil, fmt.Errorf("%w: nil session", ErrCorruptSession)
	}
	if sess.SchemaVersion == 0 {
		sess.SchemaVersion = CurrentSchemaVersion
	}
	if sess.SchemaVersion > CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: unknown schema version %d", ErrCorruptSession, sess.SchemaVersion)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	return data, nil
}

// Decode parses a stored session blob. The caller fills SessionID from the
// Redis key afterward.
func Decode(data []byte) (*Session, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty blob", ErrCorruptSession)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	if sess.SchemaVersion == 0 || sess.SchemaVersion > CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: unknown schema version %d", ErrCorruptSession, sess.SchemaVersion)
	}
	if sess.StaffID == "" {
		return nil, fmt.Errorf("%w: missing staff id", ErrCorruptSession)
	}

	return &sess, nil
}
