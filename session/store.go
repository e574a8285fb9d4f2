package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the back-office engine.
var ErrRedisUnavailable = errors.New("redis unavailable")

const minSlidingTTL = time.Second

// Store is a Redis-backed session store handling persistence, idle-timeout
// renewal, and absolute-cap expiration.
//
// Key layout: `<prefix>:s:<sessionID>` holds the session blob with the idle
// TTL; `<prefix>:i:<staffID>` is a set of the staff member's session IDs
// used for revoke-all.
type Store struct {
	redis   redis.UniversalClient
	prefix  string
	sliding bool
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix sets the Redis key namespace; sliding controls whether reads renew
// the idle TTL.
func NewStore(redisClient redis.UniversalClient, prefix string, sliding bool) *Store {
	return &Store{
		redis:   redisClient,
		prefix:  prefix,
		sliding: sliding,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *Store) staffKey(staffID string) string {
	return s.prefix + ":i:" + staffID
}

// Save persists a [Session] to Redis with the given idle TTL and indexes it
// under its staff member.
//
//	Performance: 2 Redis commands in one transaction (SET + SADD).
func (s *Store) Save(ctx context.Context, sess *Session, idleTTL time.Duration) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	ttl := s.boundedTTL(sess, idleTTL, time.Now())
	if ttl <= 0 {
		return fmt.Errorf("%w: session already past absolute expiry", ErrCorruptSession)
	}

	sessionKey := s.key(sess.SessionID)
	staffKey := s.staffKey(sess.StaffID)

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey, data, ttl)
		pipe.SAdd(ctx, staffKey, sess.SessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get retrieves a session by ID without mutating TTL or activity state.
// A missing key or a session past its absolute cap returns [redis.Nil]; the
// expired blob is deleted on the way out.
//
//	Performance: 1 Redis GET on the happy path.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.SessionID = sessionID

	if sess.Expired(time.Now()) {
		if err := s.deleteSessionAndIndex(ctx, sess.StaffID, sessionID); err != nil {
			return nil, err
		}
		return nil, redis.Nil
	}

	return sess, nil
}

// Touch records one activity event: LastActivityAt moves to now and, with
// sliding expiration on, the idle TTL restarts at idleTTL bounded by the
// remaining absolute lifetime. Returns the refreshed session.
//
//	Performance: 1 GET + 1 SET (sliding) or 1 GET (fixed TTL).
func (s *Store) Touch(ctx context.Context, sessionID string, idleTTL time.Duration) (*Session, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess.LastActivityAt = now.Unix()

	if !s.sliding {
		return sess, nil
	}

	ttl := s.boundedTTL(sess, idleTTL, now)
	if ttl <= 0 {
		if err := s.deleteSessionAndIndex(ctx, sess.StaffID, sessionID); err != nil {
			return nil, err
		}
		return nil, redis.Nil
	}

	data, err := Encode(sess)
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, s.key(sessionID), data, ttl).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return sess, nil
}

// Delete removes a session and its index entry. Deleting a session that no
// longer exists is a no-op, not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return err
	}

	return s.deleteSessionAndIndex(ctx, sess.StaffID, sessionID)
}

// DeleteAllForStaff removes every session tracked for a staff member.
//
// ATOMICITY NOTE: this reads the index set (SMEMBERS) and then deletes in a
// transaction. A session created between the read and the delete is not
// captured; it expires naturally or falls to the next call. That window is
// acceptable for revoke-on-password-change, the only caller.
func (s *Store) DeleteAllForStaff(ctx context.Context, staffID string) error {
	staffKey := s.staffKey(staffID)

	sessionIDs, err := s.redis.SMembers(ctx, staffKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sessionKeys := make([]string, 0, len(sessionIDs))
	for _, sessionID := range sessionIDs {
		sessionKeys = append(sessionKeys, s.key(sessionID))
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(sessionKeys) > 0 {
			pipe.Del(ctx, sessionKeys...)
		}
		pipe.Del(ctx, staffKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// ActiveSessionCount returns the number of tracked session IDs for a staff
// member. Stale IDs whose sessions already expired are pruned lazily by
// Delete and Get, so the count is an upper bound.
func (s *Store) ActiveSessionCount(ctx context.Context, staffID string) (int, error) {
	count, err := s.redis.SCard(ctx, s.staffKey(staffID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(count), nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

// boundedTTL caps the idle TTL by the remaining absolute lifetime, with a
// floor of one second so Redis never receives a zero expiry for a live
// session.
func (s *Store) boundedTTL(sess *Session, idleTTL time.Duration, now time.Time) time.Duration {
	ttl := idleTTL
	if sess.ExpiresAt > 0 {
		remaining := time.Unix(sess.ExpiresAt, 0).Sub(now)
		if remaining <= 0 {
			return 0
		}
		if remaining < ttl {
			ttl = remaining
		}
	}
	if ttl > 0 && ttl < minSlidingTTL {
		ttl = minSlidingTTL
	}
	return ttl
}

func (s *Store) deleteSessionAndIndex(ctx context.Context, staffID, sessionID string) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(sessionID))
		pipe.SRem(ctx, s.staffKey(staffID), sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}
