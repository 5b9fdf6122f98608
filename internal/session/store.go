package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arminrs/consent-agreements/internal/model"
)

// ErrNotFound is returned when no live session exists for an id,
// typically because it expired or was destroyed by logout.
var ErrNotFound = errors.New("session not found")

// ErrNoDraft is returned when a wizard step runs without a draft in the
// session, i.e. the caller skipped step 1.
var ErrNoDraft = errors.New("no agreement draft in session")

// Store keeps session state in Redis: the authenticated user id plus
// the in-progress agreement draft accumulated by the wizard. Each
// session is a Redis hash keyed by the SHA-256 of the raw session id
// and expires after ttl of inactivity; every read refreshes the TTL.
// A draft is owned exclusively by its session, so there is no
// cross-session sharing to coordinate.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func key(sid string) string { return "sess:" + HashSessionID(sid) }

// Create opens a new session bound to the given user and returns the
// raw session id for the cookie.
func (s *Store) Create(ctx context.Context, userID string) (string, error) {
	sid, err := NewSessionID()
	if err != nil {
		return "", err
	}
	k := key(sid)
	if err := s.rdb.HSet(ctx, k,
		"user_id", userID,
		"created_at", time.Now().UTC().Format(time.RFC3339),
	).Err(); err != nil {
		return "", err
	}
	if err := s.rdb.Expire(ctx, k, s.ttl).Err(); err != nil {
		return "", err
	}
	return sid, nil
}

// UserID resolves a session id to its authenticated user, refreshing
// the session TTL on the way.
func (s *Store) UserID(ctx context.Context, sid string) (string, error) {
	k := key(sid)
	uid, err := s.rdb.HGet(ctx, k, "user_id").Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	_ = s.rdb.Expire(ctx, k, s.ttl).Err()
	return uid, nil
}

// Destroy removes the session and anything it holds, including any
// in-progress draft.
func (s *Store) Destroy(ctx context.Context, sid string) error {
	return s.rdb.Del(ctx, key(sid)).Err()
}

// saveDraftScript writes the draft field only if the session hash is
// still alive. A plain EXISTS-then-HSET pair could recreate the key as
// a draft-only hash if the session expired between the two commands.
var saveDraftScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'draft', ARGV[1])
redis.call('EXPIRE', KEYS[1], ARGV[2])
return 1
`)

// SaveDraft stores or replaces the session's agreement draft.
func (s *Store) SaveDraft(ctx context.Context, sid string, d model.AgreementDraft) error {
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}
	n, err := saveDraftScript.Run(ctx, s.rdb,
		[]string{key(sid)}, body, int(s.ttl.Seconds())).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Draft loads the session's current draft, or ErrNoDraft when the
// wizard has not been started. Like UserID it refreshes the TTL.
func (s *Store) Draft(ctx context.Context, sid string) (model.AgreementDraft, error) {
	k := key(sid)
	raw, err := s.rdb.HGet(ctx, k, "draft").Result()
	if err == redis.Nil {
		return model.AgreementDraft{}, ErrNoDraft
	}
	if err != nil {
		return model.AgreementDraft{}, err
	}
	var d model.AgreementDraft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return model.AgreementDraft{}, err
	}
	_ = s.rdb.Expire(ctx, k, s.ttl).Err()
	return d, nil
}

// ClearDraft drops the draft while keeping the session alive. Called
// by finalize after the agreement is persisted.
func (s *Store) ClearDraft(ctx context.Context, sid string) error {
	return s.rdb.HDel(ctx, key(sid), "draft").Err()
}
