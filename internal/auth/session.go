// Package auth provides email/password accounts and bearer sessions. A
// *Session is passed explicitly into every operation that records who acted.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/logx"
	"github.com/zulandar/launchpad/internal/redisx"
)

// Session identifies the acting user.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// System is the session used by scheduled jobs and local CLI commands. It
// records no creator.
func System() *Session {
	return &Session{Email: "system"}
}

// ActorID returns the user id to record as creator; nil sessions act as the
// system.
func (s *Session) ActorID() string {
	if s == nil {
		return ""
	}
	return s.UserID
}

var errNoSession = apperr.New(apperr.Unauthorized, "session expired or invalid").
	WithHint("sign in again")

// SessionStore persists sessions by token.
type SessionStore interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Load(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

// RedisSessionStore keeps sessions as JSON strings with a TTL.
type RedisSessionStore struct {
	rdb redis.Cmdable
}

func NewRedisSessionStore(rdb redis.Cmdable) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func sessionKey(token string) string {
	return "launchpad:session:" + token
}

func (r *RedisSessionStore) Save(ctx context.Context, s *Session, ttl time.Duration) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("auth: marshal session: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKey(s.Token), b, ttl).Err(); err != nil {
		logx.Error().Err(err).Str("user_id", s.UserID).Msg("failed to store session")
		return redisx.Wrap(err, "store session")
	}
	return nil
}

func (r *RedisSessionStore) Load(ctx context.Context, token string) (*Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, errNoSession
	}
	if err != nil {
		logx.Error().Err(err).Msg("failed to load session")
		return nil, redisx.Wrap(err, "load session")
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("auth: unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if err := r.rdb.Del(ctx, sessionKey(token)).Err(); err != nil {
		return redisx.Wrap(err, "delete session")
	}
	return nil
}

// MemorySessionStore is a process-local SessionStore.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session), now: time.Now}
}

func (m *MemorySessionStore) Save(_ context.Context, s *Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	if ttl > 0 {
		cp.ExpiresAt = m.now().Add(ttl)
	}
	m.sessions[s.Token] = cp
	return nil
}

func (m *MemorySessionStore) Load(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, errNoSession
	}
	if !s.ExpiresAt.IsZero() && m.now().After(s.ExpiresAt) {
		delete(m.sessions, token)
		return nil, errNoSession
	}
	return &s, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}
