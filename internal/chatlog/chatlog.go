// Package chatlog stores the PRD refinement conversation per document.
package chatlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zulandar/launchpad/internal/logx"
	"github.com/zulandar/launchpad/internal/models"
	"github.com/zulandar/launchpad/internal/redisx"
)

// Log is an append-only chat history keyed by PRD id.
type Log interface {
	Append(ctx context.Context, prdID string, turns ...models.ChatTurn) error
	// Recent returns up to limit of the newest turns, oldest first. A limit
	// of zero or less returns the whole history.
	Recent(ctx context.Context, prdID string, limit int) ([]models.ChatTurn, error)
	Clear(ctx context.Context, prdID string) error
}

// RedisLog keeps each history as a Redis list of JSON turns.
type RedisLog struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisLog creates a RedisLog. The TTL is refreshed on every append.
func NewRedisLog(rdb redis.Cmdable, ttl time.Duration) *RedisLog {
	return &RedisLog{rdb: rdb, ttl: ttl}
}

func key(prdID string) string {
	return "launchpad:prdchat:" + prdID
}

func (r *RedisLog) Append(ctx context.Context, prdID string, turns ...models.ChatTurn) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([]any, len(turns))
	for i, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("chatlog: marshal turn: %w", err)
		}
		values[i] = b
	}

	k := key(prdID)
	if err := r.rdb.RPush(ctx, k, values...).Err(); err != nil {
		logx.Error().Err(err).Str("key", k).Msg("failed to append chat turns")
		return redisx.Wrap(err, "append chat history")
	}
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, k, r.ttl).Result(); err != nil {
			return redisx.Wrap(err, "refresh chat history ttl")
		} else if !ok {
			logx.Warn().Str("key", k).Dur("ttl", r.ttl).Msg("chat history ttl not set")
		}
	}
	return nil
}

func (r *RedisLog) Recent(ctx context.Context, prdID string, limit int) ([]models.ChatTurn, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	k := key(prdID)
	rows, err := r.rdb.LRange(ctx, k, start, -1).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		logx.Error().Err(err).Str("key", k).Msg("failed to load chat history")
		return nil, redisx.Wrap(err, "load chat history")
	}

	turns := make([]models.ChatTurn, 0, len(rows))
	for i, row := range rows {
		var t models.ChatTurn
		if err := json.Unmarshal([]byte(row), &t); err != nil {
			return nil, fmt.Errorf("chatlog: unmarshal turn %d: %w", i, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (r *RedisLog) Clear(ctx context.Context, prdID string) error {
	if err := r.rdb.Del(ctx, key(prdID)).Err(); err != nil {
		return redisx.Wrap(err, "clear chat history")
	}
	return nil
}

// MemoryLog is a process-local Log.
type MemoryLog struct {
	mu    sync.Mutex
	turns map[string][]models.ChatTurn
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{turns: make(map[string][]models.ChatTurn)}
}

func (m *MemoryLog) Append(_ context.Context, prdID string, turns ...models.ChatTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[prdID] = append(m.turns[prdID], turns...)
	return nil
}

func (m *MemoryLog) Recent(_ context.Context, prdID string, limit int) ([]models.ChatTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.turns[prdID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]models.ChatTurn(nil), all...), nil
}

func (m *MemoryLog) Clear(_ context.Context, prdID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, prdID)
	return nil
}
