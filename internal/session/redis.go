package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/quickdeals/pkg/enums"
	"github.com/angelmondragon/quickdeals/pkg/redis"
)

// RedisGuard shares session state across replicas with SET NX locks. The TTL
// frees sessions whose request died without releasing.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration

	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisGuard builds a guard on client.
func NewRedisGuard(client *redis.Client, ttl time.Duration) (*RedisGuard, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisGuard{client: client, ttl: ttl, tokens: map[string]string{}}, nil
}

func (g *RedisGuard) Acquire(ctx context.Context, id string) (bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.client.SessionLockKey(id), token, g.ttl)
	if err != nil {
		return false, fmt.Errorf("acquiring session lock: %w", err)
	}
	if !ok {
		return false, nil
	}
	g.mu.Lock()
	g.tokens[id] = token
	g.mu.Unlock()
	return true, nil
}

func (g *RedisGuard) Release(ctx context.Context, id string) error {
	g.mu.Lock()
	token, ok := g.tokens[id]
	delete(g.tokens, id)
	g.mu.Unlock()
	if !ok {
		return nil
	}
	if _, err := g.client.CompareAndDelete(ctx, g.client.SessionLockKey(id), token); err != nil {
		return fmt.Errorf("releasing session lock: %w", err)
	}
	return nil
}

func (g *RedisGuard) State(ctx context.Context, id string) (enums.SessionState, error) {
	_, err := g.client.Get(ctx, g.client.SessionLockKey(id))
	switch {
	case errors.Is(err, goredis.Nil):
		return enums.SessionStateIdle, nil
	case err != nil:
		return "", fmt.Errorf("reading session lock: %w", err)
	default:
		return enums.SessionStateExecuting, nil
	}
}
