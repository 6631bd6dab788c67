package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisKeyState is the key under which the Redis store keeps the rate limit state.
const RedisKeyState = "falcon:rate_limit:state"

// Store persists the observed rate limit state. A Get on an empty store
// returns (nil, nil).
type Store interface {
	Get(ctx context.Context) (*State, error)
	Set(ctx context.Context, state *State) error
}

// MemoryStore keeps the state in process memory. This is the default for a
// single client instance.
type MemoryStore struct {
	mu    sync.RWMutex
	state *State
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the stored state, or nil when nothing has been stored yet.
func (s *MemoryStore) Get(_ context.Context) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, nil
	}
	copied := *s.state
	return &copied, nil
}

// Set stores the state.
func (s *MemoryStore) Set(_ context.Context, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *state
	s.state = &copied
	return nil
}

// RedisStore shares the state across client instances via Redis, so every
// process backs off together when the tenant's budget runs low.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a store backed by the given Redis client.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{redis: redisClient}
}

// Get returns the stored state, or nil when the key does not exist.
func (s *RedisStore) Get(ctx context.Context) (*State, error) {
	data, err := s.redis.Get(ctx, RedisKeyState).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse rate limit state: %w", err)
	}
	return &state, nil
}

// Set stores the state with a TTL matching its maximum useful age.
func (s *RedisStore) Set(ctx context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal rate limit state: %w", err)
	}
	if err := s.redis.Set(ctx, RedisKeyState, data, StateMaxAge).Err(); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}
	return nil
}
