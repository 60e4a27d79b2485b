package comparison

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"github.com/redis/go-redis/v9"
)

// StorageKey is the session storage key of the selection.
const StorageKey = "compare.selectedIds"

// Store persists one session's selection.
type Store interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, ids []string) error
}

// MemoryStore keeps a selection in process memory.
type MemoryStore struct {
	mu  sync.Mutex
	ids []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ids), nil
}

func (s *MemoryStore) Save(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = slices.Clone(ids)
	return nil
}

// RedisStore keeps a session's selection in Redis as a JSON array under
// "compare.selectedIds:<session>". Every write refreshes the TTL so the
// selection lives as long as the browsing session.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, sessionID string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		key:    fmt.Sprintf("%s:%s", StorageKey, sessionID),
		ttl:    ttl,
	}
}

func (s *RedisStore) Load(ctx context.Context) ([]string, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrStorageUnavailable, err)
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("%w: corrupt selection: %v", e.ErrStorageUnavailable, err)
	}
	return ids, nil
}

func (s *RedisStore) Save(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		if err := s.client.Del(ctx, s.key).Err(); err != nil {
			return fmt.Errorf("%w: %v", e.ErrStorageUnavailable, err)
		}
		return nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("%w: %v", e.ErrStorageUnavailable, err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", e.ErrStorageUnavailable, err)
	}
	return nil
}

// StoreFactory returns the store backing a session.
type StoreFactory func(sessionID string) Store

// RedisStores backs every session with a RedisStore.
func RedisStores(client redis.UniversalClient, ttl time.Duration) StoreFactory {
	return func(sessionID string) Store {
		return NewRedisStore(client, sessionID, ttl)
	}
}

// MemoryStores backs every session with its own MemoryStore for the lifetime
// of the process.
func MemoryStores() StoreFactory {
	var mu sync.Mutex
	stores := make(map[string]*MemoryStore)
	return func(sessionID string) Store {
		mu.Lock()
		defer mu.Unlock()
		s, ok := stores[sessionID]
		if !ok {
			s = NewMemoryStore()
			stores[sessionID] = s
		}
		return s
	}
}
