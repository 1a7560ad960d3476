package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/tuition-roster/internal/models"
)

// Store persists the identity held in a session slot. Load returns nil and
// no error when the slot is empty.
type Store interface {
	Load(ctx context.Context, key string) (*models.AdminIdentity, error)
	Save(ctx context.Context, key string, identity models.AdminIdentity, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisStore keeps slots as JSON strings in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Load reads and decodes the slot at key.
func (s *RedisStore) Load(ctx context.Context, key string) (*models.AdminIdentity, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get session %s: %w", key, err)
	}
	return decodeIdentity(raw)
}

// Save writes the slot. A zero ttl keeps the slot until it is deleted.
func (s *RedisStore) Save(ctx context.Context, key string, identity models.AdminIdentity, ttl time.Duration) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal session identity: %w", err)
	}
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", key, err)
	}
	return nil
}

// Delete clears the slot.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete session %s: %w", key, err)
	}
	return nil
}

type memoryEntry struct {
	payload []byte
	expires time.Time
}

// MemoryStore keeps slots in process memory. It serves single-instance
// deployments and development without Redis.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Load returns the identity at key unless it has expired.
func (s *MemoryStore) Load(ctx context.Context, key string) (*models.AdminIdentity, error) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if ok && !entry.expires.IsZero() && !s.now().Before(entry.expires) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decodeIdentity(entry.payload)
}

// Save stores the identity as JSON.
func (s *MemoryStore) Save(ctx context.Context, key string, identity models.AdminIdentity, ttl time.Duration) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal session identity: %w", err)
	}
	entry := memoryEntry{payload: payload}
	if ttl > 0 {
		entry.expires = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// Delete removes the slot.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func decodeIdentity(raw []byte) (*models.AdminIdentity, error) {
	var identity models.AdminIdentity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, fmt.Errorf("decode session identity: %w", err)
	}
	return &identity, nil
}
