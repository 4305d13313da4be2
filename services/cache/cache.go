package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Service is a TTL key/value cache backed by a shared Redis instance when
// reachable, with a permanent in-process fallback otherwise. Backend
// selection is lazy and sticky: the first operation probes Redis once and
// the result holds for the process lifetime. Any error on the Redis path
// degrades that single call to the in-process store; cache operations
// never fail from the caller's perspective.
type Service struct {
	redisURL  string
	opTimeout time.Duration

	probeOnce sync.Once
	client    *redis.Client // nil once the backend is marked unreachable

	mu  sync.RWMutex
	mem map[string]memEntry

	now func() time.Time
}

type memEntry struct {
	expiresAt time.Time
	data      []byte
}

// NewService creates a cache service. An empty redisURL skips the remote
// backend entirely.
func NewService(redisURL string) *Service {
	return &Service{
		redisURL:  redisURL,
		opTimeout: 2 * time.Second,
		mem:       make(map[string]memEntry),
		now:       time.Now,
	}
}

// backend returns the Redis client, probing on first use. A failed probe
// marks the backend unavailable for the rest of the process.
func (s *Service) backend() *redis.Client {
	s.probeOnce.Do(func() {
		if s.redisURL == "" {
			return
		}
		opt, err := redis.ParseURL(s.redisURL)
		if err != nil {
			log.Printf("Invalid Redis URL, falling back to in-memory cache: %v", err)
			return
		}
		client := redis.NewClient(opt)
		ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("Redis unavailable, falling back to in-memory cache: %v", err)
			client.Close()
			return
		}
		s.client = client
	})
	return s.client
}

// Get reads a cached value into dest. Returns false on a miss or an
// expired entry.
func (s *Service) Get(ctx context.Context, key string, dest interface{}) bool {
	if client := s.backend(); client != nil {
		opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
		defer cancel()
		val, err := client.Get(opCtx, key).Bytes()
		if err == nil {
			return json.Unmarshal(val, dest) == nil
		}
		if err == redis.Nil {
			return false
		}
		// Backend error: degrade to the in-process store for this call.
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.mem[key]
	if !ok {
		return false
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.mem, key)
		return false
	}
	return json.Unmarshal(entry.data, dest) == nil
}

// Set stores a value with a TTL. Values round-trip through JSON on both
// backends so a hit behaves identically either way.
func (s *Service) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("Cache set skipped for %s: %v", key, err)
		return
	}

	if client := s.backend(); client != nil {
		opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
		defer cancel()
		if err := client.Set(opCtx, key, data, ttl).Err(); err == nil {
			return
		}
	}

	s.mu.Lock()
	s.mem[key] = memEntry{expiresAt: s.now().Add(ttl), data: data}
	s.mu.Unlock()
}

// Delete removes a key from the cache.
func (s *Service) Delete(ctx context.Context, key string) {
	if client := s.backend(); client != nil {
		opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
		defer cancel()
		if err := client.Del(opCtx, key).Err(); err == nil {
			return
		}
	}

	s.mu.Lock()
	delete(s.mem, key)
	s.mu.Unlock()
}

// Close releases the Redis connection if one was established.
func (s *Service) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
