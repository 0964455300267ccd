// Package ratelimit throttles API traffic with a process-wide token bucket
// and an optional per-client fixed window shared through Redis.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Config controls both limits. A zero GlobalRPS or ClientLimit disables
// that limit.
type Config struct {
	GlobalRPS     float64
	GlobalBurst   int
	ClientLimit   int
	ClientWindow  time.Duration
	RedisAddr     string
	RedisPassword string
	RedisTimeout  time.Duration
}

// Store counts hits per key within a window
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// Limiter applies the global and per-client limits
type Limiter struct {
	global      *rate.Limiter
	clientLimit int
	window      time.Duration
	store       Store
	closer      func() error
}

// New builds a limiter. Per-client counts live in Redis when RedisAddr is
// set and in process memory otherwise.
func New(cfg Config) *Limiter {
	l := newLimiter(cfg)
	if l.clientLimit == 0 {
		return l
	}
	if cfg.RedisAddr != "" {
		timeout := cfg.RedisTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DialTimeout:  timeout,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		})
		l.store = NewRedisStore(client)
		l.closer = client.Close
	} else {
		l.store = NewMemoryStore()
	}
	return l
}

// NewWithStore builds a limiter on an explicit per-client store
func NewWithStore(cfg Config, store Store) *Limiter {
	l := newLimiter(cfg)
	l.store = store
	return l
}

func newLimiter(cfg Config) *Limiter {
	l := &Limiter{
		clientLimit: max(cfg.ClientLimit, 0),
		window:      cfg.ClientWindow,
	}
	if cfg.GlobalRPS > 0 {
		burst := cfg.GlobalBurst
		if burst <= 0 {
			burst = max(int(cfg.GlobalRPS), 1)
		}
		l.global = rate.NewLimiter(rate.Limit(cfg.GlobalRPS), burst)
	}
	if l.window <= 0 {
		l.window = time.Minute
	}
	return l
}

// AllowRequest consumes a token from the global bucket
func (l *Limiter) AllowRequest() bool {
	if l == nil || l.global == nil {
		return true
	}
	return l.global.Allow()
}

// AllowClient counts a hit for key and reports whether it is within the
// per-client limit, with a retry hint when it is not
func (l *Limiter) AllowClient(ctx context.Context, key string) (bool, time.Duration, error) {
	if l == nil || l.clientLimit <= 0 || l.store == nil {
		return true, 0, nil
	}
	if key == "" {
		key = "unknown"
	}
	return l.store.Allow(ctx, "ontology:rl:"+key, l.clientLimit, l.window)
}

// Close releases the Redis client when one was opened
func (l *Limiter) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer()
}

// RedisStore is a fixed-window counter using INCR and EXPIRE
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore wraps a redis client
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		seconds := max(window/time.Second, 1)
		if err := s.client.Expire(ctx, key, seconds*time.Second).Err(); err != nil {
			return false, 0, err
		}
	}
	if count <= int64(limit) {
		return true, 0, nil
	}

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if ttl < 0 {
		return false, window, nil
	}
	return false, ttl, nil
}

// MemoryStore keeps one token bucket per key in process memory
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*clientBucket
	now     func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	every := window / time.Duration(max(limit, 1))

	s.mu.Lock()
	now := s.now()
	b, ok := s.buckets[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Every(every), limit)}
		s.buckets[key] = b
	}
	b.lastSeen = now
	s.cleanupLocked(now, window)
	s.mu.Unlock()

	if b.limiter.AllowN(now, 1) {
		return true, 0, nil
	}
	return false, every, nil
}

func (s *MemoryStore) cleanupLocked(now time.Time, window time.Duration) {
	cutoff := now.Add(-2 * window)
	for key, b := range s.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(s.buckets, key)
		}
	}
}
