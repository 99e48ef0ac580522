package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/findme-orders/internal/redisx"
)

// NotifiedSet remembers which orders were already alerted. Add is a claim:
// it reports true only for the caller that inserted the id.
type NotifiedSet interface {
	Add(ctx context.Context, orderID string) (bool, error)
}

// MemoryNotifiedSet lives as long as the watcher that owns it.
type MemoryNotifiedSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewMemoryNotifiedSet() *MemoryNotifiedSet {
	return &MemoryNotifiedSet{ids: make(map[string]struct{})}
}

func (s *MemoryNotifiedSet) Add(_ context.Context, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[orderID]; ok {
		return false, nil
	}
	s.ids[orderID] = struct{}{}
	return true, nil
}

func (s *MemoryNotifiedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// RedisNotifiedSet shares the set between watcher instances and restarts.
// Keys expire after ttl, which must outlast the alert window.
type RedisNotifiedSet struct {
	rdb       *redis.Client
	namespace string
	ttl       time.Duration
}

func NewRedisNotifiedSet(rdb *redis.Client, namespace string, ttl time.Duration) *RedisNotifiedSet {
	if ttl <= 0 {
		ttl = redisx.TTLExpiryNotified
	}
	return &RedisNotifiedSet{rdb: rdb, namespace: namespace, ttl: ttl}
}

func (s *RedisNotifiedSet) Add(ctx context.Context, orderID string) (bool, error) {
	ok, err := redisx.Claim(ctx, s.rdb, fmt.Sprintf(redisx.KeyExpiryNotified, s.namespace, orderID), s.ttl)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", orderID, err)
	}
	return ok, nil
}
