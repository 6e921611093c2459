package antigaming

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryStore is a single-process Store. The LRU bound caps memory when many
// distinct clients submit; evicted keys start over at zero.
type MemoryStore struct {
	mu    sync.Mutex
	cache *lru.Cache[string, Usage]
}

func NewMemoryStore(capacity int) (*MemoryStore, error) {
	cache, err := lru.New[string, Usage](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate-limit cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

func (s *MemoryStore) Peek(_ context.Context, key string) (Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	usage, _ := s.cache.Peek(key)
	return usage, nil
}

func (s *MemoryStore) Reserve(_ context.Context, now time.Time, buckets ...Bucket) ([]Usage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	usages := make([]Usage, len(buckets))
	allowed := true
	for i, b := range buckets {
		usages[i], _ = s.cache.Get(b.Key)
		if usages[i].Blocks(now, b.Limit) {
			allowed = false
		}
	}
	if !allowed {
		return usages, false, nil
	}
	for i, b := range buckets {
		usages[i] = usages[i].next(now, b.Limit)
		s.cache.Add(b.Key, usages[i])
	}
	return usages, true, nil
}
