// Package cache memoizes computed dashboard views. Entries are keyed by
// snapshot version so a reload makes every older entry unreachable.
package cache

import (
	"context"
	"strconv"
	"time"

	"wastedash/internal/log"
	"wastedash/internal/metrics"
)

// Cache is the interface satisfied by LRUCache.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Versioned prefixes keys with a snapshot version and counts lookups.
type Versioned[T any] struct {
	cache   Cache[T]
	metrics *metrics.Metrics
}

func NewVersioned[T any](c Cache[T], m *metrics.Metrics) *Versioned[T] {
	return &Versioned[T]{cache: c, metrics: m}
}

func versionKey(version uint64, key string) string {
	return strconv.FormatUint(version, 10) + "|" + key
}

func (v *Versioned[T]) Get(version uint64, key string) (T, bool) {
	data, ok := v.cache.Get(versionKey(version, key))
	v.metrics.CacheLookup(ok)
	return data, ok
}

func (v *Versioned[T]) Set(version uint64, key string, data T) {
	v.cache.Set(versionKey(version, key), data)
}

// GetOrCompute returns the cached value or stores the result of compute.
// Errors are not cached.
func (v *Versioned[T]) GetOrCompute(version uint64, key string, compute func() (T, error)) (T, error) {
	if data, ok := v.Get(version, key); ok {
		return data, nil
	}
	data, err := compute()
	if err != nil {
		return data, err
	}
	v.Set(version, key, data)
	return data, nil
}

func (v *Versioned[T]) Size() int {
	return v.cache.Size()
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically cleans registered caches.
type Manager struct {
	caches []Cleaner
	logger *log.Logger
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{logger: logger.WithComponent(log.ComponentCache)}
}

func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// Clean runs one pass over every cache and returns the number of entries
// removed.
func (m *Manager) Clean() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run cleans every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Clean(); n > 0 {
				m.logger.Debug("Removed expired cache entries", "count", n)
			}
		}
	}
}
