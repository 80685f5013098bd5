// Package shardmap is a small sharded string-keyed map used wherever a
// lookup table may be read from a hot path concurrently with writes from an
// owning goroutine, grounded on redkit's use of xxhash for fan-out key
// assignment (there used for shard routing, here repurposed as a map
// sharding aid so no single mutex serializes it).
package shardmap

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 16

type shard[V any] struct {
	mu sync.RWMutex
	m  map[string]V
}

// Map is a concurrency-safe string-keyed map split into shardCount
// independently-locked buckets.
type Map[V any] struct {
	shards [shardCount]*shard[V]
}

// New constructs an empty Map.
func New[V any]() *Map[V] {
	m := &Map[V]{}
	for i := range m.shards {
		m.shards[i] = &shard[V]{m: make(map[string]V)}
	}
	return m
}

func (m *Map[V]) shardFor(key string) *shard[V] {
	h := xxhash.Sum64String(key)
	return m.shards[h%uint64(shardCount)]
}

// Get returns the value stored under key, if any.
func (m *Map[V]) Get(key string) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

// Set stores v under key, overwriting any previous value.
func (m *Map[V]) Set(key string, v V) {
	s := m.shardFor(key)
	s.mu.Lock()
	s.m[key] = v
	s.mu.Unlock()
}

// Delete removes key, if present.
func (m *Map[V]) Delete(key string) {
	s := m.shardFor(key)
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
}

// Len returns the total number of entries across all shards.
func (m *Map[V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}

// Range calls fn for every entry, stopping early if fn returns false. The
// iteration order is unspecified and spans shard locks one at a time, so a
// concurrent Set/Delete may or may not be observed by a Range in progress.
func (m *Map[V]) Range(fn func(key string, v V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.m {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}
