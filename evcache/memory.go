package evcache

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash"
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

const numShards = 64

// rough per-entry cost of a map[string]float64 entry holding a state key.
const approxEntrySize = 160

var ErrStoreFull = errors.New("memory store is full")

type shard struct {
	sync.RWMutex
	m map[string]float64
}

// MemoryStore is an in-process Store. Keys are spread over shards by their
// xxhash so concurrent solvers do not all contend on one lock. Once full,
// new keys are dropped; existing entries are kept.
type MemoryStore struct {
	shards   [numShards]shard
	size     atomic.Int64
	capacity int64
	warned   atomic.Bool
}

// NewMemoryStore creates a store holding at most capacity entries, or no
// limit if capacity is 0.
func NewMemoryStore(capacity int) *MemoryStore {
	m := &MemoryStore{capacity: int64(capacity)}
	for i := range m.shards {
		m.shards[i].m = make(map[string]float64)
	}
	return m
}

// CapacityForMemory returns how many entries fit in the given fraction of
// system memory.
func CapacityForMemory(fractionOfMemory float64) int {
	totalMem := memory.TotalMemory()
	n := int(fractionOfMemory * float64(totalMem) / approxEntrySize)
	log.Debug().
		Uint64("total-system-memory-bytes", totalMem).
		Float64("fraction", fractionOfMemory).
		Int("capacity", n).
		Msg("memory-store-size")
	return n
}

func (m *MemoryStore) shardFor(key string) *shard {
	return &m.shards[xxhash.Sum64String(key)%numShards]
}

func (m *MemoryStore) Get(key string) (float64, bool) {
	s := m.shardFor(key)
	s.RLock()
	defer s.RUnlock()
	ev, ok := s.m[key]
	return ev, ok
}

func (m *MemoryStore) Put(key string, ev float64) error {
	s := m.shardFor(key)
	s.Lock()
	defer s.Unlock()
	if _, ok := s.m[key]; !ok {
		if m.capacity > 0 && m.size.Load() >= m.capacity {
			if !m.warned.Swap(true) {
				log.Warn().Int64("capacity", m.capacity).Msg("memory-store-full")
			}
			return ErrStoreFull
		}
		m.size.Add(1)
	}
	s.m[key] = ev
	return nil
}

func (m *MemoryStore) Len() int {
	return int(m.size.Load())
}

// Reset drops every entry.
func (m *MemoryStore) Reset() {
	for i := range m.shards {
		m.shards[i].Lock()
		clear(m.shards[i].m)
		m.shards[i].Unlock()
	}
	m.size.Store(0)
	m.warned.Store(false)
}

func (m *MemoryStore) Close() error {
	return nil
}
