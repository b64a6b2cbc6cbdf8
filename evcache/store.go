// Package evcache stores expected values keyed by canonical state key.
//
// A Store never fails a read: a missing, unreadable or corrupt entry is a
// miss, and the caller recomputes. Writes may fail; the solver logs and
// carries on.
package evcache

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

type Store interface {
	// Get returns the cached EV for key, if there is a usable one.
	Get(key string) (float64, bool)
	// Put stores ev under key.
	Put(key string, ev float64) error
	Close() error
}

const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindMemory = "memory"
	KindNone   = "none"
)

var ErrUnknownKind = errors.New("unknown cache backend")

// Open creates a store of the given kind. For the file backend path is the
// cache directory; for sqlite it is the database file.
func Open(kind, path string) (Store, error) {
	switch kind {
	case KindFile:
		return NewFileStore(path), nil
	case KindSQLite:
		return OpenSQLiteStore(path)
	case KindMemory:
		return NewMemoryStore(0), nil
	case KindNone, "":
		return NoStore{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// PrepareDir makes sure dir exists. If purge is set any previous contents
// are removed first. This is a process start-up step; the stores themselves
// never create or clear directories.
func PrepareDir(dir string, purge bool) error {
	if purge {
		log.Info().Str("dir", dir).Msg("purging-ev-cache")
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return os.MkdirAll(dir, 0o755)
}

// NoStore caches nothing.
type NoStore struct{}

func (NoStore) Get(string) (float64, bool) { return 0, false }
func (NoStore) Put(string, float64) error  { return nil }
func (NoStore) Close() error               { return nil }

// Stats counts store traffic. All counters are safe for concurrent use.
type Stats struct {
	lookups  atomic.Uint64
	hits     atomic.Uint64
	writes   atomic.Uint64
	failures atomic.Uint64
}

func (s *Stats) Lookups() uint64  { return s.lookups.Load() }
func (s *Stats) Hits() uint64     { return s.hits.Load() }
func (s *Stats) Writes() uint64   { return s.writes.Load() }
func (s *Stats) Failures() uint64 { return s.failures.Load() }

func (s *Stats) Reset() {
	s.lookups.Store(0)
	s.hits.Store(0)
	s.writes.Store(0)
	s.failures.Store(0)
}

func (s *Stats) String() string {
	return fmt.Sprintf("lookups=%d hits=%d writes=%d failures=%d",
		s.Lookups(), s.Hits(), s.Writes(), s.Failures())
}

// Instrumented wraps a Store and counts its traffic.
type Instrumented struct {
	Store
	Stats
	name string
}

func NewInstrumented(name string, s Store) *Instrumented {
	return &Instrumented{Store: s, name: name}
}

func (i *Instrumented) Get(key string) (float64, bool) {
	i.lookups.Add(1)
	ev, ok := i.Store.Get(key)
	if ok {
		i.hits.Add(1)
	}
	return ev, ok
}

func (i *Instrumented) Put(key string, ev float64) error {
	err := i.Store.Put(key, ev)
	if err != nil {
		i.failures.Add(1)
		return err
	}
	i.writes.Add(1)
	return nil
}

func (i *Instrumented) LogStats() {
	log.Info().
		Str("store", i.name).
		Uint64("lookups", i.Lookups()).
		Uint64("hits", i.Hits()).
		Uint64("writes", i.Writes()).
		Uint64("failures", i.Failures()).
		Msg("ev-cache-stats")
}
