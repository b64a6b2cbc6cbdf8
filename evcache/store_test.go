package evcache

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleKey = "[c=49cbji=[3-4-4-4-3-4-4-4-3-16]h=[0-8]d=[4]s=false]"

func roundTrip(t *testing.T, s Store) {
	t.Helper()
	_, ok := s.Get(sampleKey)
	assert.False(t, ok)

	for i, ev := range []float64{-1.0, 1.5, 0.0, -0.3141592653589793} {
		key := sampleKey + string(rune('a'+i))
		require.NoError(t, s.Put(key, ev))
		got, ok := s.Get(key)
		require.True(t, ok)
		assert.Equal(t, math.Float64bits(ev), math.Float64bits(got))
	}
	// overwrite
	require.NoError(t, s.Put(sampleKey, 0.25))
	require.NoError(t, s.Put(sampleKey, -0.5))
	got, ok := s.Get(sampleKey)
	require.True(t, ok)
	assert.Equal(t, -0.5, got)
}

func TestFileStoreRoundTrip(t *testing.T) {
	roundTrip(t, NewFileStore(t.TempDir()))
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	roundTrip(t, NewMemoryStore(0))
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "ev.db"))
	require.NoError(t, err)
	defer s.Close()
	roundTrip(t, s)
	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	require.NoError(t, s.Put(sampleKey, 1.5))
	b, err := os.ReadFile(filepath.Join(dir, sampleKey+".data"))
	require.NoError(t, err)
	assert.Equal(t, EncodeEV(1.5), b)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	// no temp files are left behind
	assert.Len(t, entries, 1)
}

func TestFileStoreCorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, sampleKey+".data"), []byte{1, 2, 3}, 0o644))
	_, ok := s.Get(sampleKey)
	assert.False(t, ok)

	// an unreadable entry (a directory with the entry's name) is also a miss
	require.NoError(t, os.Mkdir(filepath.Join(dir, "x.data"), 0o755))
	_, ok = s.Get("x")
	assert.False(t, ok)
}

func TestFileStoreMissingDir(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist"))
	_, ok := s.Get(sampleKey)
	assert.False(t, ok)
	assert.Error(t, s.Put(sampleKey, 1.0))
}

func TestPrepareDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bin")
	require.NoError(t, PrepareDir(dir, false))
	s := NewFileStore(dir)
	require.NoError(t, s.Put(sampleKey, 1.0))

	require.NoError(t, PrepareDir(dir, false))
	_, ok := s.Get(sampleKey)
	assert.True(t, ok)

	require.NoError(t, PrepareDir(dir, true))
	_, ok = s.Get(sampleKey)
	assert.False(t, ok)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryStoreCapacity(t *testing.T) {
	m := NewMemoryStore(2)
	require.NoError(t, m.Put("a", 1))
	require.NoError(t, m.Put("b", 2))
	assert.True(t, errors.Is(m.Put("c", 3), ErrStoreFull))
	// existing keys can still be overwritten
	require.NoError(t, m.Put("a", 4))
	ev, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 4.0, ev)
	assert.Equal(t, 2, m.Len())

	m.Reset()
	assert.Equal(t, 0, m.Len())
	require.NoError(t, m.Put("c", 3))
}

func TestMemoryStoreConcurrent(t *testing.T) {
	m := NewMemoryStore(0)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := string(rune('a'+i%26)) + string(rune('A'+w))
				_ = m.Put(key, float64(i))
				m.Get(key)
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 26*8, m.Len())
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{KindFile, KindMemory, KindNone} {
		s, err := Open(kind, dir)
		require.NoError(t, err)
		require.NoError(t, s.Close())
	}
	s, err := Open(KindSQLite, filepath.Join(dir, "ev.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open("redis", dir)
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestInstrumented(t *testing.T) {
	s := NewInstrumented("test", NewMemoryStore(1))
	s.Get("a")
	require.NoError(t, s.Put("a", 1))
	s.Get("a")
	assert.Error(t, s.Put("b", 1))
	assert.Equal(t, uint64(2), s.Lookups())
	assert.Equal(t, uint64(1), s.Hits())
	assert.Equal(t, uint64(1), s.Writes())
	assert.Equal(t, uint64(1), s.Failures())
	assert.Equal(t, "lookups=2 hits=1 writes=1 failures=1", s.Stats.String())
}
