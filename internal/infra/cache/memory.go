package cache

import (
	"encoding/json"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	domain "github.com/bryanwahyu/docutrust/internal/domain/documents"
)

const defaultMaxEntries = 4096

type entry struct {
	report    *domain.Report
	cachedAt  time.Time
	sizeBytes int64
}

// Memory is a content-hash-keyed report cache. The LRU bounds memory;
// TTL expiry is checked at read time so a sweep racing a write can never
// resurrect stale data.
type Memory struct {
	store *lru.Cache[string, *entry]
	ttl   time.Duration
	clock domain.Clock
}

// New builds a cache with the given TTL. A zero maxEntries falls back
// to the default bound.
func New(ttl time.Duration, maxEntries int, clock domain.Clock) *Memory {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	store, err := lru.New[string, *entry](maxEntries)
	if err != nil {
		// only reachable with a non-positive size
		panic(err)
	}
	return &Memory{store: store, ttl: ttl, clock: clock}
}

// Get returns the cached report, evicting lazily when the entry aged out.
func (m *Memory) Get(hash string) (*domain.Report, bool) {
	e, ok := m.store.Get(hash)
	if !ok {
		return nil, false
	}
	if m.expired(e) {
		m.store.Remove(hash)
		return nil, false
	}
	return e.report, true
}

// Put stores a report under its content hash.
func (m *Memory) Put(hash string, report *domain.Report) {
	var size int64
	if b, err := json.Marshal(report); err == nil {
		size = int64(len(b))
	} else {
		slog.Warn("cache size estimate failed", "hash", hash, "err", err)
	}
	m.store.Add(hash, &entry{
		report:    report,
		cachedAt:  m.clock.Now(),
		sizeBytes: size,
	})
}

// Invalidate drops one entry, reporting whether it existed.
func (m *Memory) Invalidate(hash string) bool {
	return m.store.Remove(hash)
}

// SweepExpired removes every aged-out entry and returns the count.
func (m *Memory) SweepExpired() int {
	cleared := 0
	for _, k := range m.store.Keys() {
		if e, ok := m.store.Peek(k); ok && m.expired(e) {
			m.store.Remove(k)
			cleared++
		}
	}
	return cleared
}

// Clear drops all entries, expired or not.
func (m *Memory) Clear() int {
	n := m.store.Len()
	m.store.Purge()
	return n
}

// Stats snapshots entry counts and approximate resident bytes.
func (m *Memory) Stats() domain.CacheStats {
	var stats domain.CacheStats
	for _, k := range m.store.Keys() {
		e, ok := m.store.Peek(k)
		if !ok {
			continue
		}
		stats.TotalEntries++
		stats.TotalSizeBytes += e.sizeBytes
		if m.expired(e) {
			stats.ExpiredEntries++
		}
	}
	stats.ActiveEntries = stats.TotalEntries - stats.ExpiredEntries
	return stats
}

func (m *Memory) expired(e *entry) bool {
	return m.clock.Now().Sub(e.cachedAt) > m.ttl
}
