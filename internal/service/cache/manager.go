package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"TraderBlock/internal/domain"
	"TraderBlock/internal/domain/models"
	"TraderBlock/internal/domain/repository"
	"TraderBlock/pkg/logger"
)

const DefaultTTL = 30 * time.Minute

// Key builds a cache key from a namespace and a ticker.
func Key(namespace, ticker string) string {
	return strings.ToLower(namespace) + ":" + models.NormalizeTicker(ticker)
}

// record is one snapshot entry. Timestamp is unix seconds.
type record struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

var nullPayload = json.RawMessage("null")

// Manager is a TTL cache of JSON payloads mirrored to a SnapshotStore.
// The in-memory map is authoritative; the store is rewritten in full on
// every mutation.
type Manager struct {
	saveMu  sync.Mutex // orders snapshot writes
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]record
	hits    int64
	misses  int64

	store   repository.SnapshotStore
	log     *logger.Logger
	metrics repository.Metrics
	now     func() time.Time
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithMetrics(r repository.Metrics) Option {
	return func(m *Manager) { m.metrics = r }
}

// NewManager builds a cache and loads the last snapshot from store. A
// missing or unreadable snapshot leaves the cache empty.
func NewManager(ctx context.Context, store repository.SnapshotStore, ttl time.Duration, log *logger.Logger, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		ttl:     ttl,
		entries: make(map[string]record),
		store:   store,
		log:     log,
		now:     time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	m.load(ctx)
	return m
}

func (m *Manager) load(ctx context.Context) {
	if m.store == nil {
		return
	}
	raw, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn("cache snapshot unreadable, starting empty", logger.Error(err))
		return
	}
	if len(raw) == 0 {
		return
	}
	var snap map[string]record
	if err := json.Unmarshal(raw, &snap); err != nil {
		m.log.Warn("cache snapshot corrupt, starting empty", logger.Error(err))
		return
	}
	for k, r := range snap {
		m.entries[k] = r
	}
	m.log.Info("cache snapshot loaded", logger.Int("entries", len(m.entries)))
}

func (m *Manager) valid(r record, ok bool) bool {
	if !ok || len(r.Data) == 0 || bytes.Equal(r.Data, nullPayload) {
		return false
	}
	age := m.now().Unix() - r.Timestamp
	return age < int64(m.ttl/time.Second)
}

// IsValid reports whether key holds a fresh, non-invalidated payload. It
// does not touch the hit/miss counters.
func (m *Manager) IsValid(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entries[key]
	return m.valid(r, ok)
}

// Get returns the payload bytes for key when fresh.
func (m *Manager) Get(key string) (json.RawMessage, bool) {
	m.mu.Lock()
	r, ok := m.entries[key]
	fresh := m.valid(r, ok)
	if fresh {
		m.hits++
	} else {
		m.misses++
	}
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordCacheLookup(namespace(key), fresh)
	}
	if !fresh {
		return nil, false
	}
	return r.Data, true
}

// Peek is Get without the hit/miss accounting, for internal reads that
// should not show up in Stats.
func (m *Manager) Peek(key string) (json.RawMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entries[key]
	if !m.valid(r, ok) {
		return nil, false
	}
	return r.Data, true
}

// Set stores payload under key stamped with the current time and persists
// the snapshot. A returned *domain.PersistenceError leaves the in-memory
// entry in place.
func (m *Manager) Set(ctx context.Context, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return m.put(ctx, key, data)
}

// Invalidate replaces the entry with a null marker so later reads miss.
func (m *Manager) Invalidate(ctx context.Context, key string) error {
	return m.put(ctx, key, nullPayload)
}

func (m *Manager) put(ctx context.Context, key string, data json.RawMessage) error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.mu.Lock()
	m.entries[key] = record{Data: data, Timestamp: m.now().Unix()}
	snap, err := json.Marshal(m.entries)
	m.mu.Unlock()
	if err != nil {
		return &domain.PersistenceError{Op: "save", Err: err}
	}
	if m.store == nil {
		return nil
	}
	if err := m.store.Save(ctx, snap); err != nil {
		return &domain.PersistenceError{Op: "save", Err: err}
	}
	return nil
}

func (m *Manager) Stats() models.CacheStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.CacheStats{Hits: m.hits, Misses: m.misses, CacheSize: len(m.entries)}
}

// Close releases the snapshot store.
func (m *Manager) Close() error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}

func namespace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "default"
}
