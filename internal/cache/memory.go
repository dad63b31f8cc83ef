package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value   []byte
	expires time.Time
	tags    []string
}

// Memory is a process-local Cache. Expired entries are dropped lazily.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	byTag   map[string]map[string]struct{}
	gens    map[string]uint64
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory(defaultTTL time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Memory{
		entries: make(map[string]memoryEntry),
		byTag:   make(map[string]map[string]struct{}),
		gens:    make(map[string]uint64),
		ttl:     defaultTTL,
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if m.now().After(e.expires) {
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && !m.now().Before(cur.expires) {
			m.removeLocked(key)
		}
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	return e.value, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ttl <= 0 {
		ttl = m.ttl
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeLocked(key)
	m.entries[key] = memoryEntry{
		value:   value,
		expires: m.now().Add(ttl),
		tags:    tags,
	}
	for _, tag := range tags {
		keys, ok := m.byTag[tag]
		if !ok {
			keys = make(map[string]struct{})
			m.byTag[tag] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, tags ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tag := range tags {
		for key := range m.byTag[tag] {
			m.removeLocked(key)
		}
		delete(m.byTag, tag)
		m.gens[tag]++
	}
	return nil
}

func (m *Memory) Generation(_ context.Context, tag string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gens[tag], nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(key)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	m.byTag = make(map[string]map[string]struct{})
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// removeLocked drops key and its tag links. Caller holds m.mu.
func (m *Memory) removeLocked(key string) {
	e, ok := m.entries[key]
	if !ok {
		return
	}
	delete(m.entries, key)
	for _, tag := range e.tags {
		if keys, ok := m.byTag[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(m.byTag, tag)
			}
		}
	}
}
