package store

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryKV keeps entries in process memory. Used for tests and as the
// fallback when no database can be opened.
type MemoryKV struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string]Entry)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[key]
	if e.Value == nil {
		return Entry{Revision: e.Revision}, ErrNotFound
	}
	return Entry{Value: bytes.Clone(e.Value), Revision: e.Revision}, nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte, expect int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.entries[key]
	if expect != AnyRevision && cur.Revision != expect {
		return 0, ErrConflict
	}
	if value == nil {
		value = []byte{}
	}
	next := Entry{Value: bytes.Clone(value), Revision: cur.Revision + 1}
	m.entries[key] = next
	return next.Revision, nil
}

func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		cur, ok := m.entries[key]
		if !ok || cur.Value == nil {
			continue
		}
		m.entries[key] = Entry{Revision: cur.Revision + 1}
	}
	return nil
}

func (m *MemoryKV) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k, e := range m.entries {
		if e.Value != nil && strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

var _ KV = (*MemoryKV)(nil)
