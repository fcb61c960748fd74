package repository

import (
	"context"
	"sync"
)

// MemoryStore in-memory key-value хранилище
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Ensure interfaces
var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// held-lock marker, so nested WithLock on the same key does not deadlock
type lockKey struct{ name string }

func isHeld(ctx context.Context, key string) bool {
	v := ctx.Value(lockKey{name: key})
	b, ok := v.(bool)
	return ok && b
}

// KeyedLocker блокировка записи по имени ключа
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*sync.Mutex)}
}

var _ Locker = (*KeyedLocker)(nil)

func (l *KeyedLocker) get(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

func (l *KeyedLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if isHeld(ctx, key) {
		return fn(ctx)
	}
	m := l.get(key)
	m.Lock()
	defer m.Unlock()
	ctx = context.WithValue(ctx, lockKey{name: key}, true)
	return fn(ctx)
}
