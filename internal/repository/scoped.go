package repository

import "context"

// ScopedStore prefixes every key of the underlying store.
type ScopedStore struct {
	next   Store
	prefix string
}

var _ Store = (*ScopedStore)(nil)

func Scoped(next Store, prefix string) *ScopedStore {
	return &ScopedStore{next: next, prefix: prefix}
}

func (s *ScopedStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.next.Get(ctx, s.prefix+key)
}

func (s *ScopedStore) Set(ctx context.Context, key string, value []byte) error {
	return s.next.Set(ctx, s.prefix+key, value)
}

func (s *ScopedStore) Delete(ctx context.Context, key string) error {
	return s.next.Delete(ctx, s.prefix+key)
}
