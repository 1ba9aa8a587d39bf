package storage

import (
	"context"
	"sync"

	"github.com/HelloDanni/billflow/internal/ledger"
)

// MemoryStore holds the serialized snapshot in memory. It goes through the
// same document encoding as the SQLite backend so both produce identical
// persistence behavior, just without a disk.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (ledger.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return decodeSnapshot(ctx, s.docs), nil
}

func (s *MemoryStore) Save(ctx context.Context, snap ledger.Snapshot) error {
	docs, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs = docs
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
