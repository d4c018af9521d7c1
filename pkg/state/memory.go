package state

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps documents in process memory. Documents are stored as
// encoded JSON so Load returns a copy, mirroring the durable stores.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (m *MemoryStore) Load(ctx context.Context, key string, v interface{}) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	m.mu.Lock()
	data, ok := m.docs[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, v)
}

func (m *MemoryStore) Save(ctx context.Context, key string, v interface{}) error {
	if key == "" {
		return ErrEmptyKey
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.docs[key] = data
	m.mu.Unlock()
	return nil
}
