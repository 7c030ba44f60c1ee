package session

import (
	"context"
	"encoding/json"
	"sync"
)

// Backend persists identities across client restarts.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: Load returns ErrNoSession when nothing is stored for the
//     actor. Delete of a missing session is not an error.
type Backend interface {
	Load(ctx context.Context, actor Actor) (*Identity, error)
	Save(ctx context.Context, id *Identity) error
	Delete(ctx context.Context, actor Actor) error
}

// MemoryBackend keeps identities in process memory. Values are stored
// encoded so callers cannot alias stored state.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[Actor][]byte
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[Actor][]byte)}
}

// Load implements Backend.
func (b *MemoryBackend) Load(_ context.Context, actor Actor) (*Identity, error) {
	b.mu.RLock()
	raw, ok := b.data[actor]
	b.mu.RUnlock()
	if !ok {
		return nil, ErrNoSession
	}
	return decodeIdentity(raw)
}

// Save implements Backend.
func (b *MemoryBackend) Save(_ context.Context, id *Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.data[id.Actor] = raw
	b.mu.Unlock()
	return nil
}

// Delete implements Backend.
func (b *MemoryBackend) Delete(_ context.Context, actor Actor) error {
	b.mu.Lock()
	delete(b.data, actor)
	b.mu.Unlock()
	return nil
}

func decodeIdentity(raw []byte) (*Identity, error) {
	var id Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

var _ Backend = (*MemoryBackend)(nil)
