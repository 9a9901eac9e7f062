package cart

import (
	"context"
	"errors"
	"sync"
)

var ErrSnapshotNotFound = errors.New("cart snapshot not found")

// Persister stores opaque cart snapshots under a key.
type Persister interface {
	Ping(ctx context.Context) error
	Save(ctx context.Context, key string, data []byte) error
	// Load returns ErrSnapshotNotFound when nothing was saved under key.
	Load(ctx context.Context, key string) ([]byte, error)
}

type MemPersister struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemPersister() *MemPersister {
	return &MemPersister{data: make(map[string][]byte)}
}

func (p *MemPersister) Ping(ctx context.Context) error { return nil }

func (p *MemPersister) Save(ctx context.Context, key string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[key] = buf
	return nil
}

func (p *MemPersister) Load(ctx context.Context, key string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	data, ok := p.data[key]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}
