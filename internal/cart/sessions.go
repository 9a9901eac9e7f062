package cart

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"ChocoStore/internal/catalog"
)

const (
	DefaultMaxSessions = 10000

	loadTimeout = 3 * time.Second
)

// Limits bounds the stores kept in memory. Every change is written through
// to the persister, so an evicted store is simply reloaded on its next use.
type Limits struct {
	MaxSessions int
	// IdleTTL drops stores not touched for this long. Zero keeps them until
	// they are pushed out by MaxSessions.
	IdleTTL time.Duration
}

// Sessions hands out one Store per cart session, restoring it from the
// persister the first time the session is seen.
type Sessions struct {
	mu        sync.Mutex
	catalog   *catalog.Catalog
	persister Persister
	opts      []Option
	stores    *expirable.LRU[string, *Store]
}

func NewSessions(cat *catalog.Catalog, p Persister, limits Limits, opts ...Option) *Sessions {
	size := limits.MaxSessions
	if size <= 0 {
		size = DefaultMaxSessions
	}
	return &Sessions{
		catalog:   cat,
		persister: p,
		opts:      opts,
		stores:    expirable.NewLRU[string, *Store](size, nil, limits.IdleTTL),
	}
}

// Get returns the store for id. A persister failure is returned and nothing
// is cached, so the next call retries the load. The load is detached from
// ctx cancellation so a client hanging up cannot abort it half way.
func (r *Sessions) Get(ctx context.Context, id string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores.Get(id); ok {
		r.stores.Add(id, s)
		return s, nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
	defer cancel()

	s, err := Restore(ctx, id, r.catalog, r.persister, r.opts...)
	if err != nil {
		return nil, err
	}
	r.stores.Add(id, s)
	return s, nil
}

func (r *Sessions) Len() int {
	return r.stores.Len()
}
