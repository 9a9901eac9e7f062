package order

import (
	"context"
	"sync"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[string]Order
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[string]Order{}}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Create(ctx context.Context, o Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.m[o.Number]; taken {
		return ErrDuplicateNumber
	}
	o.Lines = append([]Line(nil), o.Lines...)
	s.m[o.Number] = o
	return nil
}

func (s *MemStore) GetByNumber(ctx context.Context, number string) (Order, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.m[number]
	if ok {
		o.Lines = append([]Line(nil), o.Lines...)
	}
	return o, ok, nil
}
