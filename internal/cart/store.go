package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ChocoStore/internal/catalog"
)

// Observer is told about every mutation attempt and its outcome.
type Observer func(op string, err error)

type Option func(*Store)

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observe = o
		}
	}
}

// Store holds the lines of one cart. Every successful mutation is written
// through the Persister and announced to OnChange listeners.
type Store struct {
	mu        sync.Mutex
	key       string
	catalog   *catalog.Catalog
	persister Persister
	log       *zap.Logger
	observe   Observer
	lines     []Line
	listeners []func(itemCount int)
}

// Open restores the cart saved under key. A missing or unreadable snapshot
// yields an empty cart.
func Open(ctx context.Context, key string, cat *catalog.Catalog, p Persister, opts ...Option) *Store {
	s := newStore(key, cat, p, opts)
	lines, err := s.restore(ctx)
	if err != nil {
		s.log.Warn("cart snapshot load failed", zap.String("cart", s.key), zap.Error(err))
	}
	s.lines = lines
	return s
}

// Restore is Open for callers that keep the store around: a persister
// failure is returned instead of being treated as an empty cart, so a
// healthy snapshot is never shadowed by a transient error.
func Restore(ctx context.Context, key string, cat *catalog.Catalog, p Persister, opts ...Option) (*Store, error) {
	s := newStore(key, cat, p, opts)
	lines, err := s.restore(ctx)
	if err != nil {
		return nil, err
	}
	s.lines = lines
	return s, nil
}

func newStore(key string, cat *catalog.Catalog, p Persister, opts []Option) *Store {
	s := &Store{
		key:       key,
		catalog:   cat,
		persister: p,
		log:       zap.NewNop(),
		observe:   func(string, error) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Key() string { return s.key }

// restore treats absent and malformed snapshots as an empty cart. Any other
// load failure is returned.
func (s *Store) restore(ctx context.Context) ([]Line, error) {
	data, err := s.persister.Load(ctx, s.key)
	if errors.Is(err, ErrSnapshotNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", s.key, err)
	}

	lines, err := DecodeSnapshot(data)
	if err != nil {
		s.log.Warn("cart snapshot discarded", zap.String("cart", s.key), zap.Error(err))
		return nil, nil
	}
	return lines, nil
}

func (s *Store) Add(ctx context.Context, id catalog.ProductID, qty int) error {
	return s.mutate(ctx, "add", func(lines []Line) ([]Line, error) {
		if qty < 1 {
			return nil, ErrInvalidQuantity
		}
		if _, ok := s.catalog.FindByID(id); !ok {
			return nil, ErrUnknownProduct
		}

		i := indexOf(lines, id)
		existing := 0
		if i >= 0 {
			existing = lines[i].Quantity
		}
		if existing+qty > s.catalog.StockOf(id) {
			return nil, ErrInsufficientStock
		}

		if i >= 0 {
			lines[i].Quantity += qty
			return lines, nil
		}
		return append(lines, Line{ProductID: id, Quantity: qty}), nil
	})
}

func (s *Store) SetQuantity(ctx context.Context, id catalog.ProductID, qty int) error {
	return s.mutate(ctx, "set", func(lines []Line) ([]Line, error) {
		return s.setQuantity(lines, id, qty)
	})
}

// Increment raises the line by one unit, subject to stock.
func (s *Store) Increment(ctx context.Context, id catalog.ProductID) error {
	return s.mutate(ctx, "increment", func(lines []Line) ([]Line, error) {
		i := indexOf(lines, id)
		if i < 0 {
			return nil, ErrNotInCart
		}
		return s.setQuantity(lines, id, lines[i].Quantity+1)
	})
}

// Decrement lowers the line by one unit. A line at quantity 1 is removed.
func (s *Store) Decrement(ctx context.Context, id catalog.ProductID) error {
	return s.mutate(ctx, "decrement", func(lines []Line) ([]Line, error) {
		i := indexOf(lines, id)
		if i < 0 {
			return nil, ErrNotInCart
		}
		if lines[i].Quantity == 1 {
			return append(lines[:i], lines[i+1:]...), nil
		}
		return s.setQuantity(lines, id, lines[i].Quantity-1)
	})
}

// Remove drops the line for id. Removing an absent product is not an error.
func (s *Store) Remove(ctx context.Context, id catalog.ProductID) error {
	return s.mutate(ctx, "remove", func(lines []Line) ([]Line, error) {
		if i := indexOf(lines, id); i >= 0 {
			return append(lines[:i], lines[i+1:]...), nil
		}
		return lines, nil
	})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", func([]Line) ([]Line, error) {
		return nil, nil
	})
}

// Drain hands the current lines to fn while holding the cart, so nothing can
// be added in between. The cart is emptied only if fn succeeds; otherwise it
// is left as it was and fn's error is returned.
func (s *Store) Drain(ctx context.Context, fn func(lines []Line) error) error {
	return s.mutate(ctx, "drain", func(lines []Line) ([]Line, error) {
		if err := fn(cloneLines(lines)); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

func (s *Store) setQuantity(lines []Line, id catalog.ProductID, qty int) ([]Line, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	i := indexOf(lines, id)
	if i < 0 {
		return nil, ErrNotInCart
	}
	if qty > s.catalog.StockOf(id) {
		return nil, ErrInsufficientStock
	}
	lines[i].Quantity = qty
	return lines, nil
}

// mutate applies fn to a copy of the lines. On success the result replaces
// the cart, is persisted, and listeners receive the new item count.
func (s *Store) mutate(ctx context.Context, op string, fn func([]Line) ([]Line, error)) error {
	s.mu.Lock()

	next, err := fn(cloneLines(s.lines))
	if err != nil {
		s.mu.Unlock()
		s.observe(op, err)
		return err
	}

	s.lines = next
	s.saveLocked(ctx)

	count := itemCount(next)
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	s.observe(op, nil)
	for _, fn := range listeners {
		fn(count)
	}
	return nil
}

func (s *Store) saveLocked(ctx context.Context) {
	data, err := EncodeSnapshot(s.lines)
	if err == nil {
		err = s.persister.Save(ctx, s.key, data)
	}
	if err != nil {
		s.log.Error("cart snapshot save failed", zap.String("cart", s.key), zap.Error(err))
	}
}

// OnChange registers fn to receive the item count after every mutation.
func (s *Store) OnChange(fn func(itemCount int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return itemCount(s.lines)
}

func (s *Store) IsEmpty() bool {
	return s.ItemCount() == 0
}

// Subtotal sums unit price times quantity. Lines whose product has left the
// catalog contribute nothing.
func (s *Store) Subtotal() decimal.Decimal {
	return s.subtotalOf(s.Lines())
}

func (s *Store) Tax() decimal.Decimal {
	return s.Subtotal().Mul(TaxRate)
}

func (s *Store) Total() decimal.Decimal {
	sub := s.Subtotal()
	return sub.Add(sub.Mul(TaxRate))
}

func (s *Store) subtotalOf(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		p, ok := s.catalog.FindByID(l.ProductID)
		if !ok {
			continue
		}
		sum = sum.Add(p.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}
