package cart_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChocoStore/internal/cart"
	"ChocoStore/internal/catalog"
	"ChocoStore/pkg/money"
)

const (
	trufas   = catalog.ProductID("trufas")
	tabletas = catalog.ProductID("tabletas")
	bombones = catalog.ProductID("bombones")
	regalo   = catalog.ProductID("regalo")
)

func newStore(t *testing.T) (*cart.Store, *cart.MemPersister) {
	t.Helper()
	p := cart.NewMemPersister()
	return cart.Open(context.Background(), "test", catalog.Default(), p), p
}

func snapshot(t *testing.T, p *cart.MemPersister) []byte {
	t.Helper()
	data, err := p.Load(context.Background(), "test")
	require.NoError(t, err)
	return data
}

func TestStore_AddThreeTrufas(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Add(ctx, trufas, 1))
	}

	assert.Equal(t, []cart.Line{{ProductID: trufas, Quantity: 3}}, s.Lines())
	assert.Equal(t, 3, s.ItemCount())
	assert.True(t, s.Subtotal().Equal(money.MustParse("3.00")))
	assert.True(t, s.Tax().Equal(money.MustParse("0.45")))
	assert.True(t, s.Total().Equal(money.MustParse("3.45")))
}

func TestStore_AddOutOfStockProduct(t *testing.T) {
	s, p := newStore(t)

	err := s.Add(context.Background(), bombones, 1)
	assert.ErrorIs(t, err, cart.ErrInsufficientStock)
	assert.Empty(t, s.Lines())

	_, err = p.Load(context.Background(), "test")
	assert.ErrorIs(t, err, cart.ErrSnapshotNotFound)
}

func TestStore_AddValidation(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Add(ctx, trufas, 0), cart.ErrInvalidQuantity)
	assert.ErrorIs(t, s.Add(ctx, trufas, -2), cart.ErrInvalidQuantity)
	assert.ErrorIs(t, s.Add(ctx, "unicornio", 1), cart.ErrUnknownProduct)
	assert.ErrorIs(t, s.Add(ctx, tabletas, 6), cart.ErrInsufficientStock)
	assert.Empty(t, s.Lines())
}

// Adding to an existing line is bounded by the same stock check as a new one.
func TestStore_AddUpToStockThenOneMore(t *testing.T) {
	s, p := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, tabletas, 3))
	require.NoError(t, s.Add(ctx, tabletas, 2))
	before := snapshot(t, p)

	assert.ErrorIs(t, s.Add(ctx, tabletas, 1), cart.ErrInsufficientStock)
	assert.Equal(t, []cart.Line{{ProductID: tabletas, Quantity: 5}}, s.Lines())
	assert.Equal(t, before, snapshot(t, p))
}

func TestStore_AddOneAtATimeUpToStock(t *testing.T) {
	for _, p := range catalog.Default().Products() {
		t.Run(p.ID.String(), func(t *testing.T) {
			s, persister := newStore(t)
			ctx := context.Background()
			stock := catalog.Default().StockOf(p.ID)

			for i := 0; i < stock; i++ {
				require.NoError(t, s.Add(ctx, p.ID, 1))
			}
			assert.Equal(t, stock, s.ItemCount())

			before, _ := persister.Load(ctx, "test")

			assert.ErrorIs(t, s.Add(ctx, p.ID, 1), cart.ErrInsufficientStock)
			assert.Equal(t, stock, s.ItemCount())

			after, _ := persister.Load(ctx, "test")
			assert.Equal(t, before, after)
		})
	}
}

func TestStore_DrainEmptiesOnlyOnSuccess(t *testing.T) {
	s, p := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, trufas, 2))

	err := s.Drain(ctx, func([]cart.Line) error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, s.ItemCount())

	var got []cart.Line
	require.NoError(t, s.Drain(ctx, func(lines []cart.Line) error {
		got = lines
		return nil
	}))
	assert.Equal(t, []cart.Line{{ProductID: trufas, Quantity: 2}}, got)
	assert.True(t, s.IsEmpty())
	assert.JSONEq(t, `[]`, string(snapshot(t, p)))
}

func TestStore_AddKeepsInsertionOrder(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, regalo, 1))
	require.NoError(t, s.Add(ctx, trufas, 2))
	require.NoError(t, s.Add(ctx, regalo, 1))

	assert.Equal(t, []cart.Line{
		{ProductID: regalo, Quantity: 2},
		{ProductID: trufas, Quantity: 2},
	}, s.Lines())
}

func TestStore_SetQuantityAboveStock(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, tabletas, 5))
	assert.ErrorIs(t, s.SetQuantity(ctx, tabletas, 6), cart.ErrInsufficientStock)
	assert.Equal(t, 5, s.Lines()[0].Quantity)
}

func TestStore_SetQuantityZeroThenRemove(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, trufas, 2))
	assert.ErrorIs(t, s.SetQuantity(ctx, trufas, 0), cart.ErrInvalidQuantity)
	assert.Equal(t, 2, s.ItemCount())

	require.NoError(t, s.Remove(ctx, trufas))
	assert.Empty(t, s.Lines())
	assert.Equal(t, 0, s.ItemCount())
}

func TestStore_SetQuantityErrorOrder(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.SetQuantity(ctx, trufas, 0), cart.ErrInvalidQuantity)
	assert.ErrorIs(t, s.SetQuantity(ctx, trufas, 1), cart.ErrNotInCart)
}

func TestStore_SetQuantityIdempotent(t *testing.T) {
	s, p := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, regalo, 1))
	require.NoError(t, s.SetQuantity(ctx, regalo, 4))
	first := snapshot(t, p)
	require.NoError(t, s.SetQuantity(ctx, regalo, 4))

	assert.Equal(t, first, snapshot(t, p))
	assert.Equal(t, 4, s.ItemCount())
}

func TestStore_IncrementDecrement(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Increment(ctx, tabletas), cart.ErrNotInCart)
	assert.ErrorIs(t, s.Decrement(ctx, tabletas), cart.ErrNotInCart)

	require.NoError(t, s.Add(ctx, tabletas, 4))
	require.NoError(t, s.Increment(ctx, tabletas))
	assert.ErrorIs(t, s.Increment(ctx, tabletas), cart.ErrInsufficientStock)
	assert.Equal(t, 5, s.ItemCount())

	require.NoError(t, s.Decrement(ctx, tabletas))
	assert.Equal(t, 4, s.ItemCount())
}

func TestStore_DecrementAtOneRemovesLine(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, trufas, 1))
	require.NoError(t, s.Add(ctx, regalo, 1))
	require.NoError(t, s.Decrement(ctx, trufas))

	assert.Equal(t, []cart.Line{{ProductID: regalo, Quantity: 1}}, s.Lines())
}

func TestStore_RemoveAbsentIsNoOp(t *testing.T) {
	s, p := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, trufas, 2))
	before := snapshot(t, p)

	require.NoError(t, s.Remove(ctx, regalo))
	assert.Equal(t, before, snapshot(t, p))
	assert.Equal(t, []cart.Line{{ProductID: trufas, Quantity: 2}}, s.Lines())
}

func TestStore_Clear(t *testing.T) {
	s, p := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, trufas, 2))
	require.NoError(t, s.Add(ctx, regalo, 1))
	require.NoError(t, s.Clear(ctx))

	assert.True(t, s.IsEmpty())
	assert.JSONEq(t, `[]`, string(snapshot(t, p)))
}

func TestStore_SubtotalLaw(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	cat := catalog.Default()

	require.NoError(t, s.Add(ctx, trufas, 7))
	require.NoError(t, s.Add(ctx, tabletas, 2))
	require.NoError(t, s.Add(ctx, regalo, 3))

	want := decimal.Zero
	for _, l := range s.Lines() {
		p, ok := cat.FindByID(l.ProductID)
		require.True(t, ok)
		want = want.Add(p.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	assert.True(t, s.Subtotal().Equal(want))
	assert.True(t, s.Tax().Equal(want.Mul(cart.TaxRate)))
	assert.True(t, s.Total().Equal(want.Add(s.Tax())))
	assert.Equal(t, "$54.97", money.Format(s.Subtotal()))
}

func TestStore_SubtotalSkipsRetiredProducts(t *testing.T) {
	p := cart.NewMemPersister()
	ctx := context.Background()
	require.NoError(t, p.Save(ctx, "test", []byte(`[{"id":"trufas","quantity":2},{"id":"descatalogado","quantity":9}]`)))

	s := cart.Open(ctx, "test", catalog.Default(), p)

	assert.Equal(t, 11, s.ItemCount())
	assert.True(t, s.Subtotal().Equal(money.MustParse("2")))
}

func TestStore_RoundTripThroughPersister(t *testing.T) {
	s, p := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, regalo, 2))
	require.NoError(t, s.Add(ctx, trufas, 10))

	reopened := cart.Open(ctx, "test", catalog.Default(), p)
	assert.Equal(t, s.Lines(), reopened.Lines())
	assert.True(t, s.Total().Equal(reopened.Total()))
}

func TestStore_OpenMalformedSnapshotStartsEmpty(t *testing.T) {
	ctx := context.Background()

	for _, raw := range []string{
		`not json`,
		`{"id":"trufas"}`,
		`[{"id":"trufas","quantity":0}]`,
		`[{"id":"","quantity":1}]`,
		`[{"id":"trufas","quantity":1},{"id":"trufas","quantity":2}]`,
	} {
		p := cart.NewMemPersister()
		require.NoError(t, p.Save(ctx, "test", []byte(raw)))

		s := cart.Open(ctx, "test", catalog.Default(), p)
		assert.Empty(t, s.Lines(), raw)
	}
}

type failingPersister struct{}

func (failingPersister) Ping(context.Context) error { return nil }

func (failingPersister) Save(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func (failingPersister) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("unreachable")
}

func TestStore_SaveFailureDoesNotFailMutation(t *testing.T) {
	s := cart.Open(context.Background(), "test", catalog.Default(), failingPersister{})

	require.NoError(t, s.Add(context.Background(), trufas, 1))
	assert.Equal(t, 1, s.ItemCount())
}

func TestStore_OnChangeAndObserver(t *testing.T) {
	var ops []string
	s := cart.Open(context.Background(), "test", catalog.Default(), cart.NewMemPersister(),
		cart.WithObserver(func(op string, err error) {
			if err != nil {
				op += ":" + err.Error()
			}
			ops = append(ops, op)
		}),
	)
	ctx := context.Background()

	var counts []int
	s.OnChange(func(n int) {
		// listeners may read the store
		assert.Equal(t, n, s.ItemCount())
		counts = append(counts, n)
	})

	require.NoError(t, s.Add(ctx, trufas, 2))
	require.NoError(t, s.Increment(ctx, trufas))
	_ = s.Add(ctx, bombones, 1)
	require.NoError(t, s.Clear(ctx))

	assert.Equal(t, []int{2, 3, 0}, counts)
	assert.Equal(t, []string{"add", "increment", "add:insufficient stock", "clear"}, ops)
}

func TestStore_ConcurrentAddsRespectStock(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Add(ctx, regalo, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, s.ItemCount())
}

func TestStore_LinesIsACopy(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.Add(context.Background(), trufas, 1))

	lines := s.Lines()
	lines[0].Quantity = 99

	assert.Equal(t, 1, s.ItemCount())
}
