package order

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ChocoStore/internal/cart"
	"ChocoStore/internal/catalog"
	"ChocoStore/pkg/kit"
)

var ErrEmptyCart = errors.New("cart is empty")

const (
	numberAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	NumberLength      = 8
	maxNumberAttempts = 5
)

// Service turns a cart into a stored order.
type Service struct {
	store   Store
	catalog *catalog.Catalog
	log     *zap.Logger

	now    func() time.Time
	number func() (string, error)
}

func NewService(store Store, cat *catalog.Catalog, log *zap.Logger) *Service {
	return &Service{
		store:   store,
		catalog: cat,
		log:     kit.OrNop(log),
		now:     func() time.Time { return time.Now().UTC() },
		number:  NewNumber,
	}
}

func (s *Service) Store() Store { return s.store }

// Checkout snapshots the cart into an order and stores it. The cart is held
// for the whole operation and emptied only once the order is stored, so a
// concurrent add is either billed or kept in the cart. Lines whose product
// has left the catalog are not billed.
func (s *Service) Checkout(ctx context.Context, c *cart.Store) (Order, error) {
	var o Order
	err := c.Drain(ctx, func(lines []cart.Line) error {
		var err error
		if o, err = s.build(lines); err != nil {
			return err
		}
		return s.create(ctx, &o)
	})
	if err != nil {
		return Order{}, err
	}

	s.log.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("number", o.Number),
		zap.Int("items", o.ItemCount()),
		zap.String("total", o.Total.StringFixed(2)),
	)
	return o, nil
}

func (s *Service) build(lines []cart.Line) (Order, error) {
	o := Order{
		ID:        uuid.NewString(),
		CreatedAt: s.now(),
		Subtotal:  decimal.Zero,
	}

	for _, l := range lines {
		p, ok := s.catalog.FindByID(l.ProductID)
		if !ok {
			s.log.Warn("checkout skipped retired product", zap.String("product_id", l.ProductID.String()))
			continue
		}
		line := Line{
			ProductID: l.ProductID,
			Name:      p.Name,
			UnitPrice: p.UnitPrice,
			Quantity:  l.Quantity,
			LineTotal: p.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))),
		}
		o.Lines = append(o.Lines, line)
		o.Subtotal = o.Subtotal.Add(line.LineTotal)
	}
	if len(o.Lines) == 0 {
		return Order{}, ErrEmptyCart
	}

	o.Tax = o.Subtotal.Mul(cart.TaxRate)
	o.Total = o.Subtotal.Add(o.Tax)
	return o, nil
}

func (s *Service) create(ctx context.Context, o *Order) error {
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		number, err := s.number()
		if err != nil {
			return fmt.Errorf("order number: %w", err)
		}
		o.Number = number

		err = s.store.Create(ctx, *o)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateNumber) {
			return fmt.Errorf("store order: %w", err)
		}
		s.log.Warn("order number collision", zap.String("number", number), zap.Int("attempt", attempt))
	}
	return fmt.Errorf("store order: %w after %d attempts", ErrDuplicateNumber, maxNumberAttempts)
}

func (s *Service) Get(ctx context.Context, number string) (Order, bool, error) {
	return s.store.GetByNumber(ctx, number)
}

// NewNumber returns a random customer-facing order number such as "K3Z9Q0TB".
func NewNumber() (string, error) {
	radix := big.NewInt(int64(len(numberAlphabet)))
	buf := make([]byte, NumberLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, radix)
		if err != nil {
			return "", err
		}
		buf[i] = numberAlphabet[n.Int64()]
	}
	return string(buf), nil
}
