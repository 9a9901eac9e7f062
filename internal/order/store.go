package order

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"ChocoStore/internal/catalog"
)

var ErrDuplicateNumber = errors.New("order number already used")

// Line freezes the product name and price at the moment of purchase.
type Line struct {
	ProductID catalog.ProductID `json:"product_id"`
	Name      string            `json:"name"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	Quantity  int               `json:"quantity"`
	LineTotal decimal.Decimal   `json:"line_total"`
}

type Order struct {
	ID        string          `json:"id"`
	Number    string          `json:"number"`
	Lines     []Line          `json:"lines"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

func (o Order) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

type Store interface {
	Ping(ctx context.Context) error
	// Create fails with ErrDuplicateNumber when o.Number is taken.
	Create(ctx context.Context, o Order) error
	GetByNumber(ctx context.Context, number string) (Order, bool, error)
}
