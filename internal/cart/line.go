package cart

import (
	"errors"

	"ChocoStore/internal/catalog"
	"ChocoStore/pkg/money"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrUnknownProduct    = errors.New("product not in catalog")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotInCart         = errors.New("product not in cart")
)

// TaxRate is the IVA applied to the subtotal.
var TaxRate = money.Percent(15)

type Line struct {
	ProductID catalog.ProductID `json:"product_id"`
	Quantity  int               `json:"quantity"`
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

func indexOf(lines []Line, id catalog.ProductID) int {
	for i, l := range lines {
		if l.ProductID == id {
			return i
		}
	}
	return -1
}

func itemCount(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
