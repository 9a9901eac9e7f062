package cart

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"ChocoStore/pkg/money"
)

var ErrUnknownPromo = errors.New("unknown promo code")

type Promo struct {
	Code string          `json:"code"`
	Rate decimal.Decimal `json:"rate"`
}

var promos = map[string]Promo{
	"CHOCO10": {Code: "CHOCO10", Rate: money.Percent(10)},
	"CHOCO20": {Code: "CHOCO20", Rate: money.Percent(20)},
	"PROMO50": {Code: "PROMO50", Rate: money.Percent(50)},
}

// LookupPromo matches code case-insensitively after trimming.
func LookupPromo(code string) (Promo, error) {
	p, ok := promos[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Promo{}, ErrUnknownPromo
	}
	return p, nil
}

// Quote is what the cart would cost with a promo applied. The discount comes
// off the subtotal and tax is charged on what remains.
type Quote struct {
	Promo    Promo           `json:"promo"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

func (p Promo) Apply(subtotal decimal.Decimal) Quote {
	discount := subtotal.Mul(p.Rate)
	net := subtotal.Sub(discount)
	tax := net.Mul(TaxRate)
	return Quote{
		Promo:    p,
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    net.Add(tax),
	}
}
