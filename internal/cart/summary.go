package cart

import (
	"github.com/shopspring/decimal"

	"ChocoStore/internal/catalog"
	"ChocoStore/pkg/money"
)

type SummaryLine struct {
	ProductID catalog.ProductID `json:"product_id"`
	Name      string            `json:"name"`
	ImageRef  string            `json:"image,omitempty"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	Quantity  int               `json:"quantity"`
	LineTotal decimal.Decimal   `json:"line_total"`
	Stock     int               `json:"stock"`
	Available bool              `json:"available"`
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`

	SubtotalDisplay string `json:"subtotal_display"`
	TaxDisplay      string `json:"tax_display"`
	TotalDisplay    string `json:"total_display"`
}

type Summary struct {
	Lines     []SummaryLine `json:"lines"`
	ItemCount int           `json:"item_count"`
	Totals
	Quote *Quote `json:"quote,omitempty"`
}

func newTotals(subtotal decimal.Decimal) Totals {
	tax := subtotal.Mul(TaxRate)
	total := subtotal.Add(tax)
	return Totals{
		Subtotal:        subtotal,
		Tax:             tax,
		Total:           total,
		SubtotalDisplay: money.Format(subtotal),
		TaxDisplay:      money.Format(tax),
		TotalDisplay:    money.Format(total),
	}
}

// Summary is the display view of the cart, with each line joined to its
// catalog entry. A non-empty code adds a promo quote; an unknown code fails
// with ErrUnknownPromo.
func (s *Store) Summary(code string) (Summary, error) {
	var promo *Promo
	if code != "" {
		p, err := LookupPromo(code)
		if err != nil {
			return Summary{}, err
		}
		promo = &p
	}

	lines := s.Lines()
	out := Summary{
		Lines:     make([]SummaryLine, 0, len(lines)),
		ItemCount: itemCount(lines),
	}

	for _, l := range lines {
		sl := SummaryLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: decimal.Zero,
			LineTotal: decimal.Zero,
		}
		if p, ok := s.catalog.FindByID(l.ProductID); ok {
			sl.Name = p.Name
			sl.ImageRef = p.ImageRef
			sl.UnitPrice = p.UnitPrice
			sl.LineTotal = p.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
			sl.Stock = s.catalog.StockOf(l.ProductID)
			sl.Available = true
		}
		out.Lines = append(out.Lines, sl)
	}

	subtotal := s.subtotalOf(lines)
	out.Totals = newTotals(subtotal)

	if promo != nil {
		q := promo.Apply(subtotal)
		out.Quote = &q
	}
	return out, nil
}
