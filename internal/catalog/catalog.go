package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// CategoryAll is the category filter that selects the whole catalog.
	CategoryAll = "todos"

	// LowStockThreshold is the highest stock count still reported as low.
	LowStockThreshold = 5
)

var (
	ErrDuplicateProduct = errors.New("duplicate product id")
	ErrInvalidProduct   = errors.New("invalid product")
)

// ProductID identifies a product and doubles as its stock key.
type ProductID string

func (id ProductID) String() string { return string(id) }

type Product struct {
	ID              ProductID       `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	LongDescription string          `json:"long_description,omitempty"`
	Features        []string        `json:"features,omitempty"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	ImageRef        string          `json:"image"`
	Category        string          `json:"category"`
}

// StockLevels maps a product to its available units. A missing key means no stock.
type StockLevels map[ProductID]int

type Availability string

const (
	OutOfStock Availability = "out_of_stock"
	LowStock   Availability = "low_stock"
	InStock    Availability = "in_stock"
)

// Catalog is a read-only product table. It is built once and never mutated,
// so it is safe for concurrent readers without locking.
type Catalog struct {
	products []Product
	byID     map[ProductID]int
	stock    StockLevels
}

func New(products []Product, stock StockLevels) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[ProductID]int, len(products)),
		stock:    make(StockLevels, len(stock)),
	}

	for _, p := range products {
		if strings.TrimSpace(string(p.ID)) == "" {
			return nil, fmt.Errorf("%w: empty id", ErrInvalidProduct)
		}
		if p.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: %s has negative price", ErrInvalidProduct, p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProduct, p.ID)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, cloneProduct(p))
	}

	for id, n := range stock {
		if n < 0 {
			return nil, fmt.Errorf("%w: %s has negative stock", ErrInvalidProduct, id)
		}
		c.stock[id] = n
	}

	return c, nil
}

// MustNew is New for static tables.
func MustNew(products []Product, stock StockLevels) *Catalog {
	c, err := New(products, stock)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) FindByID(id ProductID) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return cloneProduct(c.products[i]), true
}

func (c *Catalog) Products() []Product {
	return c.filter(func(Product) bool { return true })
}

func (c *Catalog) FindByCategory(category string) []Product {
	if category == CategoryAll {
		return c.Products()
	}
	return c.filter(func(p Product) bool { return p.Category == category })
}

// Search matches term case-insensitively against name and descriptions.
// An empty term matches every product.
func (c *Catalog) Search(term string) []Product {
	needle := strings.ToLower(term)
	return c.filter(func(p Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) ||
			strings.Contains(strings.ToLower(p.LongDescription), needle)
	})
}

// Categories lists the distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 4)
	for _, p := range c.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

func (c *Catalog) StockOf(id ProductID) int {
	return c.stock[id]
}

func (c *Catalog) HasStock(id ProductID) bool {
	return c.StockOf(id) > 0
}

func (c *Catalog) IsLowStock(id ProductID) bool {
	n := c.StockOf(id)
	return n > 0 && n <= LowStockThreshold
}

func (c *Catalog) Availability(id ProductID) Availability {
	switch {
	case !c.HasStock(id):
		return OutOfStock
	case c.IsLowStock(id):
		return LowStock
	default:
		return InStock
	}
}

func (c *Catalog) Len() int { return len(c.products) }

func (c *Catalog) filter(keep func(Product) bool) []Product {
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if keep(p) {
			out = append(out, cloneProduct(p))
		}
	}
	return out
}

func cloneProduct(p Product) Product {
	if p.Features != nil {
		p.Features = append([]string(nil), p.Features...)
	}
	return p
}
