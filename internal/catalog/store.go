package catalog

import (
	"context"
	"fmt"
)

// Source supplies the catalog data once at start-up.
type Source interface {
	Ping(ctx context.Context) error
	Load(ctx context.Context) ([]Product, StockLevels, error)
}

// Load builds an immutable Catalog from src.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	products, stock, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return New(products, stock)
}
