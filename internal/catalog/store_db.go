package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// PostgresSource reads the products and product_stock tables.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresSource) Load(ctx context.Context) ([]Product, StockLevels, error) {
	var (
		products []Product
		stock    StockLevels
	)

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var err error
		if products, err = s.loadProducts(ctx); err != nil {
			return err
		}
		stock, err = s.loadStock(ctx)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return products, stock, nil
}

func (s *PostgresSource) loadProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, long_description, unit_price::text, image_ref, category
		FROM products
		ORDER BY position ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Product, 0, 16)
	for rows.Next() {
		var (
			p     Product
			price string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.LongDescription, &price, &p.ImageRef, &p.Category); err != nil {
			return nil, err
		}
		if p.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	features, err := s.loadFeatures(ctx)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Features = features[out[i].ID]
	}
	return out, nil
}

func (s *PostgresSource) loadFeatures(ctx context.Context) (map[ProductID][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, feature
		FROM product_features
		ORDER BY product_id ASC, position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[ProductID][]string)
	for rows.Next() {
		var (
			id      ProductID
			feature string
		)
		if err := rows.Scan(&id, &feature); err != nil {
			return nil, err
		}
		out[id] = append(out[id], feature)
	}
	return out, rows.Err()
}

func (s *PostgresSource) loadStock(ctx context.Context) (StockLevels, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, units
		FROM product_stock
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(StockLevels)
	for rows.Next() {
		var (
			id    ProductID
			units int
		)
		if err := rows.Scan(&id, &units); err != nil {
			return nil, err
		}
		out[id] = units
	}
	return out, rows.Err()
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
