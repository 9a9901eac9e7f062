package catalog

import (
	"context"

	"ChocoStore/pkg/money"
)

// MemSource serves the built-in product table.
type MemSource struct {
	products []Product
	stock    StockLevels
}

func NewMemSource() *MemSource {
	return &MemSource{products: defaultProducts(), stock: defaultStock()}
}

// NewMemSourceWith serves a custom table, mostly for tests.
func NewMemSourceWith(products []Product, stock StockLevels) *MemSource {
	return &MemSource{products: products, stock: stock}
}

func (s *MemSource) Ping(ctx context.Context) error { return nil }

func (s *MemSource) Load(ctx context.Context) ([]Product, StockLevels, error) {
	out := make([]Product, len(s.products))
	copy(out, s.products)

	stock := make(StockLevels, len(s.stock))
	for id, n := range s.stock {
		stock[id] = n
	}
	return out, stock, nil
}

// Default returns the storefront catalog.
func Default() *Catalog {
	return MustNew(defaultProducts(), defaultStock())
}

func defaultStock() StockLevels {
	return StockLevels{
		"trufas":   152,
		"tabletas": 5,
		"bombones": 0,
		"regalo":   8,
	}
}

func defaultProducts() []Product {
	return []Product{
		{
			ID:              "trufas",
			Name:            "Trufas Artesanales",
			UnitPrice:       money.MustParse("1.00"),
			ImageRef:        "https://images.unsplash.com/photo-1548907040-4baa42d10919?w=400",
			Description:     "Deliciosas trufas de chocolate con rellenos únicos",
			LongDescription: "Nuestras trufas artesanales son elaboradas a mano con chocolate belga de la más alta calidad. Cada trufa es una pequeña obra de arte con rellenos de ganache casero y sabores únicos.",
			Features: []string{
				"Chocolate belga 70% cacao",
				"Rellenos de ganache casero",
				"Sin conservantes artificiales",
				"Presentación individual",
				"Peso: 25g por unidad",
			},
			Category: "trufas",
		},
		{
			ID:              "tabletas",
			Name:            "Tabletas Premium",
			UnitPrice:       money.MustParse("6.00"),
			ImageRef:        "https://images.unsplash.com/photo-1599599810769-bcde5a160d32?w=400",
			Description:     "Tabletas de chocolate negro desde 60% hasta 100% cacao",
			LongDescription: "Tabletas de chocolate negro premium elaboradas con granos de cacao ecuatoriano seleccionados, disponibles en diferentes porcentajes de cacao.",
			Features: []string{
				"Cacao ecuatoriano orgánico",
				"Opciones: 60%, 75%, 85%, 100%",
				"Libre de gluten y lactosa",
				"Peso: 100g por tableta",
				"Certificación Fair Trade",
			},
			Category: "tabletas",
		},
		{
			ID:              "bombones",
			Name:            "Bombones Surtidos",
			UnitPrice:       money.MustParse("15.99"),
			ImageRef:        "https://images.unsplash.com/photo-1606312619070-d48b4ccc6f24?w=400",
			Description:     "Caja de 12 bombones con variedades de sabores exquisitos",
			LongDescription: "Una selección premium de 12 bombones artesanales con diferentes rellenos y coberturas: caramelo salado, café, frutos rojos, avellana y más.",
			Features: []string{
				"12 bombones de sabores variados",
				"Incluye: caramelo, café, frutos rojos, avellana",
				"Empaque elegante para regalo",
				"Chocolates con y sin licor",
				"Peso total: 240g",
			},
			Category: "bombones",
		},
		{
			ID:              "regalo",
			Name:            "Caja Regalo",
			UnitPrice:       money.MustParse("11.99"),
			ImageRef:        "https://images.unsplash.com/photo-1577805947697-89e18249d767?w=400",
			Description:     "Elegante caja con selección de nuestros mejores chocolates",
			LongDescription: "La caja regalo perfecta para cualquier ocasión especial, con nuestros chocolates más populares en un empaque decorativo reutilizable y tarjeta de dedicatoria.",
			Features: []string{
				"Surtido de 6 trufas + 6 bombones",
				"2 mini tabletas de chocolate negro",
				"Caja decorativa reutilizable",
				"Incluye tarjeta de dedicatoria",
				"Peso total: 300g",
			},
			Category: "chocolates",
		},
	}
}
