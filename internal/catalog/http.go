package catalog

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ChocoStore/pkg/kit"
	"ChocoStore/pkg/money"
)

type Server struct {
	Catalog *Catalog
	Log     *zap.Logger
}

// ProductView is a product as listed by the storefront, with its stock badge.
type ProductView struct {
	Product
	PriceDisplay string       `json:"price_display"`
	Stock        int          `json:"stock"`
	Availability Availability `json:"availability"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

// Register adds the catalog routes to an existing router.
func (s *Server) Register(r chi.Router) {
	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)
	r.Get("/categories", s.categories)
}

// list filters by ?category= and then by ?q=; both are optional.
func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	products := s.Catalog.Products()
	if category := strings.TrimSpace(q.Get("category")); category != "" {
		products = s.Catalog.FindByCategory(category)
	}
	if q.Has("q") {
		products = intersect(products, s.Catalog.Search(q.Get("q")))
	}

	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		out = append(out, s.view(p))
	}
	kit.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := ProductID(chi.URLParam(r, "id"))

	p, ok := s.Catalog.FindByID(id)
	if !ok {
		if s.Log != nil {
			s.Log.Debug("product not found", zap.String("id", id.String()))
		}
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.view(p))
}

func (s *Server) categories(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"all":        CategoryAll,
		"categories": s.Catalog.Categories(),
	})
}

func (s *Server) view(p Product) ProductView {
	return ProductView{
		Product:      p,
		PriceDisplay: money.Format(p.UnitPrice),
		Stock:        s.Catalog.StockOf(p.ID),
		Availability: s.Catalog.Availability(p.ID),
	}
}

func intersect(a, b []Product) []Product {
	keep := make(map[ProductID]struct{}, len(b))
	for _, p := range b {
		keep[p.ID] = struct{}{}
	}
	out := a[:0]
	for _, p := range a {
		if _, ok := keep[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}
