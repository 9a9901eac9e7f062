package order

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ChocoStore/internal/cart"
	"ChocoStore/pkg/kit"
	"ChocoStore/pkg/money"
)

type Server struct {
	Service *Service
	Log     *zap.Logger
}

// View adds display strings to an order.
type View struct {
	Order
	ItemCount       int    `json:"item_count"`
	SubtotalDisplay string `json:"subtotal_display"`
	TaxDisplay      string `json:"tax_display"`
	TotalDisplay    string `json:"total_display"`
}

func NewView(o Order) View {
	return View{
		Order:           o,
		ItemCount:       o.ItemCount(),
		SubtotalDisplay: money.Format(o.Subtotal),
		TaxDisplay:      money.Format(o.Tax),
		TotalDisplay:    money.Format(o.Total),
	}
}

// CheckoutHandler must run behind cart.Session.
func (s *Server) CheckoutHandler() http.HandlerFunc { return s.checkout }
func (s *Server) GetHandler() http.HandlerFunc      { return s.get }

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	c, ok := cart.FromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	o, err := s.Service.Checkout(r.Context(), c)
	switch {
	case err == nil:
		kit.WriteJSON(w, http.StatusCreated, NewView(o))
	case errors.Is(err, ErrEmptyCart):
		kit.WriteError(w, r, http.StatusConflict, "cart is empty", nil)
	case isTimeoutErr(err):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		kit.OrNop(s.Log).Error("checkout failed", zap.Error(err), zap.String("cart", c.Key()))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	number := strings.ToUpper(chi.URLParam(r, "number"))
	if len(number) != NumberLength {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"number": number})
		return
	}

	o, found, err := s.Service.Get(r.Context(), number)
	if err != nil {
		kit.OrNop(s.Log).Error("store get order failed", zap.Error(err), zap.String("number", number))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"number": number})
		return
	}

	kit.WriteJSON(w, http.StatusOK, NewView(o))
}

func isTimeoutErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
