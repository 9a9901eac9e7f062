package order_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChocoStore/internal/cart"
	"ChocoStore/internal/catalog"
	"ChocoStore/internal/order"
)

func newRouter(sessions *cart.Sessions, tokens *cart.TokenMaker) http.Handler {
	cat := catalog.Default()
	srv := &order.Server{Service: order.NewService(order.NewMemStore(), cat, nil)}

	r := chi.NewRouter()
	r.With(cart.Session(tokens, sessions, nil)).Post("/checkout", srv.CheckoutHandler())
	r.Get("/orders/{number}", srv.GetHandler())
	return r
}

func TestCheckoutHTTP(t *testing.T) {
	sessions := cart.NewSessions(catalog.Default(), cart.NewMemPersister(), cart.Limits{})
	tokens := cart.NewTokenMaker("k", time.Hour)
	h := newRouter(sessions, tokens)

	token, err := tokens.New("sess-1")
	require.NoError(t, err)

	checkout := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req.Header.Set(cart.TokenHeader, token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := checkout()
	assert.Equal(t, http.StatusConflict, rec.Code)

	c, err := sessions.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	require.NoError(t, c.Add(context.Background(), "trufas", 3))

	rec = checkout()
	require.Equal(t, http.StatusCreated, rec.Code)

	var placed order.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))
	assert.Equal(t, "$3.45", placed.TotalDisplay)
	assert.Equal(t, 3, placed.ItemCount)

	req := httptest.NewRequest(http.MethodGet, "/orders/"+placed.Number, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/orders/ZZZZZZZZ", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.True(t, c.IsEmpty())
}
