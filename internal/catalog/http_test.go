package catalog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ChocoStore/internal/catalog"
)

func newCatalogTS(t *testing.T) *httptest.Server {
	t.Helper()

	s := &catalog.Server{Catalog: catalog.Default(), Log: zap.NewNop()}
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHTTP_ListAndFilter(t *testing.T) {
	ts := newCatalogTS(t)

	var all []catalog.ProductView
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/products", &all))
	assert.Len(t, all, 4)

	var trufas []catalog.ProductView
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/products?category=trufas", &trufas))
	require.Len(t, trufas, 1)
	assert.Equal(t, "$1.00", trufas[0].PriceDisplay)
	assert.Equal(t, catalog.InStock, trufas[0].Availability)

	var found []catalog.ProductView
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/products?category=todos&q=caja", &found))
	assert.Len(t, found, 2)
}

func TestHTTP_Get(t *testing.T) {
	ts := newCatalogTS(t)

	var p catalog.ProductView
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/products/tabletas", &p))
	assert.Equal(t, 5, p.Stock)
	assert.Equal(t, catalog.LowStock, p.Availability)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/products/nope", nil))
}
