package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadlane/storefront-go/internal/rest"
	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
)

func newService(t *testing.T, handler http.HandlerFunc) (*Service, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	client, err := rest.NewClient(server.URL)
	require.NoError(t, err)
	svc, err := NewService(client)
	require.NoError(t, err)
	return svc, server.Close
}

func TestListEncodesFilters(t *testing.T) {
	var query string
	svc, done := newService(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"products":[],"totalPages":0,"currentPage":1,"total":0}`))
	})
	defer done()

	minPrice := decimal.NewFromInt(100)
	_, err := svc.List(context.Background(), Filters{
		Category: "sneakers",
		Gender:   "Men",
		MinPrice: &minPrice,
		Page:     2,
		Limit:    12,
	})
	require.NoError(t, err)

	assert.Contains(t, query, "category=sneakers")
	assert.Contains(t, query, "gender=Men")
	assert.Contains(t, query, "minPrice=100")
	assert.Contains(t, query, "page=2")
	assert.Contains(t, query, "limit=12")
	assert.NotContains(t, query, "brand=")
}

func TestGetDecodesProduct(t *testing.T) {
	svc, done := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/p1", r.URL.Path)
		_, _ = w.Write([]byte(`{"product":{"id":"p1","name":"Runner","price":129.99,"brand":"Thread","sizes":[{"size":"9","stock":4}],"colors":["black"],"images":[],"isActive":true}}`))
	})
	defer done()

	product, err := svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Runner", product.Name)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("129.99")))
	assert.True(t, product.HasSize("9"))
	assert.False(t, product.HasSize("12"))
}

func TestMalformedProductRejected(t *testing.T) {
	svc, done := newService(t, func(w http.ResponseWriter, r *http.Request) {
		// Missing required id/name.
		_, _ = w.Write([]byte(`{"product":{"price":10}}`))
	})
	defer done()

	_, err := svc.Get(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeMalformedResponse))
}

func TestSnapshotCarriesPricing(t *testing.T) {
	discount := decimal.RequireFromString("80")
	product := Product{
		ID:            "p2",
		Name:          "Trail",
		Price:         decimal.RequireFromString("100"),
		DiscountPrice: &discount,
		Images:        []string{"a.jpg"},
	}

	snap := product.Snapshot()
	assert.Equal(t, "p2", snap.ID)
	assert.True(t, snap.EffectivePrice().Equal(discount))
}

func TestFeaturedAndCategories(t *testing.T) {
	svc, done := newService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/featured":
			_, _ = w.Write([]byte(`{"products":[{"id":"p1","name":"Runner","price":10}]}`))
		case "/products/categories":
			_, _ = w.Write([]byte(`{"categories":["sneakers","boots"]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})
	defer done()

	featured, err := svc.Featured(context.Background())
	require.NoError(t, err)
	require.Len(t, featured, 1)

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"sneakers", "boots"}, categories)
}
