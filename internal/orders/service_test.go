package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadlane/storefront-go/internal/cart"
	"github.com/threadlane/storefront-go/internal/rest"
	"github.com/threadlane/storefront-go/pkg/enums"
	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
	"github.com/threadlane/storefront-go/pkg/localstore"
	"github.com/threadlane/storefront-go/pkg/types"
)

const orderJSON = `{
	"id": "o1",
	"products": [{"product":"p1","name":"Runner","quantity":2,"size":"9","price":400}],
	"shippingAddress": {"name":"Dana","street":"1 Main","city":"Pune","state":"MH","zipCode":"411001","country":"IN","phone":"555"},
	"paymentMethod": "cod",
	"paymentStatus": "pending",
	"subtotal": 800,
	"tax": 80,
	"shippingCharge": 50,
	"discount": 0,
	"total": 930,
	"orderStatus": "pending",
	"createdAt": "2026-08-01T10:00:00Z"
}`

func newService(t *testing.T, handler http.HandlerFunc) (*Service, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	client, err := rest.NewClient(server.URL)
	require.NoError(t, err)
	svc, err := NewService(client)
	require.NoError(t, err)
	return svc, server.Close
}

func address() types.ShippingAddress {
	return types.ShippingAddress{
		Name: "Dana", Street: "1 Main", City: "Pune", State: "MH",
		ZipCode: "411001", Country: "IN", Phone: "555",
	}
}

func TestCreateSendsIdempotencyKey(t *testing.T) {
	var key string
	var body map[string]any
	svc, done := newService(t, func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("X-Idempotency-Key")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		_, _ = w.Write([]byte(`{"message":"ok","order":` + orderJSON + `}`))
	})
	defer done()

	order, err := svc.Create(context.Background(), CreateOrderInput{
		Lines:           []NewOrderLine{{ProductID: "p1", Quantity: 2, Size: "9"}},
		ShippingAddress: address(),
		PaymentMethod:   enums.PaymentMethodCOD,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, key)
	assert.Equal(t, "o1", order.ID)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(930)))
	assert.Equal(t, "cod", body["paymentMethod"])
}

func TestCreateRejectsEmptyOrder(t *testing.T) {
	svc, done := newService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not reach the network")
	})
	defer done()

	_, err := svc.Create(context.Background(), CreateOrderInput{
		ShippingAddress: address(),
		PaymentMethod:   enums.PaymentMethodCOD,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCheckoutClearsCartOnSuccess(t *testing.T) {
	svc, done := newService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok","order":` + orderJSON + `}`))
	})
	defer done()

	basket := cart.NewStore(localstore.NewMemStore(), nil)
	basket.Add(types.ProductSnapshot{ID: "p1", Name: "Runner", Price: decimal.NewFromInt(500)}, "9", 2, "")

	_, err := svc.Checkout(context.Background(), basket, address(), enums.PaymentMethodCOD, nil)
	require.NoError(t, err)
	assert.Empty(t, basket.Lines())
}

func TestCheckoutKeepsCartOnFailure(t *testing.T) {
	svc, done := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"product out of stock"}`))
	})
	defer done()

	basket := cart.NewStore(localstore.NewMemStore(), nil)
	basket.Add(types.ProductSnapshot{ID: "p1", Name: "Runner", Price: decimal.NewFromInt(500)}, "9", 2, "")

	_, err := svc.Checkout(context.Background(), basket, address(), enums.PaymentMethodCOD, nil)
	require.Error(t, err)
	assert.Equal(t, "product out of stock", pkgerrors.DisplayMessage(err))
	assert.Len(t, basket.Lines(), 1, "cart survives a failed checkout")
}

func TestCancelPassesReason(t *testing.T) {
	var body map[string]string
	svc, done := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/orders/o1/cancel", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		_, _ = w.Write([]byte(`{"message":"ok","order":` + orderJSON + `}`))
	})
	defer done()

	_, err := svc.Cancel(context.Background(), "o1", "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, "changed my mind", body["reason"])
}

func TestListDecodesOrders(t *testing.T) {
	svc, done := newService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"orders":[` + orderJSON + `]}`))
	})
	defer done()

	orders, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, enums.OrderStatusPending, orders[0].Status)
	assert.True(t, orders[0].Status.IsCancellable())
}
