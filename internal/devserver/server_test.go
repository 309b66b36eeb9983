package devserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadlane/storefront-go/internal/cart"
	"github.com/threadlane/storefront-go/internal/catalog"
	"github.com/threadlane/storefront-go/internal/orders"
	"github.com/threadlane/storefront-go/internal/rest"
	"github.com/threadlane/storefront-go/internal/session"
	"github.com/threadlane/storefront-go/pkg/config"
	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
	"github.com/threadlane/storefront-go/pkg/localstore"
	"github.com/threadlane/storefront-go/pkg/types"
)

var testDBCounter int

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	testDBCounter++
	cfg := config.DevServerConfig{
		Driver:        "sqlite",
		DSN:           fmt.Sprintf("file:devserver_test_%d?mode=memory&cache=shared", testDBCounter),
		JWTSecret:     "test-secret",
		JWTIssuer:     "test-issuer",
		JWTExpiration: time.Hour,
		Seed:          true,
	}
	srv, err := New(cfg, nil)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// newTestSession wires the full client stack against the test server the same
// way the CLI does: session store as token source and unauthorized hook.
func newTestSession(t *testing.T, ts *httptest.Server) (*session.Store, *rest.Client) {
	t.Helper()
	store := session.NewStore(localstore.NewMemStore(), nil)
	client, err := rest.NewClient(ts.URL+"/api",
		rest.WithTokenSource(store),
		rest.WithUnauthorizedHook(store.ForceLogout),
	)
	require.NoError(t, err)
	store.UseAPI(client)
	return store, client
}

func TestSeededLoginRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	store, _ := newTestSession(t, ts)

	err := store.Login(context.Background(), SeedCustomerEmail, SeedCustomerPassword)
	require.NoError(t, err)
	require.True(t, store.IsAuthenticated())
	assert.Equal(t, SeedCustomerEmail, store.CurrentUser().Email)

	user, err := store.FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Demo Customer", user.Name)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	ts := newTestServer(t)
	store, _ := newTestSession(t, ts)

	err := store.Login(context.Background(), SeedCustomerEmail, "wrong-password")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.False(t, store.IsAuthenticated())
}

func TestRegisterThenChangePassword(t *testing.T) {
	ts := newTestServer(t)
	store, _ := newTestSession(t, ts)

	err := store.Register(context.Background(), session.RegisterInput{
		Name:     "New Shopper",
		Email:    "shopper@example.com",
		Password: "firstpass",
	})
	require.NoError(t, err)
	require.True(t, store.IsAuthenticated())

	err = store.ChangePassword(context.Background(), "firstpass", "secondpass")
	require.NoError(t, err)

	fresh, _ := newTestSession(t, ts)
	require.NoError(t, fresh.Login(context.Background(), "shopper@example.com", "secondpass"))
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	ts := newTestServer(t)
	store, _ := newTestSession(t, ts)

	input := session.RegisterInput{Name: "Twin", Email: "twin@example.com", Password: "password"}
	require.NoError(t, store.Register(context.Background(), input))

	other, _ := newTestSession(t, ts)
	err := other.Register(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, "email already registered", pkgerrors.DisplayMessage(err))
}

func TestCatalogServesSeededProducts(t *testing.T) {
	ts := newTestServer(t)
	_, client := newTestSession(t, ts)
	svc, err := catalog.NewService(client)
	require.NoError(t, err)

	listing, err := svc.List(context.Background(), catalog.Filters{})
	require.NoError(t, err)
	assert.NotEmpty(t, listing.Products)

	featured, err := svc.Featured(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, featured)

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Contains(t, categories, "Hoodies")
}

func TestCheckoutAgainstSeededCatalog(t *testing.T) {
	ts := newTestServer(t)
	store, client := newTestSession(t, ts)
	require.NoError(t, store.Login(context.Background(), SeedCustomerEmail, SeedCustomerPassword))

	catalogSvc, err := catalog.NewService(client)
	require.NoError(t, err)
	product, err := catalogSvc.Get(context.Background(), "seed-hoodie-fleece")
	require.NoError(t, err)

	basket := cart.NewStore(localstore.NewMemStore(), nil)
	basket.Add(product.Snapshot(), "M", 2, "forest")

	orderSvc, err := orders.NewService(client)
	require.NoError(t, err)
	address := types.ShippingAddress{
		Name:    "Demo Customer",
		Street:  "1 Main St",
		City:    "Springfield",
		State:   "IL",
		ZipCode: "62701",
		Country: "US",
		Phone:   "555-0100",
	}
	order, err := orderSvc.Checkout(context.Background(), basket, address, "cod", nil)
	require.NoError(t, err)

	// Discounted hoodie: 2 x 69 = 138, tax 13.80, flat shipping 50.
	assert.Equal(t, "138.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "13.80", order.Tax.StringFixed(2))
	assert.Equal(t, "50.00", order.ShippingCharge.StringFixed(2))
	assert.Equal(t, "201.80", order.Total.StringFixed(2))
	assert.Empty(t, basket.Lines())

	listed, err := orderSvc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)

	cancelled, err := orderSvc.Cancel(context.Background(), order.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", string(cancelled.Status))
}

func TestOrdersRequireAuthAndForceLogout(t *testing.T) {
	ts := newTestServer(t)
	store, client := newTestSession(t, ts)
	require.NoError(t, store.Login(context.Background(), SeedCustomerEmail, SeedCustomerPassword))

	// Drop the persisted token; the next authenticated call must 401 and the
	// hook keeps the session cleared.
	store.Logout()

	orderSvc, err := orders.NewService(client)
	require.NoError(t, err)
	_, err = orderSvc.List(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.False(t, store.IsAuthenticated())
}

func TestUnknownProductIs404(t *testing.T) {
	ts := newTestServer(t)
	_, client := newTestSession(t, ts)
	svc, err := catalog.NewService(client)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "no-such-product")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
