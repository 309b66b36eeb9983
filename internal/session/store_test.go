package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadlane/storefront-go/internal/rest"
	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
	"github.com/threadlane/storefront-go/pkg/localstore"
)

func authServer(t *testing.T, handler http.HandlerFunc) (*Store, *localstore.MemStore, func()) {
	t.Helper()
	server := httptest.NewServer(handler)

	storage := localstore.NewMemStore()
	store := NewStore(storage, nil)
	client, err := rest.NewClient(server.URL,
		rest.WithTokenSource(store),
		rest.WithUnauthorizedHook(store.ForceLogout),
	)
	require.NoError(t, err)
	store.UseAPI(client)

	return store, storage, server.Close
}

func writeAuthResponse(w http.ResponseWriter, token string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": "ok",
		"token":   token,
		"user": map[string]any{
			"id":    "u1",
			"name":  "Dana",
			"email": "dana@example.com",
			"role":  "customer",
		},
	})
}

func TestLoginPersistsSession(t *testing.T) {
	store, storage, done := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		writeAuthResponse(w, "tok-1")
	})
	defer done()

	require.NoError(t, store.Login(context.Background(), "dana@example.com", "pw"))

	assert.True(t, store.IsAuthenticated())
	assert.False(t, store.IsAdmin())

	token, ok, err := storage.Get(localstore.KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", token)
}

func TestFailedLoginLeavesStateUntouched(t *testing.T) {
	store, storage, done := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Invalid email or password"}`))
	})
	defer done()

	err := store.Login(context.Background(), "dana@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", pkgerrors.DisplayMessage(err))

	assert.False(t, store.IsAuthenticated())
	_, ok, getErr := storage.Get(localstore.KeyToken)
	require.NoError(t, getErr)
	assert.False(t, ok, "no token may be stored after a failed login")
}

func TestRegisterImpliesLogin(t *testing.T) {
	store, _, done := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/register", r.URL.Path)
		writeAuthResponse(w, "tok-2")
	})
	defer done()

	err := store.Register(context.Background(), RegisterInput{
		Name: "Dana", Email: "dana@example.com", Password: "pw",
	})
	require.NoError(t, err)
	assert.True(t, store.IsAuthenticated())
}

func TestRestoreFromPersistedState(t *testing.T) {
	storage := localstore.NewMemStore()
	require.NoError(t, storage.Set(localstore.KeyToken, "tok-3"))
	require.NoError(t, storage.Set(localstore.KeyUser, `{"id":"u1","name":"Dana","email":"dana@example.com","role":"admin"}`))

	store := NewStore(storage, nil)
	store.Restore()

	assert.True(t, store.IsAuthenticated())
	assert.True(t, store.IsAdmin())
	assert.False(t, store.IsSuperAdmin())
}

func TestRestoreRequiresBothTokenAndUser(t *testing.T) {
	storage := localstore.NewMemStore()
	require.NoError(t, storage.Set(localstore.KeyToken, "tok-4"))

	store := NewStore(storage, nil)
	store.Restore()
	assert.False(t, store.IsAuthenticated())
}

func TestLogoutIsIdempotent(t *testing.T) {
	storage := localstore.NewMemStore()
	require.NoError(t, storage.Set(localstore.KeyToken, "tok-5"))
	require.NoError(t, storage.Set(localstore.KeyUser, `{"id":"u1","name":"Dana","email":"d@e.com","role":"customer"}`))

	store := NewStore(storage, nil)
	store.Restore()
	require.True(t, store.IsAuthenticated())

	store.Logout()
	store.Logout()

	assert.False(t, store.IsAuthenticated())
	_, ok, err := storage.Get(localstore.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = storage.Get(localstore.KeyUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnauthorizedResponseForcesLogout(t *testing.T) {
	store, storage, done := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	})
	defer done()

	require.NoError(t, storage.Set(localstore.KeyToken, "stale"))
	require.NoError(t, storage.Set(localstore.KeyUser, `{"id":"u1","name":"Dana","email":"d@e.com","role":"customer"}`))
	store.Restore()
	require.True(t, store.IsAuthenticated())

	_, err := store.FetchProfile(context.Background())
	require.Error(t, err)

	assert.False(t, store.IsAuthenticated(), "401 must clear the session centrally")
	_, ok, getErr := storage.Get(localstore.KeyToken)
	require.NoError(t, getErr)
	assert.False(t, ok)
}

func TestMalformedAuthResponseRejected(t *testing.T) {
	store, _, done := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		// 200 but no token field.
		_, _ = w.Write([]byte(`{"message":"ok","user":{"id":"u1","name":"D","email":"d@e.com","role":"customer"}}`))
	})
	defer done()

	err := store.Login(context.Background(), "dana@example.com", "pw")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeMalformedResponse))
	assert.False(t, store.IsAuthenticated())
}

func TestSuperAdminDerivation(t *testing.T) {
	storage := localstore.NewMemStore()
	require.NoError(t, storage.Set(localstore.KeyToken, "tok"))
	require.NoError(t, storage.Set(localstore.KeyUser, `{"id":"u1","name":"Root","email":"r@e.com","role":"superadmin"}`))

	store := NewStore(storage, nil)
	store.Restore()

	assert.True(t, store.IsAdmin())
	assert.True(t, store.IsSuperAdmin())
}

func TestUpdateUserKeepsToken(t *testing.T) {
	store, storage, done := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeAuthResponse(w, "tok-6")
		case "/auth/profile":
			require.Equal(t, http.MethodPut, r.Method)
			_, _ = w.Write([]byte(`{"message":"ok","user":{"id":"u1","name":"Dana Q","email":"dana@example.com","role":"customer"}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})
	defer done()

	require.NoError(t, store.Login(context.Background(), "dana@example.com", "pw"))
	user := store.CurrentUser()
	user.Name = "Dana Q"
	require.NoError(t, store.UpdateUser(context.Background(), *user))

	assert.Equal(t, "Dana Q", store.CurrentUser().Name)
	token, ok, err := storage.Get(localstore.KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-6", token)
}

func TestSubscribeNotifiedOnLoginAndLogout(t *testing.T) {
	store, _, done := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeAuthResponse(w, "tok-7")
	})
	defer done()

	notified := 0
	store.Subscribe(func() { notified++ })

	require.NoError(t, store.Login(context.Background(), "dana@example.com", "pw"))
	store.Logout()

	assert.Equal(t, 2, notified)
}
