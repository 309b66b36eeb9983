package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/threadlane/storefront-go/internal/apivalidate"
	"github.com/threadlane/storefront-go/internal/rest"
	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
	"github.com/threadlane/storefront-go/pkg/localstore"
	"github.com/threadlane/storefront-go/pkg/logger"
	"github.com/threadlane/storefront-go/pkg/types"
)

// Store is the single source of truth for who is using this client. The
// authenticated identity is persisted so a restart does not force re-login.
//
// The store is also the REST client's token source and unauthorized hook:
// construct it first, build the client with WithTokenSource(store) and
// WithUnauthorizedHook(store.ForceLogout), then call UseAPI(client).
type Store struct {
	mu      sync.Mutex
	user    *types.User
	storage localstore.Store
	api     *rest.Client
	logg    *logger.Logger
	subs    []func()
}

// NewStore builds a session store over the given local storage.
func NewStore(storage localstore.Store, logg *logger.Logger) *Store {
	return &Store{storage: storage, logg: logg}
}

// UseAPI binds the REST client used for auth calls. Must run before
// Login/Register/UpdateUser.
func (s *Store) UseAPI(api *rest.Client) {
	s.mu.Lock()
	s.api = api
	s.mu.Unlock()
}

// authResponse is the shape of /auth/login and /auth/register.
type authResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token" validate:"required"`
	User    types.User `json:"user" validate:"required"`
}

// Restore rehydrates the persisted session at startup. Both the token and
// the user record must be present; otherwise the caller stays logged out.
// No server round-trip and no token-expiry check happen here: an expired
// token is discovered on the first authenticated call, which force-logs-out
// through the unauthorized hook.
func (s *Store) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, hasToken, err := s.storage.Get(localstore.KeyToken)
	if err != nil || !hasToken || token == "" {
		return
	}
	raw, hasUser, err := s.storage.Get(localstore.KeyUser)
	if err != nil || !hasUser {
		return
	}

	var user types.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		if s.logg != nil {
			s.logg.Warn(context.Background(), "discarding unreadable persisted user")
		}
		return
	}
	s.user = &user
}

// Login exchanges credentials for a token and user record. On failure the
// prior session state is left untouched and the platform's error is returned
// unchanged so the caller can display its message verbatim.
func (s *Store) Login(ctx context.Context, email, password string) error {
	api, err := s.boundAPI()
	if err != nil {
		return err
	}

	var resp authResponse
	payload := map[string]string{"email": email, "password": password}
	if err := api.Post(ctx, "/auth/login", payload, false, &resp); err != nil {
		return err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return err
	}
	return s.adopt(resp.Token, resp.User)
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// Register creates an account. A successful registration implies login.
func (s *Store) Register(ctx context.Context, input RegisterInput) error {
	api, err := s.boundAPI()
	if err != nil {
		return err
	}

	var resp authResponse
	if err := api.Post(ctx, "/auth/register", input, false, &resp); err != nil {
		return err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return err
	}
	return s.adopt(resp.Token, resp.User)
}

// Logout clears the persisted and in-memory session. Idempotent, never fails;
// the server-side account is untouched.
func (s *Store) Logout() {
	s.ForceLogout()
}

// ForceLogout is the unauthorized hook target: any 401 from the platform
// clears credentials centrally instead of per call site.
func (s *Store) ForceLogout() {
	s.mu.Lock()
	_ = s.storage.Delete(localstore.KeyToken)
	_ = s.storage.Delete(localstore.KeyUser)
	changed := s.user != nil
	s.user = nil
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// UpdateUser pushes a profile edit to the platform and replaces the stored
// user record. The token is untouched.
func (s *Store) UpdateUser(ctx context.Context, user types.User) error {
	api, err := s.boundAPI()
	if err != nil {
		return err
	}

	var resp struct {
		Message string     `json:"message"`
		User    types.User `json:"user" validate:"required"`
	}
	if err := api.Put(ctx, "/auth/profile", user, true, &resp); err != nil {
		return err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.persistUser(resp.User); err != nil {
		s.mu.Unlock()
		return err
	}
	s.user = &resp.User
	s.mu.Unlock()
	s.notify()
	return nil
}

// FetchProfile re-reads the user record from the platform and adopts it.
func (s *Store) FetchProfile(ctx context.Context) (*types.User, error) {
	api, err := s.boundAPI()
	if err != nil {
		return nil, err
	}

	var resp struct {
		User types.User `json:"user" validate:"required"`
	}
	if err := api.Get(ctx, "/auth/profile", true, &resp); err != nil {
		return nil, err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if err := s.persistUser(resp.User); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.user = &resp.User
	user := resp.User
	s.mu.Unlock()
	s.notify()
	return &user, nil
}

// ChangePassword rotates the account password. The session stays valid.
func (s *Store) ChangePassword(ctx context.Context, current, next string) error {
	api, err := s.boundAPI()
	if err != nil {
		return err
	}
	payload := map[string]string{"currentPassword": current, "newPassword": next}
	return api.Put(ctx, "/auth/change-password", payload, true, nil)
}

// CurrentUser returns a copy of the authenticated user, or nil.
func (s *Store) CurrentUser() *types.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// IsAuthenticated reports whether a user record is present. Computed, never
// stored, so it cannot drift from the user field.
func (s *Store) IsAuthenticated() bool {
	return s.CurrentUser() != nil
}

// IsAdmin reports whether the current user holds an admin-grade role.
func (s *Store) IsAdmin() bool {
	user := s.CurrentUser()
	return user != nil && user.Role.IsAdmin()
}

// IsSuperAdmin reports whether the current user is a superadmin.
func (s *Store) IsSuperAdmin() bool {
	user := s.CurrentUser()
	return user != nil && user.Role.IsSuperAdmin()
}

// Token implements rest.TokenSource. The token is re-read from storage on
// every call so a logout elsewhere takes effect immediately.
func (s *Store) Token() (string, bool) {
	token, ok, err := s.storage.Get(localstore.KeyToken)
	if err != nil || !ok || token == "" {
		return "", false
	}
	return token, true
}

// Subscribe registers a callback invoked after every session change.
func (s *Store) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// adopt persists and installs a fresh token+user pair, overwriting any
// previously persisted session.
func (s *Store) adopt(token string, user types.User) error {
	s.mu.Lock()
	if err := s.storage.Set(localstore.KeyToken, token); err != nil {
		s.mu.Unlock()
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist token")
	}
	if err := s.persistUser(user); err != nil {
		s.mu.Unlock()
		return err
	}
	s.user = &user
	s.mu.Unlock()
	s.notify()
	return nil
}

// persistUser writes the user record; callers hold the lock.
func (s *Store) persistUser(user types.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode user")
	}
	if err := s.storage.Set(localstore.KeyUser, string(raw)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist user")
	}
	return nil
}

func (s *Store) boundAPI() (*rest.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth api not configured")
	}
	return s.api, nil
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
