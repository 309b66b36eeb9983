package newsletter

import (
	"context"
	"fmt"
	"strings"

	"github.com/threadlane/storefront-go/internal/rest"
	"github.com/threadlane/storefront-go/pkg/enums"
	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
)

// Preferences selects which mailings a subscriber receives.
type Preferences struct {
	NewArrivals     bool `json:"newArrivals"`
	Sales           bool `json:"sales"`
	Recommendations bool `json:"recommendations"`
}

// Service wraps the newsletter endpoints. All are public: subscription is
// keyed by email, not by account.
type Service struct {
	api *rest.Client
}

// NewService builds a newsletter service over the REST client.
func NewService(api *rest.Client) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("rest client required")
	}
	return &Service{api: api}, nil
}

// Subscribe adds an email to the list, recording where it was captured.
func (s *Service) Subscribe(ctx context.Context, email, name string, source enums.NewsletterSource) error {
	if strings.TrimSpace(email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	payload := map[string]string{"email": email}
	if name != "" {
		payload["name"] = name
	}
	if source != "" {
		payload["source"] = source.String()
	}
	return s.api.Post(ctx, "/newsletter/subscribe", payload, false, nil)
}

// Unsubscribe removes an email from the list.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	return s.api.Post(ctx, "/newsletter/unsubscribe", map[string]string{"email": email}, false, nil)
}

// UpdatePreferences replaces a subscriber's mailing preferences.
func (s *Service) UpdatePreferences(ctx context.Context, email string, prefs Preferences) error {
	if strings.TrimSpace(email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	payload := map[string]any{"email": email, "preferences": prefs}
	return s.api.Put(ctx, "/newsletter/preferences", payload, false, nil)
}
