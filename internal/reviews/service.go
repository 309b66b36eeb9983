package reviews

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/threadlane/storefront-go/internal/apivalidate"
	"github.com/threadlane/storefront-go/internal/rest"
	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
)

// Reviewer is the trimmed author record attached to a review.
type Reviewer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Review is one customer review of a product.
type Review struct {
	ID        string    `json:"id" validate:"required"`
	User      Reviewer  `json:"user"`
	ProductID string    `json:"product"`
	Rating    int       `json:"rating" validate:"min=1,max=5"`
	Comment   string    `json:"comment"`
	Images    []string  `json:"images,omitempty"`
	Helpful   []string  `json:"helpful"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProductReviews is the aggregate returned for one product.
type ProductReviews struct {
	Reviews       []Review `json:"reviews" validate:"dive"`
	TotalReviews  int      `json:"totalReviews"`
	AverageRating float64  `json:"averageRating"`
}

// CreateReviewInput is the payload for a new or updated review.
type CreateReviewInput struct {
	ProductID string   `json:"product"`
	Rating    int      `json:"rating"`
	Comment   string   `json:"comment"`
	Images    []string `json:"images,omitempty"`
}

// Service wraps the review endpoints.
type Service struct {
	api *rest.Client
}

// NewService builds a review service over the REST client.
func NewService(api *rest.Client) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("rest client required")
	}
	return &Service{api: api}, nil
}

// ForProduct fetches all reviews of a product. Public endpoint.
func (s *Service) ForProduct(ctx context.Context, productID string) (*ProductReviews, error) {
	var resp ProductReviews
	if err := s.api.Get(ctx, "/reviews/product/"+url.PathEscape(productID), false, &resp); err != nil {
		return nil, err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Create posts a review. Rating bounds are checked locally before any
// network traffic, matching the storefront's pre-submit validation.
func (s *Service) Create(ctx context.Context, input CreateReviewInput) (*Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	var resp struct {
		Message string `json:"message"`
		Review  Review `json:"review" validate:"required"`
	}
	if err := s.api.Post(ctx, "/reviews", input, true, &resp); err != nil {
		return nil, err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return nil, err
	}
	return &resp.Review, nil
}

// Update edits an existing review owned by the caller.
func (s *Service) Update(ctx context.Context, id string, input CreateReviewInput) (*Review, error) {
	var resp struct {
		Message string `json:"message"`
		Review  Review `json:"review" validate:"required"`
	}
	if err := s.api.Put(ctx, "/reviews/"+url.PathEscape(id), input, true, &resp); err != nil {
		return nil, err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return nil, err
	}
	return &resp.Review, nil
}

// Delete removes a review owned by the caller.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.api.Delete(ctx, "/reviews/"+url.PathEscape(id), true, nil)
}

// MarkHelpful records a helpful vote on a review.
func (s *Service) MarkHelpful(ctx context.Context, id string) error {
	return s.api.Post(ctx, "/reviews/"+url.PathEscape(id)+"/helpful", map[string]any{}, true, nil)
}
