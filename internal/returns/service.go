package returns

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/threadlane/storefront-go/internal/apivalidate"
	"github.com/threadlane/storefront-go/internal/rest"
	"github.com/threadlane/storefront-go/pkg/enums"
	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
)

// ReturnItem is one order line being sent back.
type ReturnItem struct {
	ProductID     string          `json:"product"`
	Name          string          `json:"name"`
	Image         string          `json:"image,omitempty"`
	Quantity      int             `json:"quantity"`
	Size          string          `json:"size"`
	Color         string          `json:"color,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Reason        string          `json:"reason"`
	ReasonDetails string          `json:"reasonDetails,omitempty"`
}

// Return is a refund or exchange request against a delivered order.
type Return struct {
	ID         string           `json:"id" validate:"required"`
	OrderID    string           `json:"order"`
	Items      []ReturnItem     `json:"items"`
	ReturnType enums.ReturnType `json:"returnType"`
	Status     string           `json:"status"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// CreateReturnInput is the payload for opening a return.
type CreateReturnInput struct {
	OrderID    string           `json:"order"`
	Items      []ReturnItem     `json:"items"`
	ReturnType enums.ReturnType `json:"returnType"`
}

// Service wraps the return endpoints. All require authentication.
type Service struct {
	api *rest.Client
}

// NewService builds a returns service over the REST client.
func NewService(api *rest.Client) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("rest client required")
	}
	return &Service{api: api}, nil
}

// Create opens a return against an order.
func (s *Service) Create(ctx context.Context, input CreateReturnInput) (*Return, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return must contain at least one item")
	}
	if !input.ReturnType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid return type %q", input.ReturnType))
	}
	var resp struct {
		Message string `json:"message"`
		Return  Return `json:"return" validate:"required"`
	}
	if err := s.api.Post(ctx, "/returns", input, true, &resp); err != nil {
		return nil, err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return nil, err
	}
	return &resp.Return, nil
}

// List fetches the current user's returns.
func (s *Service) List(ctx context.Context) ([]Return, error) {
	var resp struct {
		Returns []Return `json:"returns" validate:"dive"`
	}
	if err := s.api.Get(ctx, "/returns", true, &resp); err != nil {
		return nil, err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return nil, err
	}
	return resp.Returns, nil
}

// Get fetches one return by ID.
func (s *Service) Get(ctx context.Context, id string) (*Return, error) {
	var resp struct {
		Return Return `json:"return" validate:"required"`
	}
	if err := s.api.Get(ctx, "/returns/"+url.PathEscape(id), true, &resp); err != nil {
		return nil, err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return nil, err
	}
	return &resp.Return, nil
}
