package flashsales

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/threadlane/storefront-go/internal/apivalidate"
	"github.com/threadlane/storefront-go/internal/rest"
)

// SaleProduct is one discounted product inside a flash sale.
type SaleProduct struct {
	ProductID          string          `json:"product"`
	OriginalPrice      decimal.Decimal `json:"originalPrice"`
	FlashPrice         decimal.Decimal `json:"flashPrice"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	StockLimit         int             `json:"stockLimit"`
	SoldCount          int             `json:"soldCount"`
	IsActive           bool            `json:"isActive"`
}

// Sale is a time-boxed discount event.
type Sale struct {
	ID              string        `json:"id" validate:"required"`
	Name            string        `json:"name" validate:"required"`
	Description     string        `json:"description,omitempty"`
	Products        []SaleProduct `json:"products"`
	StartTime       time.Time     `json:"startTime"`
	EndTime         time.Time     `json:"endTime"`
	IsActive        bool          `json:"isActive"`
	Banner          string        `json:"banner,omitempty"`
	Priority        int           `json:"priority"`
	MaxItemsPerUser int           `json:"maxItemsPerUser,omitempty"`
}

// ProductPrice is the flash-price lookup for a single product.
type ProductPrice struct {
	ProductID  string          `json:"product"`
	FlashPrice decimal.Decimal `json:"flashPrice"`
	SaleID     string          `json:"saleId"`
	EndsAt     time.Time       `json:"endsAt"`
}

// Service wraps the customer-facing flash sale endpoints.
type Service struct {
	api *rest.Client
}

// NewService builds a flash sale service over the REST client.
func NewService(api *rest.Client) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("rest client required")
	}
	return &Service{api: api}, nil
}

// Active fetches the currently running sales.
func (s *Service) Active(ctx context.Context) ([]Sale, error) {
	return s.saleList(ctx, "/flash-sales/active")
}

// Upcoming fetches sales that have not started yet.
func (s *Service) Upcoming(ctx context.Context) ([]Sale, error) {
	return s.saleList(ctx, "/flash-sales/upcoming")
}

// Get fetches one sale by ID.
func (s *Service) Get(ctx context.Context, id string) (*Sale, error) {
	var resp struct {
		Data Sale `json:"data" validate:"required"`
	}
	if err := s.api.Get(ctx, "/flash-sales/"+url.PathEscape(id), false, &resp); err != nil {
		return nil, err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ProductPrice looks up whether a product is in an active sale right now.
func (s *Service) ProductPrice(ctx context.Context, productID string) (*ProductPrice, error) {
	var resp struct {
		Data ProductPrice `json:"data"`
	}
	if err := s.api.Get(ctx, "/flash-sales/product/"+url.PathEscape(productID)+"/price", false, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (s *Service) saleList(ctx context.Context, path string) ([]Sale, error) {
	var resp struct {
		Data []Sale `json:"data" validate:"dive"`
	}
	if err := s.api.Get(ctx, path, false, &resp); err != nil {
		return nil, err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
