package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/threadlane/storefront-go/internal/apivalidate"
	"github.com/threadlane/storefront-go/internal/rest"
	"github.com/threadlane/storefront-go/pkg/types"
)

// Product is the platform's full catalog record.
type Product struct {
	ID            string             `json:"id" validate:"required"`
	Name          string             `json:"name" validate:"required"`
	Description   string             `json:"description"`
	Price         decimal.Decimal    `json:"price"`
	DiscountPrice *decimal.Decimal   `json:"discountPrice,omitempty"`
	Category      string             `json:"category"`
	Gender        string             `json:"gender,omitempty"`
	Brand         string             `json:"brand"`
	Sizes         []types.SizeOption `json:"sizes"`
	Colors        []string           `json:"colors"`
	Images        []string           `json:"images"`
	TotalStock    int                `json:"totalStock"`
	AverageRating float64            `json:"averageRating"`
	TotalReviews  int                `json:"totalReviews"`
	Featured      bool               `json:"featured"`
	IsActive      bool               `json:"isActive"`
}

// Snapshot reduces the product to the denormalized fields a cart line keeps.
func (p Product) Snapshot() types.ProductSnapshot {
	return types.ProductSnapshot{
		ID:            p.ID,
		Name:          p.Name,
		Images:        p.Images,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
	}
}

// HasSize reports whether the product is offered in the given size.
func (p Product) HasSize(size string) bool {
	for _, option := range p.Sizes {
		if option.Size == size {
			return true
		}
	}
	return false
}

// Filters narrows a product listing. Zero values are omitted from the query.
type Filters struct {
	Category string
	Brand    string
	Gender   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Size     string
	Color    string
	Search   string
	Sort     string
	Page     int
	Limit    int
}

func (f Filters) query() string {
	values := url.Values{}
	setIf := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	setIf("category", f.Category)
	setIf("brand", f.Brand)
	setIf("gender", f.Gender)
	setIf("size", f.Size)
	setIf("color", f.Color)
	setIf("search", f.Search)
	setIf("sort", f.Sort)
	if f.MinPrice != nil {
		values.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		values.Set("maxPrice", f.MaxPrice.String())
	}
	if f.Page > 0 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		values.Set("limit", strconv.Itoa(f.Limit))
	}
	if encoded := values.Encode(); encoded != "" {
		return "?" + encoded
	}
	return ""
}

// Listing is a paginated product result.
type Listing struct {
	Products    []Product `json:"products" validate:"dive"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
	Total       int       `json:"total"`
}

// Service wraps the catalog endpoints.
type Service struct {
	api *rest.Client
}

// NewService builds a catalog service over the REST client.
func NewService(api *rest.Client) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("rest client required")
	}
	return &Service{api: api}, nil
}

// List fetches products matching the filters.
func (s *Service) List(ctx context.Context, filters Filters) (*Listing, error) {
	var listing Listing
	if err := s.api.Get(ctx, "/products"+filters.query(), false, &listing); err != nil {
		return nil, err
	}
	if err := apivalidate.Struct(listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// Get fetches one product by ID.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	var resp struct {
		Product Product `json:"product" validate:"required"`
	}
	if err := s.api.Get(ctx, "/products/"+url.PathEscape(id), false, &resp); err != nil {
		return nil, err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return nil, err
	}
	return &resp.Product, nil
}

// Featured fetches the featured products strip.
func (s *Service) Featured(ctx context.Context) ([]Product, error) {
	return s.productList(ctx, "/products/featured")
}

// Related fetches products related to the given one.
func (s *Service) Related(ctx context.Context, id string) ([]Product, error) {
	return s.productList(ctx, "/products/"+url.PathEscape(id)+"/related")
}

func (s *Service) productList(ctx context.Context, path string) ([]Product, error) {
	var resp struct {
		Products []Product `json:"products" validate:"dive"`
	}
	if err := s.api.Get(ctx, path, false, &resp); err != nil {
		return nil, err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// Categories fetches the distinct category names.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	var resp struct {
		Categories []string `json:"categories"`
	}
	if err := s.api.Get(ctx, "/products/categories", false, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// Brands fetches the distinct brand names.
func (s *Service) Brands(ctx context.Context) ([]string, error) {
	var resp struct {
		Brands []string `json:"brands"`
	}
	if err := s.api.Get(ctx, "/products/brands", false, &resp); err != nil {
		return nil, err
	}
	return resp.Brands, nil
}
