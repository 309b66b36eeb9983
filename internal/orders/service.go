package orders

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadlane/storefront-go/internal/apivalidate"
	"github.com/threadlane/storefront-go/internal/cart"
	"github.com/threadlane/storefront-go/internal/rest"
	"github.com/threadlane/storefront-go/pkg/enums"
	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
	"github.com/threadlane/storefront-go/pkg/types"
)

// OrderLine is one purchased product inside an order.
type OrderLine struct {
	ProductID string          `json:"product" validate:"required"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	Size      string          `json:"size"`
	Color     string          `json:"color,omitempty"`
	Price     decimal.Decimal `json:"price"`
}

// CouponApplied records a coupon the platform accepted for this order.
type CouponApplied struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// Order is the platform's view of a placed order.
type Order struct {
	ID                 string                `json:"id" validate:"required"`
	Lines              []OrderLine           `json:"products" validate:"dive"`
	ShippingAddress    types.ShippingAddress `json:"shippingAddress"`
	PaymentMethod      string                `json:"paymentMethod"`
	PaymentStatus      enums.PaymentStatus   `json:"paymentStatus"`
	Subtotal           decimal.Decimal       `json:"subtotal"`
	Tax                decimal.Decimal       `json:"tax"`
	ShippingCharge     decimal.Decimal       `json:"shippingCharge"`
	Discount           decimal.Decimal       `json:"discount"`
	Total              decimal.Decimal       `json:"total"`
	CouponApplied      *CouponApplied        `json:"couponApplied,omitempty"`
	Status             enums.OrderStatus     `json:"orderStatus" validate:"required"`
	TrackingNumber     string                `json:"trackingNumber,omitempty"`
	CancellationReason string                `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
}

// CreateOrderInput is the payload for placing an order.
type CreateOrderInput struct {
	Lines           []NewOrderLine        `json:"products"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   enums.PaymentMethod   `json:"paymentMethod"`
	CouponApplied   *CouponApplied        `json:"couponApplied,omitempty"`
}

// NewOrderLine names a product/size/quantity to purchase.
type NewOrderLine struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color,omitempty"`
}

// Service wraps the order endpoints. All of them require authentication.
type Service struct {
	api *rest.Client
}

// NewService builds an order service over the REST client.
func NewService(api *rest.Client) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("rest client required")
	}
	return &Service{api: api}, nil
}

// Create places an order. Each attempt carries a fresh idempotency key so a
// retried submission cannot double-charge.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}

	var resp struct {
		Message string `json:"message"`
		Order   Order  `json:"order" validate:"required"`
	}
	key := rest.WithHeader("X-Idempotency-Key", uuid.NewString())
	if err := s.api.Post(ctx, "/orders", input, true, &resp, key); err != nil {
		return nil, err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

// Checkout materializes the cart into an order payload, places it, and
// clears the cart only after the platform accepted it.
func (s *Service) Checkout(ctx context.Context, basket *cart.Store, address types.ShippingAddress, method enums.PaymentMethod, coupon *CouponApplied) (*Order, error) {
	lines := basket.Lines()
	input := CreateOrderInput{
		Lines:           make([]NewOrderLine, len(lines)),
		ShippingAddress: address,
		PaymentMethod:   method,
		CouponApplied:   coupon,
	}
	for i, line := range lines {
		input.Lines[i] = NewOrderLine{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			Size:      line.Size,
			Color:     line.Color,
		}
	}

	order, err := s.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	basket.Clear()
	return order, nil
}

// List fetches the current user's orders.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	var resp struct {
		Orders []Order `json:"orders" validate:"dive"`
	}
	if err := s.api.Get(ctx, "/orders", true, &resp); err != nil {
		return nil, err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// Get fetches one order by ID.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	var resp struct {
		Order Order `json:"order" validate:"required"`
	}
	if err := s.api.Get(ctx, "/orders/"+url.PathEscape(id), true, &resp); err != nil {
		return nil, err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

// Cancel cancels an order with a reason.
func (s *Service) Cancel(ctx context.Context, id, reason string) (*Order, error) {
	var resp struct {
		Message string `json:"message"`
		Order   Order  `json:"order" validate:"required"`
	}
	payload := map[string]string{"reason": reason}
	if err := s.api.Put(ctx, "/orders/"+url.PathEscape(id)+"/cancel", payload, true, &resp); err != nil {
		return nil, err
	}
	if err := apivalidate.Struct(resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}
