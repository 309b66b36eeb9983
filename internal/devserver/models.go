package devserver

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/threadlane/storefront-go/pkg/enums"
	"github.com/threadlane/storefront-go/pkg/types"
)

// userRecord is a fixture account.
type userRecord struct {
	ID           string `gorm:"primaryKey"`
	Name         string
	Email        string `gorm:"uniqueIndex"`
	PasswordHash string
	Role         string
	Phone        string
	Addresses    []types.Address `gorm:"serializer:json"`
	CreatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

func (u userRecord) toUser() types.User {
	return types.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      enums.Role(u.Role),
		Phone:     u.Phone,
		Addresses: u.Addresses,
	}
}

// productRecord is a fixture catalog entry.
type productRecord struct {
	ID            string `gorm:"primaryKey"`
	Name          string
	Description   string
	Price         decimal.Decimal  `gorm:"type:numeric"`
	DiscountPrice *decimal.Decimal `gorm:"type:numeric"`
	Category      string
	Gender        string
	Brand         string
	Sizes         []types.SizeOption `gorm:"serializer:json"`
	Colors        []string           `gorm:"serializer:json"`
	Images        []string           `gorm:"serializer:json"`
	TotalStock    int
	Featured      bool
	IsActive      bool
	CreatedAt     time.Time
}

func (productRecord) TableName() string { return "products" }

// orderLine mirrors the wire shape of one purchased product.
type orderLine struct {
	ProductID string          `json:"product"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size"`
	Color     string          `json:"color,omitempty"`
	Price     decimal.Decimal `json:"price"`
}

// orderRecord is a placed fixture order.
type orderRecord struct {
	ID                 string                `gorm:"primaryKey"`
	UserID             string                `gorm:"index"`
	Lines              []orderLine           `gorm:"serializer:json"`
	ShippingAddress    types.ShippingAddress `gorm:"serializer:json"`
	PaymentMethod      string
	PaymentStatus      string
	Subtotal           decimal.Decimal `gorm:"type:numeric"`
	Tax                decimal.Decimal `gorm:"type:numeric"`
	ShippingCharge     decimal.Decimal `gorm:"type:numeric"`
	Discount           decimal.Decimal `gorm:"type:numeric"`
	Total              decimal.Decimal `gorm:"type:numeric"`
	Status             string
	CancellationReason string
	IdempotencyKey     string `gorm:"index"`
	CreatedAt          time.Time
}

func (orderRecord) TableName() string { return "orders" }

// reviewRecord is a fixture product review.
type reviewRecord struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	UserName  string
	ProductID string `gorm:"index"`
	Rating    int
	Comment   string
	Helpful   []string `gorm:"serializer:json"`
	Verified  bool
	CreatedAt time.Time
}

func (reviewRecord) TableName() string { return "reviews" }

// subscriberRecord is a newsletter signup.
type subscriberRecord struct {
	Email           string `gorm:"primaryKey"`
	Name            string
	Source          string
	IsActive        bool
	NewArrivals     bool
	Sales           bool
	Recommendations bool
	CreatedAt       time.Time
}

func (subscriberRecord) TableName() string { return "newsletter_subscribers" }

// returnItem mirrors the wire shape of one item being sent back.
type returnItem struct {
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

// returnRecord is an opened return request.
type returnRecord struct {
	ID         string       `gorm:"primaryKey"`
	UserID     string       `gorm:"index"`
	OrderID    string       `gorm:"index"`
	Items      []returnItem `gorm:"serializer:json"`
	ReturnType string
	Status     string
	CreatedAt  time.Time
}

func (returnRecord) TableName() string { return "returns" }
