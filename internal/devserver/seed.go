package devserver

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/threadlane/storefront-go/pkg/enums"
	"github.com/threadlane/storefront-go/pkg/security"
	"github.com/threadlane/storefront-go/pkg/types"
)

// Fixture credentials for local development.
const (
	SeedCustomerEmail    = "demo@example.com"
	SeedCustomerPassword = "password123"
	SeedAdminEmail       = "admin@example.com"
	SeedAdminPassword    = "admin12345"
)

func price(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func pricePtr(value string) *decimal.Decimal {
	d := price(value)
	return &d
}

func sizes(entries ...types.SizeOption) []types.SizeOption {
	return entries
}

// seed fills an empty database with fixture accounts and a small catalog.
// Running twice is a no-op.
func (s *Server) seed() error {
	var count int64
	if err := s.db.Model(&productRecord{}).Count(&count).Error; err != nil {
		return fmt.Errorf("checking seed state: %w", err)
	}
	if count > 0 {
		return nil
	}

	accounts := []struct {
		name, email, password string
		role                  enums.Role
	}{
		{"Demo Customer", SeedCustomerEmail, SeedCustomerPassword, enums.RoleCustomer},
		{"Demo Admin", SeedAdminEmail, SeedAdminPassword, enums.RoleAdmin},
	}
	for i, account := range accounts {
		hash, err := security.HashPassword(account.password, security.DefaultParams())
		if err != nil {
			return fmt.Errorf("hashing seed password: %w", err)
		}
		record := userRecord{
			ID:           fmt.Sprintf("seed-user-%d", i+1),
			Name:         account.name,
			Email:        account.email,
			PasswordHash: hash,
			Role:         string(account.role),
			CreatedAt:    s.now(),
		}
		if err := s.db.Create(&record).Error; err != nil {
			return fmt.Errorf("seeding account %s: %w", account.email, err)
		}
	}

	products := []productRecord{
		{
			ID:          "seed-tee-classic",
			Name:        "Classic Cotton Tee",
			Description: "Heavyweight cotton tee with a relaxed fit.",
			Price:       price("29.99"),
			Category:    "T-Shirts",
			Gender:      "men",
			Brand:       "Threadlane",
			Sizes:       sizes(types.SizeOption{Size: "S", Stock: 20}, types.SizeOption{Size: "M", Stock: 35}, types.SizeOption{Size: "L", Stock: 25}),
			Colors:      []string{"black", "white", "navy"},
			Images:      []string{"/images/tee-classic-1.jpg"},
			TotalStock:  80,
			Featured:    false,
			IsActive:    true,
		},
		{
			ID:            "seed-hoodie-fleece",
			Name:          "Fleece Pullover Hoodie",
			Description:   "Brushed fleece hoodie with kangaroo pocket.",
			Price:         price("89.00"),
			DiscountPrice: pricePtr("69.00"),
			Category:      "Hoodies",
			Gender:        "unisex",
			Brand:         "Threadlane",
			Sizes:         sizes(types.SizeOption{Size: "M", Stock: 15}, types.SizeOption{Size: "L", Stock: 18}, types.SizeOption{Size: "XL", Stock: 9}),
			Colors:        []string{"heather-grey", "forest"},
			Images:        []string{"/images/hoodie-fleece-1.jpg"},
			TotalStock:    42,
			Featured:      true,
			IsActive:      true,
		},
		{
			ID:            "seed-denim-slim",
			Name:          "Slim Fit Denim",
			Description:   "Stretch denim with a tapered leg.",
			Price:         price("120.00"),
			DiscountPrice: pricePtr("95.00"),
			Category:      "Jeans",
			Gender:        "men",
			Brand:         "Loomcraft",
			Sizes:         sizes(types.SizeOption{Size: "30", Stock: 12}, types.SizeOption{Size: "32", Stock: 16}, types.SizeOption{Size: "34", Stock: 10}),
			Colors:        []string{"indigo", "washed-black"},
			Images:        []string{"/images/denim-slim-1.jpg"},
			TotalStock:    38,
			Featured:      true,
			IsActive:      true,
		},
		{
			ID:          "seed-dress-midi",
			Name:        "Pleated Midi Dress",
			Description: "Flowing midi dress with pleated skirt.",
			Price:       price("140.00"),
			Category:    "Dresses",
			Gender:      "women",
			Brand:       "Loomcraft",
			Sizes:       sizes(types.SizeOption{Size: "XS", Stock: 8}, types.SizeOption{Size: "S", Stock: 14}, types.SizeOption{Size: "M", Stock: 11}),
			Colors:      []string{"sage", "black"},
			Images:      []string{"/images/dress-midi-1.jpg"},
			TotalStock:  33,
			Featured:    false,
			IsActive:    true,
		},
		{
			ID:          "seed-jacket-parka",
			Name:        "Winter Parka",
			Description: "Insulated parka rated for deep cold.",
			Price:       price("320.00"),
			Category:    "Outerwear",
			Gender:      "unisex",
			Brand:       "Northbound",
			Sizes:       sizes(types.SizeOption{Size: "M", Stock: 7}, types.SizeOption{Size: "L", Stock: 9}, types.SizeOption{Size: "XL", Stock: 4}),
			Colors:      []string{"olive", "black"},
			Images:      []string{"/images/jacket-parka-1.jpg"},
			TotalStock:  20,
			Featured:    true,
			IsActive:    true,
		},
		{
			ID:          "seed-sneaker-court",
			Name:        "Court Sneaker",
			Description: "Leather low-top with cushioned sole.",
			Price:       price("110.00"),
			Category:    "Shoes",
			Gender:      "unisex",
			Brand:       "Northbound",
			Sizes:       sizes(types.SizeOption{Size: "8", Stock: 10}, types.SizeOption{Size: "9", Stock: 14}, types.SizeOption{Size: "10", Stock: 12}),
			Colors:      []string{"white", "cream"},
			Images:      []string{"/images/sneaker-court-1.jpg"},
			TotalStock:  36,
			Featured:    false,
			IsActive:    true,
		},
	}
	for i := range products {
		products[i].CreatedAt = s.now()
		if err := s.db.Create(&products[i]).Error; err != nil {
			return fmt.Errorf("seeding product %s: %w", products[i].ID, err)
		}
	}

	return nil
}
