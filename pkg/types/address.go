package types

import "strings"

// Address is a saved delivery address on a user profile.
type Address struct {
	Street    string `json:"street" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	ZipCode   string `json:"zipCode" validate:"required"`
	Country   string `json:"country" validate:"required"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

// ShippingAddress is the delivery target attached to an order. Unlike a saved
// Address it carries the recipient's name and phone.
type ShippingAddress struct {
	Name    string `json:"name" validate:"required"`
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zipCode" validate:"required"`
	Country string `json:"country" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
}

// Oneline renders the address as a single display line.
func (s ShippingAddress) Oneline() string {
	parts := []string{s.Street, s.City, s.State, s.ZipCode, s.Country}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}
