package types

import "github.com/threadlane/storefront-go/pkg/enums"

// User is the platform's account record as returned by the auth endpoints.
type User struct {
	ID        string     `json:"id" validate:"required"`
	Name      string     `json:"name" validate:"required"`
	Email     string     `json:"email" validate:"required,email"`
	Role      enums.Role `json:"role" validate:"required"`
	Phone     string     `json:"phone,omitempty"`
	Addresses []Address  `json:"addresses,omitempty"`
}
