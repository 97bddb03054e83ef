package order

import (
	"strings"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// AddressInfo is the shipping address copied onto the order at checkout
type AddressInfo struct {
	AddressID string `json:"address_id,omitempty"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Pincode   string `json:"pincode"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes,omitempty"`
}

// IsEmpty returns true if no address field is set
func (a AddressInfo) IsEmpty() bool {
	return strings.TrimSpace(a.Address) == "" && strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.Pincode) == "" && strings.TrimSpace(a.Phone) == ""
}

// Validate checks the required fields
func (a AddressInfo) Validate() error {
	if a.IsEmpty() {
		return shared.NewValidationError(map[string]string{"address_info": "address is required"})
	}
	missing := make(map[string]string)
	if strings.TrimSpace(a.Address) == "" {
		missing["address"] = "is required"
	}
	if strings.TrimSpace(a.City) == "" {
		missing["city"] = "is required"
	}
	if strings.TrimSpace(a.Pincode) == "" {
		missing["pincode"] = "is required"
	}
	if strings.TrimSpace(a.Phone) == "" {
		missing["phone"] = "is required"
	}
	if len(missing) > 0 {
		return shared.NewValidationError(missing)
	}
	return nil
}
