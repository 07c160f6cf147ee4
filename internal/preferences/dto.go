package preferences

import (
	"github.com/angelmondragon/parcelflow-backend/pkg/econt"
	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaveInput is the full delivery selection for a cart. Saving replaces any
// previous selection for the same cart.
type SaveInput struct {
	CartID       uuid.UUID
	DeliveryType enums.DeliveryType

	OfficeCode *string
	OfficeName *string

	City                  *string
	PostCode              *string
	AddressLine1          *string
	AddressLine2          *string
	Entrance              *string
	Floor                 *string
	Apartment             *string
	Neighborhood          *string
	AllowSaturdayDelivery bool

	FirstName string
	LastName  string
	Phone     string
	Email     *string

	CODAmount decimal.Decimal
}

// CostQuote is the carrier's shipping price for the cart's current selection,
// expressed in both the store and the carrier currency.
type CostQuote struct {
	Amount          decimal.Decimal  `json:"amount"`
	Currency        enums.Currency   `json:"currency"`
	CarrierAmount   decimal.Decimal  `json:"carrier_amount"`
	CarrierCurrency enums.Currency   `json:"carrier_currency"`
	Discounts       []econt.Discount `json:"discounts,omitempty"`
}
