package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
)

// DeliveryPreference records the customer's pre-order delivery choice for a
// cart. One row per cart; mutable until the shipment is registered.
type DeliveryPreference struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID       uuid.UUID          `gorm:"column:cart_id;type:uuid;not null;uniqueIndex"`
	DeliveryType enums.DeliveryType `gorm:"column:delivery_type;type:text;not null"`

	// Office selection, meaningful when DeliveryType is office.
	OfficeCode *string `gorm:"column:office_code"`
	OfficeName *string `gorm:"column:office_name"`

	// Address selection, meaningful when DeliveryType is address.
	City                  *string `gorm:"column:city"`
	PostCode              *string `gorm:"column:post_code"`
	AddressLine1          *string `gorm:"column:address_line1"`
	AddressLine2          *string `gorm:"column:address_line2"`
	Entrance              *string `gorm:"column:entrance"`
	Floor                 *string `gorm:"column:floor"`
	Apartment             *string `gorm:"column:apartment"`
	Neighborhood          *string `gorm:"column:neighborhood"`
	AllowSaturdayDelivery bool    `gorm:"column:allow_saturday_delivery;not null;default:false"`

	FirstName string  `gorm:"column:first_name;not null"`
	LastName  string  `gorm:"column:last_name;not null"`
	Phone     string  `gorm:"column:phone;not null"`
	Email     *string `gorm:"column:email"`

	CODAmount decimal.Decimal `gorm:"column:cod_amount;type:numeric(12,2);not null;default:0"`

	// Last calculated shipping price, cached to avoid recomputation.
	ShippingCost         *decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2)"`
	ShippingCostCurrency *enums.Currency  `gorm:"column:shipping_cost_currency;type:text"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// RecipientName joins the recipient first and last names.
func (p DeliveryPreference) RecipientName() string {
	return p.FirstName + " " + p.LastName
}
