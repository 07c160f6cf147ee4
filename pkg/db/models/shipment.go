package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
	"github.com/angelmondragon/parcelflow-backend/pkg/types"
)

// Shipment is the persistent record of a carrier shipment across its whole
// lifecycle. Rows are never deleted; cancellation is a status transition.
type Shipment struct {
	ID      uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID  *uuid.UUID `gorm:"column:cart_id;type:uuid;index"`
	OrderID *uuid.UUID `gorm:"column:order_id;type:uuid;index"`

	Status enums.ShipmentStatus `gorm:"column:status;type:text;not null;default:'draft'"`

	DeliveryType          enums.DeliveryType `gorm:"column:delivery_type;type:text;not null"`
	OfficeCode            *string            `gorm:"column:office_code"`
	OfficeName            *string            `gorm:"column:office_name"`
	City                  *string            `gorm:"column:city"`
	PostCode              *string            `gorm:"column:post_code"`
	AddressLine1          *string            `gorm:"column:address_line1"`
	AddressLine2          *string            `gorm:"column:address_line2"`
	Entrance              *string            `gorm:"column:entrance"`
	Floor                 *string            `gorm:"column:floor"`
	Apartment             *string            `gorm:"column:apartment"`
	Neighborhood          *string            `gorm:"column:neighborhood"`
	AllowSaturdayDelivery bool               `gorm:"column:allow_saturday_delivery;not null;default:false"`

	FirstName string  `gorm:"column:first_name;not null"`
	LastName  string  `gorm:"column:last_name;not null"`
	Phone     string  `gorm:"column:phone;not null"`
	Email     *string `gorm:"column:email"`

	CODAmount decimal.Decimal `gorm:"column:cod_amount;type:numeric(12,2);not null;default:0"`

	// Carrier-assigned references, null until registered.
	WaybillNumber  *string `gorm:"column:waybill_number;uniqueIndex"`
	TrackingNumber *string `gorm:"column:tracking_number"`
	LabelURL       *string `gorm:"column:label_url"`

	// Tracking cache, refreshed on every successful sync.
	ShortStatus          *string              `gorm:"column:short_status"`
	ShortStatusEn        *string              `gorm:"column:short_status_en"`
	TrackingEvents       types.TrackingEvents `gorm:"column:tracking_events;type:jsonb"`
	DeliveryAttempts     int                  `gorm:"column:delivery_attempts;not null;default:0"`
	ExpectedDeliveryDate *time.Time           `gorm:"column:expected_delivery_date"`
	SendTime             *time.Time           `gorm:"column:send_time"`
	DeliveryTime         *time.Time           `gorm:"column:delivery_time"`
	CODCollectedTime     *time.Time           `gorm:"column:cod_collected_time"`
	CODPaidTime          *time.Time           `gorm:"column:cod_paid_time"`
	LastSyncedAt         *time.Time           `gorm:"column:last_synced_at"`

	// Opaque last-exchange snapshots retained for diagnostics.
	RawRequest  *string `gorm:"column:raw_request;type:jsonb"`
	RawResponse *string `gorm:"column:raw_response;type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// RecipientName joins the recipient first and last names.
func (s Shipment) RecipientName() string {
	return s.FirstName + " " + s.LastName
}

// DestinationDescription renders the human-readable delivery target used in
// notification payloads.
func (s Shipment) DestinationDescription() string {
	if s.DeliveryType == enums.DeliveryTypeOffice {
		if s.OfficeName != nil && *s.OfficeName != "" {
			return *s.OfficeName
		}
		if s.OfficeCode != nil {
			return "office " + *s.OfficeCode
		}
		return "pickup office"
	}
	desc := ""
	if s.City != nil {
		desc = *s.City
	}
	if s.AddressLine1 != nil && *s.AddressLine1 != "" {
		if desc != "" {
			desc += ", "
		}
		desc += *s.AddressLine1
	}
	if desc == "" {
		return "delivery address"
	}
	return desc
}
