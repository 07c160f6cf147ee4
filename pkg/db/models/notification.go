package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
)

// Notification stores the payload handed to the delivery boundary when a
// shipment crosses a customer-visible transition. Rendering and actual email
// delivery happen outside this system.
type Notification struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShipmentID uuid.UUID              `gorm:"column:shipment_id;type:uuid;not null;index"`
	OrderID    *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Type       enums.NotificationType `gorm:"column:type;type:text;not null"`
	Status     enums.ShipmentStatus   `gorm:"column:status;type:text;not null"`

	RecipientEmail       *string    `gorm:"column:recipient_email"`
	RecipientName        string     `gorm:"column:recipient_name;not null"`
	WaybillNumber        *string    `gorm:"column:waybill_number"`
	Destination          string     `gorm:"column:destination;not null"`
	ExpectedDeliveryDate *time.Time `gorm:"column:expected_delivery_date"`

	ReadAt    *time.Time `gorm:"column:read_at;type:timestamptz"`
	CreatedAt time.Time  `gorm:"column:created_at;type:timestamptz;default:now()"`
}
