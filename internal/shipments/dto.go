package shipments

import (
	"github.com/angelmondragon/parcelflow-backend/pkg/db/models"
	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateFromOrderInput promotes a cart's draft shipment when an order is placed.
type CreateFromOrderInput struct {
	CartID    uuid.UUID
	OrderID   uuid.UUID
	CartTotal decimal.Decimal
}

// ListParams describe the filters and pagination supported by the shipment list.
type ListParams struct {
	Status *enums.ShipmentStatus
	Limit  int
	Cursor string
}

// ShipmentList wraps the paginated shipments plus the next page cursor.
type ShipmentList struct {
	Shipments  []models.Shipment `json:"shipments"`
	NextCursor string            `json:"next_cursor,omitempty"`
}
