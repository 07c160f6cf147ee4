package shipments

import (
	"context"

	"github.com/angelmondragon/parcelflow-backend/pkg/db/models"
	"github.com/angelmondragon/parcelflow-backend/pkg/econt"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for shipments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	FindByCart(ctx context.Context, cartID uuid.UUID) (*models.Shipment, error)
	FindByWaybill(ctx context.Context, waybill string) (*models.Shipment, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, params ListParams) (*ShipmentList, error)
	FindSyncCandidates(ctx context.Context, limit int) ([]models.Shipment, error)
}

// carrierGateway is the slice of the carrier client the lifecycle needs.
type carrierGateway interface {
	CreateShipment(ctx context.Context, label econt.Label) (*econt.CreatedShipment, error)
	DeleteShipment(ctx context.Context, waybill string) error
}

// statusNotifier records customer-facing notifications for status changes.
// Notification failures never fail the lifecycle operation that caused them.
type statusNotifier interface {
	ShipmentStatusChanged(ctx context.Context, shipment *models.Shipment) error
}
