package preferences

import (
	"context"

	"github.com/angelmondragon/parcelflow-backend/pkg/db/models"
	"github.com/angelmondragon/parcelflow-backend/pkg/econt"
	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository defines persistence operations for delivery preferences.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCartID(ctx context.Context, cartID uuid.UUID) (*models.DeliveryPreference, error)
	Save(ctx context.Context, pref *models.DeliveryPreference) (*models.DeliveryPreference, error)
	UpdateShippingCost(ctx context.Context, id uuid.UUID, cost decimal.Decimal, cur enums.Currency) error
}

// draftSyncer keeps the cart's draft shipment mirrored with the saved preference.
type draftSyncer interface {
	GetByCart(ctx context.Context, cartID uuid.UUID) (*models.Shipment, error)
	SyncDraftFromPreference(ctx context.Context, pref *models.DeliveryPreference) (*models.Shipment, error)
}

// costGateway is the slice of the carrier client needed for price quotes.
type costGateway interface {
	CalculateShipment(ctx context.Context, label econt.Label) (*econt.Calculation, error)
}
