package preferences

import (
	"context"

	"github.com/angelmondragon/parcelflow-backend/pkg/db/models"
	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a preferences repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByCartID(ctx context.Context, cartID uuid.UUID) (*models.DeliveryPreference, error) {
	var pref models.DeliveryPreference
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		First(&pref).Error
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// Save upserts on the cart id. A re-save replaces the whole selection and
// invalidates the cached shipping cost.
func (r *repository) Save(ctx context.Context, pref *models.DeliveryPreference) (*models.DeliveryPreference, error) {
	pref.ShippingCost = nil
	pref.ShippingCostCurrency = nil
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"delivery_type", "office_code", "office_name",
				"city", "post_code", "address_line1", "address_line2",
				"entrance", "floor", "apartment", "neighborhood",
				"allow_saturday_delivery",
				"first_name", "last_name", "phone", "email",
				"cod_amount", "shipping_cost", "shipping_cost_currency",
				"updated_at",
			}),
		}).
		Create(pref).Error
	if err != nil {
		return nil, err
	}
	return r.FindByCartID(ctx, pref.CartID)
}

func (r *repository) UpdateShippingCost(ctx context.Context, id uuid.UUID, cost decimal.Decimal, cur enums.Currency) error {
	return r.db.WithContext(ctx).
		Model(&models.DeliveryPreference{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"shipping_cost":          cost,
			"shipping_cost_currency": cur,
		}).Error
}
