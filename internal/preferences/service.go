package preferences

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/parcelflow-backend/internal/shipments"
	"github.com/angelmondragon/parcelflow-backend/pkg/config"
	"github.com/angelmondragon/parcelflow-backend/pkg/currency"
	"github.com/angelmondragon/parcelflow-backend/pkg/db/models"
	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/parcelflow-backend/pkg/errors"
	"github.com/angelmondragon/parcelflow-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service manages a cart's delivery selection and shipping cost quotes.
type Service interface {
	Save(ctx context.Context, input SaveInput) (*models.DeliveryPreference, error)
	Get(ctx context.Context, cartID uuid.UUID) (*models.DeliveryPreference, error)
	CalculateCost(ctx context.Context, cartID uuid.UUID) (*CostQuote, error)
}

type service struct {
	repo    Repository
	drafts  draftSyncer
	gateway costGateway
	cfg     config.EcontConfig
	conv    currency.Converter
	logg    *logger.Logger
}

// NewService wires the delivery preference dependencies.
func NewService(repo Repository, drafts draftSyncer, gateway costGateway, cfg config.EcontConfig, conv currency.Converter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("preferences repository required")
	}
	if drafts == nil {
		return nil, fmt.Errorf("draft syncer required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("carrier gateway required")
	}
	return &service{
		repo:    repo,
		drafts:  drafts,
		gateway: gateway,
		cfg:     cfg,
		conv:    conv,
		logg:    logg,
	}, nil
}

func (s *service) Save(ctx context.Context, input SaveInput) (*models.DeliveryPreference, error) {
	if err := validateSaveInput(input); err != nil {
		return nil, err
	}

	// Refuse before touching the preference row: a locked shipment must not
	// leave a half-applied selection behind.
	if err := s.ensureDraftMutable(ctx, input.CartID); err != nil {
		return nil, err
	}

	pref := &models.DeliveryPreference{
		CartID:                input.CartID,
		DeliveryType:          input.DeliveryType,
		OfficeCode:            input.OfficeCode,
		OfficeName:            input.OfficeName,
		City:                  input.City,
		PostCode:              input.PostCode,
		AddressLine1:          input.AddressLine1,
		AddressLine2:          input.AddressLine2,
		Entrance:              input.Entrance,
		Floor:                 input.Floor,
		Apartment:             input.Apartment,
		Neighborhood:          input.Neighborhood,
		AllowSaturdayDelivery: input.AllowSaturdayDelivery,
		FirstName:             strings.TrimSpace(input.FirstName),
		LastName:              strings.TrimSpace(input.LastName),
		Phone:                 strings.TrimSpace(input.Phone),
		Email:                 input.Email,
		CODAmount:             input.CODAmount,
	}

	saved, err := s.repo.Save(ctx, pref)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save delivery preference")
	}

	// The draft shipment mirrors the preference until registration locks it.
	if _, err := s.drafts.SyncDraftFromPreference(ctx, saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// ensureDraftMutable rejects preference writes once the cart's shipment has
// moved past ready. A missing shipment is fine; the save will create the draft.
func (s *service) ensureDraftMutable(ctx context.Context, cartID uuid.UUID) error {
	shipment, err := s.drafts.GetByCart(ctx, cartID)
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}
	switch shipment.Status {
	case enums.ShipmentStatusDraft, enums.ShipmentStatusReady:
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery details are locked after registration")
	}
}

func (s *service) Get(ctx context.Context, cartID uuid.UUID) (*models.DeliveryPreference, error) {
	if cartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	pref, err := s.repo.FindByCartID(ctx, cartID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery preference not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery preference")
	}
	return pref, nil
}

// CalculateCost asks the carrier for a dry-run price of the cart's current
// selection and caches the result in store currency.
func (s *service) CalculateCost(ctx context.Context, cartID uuid.UUID) (*CostQuote, error) {
	pref, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	label, err := shipments.BuildLabel(s.cfg, s.conv, shipments.DraftFromPreference(pref))
	if err != nil {
		return nil, err
	}

	calc, err := s.gateway.CalculateShipment(ctx, label)
	if err != nil {
		return nil, err
	}

	carrierAmount := decimal.NewFromFloat(calc.TotalPrice).Round(2)
	storeAmount := s.conv.ToStore(carrierAmount)

	if err := s.repo.UpdateShippingCost(ctx, pref.ID, storeAmount, s.conv.StoreCurrency()); err != nil && s.logg != nil {
		logCtx := s.logg.WithCartID(ctx, cartID.String())
		s.logg.Error(logCtx, "preference.cost_cache_failed", err)
	}

	return &CostQuote{
		Amount:          storeAmount,
		Currency:        s.conv.StoreCurrency(),
		CarrierAmount:   carrierAmount,
		CarrierCurrency: s.conv.CarrierCurrency(),
		Discounts:       calc.Discounts,
	}, nil
}

func validateSaveInput(input SaveInput) error {
	if input.CartID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	if !input.DeliveryType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery type")
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient name required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient phone required")
	}
	if input.CODAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cod amount cannot be negative")
	}

	switch input.DeliveryType {
	case enums.DeliveryTypeOffice:
		if input.OfficeCode == nil || strings.TrimSpace(*input.OfficeCode) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "office delivery requires an office code")
		}
	case enums.DeliveryTypeAddress:
		if input.City == nil || strings.TrimSpace(*input.City) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "address delivery requires a city")
		}
		if input.AddressLine1 == nil || strings.TrimSpace(*input.AddressLine1) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "address delivery requires a street address")
		}
	}
	return nil
}
