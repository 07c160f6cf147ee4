package shipments

import (
	"context"
	"fmt"

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

// codAmountTolerance bounds how far the submitted COD amount may drift from
// the cart total, in store currency. It matches the currency round-trip bound.
var codAmountTolerance = decimal.RequireFromString("0.02")

// Service orchestrates the shipment lifecycle from draft through terminal states.
type Service interface {
	SyncDraftFromPreference(ctx context.Context, pref *models.DeliveryPreference) (*models.Shipment, error)
	CreateFromOrder(ctx context.Context, input CreateFromOrderInput) (*models.Shipment, error)
	Register(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error)
	Cancel(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error)
	Get(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error)
	GetByCart(ctx context.Context, cartID uuid.UUID) (*models.Shipment, error)
	List(ctx context.Context, params ListParams) (*ShipmentList, error)
}

type service struct {
	repo     Repository
	gateway  carrierGateway
	notifier statusNotifier
	cfg      config.EcontConfig
	conv     currency.Converter
	logg     *logger.Logger
}

// NewService wires the shipment lifecycle dependencies.
func NewService(repo Repository, gateway carrierGateway, notifier statusNotifier, cfg config.EcontConfig, conv currency.Converter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipments repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("carrier gateway required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("status notifier required")
	}
	return &service{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		cfg:      cfg,
		conv:     conv,
		logg:     logg,
	}, nil
}

func (s *service) SyncDraftFromPreference(ctx context.Context, pref *models.DeliveryPreference) (*models.Shipment, error) {
	if pref == nil || pref.CartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery preference with cart id required")
	}

	existing, err := s.repo.FindByCart(ctx, pref.CartID)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment for cart")
		}
		created, err := s.repo.Create(ctx, DraftFromPreference(pref))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create draft shipment")
		}
		return created, nil
	}

	switch existing.Status {
	case enums.ShipmentStatusDraft, enums.ShipmentStatusReady:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "delivery details are locked after registration")
	}

	applyPreference(existing, pref)
	if err := s.repo.Update(ctx, existing.ID, preferenceUpdates(pref)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update draft shipment")
	}
	return existing, nil
}

func (s *service) CreateFromOrder(ctx context.Context, input CreateFromOrderInput) (*models.Shipment, error) {
	if input.CartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	shipment, err := s.repo.FindByCart(ctx, input.CartID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no delivery preference saved for cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment for cart")
	}

	if shipment.Status == enums.ShipmentStatusReady && shipment.OrderID != nil && *shipment.OrderID == input.OrderID {
		return shipment, nil
	}
	if shipment.Status != enums.ShipmentStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipment already promoted for another order")
	}

	if shipment.CODAmount.IsPositive() && shipment.CODAmount.Sub(input.CartTotal).Abs().GreaterThan(codAmountTolerance) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cash on delivery amount does not match the order total")
	}

	orderID := input.OrderID
	updates := map[string]any{
		"status":   enums.ShipmentStatusReady,
		"order_id": orderID,
	}
	if err := s.repo.Update(ctx, shipment.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote shipment to ready")
	}

	shipment.Status = enums.ShipmentStatusReady
	shipment.OrderID = &orderID
	return shipment, nil
}

func (s *service) Register(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	shipment, err := s.find(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	switch shipment.Status {
	case enums.ShipmentStatusDraft, enums.ShipmentStatusReady:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipment can only be registered from draft or ready")
	}

	label, err := BuildLabel(s.cfg, s.conv, shipment)
	if err != nil {
		return nil, err
	}

	created, err := s.gateway.CreateShipment(ctx, label)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":          enums.ShipmentStatusRegistered,
		"waybill_number":  created.ShipmentNumber,
		"tracking_number": created.ShipmentNumber,
		"raw_request":     created.RawRequest,
		"raw_response":    created.RawResponse,
	}
	if created.PDFURL != "" {
		updates["label_url"] = created.PDFURL
	}
	if err := s.repo.Update(ctx, shipment.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist registered shipment")
	}

	shipment.Status = enums.ShipmentStatusRegistered
	shipment.WaybillNumber = &created.ShipmentNumber
	shipment.TrackingNumber = &created.ShipmentNumber
	if created.PDFURL != "" {
		pdf := created.PDFURL
		shipment.LabelURL = &pdf
	}
	shipment.RawRequest = &created.RawRequest
	shipment.RawResponse = &created.RawResponse

	s.notify(ctx, shipment)
	return shipment, nil
}

func (s *service) Cancel(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	shipment, err := s.find(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	if shipment.Status == enums.ShipmentStatusCancelled {
		return shipment, nil
	}
	if shipment.Status == enums.ShipmentStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "delivered shipments cannot be cancelled")
	}

	// Remote delete is best-effort. A carrier failure here never blocks the
	// local cancellation.
	if shipment.WaybillNumber != nil && *shipment.WaybillNumber != "" {
		if err := s.gateway.DeleteShipment(ctx, *shipment.WaybillNumber); err != nil && s.logg != nil {
			logCtx := s.logg.WithShipmentID(ctx, shipment.ID.String())
			logCtx = s.logg.WithWaybill(logCtx, *shipment.WaybillNumber)
			s.logg.Error(logCtx, "shipment.remote_delete_failed", err)
		}
	}

	if err := s.repo.Update(ctx, shipment.ID, map[string]any{"status": enums.ShipmentStatusCancelled}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cancelled shipment")
	}

	shipment.Status = enums.ShipmentStatusCancelled
	s.notify(ctx, shipment)
	return shipment, nil
}

func (s *service) Get(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	return s.find(ctx, shipmentID)
}

func (s *service) GetByCart(ctx context.Context, cartID uuid.UUID) (*models.Shipment, error) {
	if cartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	shipment, err := s.repo.FindByCart(ctx, cartID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment for cart")
	}
	return shipment, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ShipmentList, error) {
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipments")
	}
	return list, nil
}

func (s *service) find(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	shipment, err := s.repo.FindByID(ctx, shipmentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	return shipment, nil
}

func (s *service) notify(ctx context.Context, shipment *models.Shipment) {
	if err := s.notifier.ShipmentStatusChanged(ctx, shipment); err != nil && s.logg != nil {
		logCtx := s.logg.WithShipmentID(ctx, shipment.ID.String())
		s.logg.Error(logCtx, "shipment.notification_failed", err)
	}
}

// DraftFromPreference builds the draft shipment mirror of a delivery preference.
func DraftFromPreference(pref *models.DeliveryPreference) *models.Shipment {
	cartID := pref.CartID
	draft := &models.Shipment{CartID: &cartID, Status: enums.ShipmentStatusDraft}
	applyPreference(draft, pref)
	return draft
}

func applyPreference(shipment *models.Shipment, pref *models.DeliveryPreference) {
	shipment.DeliveryType = pref.DeliveryType
	shipment.OfficeCode = pref.OfficeCode
	shipment.OfficeName = pref.OfficeName
	shipment.City = pref.City
	shipment.PostCode = pref.PostCode
	shipment.AddressLine1 = pref.AddressLine1
	shipment.AddressLine2 = pref.AddressLine2
	shipment.Entrance = pref.Entrance
	shipment.Floor = pref.Floor
	shipment.Apartment = pref.Apartment
	shipment.Neighborhood = pref.Neighborhood
	shipment.AllowSaturdayDelivery = pref.AllowSaturdayDelivery
	shipment.FirstName = pref.FirstName
	shipment.LastName = pref.LastName
	shipment.Phone = pref.Phone
	shipment.Email = pref.Email
	shipment.CODAmount = pref.CODAmount
}

func preferenceUpdates(pref *models.DeliveryPreference) map[string]any {
	return map[string]any{
		"delivery_type":           pref.DeliveryType,
		"office_code":             pref.OfficeCode,
		"office_name":             pref.OfficeName,
		"city":                    pref.City,
		"post_code":               pref.PostCode,
		"address_line1":           pref.AddressLine1,
		"address_line2":           pref.AddressLine2,
		"entrance":                pref.Entrance,
		"floor":                   pref.Floor,
		"apartment":               pref.Apartment,
		"neighborhood":            pref.Neighborhood,
		"allow_saturday_delivery": pref.AllowSaturdayDelivery,
		"first_name":              pref.FirstName,
		"last_name":               pref.LastName,
		"phone":                   pref.Phone,
		"email":                   pref.Email,
		"cod_amount":              pref.CODAmount,
	}
}
