package shipments

import (
	"context"
	"testing"

	"github.com/angelmondragon/parcelflow-backend/pkg/config"
	"github.com/angelmondragon/parcelflow-backend/pkg/currency"
	"github.com/angelmondragon/parcelflow-backend/pkg/db/models"
	"github.com/angelmondragon/parcelflow-backend/pkg/econt"
	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/parcelflow-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubShipmentsRepo struct {
	shipment *models.Shipment
	created  *models.Shipment
	updates  map[string]any
}

func (s *stubShipmentsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubShipmentsRepo) Create(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error) {
	if shipment.ID == uuid.Nil {
		shipment.ID = uuid.New()
	}
	s.created = shipment
	return shipment, nil
}

func (s *stubShipmentsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	if s.shipment == nil || s.shipment.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.shipment, nil
}

func (s *stubShipmentsRepo) FindByCart(ctx context.Context, cartID uuid.UUID) (*models.Shipment, error) {
	if s.shipment == nil || s.shipment.CartID == nil || *s.shipment.CartID != cartID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.shipment, nil
}

func (s *stubShipmentsRepo) FindByWaybill(ctx context.Context, waybill string) (*models.Shipment, error) {
	if s.shipment == nil || s.shipment.WaybillNumber == nil || *s.shipment.WaybillNumber != waybill {
		return nil, gorm.ErrRecordNotFound
	}
	return s.shipment, nil
}

func (s *stubShipmentsRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates = updates
	return nil
}

func (s *stubShipmentsRepo) List(ctx context.Context, params ListParams) (*ShipmentList, error) {
	if s.shipment == nil {
		return &ShipmentList{}, nil
	}
	return &ShipmentList{Shipments: []models.Shipment{*s.shipment}}, nil
}

func (s *stubShipmentsRepo) FindSyncCandidates(ctx context.Context, limit int) ([]models.Shipment, error) {
	if s.shipment == nil {
		return nil, nil
	}
	return []models.Shipment{*s.shipment}, nil
}

type stubGateway struct {
	created      *econt.CreatedShipment
	createErr    error
	deleteErr    error
	createdLabel *econt.Label
	deleted      []string
}

func (s *stubGateway) CreateShipment(ctx context.Context, label econt.Label) (*econt.CreatedShipment, error) {
	s.createdLabel = &label
	if s.createErr != nil {
		return nil, s.createErr
	}
	if s.created != nil {
		return s.created, nil
	}
	return &econt.CreatedShipment{ShipmentNumber: "1055000000001"}, nil
}

func (s *stubGateway) DeleteShipment(ctx context.Context, waybill string) error {
	s.deleted = append(s.deleted, waybill)
	return s.deleteErr
}

type stubNotifier struct {
	statuses []enums.ShipmentStatus
	err      error
}

func (s *stubNotifier) ShipmentStatusChanged(ctx context.Context, shipment *models.Shipment) error {
	if s.err != nil {
		return s.err
	}
	s.statuses = append(s.statuses, shipment.Status)
	return nil
}

func testEcontConfig() config.EcontConfig {
	return config.EcontConfig{
		Username:         "demo",
		Password:         "demo",
		SenderName:       "Parcelflow Ltd",
		SenderPhone:      "+359888000000",
		SenderOfficeCode: "1127",
	}
}

func newTestService(t *testing.T, repo Repository, gateway carrierGateway, notifier statusNotifier) Service {
	t.Helper()
	svc, err := NewService(repo, gateway, notifier, testEcontConfig(), currency.NewConverter(), nil)
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func officeDraft(cartID uuid.UUID) *models.Shipment {
	office := "1127"
	return &models.Shipment{
		ID:           uuid.New(),
		CartID:       &cartID,
		Status:       enums.ShipmentStatusDraft,
		DeliveryType: enums.DeliveryTypeOffice,
		OfficeCode:   &office,
		FirstName:    "Ivan",
		LastName:     "Petrov",
		Phone:        "+359888123456",
		CODAmount:    decimal.RequireFromString("45.00"),
	}
}

func TestSyncDraftFromPreferenceCreatesDraft(t *testing.T) {
	repo := &stubShipmentsRepo{}
	svc := newTestService(t, repo, &stubGateway{}, &stubNotifier{})

	office := "1127"
	pref := &models.DeliveryPreference{
		CartID:       uuid.New(),
		DeliveryType: enums.DeliveryTypeOffice,
		OfficeCode:   &office,
		FirstName:    "Ivan",
		LastName:     "Petrov",
		Phone:        "+359888123456",
		CODAmount:    decimal.RequireFromString("45.00"),
	}
	shipment, err := svc.SyncDraftFromPreference(context.Background(), pref)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if shipment.Status != enums.ShipmentStatusDraft {
		t.Fatalf("expected draft got %s", shipment.Status)
	}
	if repo.created == nil {
		t.Fatal("expected draft shipment created")
	}
	if repo.created.CartID == nil || *repo.created.CartID != pref.CartID {
		t.Fatalf("draft not linked to cart")
	}
}

func TestSyncDraftFromPreferenceLockedAfterRegistration(t *testing.T) {
	cartID := uuid.New()
	shipment := officeDraft(cartID)
	shipment.Status = enums.ShipmentStatusRegistered
	repo := &stubShipmentsRepo{shipment: shipment}
	svc := newTestService(t, repo, &stubGateway{}, &stubNotifier{})

	pref := &models.DeliveryPreference{CartID: cartID, DeliveryType: enums.DeliveryTypeOffice}
	_, err := svc.SyncDraftFromPreference(context.Background(), pref)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
	if repo.updates != nil {
		t.Fatalf("unexpected update %+v", repo.updates)
	}
}

func TestCreateFromOrderPromotesDraft(t *testing.T) {
	cartID := uuid.New()
	repo := &stubShipmentsRepo{shipment: officeDraft(cartID)}
	svc := newTestService(t, repo, &stubGateway{}, &stubNotifier{})

	orderID := uuid.New()
	shipment, err := svc.CreateFromOrder(context.Background(), CreateFromOrderInput{
		CartID:    cartID,
		OrderID:   orderID,
		CartTotal: decimal.RequireFromString("45.00"),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if shipment.Status != enums.ShipmentStatusReady {
		t.Fatalf("expected ready got %s", shipment.Status)
	}
	if shipment.OrderID == nil || *shipment.OrderID != orderID {
		t.Fatalf("order not attached")
	}
}

func TestCreateFromOrderRejectsCODMismatch(t *testing.T) {
	cartID := uuid.New()
	repo := &stubShipmentsRepo{shipment: officeDraft(cartID)}
	svc := newTestService(t, repo, &stubGateway{}, &stubNotifier{})

	_, err := svc.CreateFromOrder(context.Background(), CreateFromOrderInput{
		CartID:    cartID,
		OrderID:   uuid.New(),
		CartTotal: decimal.RequireFromString("45.10"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestCreateFromOrderToleratesRoundingDrift(t *testing.T) {
	cartID := uuid.New()
	repo := &stubShipmentsRepo{shipment: officeDraft(cartID)}
	svc := newTestService(t, repo, &stubGateway{}, &stubNotifier{})

	_, err := svc.CreateFromOrder(context.Background(), CreateFromOrderInput{
		CartID:    cartID,
		OrderID:   uuid.New(),
		CartTotal: decimal.RequireFromString("45.02"),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
}

func TestRegisterFromReady(t *testing.T) {
	cartID := uuid.New()
	shipment := officeDraft(cartID)
	shipment.Status = enums.ShipmentStatusReady
	repo := &stubShipmentsRepo{shipment: shipment}
	gateway := &stubGateway{created: &econt.CreatedShipment{
		ShipmentNumber: "1055000000042",
		PDFURL:         "https://ee.econt.com/labels/1055000000042.pdf",
		RawRequest:     `{"label":{}}`,
		RawResponse:    `{"label":{"shipmentNumber":"1055000000042"}}`,
	}}
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, gateway, notifier)

	registered, err := svc.Register(context.Background(), shipment.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if registered.Status != enums.ShipmentStatusRegistered {
		t.Fatalf("expected registered got %s", registered.Status)
	}
	if registered.WaybillNumber == nil || *registered.WaybillNumber != "1055000000042" {
		t.Fatalf("waybill not persisted")
	}
	if registered.LabelURL == nil {
		t.Fatal("expected label url")
	}
	if repo.updates["raw_request"] != `{"label":{}}` {
		t.Fatalf("raw request not persisted: %+v", repo.updates)
	}
	if gateway.createdLabel == nil || gateway.createdLabel.CODAmount != "88.01" {
		t.Fatalf("unexpected label cod %+v", gateway.createdLabel)
	}
	if len(notifier.statuses) != 1 || notifier.statuses[0] != enums.ShipmentStatusRegistered {
		t.Fatalf("expected registered notification got %v", notifier.statuses)
	}
}

func TestRegisterRejectsRegisteredShipment(t *testing.T) {
	cartID := uuid.New()
	shipment := officeDraft(cartID)
	shipment.Status = enums.ShipmentStatusRegistered
	repo := &stubShipmentsRepo{shipment: shipment}
	gateway := &stubGateway{}
	svc := newTestService(t, repo, gateway, &stubNotifier{})

	_, err := svc.Register(context.Background(), shipment.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
	if gateway.createdLabel != nil {
		t.Fatal("unexpected carrier call")
	}
	if repo.updates != nil {
		t.Fatalf("record mutated: %+v", repo.updates)
	}
}

func TestRegisterCarrierFailureLeavesShipmentUntouched(t *testing.T) {
	cartID := uuid.New()
	shipment := officeDraft(cartID)
	shipment.Status = enums.ShipmentStatusReady
	repo := &stubShipmentsRepo{shipment: shipment}
	gateway := &stubGateway{createErr: pkgerrors.New(pkgerrors.CodeDependency, "carrier rejected request")}
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, gateway, notifier)

	_, err := svc.Register(context.Background(), shipment.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error got %v", err)
	}
	if repo.updates != nil {
		t.Fatalf("record mutated: %+v", repo.updates)
	}
	if len(notifier.statuses) != 0 {
		t.Fatal("unexpected notification")
	}
}

func TestCancelRegisteredDeletesRemoteLabel(t *testing.T) {
	cartID := uuid.New()
	shipment := officeDraft(cartID)
	shipment.Status = enums.ShipmentStatusRegistered
	waybill := "1055000000042"
	shipment.WaybillNumber = &waybill
	repo := &stubShipmentsRepo{shipment: shipment}
	gateway := &stubGateway{}
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, gateway, notifier)

	cancelled, err := svc.Cancel(context.Background(), shipment.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if cancelled.Status != enums.ShipmentStatusCancelled {
		t.Fatalf("expected cancelled got %s", cancelled.Status)
	}
	if len(gateway.deleted) != 1 || gateway.deleted[0] != waybill {
		t.Fatalf("expected remote delete got %v", gateway.deleted)
	}
	if len(notifier.statuses) != 1 || notifier.statuses[0] != enums.ShipmentStatusCancelled {
		t.Fatalf("expected cancelled notification got %v", notifier.statuses)
	}
}

func TestCancelSurvivesRemoteDeleteFailure(t *testing.T) {
	cartID := uuid.New()
	shipment := officeDraft(cartID)
	shipment.Status = enums.ShipmentStatusRegistered
	waybill := "1055000000042"
	shipment.WaybillNumber = &waybill
	repo := &stubShipmentsRepo{shipment: shipment}
	gateway := &stubGateway{deleteErr: pkgerrors.New(pkgerrors.CodeDependency, "carrier unavailable")}
	svc := newTestService(t, repo, gateway, &stubNotifier{})

	cancelled, err := svc.Cancel(context.Background(), shipment.ID)
	if err != nil {
		t.Fatalf("expected local cancel to succeed got %v", err)
	}
	if cancelled.Status != enums.ShipmentStatusCancelled {
		t.Fatalf("expected cancelled got %s", cancelled.Status)
	}
}

func TestCancelDraftSkipsRemoteDelete(t *testing.T) {
	cartID := uuid.New()
	shipment := officeDraft(cartID)
	repo := &stubShipmentsRepo{shipment: shipment}
	gateway := &stubGateway{}
	svc := newTestService(t, repo, gateway, &stubNotifier{})

	cancelled, err := svc.Cancel(context.Background(), shipment.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if cancelled.Status != enums.ShipmentStatusCancelled {
		t.Fatalf("expected cancelled got %s", cancelled.Status)
	}
	if len(gateway.deleted) != 0 {
		t.Fatal("unexpected remote delete for unregistered shipment")
	}
}

func TestCancelIdempotent(t *testing.T) {
	cartID := uuid.New()
	shipment := officeDraft(cartID)
	shipment.Status = enums.ShipmentStatusCancelled
	repo := &stubShipmentsRepo{shipment: shipment}
	gateway := &stubGateway{}
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, gateway, notifier)

	cancelled, err := svc.Cancel(context.Background(), shipment.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if cancelled.Status != enums.ShipmentStatusCancelled {
		t.Fatalf("expected cancelled got %s", cancelled.Status)
	}
	if len(gateway.deleted) != 0 {
		t.Fatal("unexpected remote delete")
	}
	if len(notifier.statuses) != 0 {
		t.Fatal("unexpected repeat notification")
	}
}

func TestCancelDeliveredRejected(t *testing.T) {
	cartID := uuid.New()
	shipment := officeDraft(cartID)
	shipment.Status = enums.ShipmentStatusDelivered
	repo := &stubShipmentsRepo{shipment: shipment}
	svc := newTestService(t, repo, &stubGateway{}, &stubNotifier{})

	_, err := svc.Cancel(context.Background(), shipment.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestNotificationFailureDoesNotFailRegistration(t *testing.T) {
	cartID := uuid.New()
	shipment := officeDraft(cartID)
	shipment.Status = enums.ShipmentStatusReady
	repo := &stubShipmentsRepo{shipment: shipment}
	notifier := &stubNotifier{err: pkgerrors.New(pkgerrors.CodeDependency, "notification store down")}
	svc := newTestService(t, repo, &stubGateway{}, notifier)

	registered, err := svc.Register(context.Background(), shipment.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if registered.Status != enums.ShipmentStatusRegistered {
		t.Fatalf("expected registered got %s", registered.Status)
	}
}
