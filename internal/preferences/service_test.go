package preferences

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

type stubPreferencesRepo struct {
	pref        *models.DeliveryPreference
	saved       *models.DeliveryPreference
	cachedCost  *decimal.Decimal
	cachedCur   *enums.Currency
	saveErr     error
	costSaveErr error
}

func (s *stubPreferencesRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubPreferencesRepo) FindByCartID(ctx context.Context, cartID uuid.UUID) (*models.DeliveryPreference, error) {
	if s.pref == nil || s.pref.CartID != cartID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.pref, nil
}

func (s *stubPreferencesRepo) Save(ctx context.Context, pref *models.DeliveryPreference) (*models.DeliveryPreference, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	if pref.ID == uuid.Nil {
		pref.ID = uuid.New()
	}
	s.saved = pref
	s.pref = pref
	return pref, nil
}

func (s *stubPreferencesRepo) UpdateShippingCost(ctx context.Context, id uuid.UUID, cost decimal.Decimal, cur enums.Currency) error {
	if s.costSaveErr != nil {
		return s.costSaveErr
	}
	s.cachedCost = &cost
	s.cachedCur = &cur
	return nil
}

type stubDraftSyncer struct {
	shipment *models.Shipment
	getErr   error
	synced   *models.DeliveryPreference
	err      error
}

func (s *stubDraftSyncer) GetByCart(ctx context.Context, cartID uuid.UUID) (*models.Shipment, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.shipment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
	}
	return s.shipment, nil
}

func (s *stubDraftSyncer) SyncDraftFromPreference(ctx context.Context, pref *models.DeliveryPreference) (*models.Shipment, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.synced = pref
	return &models.Shipment{Status: enums.ShipmentStatusDraft}, nil
}

type stubCostGateway struct {
	calc  *econt.Calculation
	err   error
	label *econt.Label
}

func (s *stubCostGateway) CalculateShipment(ctx context.Context, label econt.Label) (*econt.Calculation, error) {
	s.label = &label
	if s.err != nil {
		return nil, s.err
	}
	return s.calc, nil
}

func strptr(v string) *string { return &v }

func officeInput(cartID uuid.UUID) SaveInput {
	return SaveInput{
		CartID:       cartID,
		DeliveryType: enums.DeliveryTypeOffice,
		OfficeCode:   strptr("1127"),
		OfficeName:   strptr("Sofia Center"),
		FirstName:    "Ivan",
		LastName:     "Petrov",
		Phone:        "+359888123456",
		CODAmount:    decimal.RequireFromString("45.00"),
	}
}

func newTestService(t *testing.T, repo Repository, drafts draftSyncer, gateway costGateway) Service {
	t.Helper()
	cfg := config.EcontConfig{SenderName: "Parcelflow Ltd", SenderPhone: "+359888000000", SenderOfficeCode: "1127"}
	svc, err := NewService(repo, drafts, gateway, cfg, currency.NewConverter(), nil)
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestSaveUpsertsAndSyncsDraft(t *testing.T) {
	repo := &stubPreferencesRepo{}
	drafts := &stubDraftSyncer{}
	svc := newTestService(t, repo, drafts, &stubCostGateway{})

	cartID := uuid.New()
	pref, err := svc.Save(context.Background(), officeInput(cartID))
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if pref.CartID != cartID {
		t.Fatalf("unexpected cart id %s", pref.CartID)
	}
	if repo.saved == nil {
		t.Fatal("preference not persisted")
	}
	if drafts.synced == nil || drafts.synced.CartID != cartID {
		t.Fatal("draft shipment not synced")
	}
}

func TestSaveRejectsOfficeWithoutCode(t *testing.T) {
	svc := newTestService(t, &stubPreferencesRepo{}, &stubDraftSyncer{}, &stubCostGateway{})

	input := officeInput(uuid.New())
	input.OfficeCode = nil
	_, err := svc.Save(context.Background(), input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestSaveRejectsAddressWithoutStreet(t *testing.T) {
	svc := newTestService(t, &stubPreferencesRepo{}, &stubDraftSyncer{}, &stubCostGateway{})

	input := officeInput(uuid.New())
	input.DeliveryType = enums.DeliveryTypeAddress
	input.City = strptr("Sofia")
	_, err := svc.Save(context.Background(), input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestSaveRejectsNegativeCOD(t *testing.T) {
	svc := newTestService(t, &stubPreferencesRepo{}, &stubDraftSyncer{}, &stubCostGateway{})

	input := officeInput(uuid.New())
	input.CODAmount = decimal.RequireFromString("-1")
	_, err := svc.Save(context.Background(), input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestSavePropagatesLockedDraft(t *testing.T) {
	drafts := &stubDraftSyncer{err: pkgerrors.New(pkgerrors.CodeStateConflict, "delivery details are locked after registration")}
	svc := newTestService(t, &stubPreferencesRepo{}, drafts, &stubCostGateway{})

	_, err := svc.Save(context.Background(), officeInput(uuid.New()))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestSaveLockedShipmentLeavesPreferenceUntouched(t *testing.T) {
	repo := &stubPreferencesRepo{}
	drafts := &stubDraftSyncer{shipment: &models.Shipment{Status: enums.ShipmentStatusRegistered}}
	svc := newTestService(t, repo, drafts, &stubCostGateway{})

	input := officeInput(uuid.New())
	input.OfficeCode = strptr("9999")
	_, err := svc.Save(context.Background(), input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict got %v", err)
	}
	if repo.saved != nil {
		t.Fatalf("preference persisted despite locked shipment: %+v", repo.saved)
	}
	if drafts.synced != nil {
		t.Fatal("draft sync attempted despite locked shipment")
	}
}

func TestSaveAllowsReadyShipment(t *testing.T) {
	repo := &stubPreferencesRepo{}
	drafts := &stubDraftSyncer{shipment: &models.Shipment{Status: enums.ShipmentStatusReady}}
	svc := newTestService(t, repo, drafts, &stubCostGateway{})

	if _, err := svc.Save(context.Background(), officeInput(uuid.New())); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.saved == nil {
		t.Fatal("preference not persisted")
	}
}

func TestGetNotFound(t *testing.T) {
	svc := newTestService(t, &stubPreferencesRepo{}, &stubDraftSyncer{}, &stubCostGateway{})

	_, err := svc.Get(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestCalculateCostConvertsAndCaches(t *testing.T) {
	cartID := uuid.New()
	office := "1127"
	repo := &stubPreferencesRepo{pref: &models.DeliveryPreference{
		ID:           uuid.New(),
		CartID:       cartID,
		DeliveryType: enums.DeliveryTypeOffice,
		OfficeCode:   &office,
		FirstName:    "Ivan",
		LastName:     "Petrov",
		Phone:        "+359888123456",
		CODAmount:    decimal.RequireFromString("45.00"),
	}}
	gateway := &stubCostGateway{calc: &econt.Calculation{TotalPrice: 6.50, Currency: "BGN"}}
	svc := newTestService(t, repo, &stubDraftSyncer{}, gateway)

	quote, err := svc.CalculateCost(context.Background(), cartID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if quote.CarrierAmount.StringFixed(2) != "6.50" || quote.CarrierCurrency != enums.CurrencyBGN {
		t.Fatalf("unexpected carrier quote %+v", quote)
	}
	// 6.50 BGN / 1.95583 = 3.32 EUR after rounding.
	if quote.Amount.StringFixed(2) != "3.32" || quote.Currency != enums.CurrencyEUR {
		t.Fatalf("unexpected store quote %+v", quote)
	}
	if repo.cachedCost == nil || repo.cachedCost.StringFixed(2) != "3.32" {
		t.Fatalf("cost not cached: %v", repo.cachedCost)
	}
	if gateway.label == nil || gateway.label.CODAmount != "88.01" {
		t.Fatalf("unexpected label cod %+v", gateway.label)
	}
}

func TestCalculateCostCacheFailureDoesNotFailQuote(t *testing.T) {
	cartID := uuid.New()
	office := "1127"
	repo := &stubPreferencesRepo{
		pref: &models.DeliveryPreference{
			ID:           uuid.New(),
			CartID:       cartID,
			DeliveryType: enums.DeliveryTypeOffice,
			OfficeCode:   &office,
			FirstName:    "Ivan",
			LastName:     "Petrov",
			Phone:        "+359888123456",
		},
		costSaveErr: gorm.ErrInvalidDB,
	}
	gateway := &stubCostGateway{calc: &econt.Calculation{TotalPrice: 6.50, Currency: "BGN"}}
	svc := newTestService(t, repo, &stubDraftSyncer{}, gateway)

	quote, err := svc.CalculateCost(context.Background(), cartID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if quote.Amount.StringFixed(2) != "3.32" {
		t.Fatalf("unexpected quote %+v", quote)
	}
}

func TestCalculateCostMissingPreference(t *testing.T) {
	svc := newTestService(t, &stubPreferencesRepo{}, &stubDraftSyncer{}, &stubCostGateway{})

	_, err := svc.CalculateCost(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}
