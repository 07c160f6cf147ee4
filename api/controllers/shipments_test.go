package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/parcelflow-backend/internal/shipments"
	"github.com/angelmondragon/parcelflow-backend/pkg/db/models"
	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/parcelflow-backend/pkg/errors"
)

type stubShipmentService struct {
	createFn   func(ctx context.Context, input shipments.CreateFromOrderInput) (*models.Shipment, error)
	registerFn func(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error)
	cancelFn   func(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error)
	listFn     func(ctx context.Context, params shipments.ListParams) (*shipments.ShipmentList, error)
}

func (s *stubShipmentService) SyncDraftFromPreference(ctx context.Context, pref *models.DeliveryPreference) (*models.Shipment, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubShipmentService) CreateFromOrder(ctx context.Context, input shipments.CreateFromOrderInput) (*models.Shipment, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &models.Shipment{}, nil
}

func (s *stubShipmentService) Register(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, shipmentID)
	}
	return &models.Shipment{}, nil
}

func (s *stubShipmentService) Cancel(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, shipmentID)
	}
	return &models.Shipment{}, nil
}

func (s *stubShipmentService) Get(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	return &models.Shipment{ID: shipmentID}, nil
}

func (s *stubShipmentService) GetByCart(ctx context.Context, cartID uuid.UUID) (*models.Shipment, error) {
	return &models.Shipment{CartID: &cartID}, nil
}

func (s *stubShipmentService) List(ctx context.Context, params shipments.ListParams) (*shipments.ShipmentList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &shipments.ShipmentList{}, nil
}

func requestWithShipmentID(method, target string, shipmentID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("shipmentId", shipmentID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestCreateShipmentValidatesBody(t *testing.T) {
	handler := CreateShipment(&stubShipmentService{}, nil)

	body := strings.NewReader(`{"cart_id":"not-a-uuid","order_id":"","cart_total":""}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateShipmentPassesInputThrough(t *testing.T) {
	cartID := uuid.New()
	orderID := uuid.New()
	var got shipments.CreateFromOrderInput
	svc := &stubShipmentService{
		createFn: func(ctx context.Context, input shipments.CreateFromOrderInput) (*models.Shipment, error) {
			got = input
			return &models.Shipment{ID: uuid.New(), Status: enums.ShipmentStatusReady}, nil
		},
	}
	handler := CreateShipment(svc, nil)

	payload := `{"cart_id":"` + cartID.String() + `","order_id":"` + orderID.String() + `","cart_total":"45.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.CartID != cartID || got.OrderID != orderID {
		t.Fatalf("unexpected input %+v", got)
	}
	if !got.CartTotal.Equal(decimal.RequireFromString("45.00")) {
		t.Fatalf("expected cart total 45.00, got %s", got.CartTotal)
	}
}

func TestRegisterShipmentMapsStateConflict(t *testing.T) {
	svc := &stubShipmentService{
		registerFn: func(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipment is already registered")
		},
	}
	handler := RegisterShipment(svc, nil)

	req := requestWithShipmentID(http.MethodPost, "/api/v1/shipments/x/register", uuid.New())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict code, got %s", payload.Error.Code)
	}
}

func TestListShipmentsRejectsUnknownStatus(t *testing.T) {
	handler := ListShipments(&stubShipmentService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shipments?status=bogus", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListShipmentsParsesFilters(t *testing.T) {
	var got shipments.ListParams
	svc := &stubShipmentService{
		listFn: func(ctx context.Context, params shipments.ListParams) (*shipments.ShipmentList, error) {
			got = params
			return &shipments.ShipmentList{}, nil
		},
	}
	handler := ListShipments(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shipments?status=registered&limit=10&cursor=abc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.Status == nil || *got.Status != enums.ShipmentStatusRegistered {
		t.Fatalf("expected registered filter, got %+v", got.Status)
	}
	if got.Limit != 10 || got.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", got)
	}
}

func TestCancelShipmentRejectsBadID(t *testing.T) {
	handler := CancelShipment(&stubShipmentService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/not-a-uuid/cancel", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("shipmentId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
