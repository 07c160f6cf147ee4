package shipments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/parcelflow-backend/pkg/db/models"
	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
)

func setupShipmentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS shipments (
  id TEXT PRIMARY KEY,
  cart_id TEXT,
  order_id TEXT,
  status TEXT NOT NULL DEFAULT 'draft',
  delivery_type TEXT NOT NULL,
  office_code TEXT,
  office_name TEXT,
  city TEXT,
  post_code TEXT,
  address_line1 TEXT,
  address_line2 TEXT,
  entrance TEXT,
  floor TEXT,
  apartment TEXT,
  neighborhood TEXT,
  allow_saturday_delivery INTEGER NOT NULL DEFAULT 0,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT NOT NULL,
  email TEXT,
  cod_amount TEXT NOT NULL DEFAULT '0',
  waybill_number TEXT,
  tracking_number TEXT,
  label_url TEXT,
  short_status TEXT,
  short_status_en TEXT,
  tracking_events TEXT,
  delivery_attempts INTEGER NOT NULL DEFAULT 0,
  expected_delivery_date DATETIME,
  send_time DATETIME,
  delivery_time DATETIME,
  cod_collected_time DATETIME,
  cod_paid_time DATETIME,
  last_synced_at DATETIME,
  raw_request TEXT,
  raw_response TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func testShipment(status enums.ShipmentStatus, createdAt time.Time) *models.Shipment {
	cartID := uuid.New()
	return &models.Shipment{
		ID:           uuid.New(),
		CartID:       &cartID,
		Status:       status,
		DeliveryType: enums.DeliveryTypeOffice,
		OfficeCode:   strPtr("1127"),
		FirstName:    "Ivan",
		LastName:     "Petrov",
		Phone:        "+359888123456",
		CODAmount:    decimal.RequireFromString("45.00"),
		CreatedAt:    createdAt,
	}
}

func strPtr(s string) *string { return &s }

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, testShipment(enums.ShipmentStatusDraft, time.Now().UTC()))
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, enums.ShipmentStatusDraft, found.Status)
	assert.Equal(t, "Ivan", found.FirstName)
	assert.True(t, found.CODAmount.Equal(decimal.RequireFromString("45.00")))
}

func TestRepositoryFindByCartReturnsNewest(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cartID := uuid.New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	older := testShipment(enums.ShipmentStatusCancelled, base)
	older.CartID = &cartID
	_, err := repo.Create(ctx, older)
	require.NoError(t, err)

	newer := testShipment(enums.ShipmentStatusDraft, base.Add(time.Hour))
	newer.CartID = &cartID
	_, err = repo.Create(ctx, newer)
	require.NoError(t, err)

	found, err := repo.FindByCart(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, found.ID)
}

func TestRepositoryFindByWaybill(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	shipment := testShipment(enums.ShipmentStatusRegistered, time.Now().UTC())
	shipment.WaybillNumber = strPtr("1050000000001")
	_, err := repo.Create(ctx, shipment)
	require.NoError(t, err)

	found, err := repo.FindByWaybill(ctx, "1050000000001")
	require.NoError(t, err)
	assert.Equal(t, shipment.ID, found.ID)

	_, err = repo.FindByWaybill(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateAppliesColumns(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, testShipment(enums.ShipmentStatusReady, time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, created.ID, map[string]any{
		"status":         enums.ShipmentStatusRegistered,
		"waybill_number": "1050000000002",
	}))

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusRegistered, found.Status)
	require.NotNil(t, found.WaybillNumber)
	assert.Equal(t, "1050000000002", *found.WaybillNumber)
}

func TestRepositoryListPaginates(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		shipment := testShipment(enums.ShipmentStatusReady, base.Add(time.Duration(i)*time.Hour))
		_, err := repo.Create(ctx, shipment)
		require.NoError(t, err)
		ids = append(ids, shipment.ID)
	}

	status := enums.ShipmentStatusReady
	page, err := repo.List(ctx, ListParams{Status: &status, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Shipments, 2)
	assert.Equal(t, ids[2], page.Shipments[0].ID)
	assert.Equal(t, ids[1], page.Shipments[1].ID)
	require.NotEmpty(t, page.NextCursor)

	rest, err := repo.List(ctx, ListParams{Status: &status, Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Shipments, 1)
	assert.Equal(t, ids[0], rest.Shipments[0].ID)
	assert.Empty(t, rest.NextCursor)
}

func TestRepositoryListFiltersStatus(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := repo.Create(ctx, testShipment(enums.ShipmentStatusDraft, now))
	require.NoError(t, err)
	registered := testShipment(enums.ShipmentStatusRegistered, now.Add(time.Minute))
	_, err = repo.Create(ctx, registered)
	require.NoError(t, err)

	status := enums.ShipmentStatusRegistered
	page, err := repo.List(ctx, ListParams{Status: &status})
	require.NoError(t, err)
	require.Len(t, page.Shipments, 1)
	assert.Equal(t, registered.ID, page.Shipments[0].ID)
}

func TestRepositoryFindSyncCandidatesOrdersOldestFirst(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	neverSynced := testShipment(enums.ShipmentStatusRegistered, base)
	_, err := repo.Create(ctx, neverSynced)
	require.NoError(t, err)

	staleTime := base.Add(-2 * time.Hour)
	stale := testShipment(enums.ShipmentStatusInTransit, base)
	stale.LastSyncedAt = &staleTime
	_, err = repo.Create(ctx, stale)
	require.NoError(t, err)

	freshTime := base.Add(-5 * time.Minute)
	fresh := testShipment(enums.ShipmentStatusReady, base)
	fresh.LastSyncedAt = &freshTime
	_, err = repo.Create(ctx, fresh)
	require.NoError(t, err)

	// terminal rows are never candidates
	_, err = repo.Create(ctx, testShipment(enums.ShipmentStatusDelivered, base))
	require.NoError(t, err)
	_, err = repo.Create(ctx, testShipment(enums.ShipmentStatusDraft, base))
	require.NoError(t, err)

	candidates, err := repo.FindSyncCandidates(ctx, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, neverSynced.ID, candidates[0].ID)
	assert.Equal(t, stale.ID, candidates[1].ID)
	assert.Equal(t, fresh.ID, candidates[2].ID)
}
