package statussync

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/parcelflow-backend/pkg/db/models"
	"github.com/angelmondragon/parcelflow-backend/pkg/econt"
	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/parcelflow-backend/pkg/errors"
	"github.com/angelmondragon/parcelflow-backend/pkg/logger"
	"github.com/angelmondragon/parcelflow-backend/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// DefaultThrottleWindow bounds how often a single shipment is re-polled
// without forceRefresh.
const DefaultThrottleWindow = 15 * time.Minute

// shipmentStore is the slice of the shipments repository the sync engine needs.
type shipmentStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindSyncCandidates(ctx context.Context, limit int) ([]models.Shipment, error)
}

// tracker is the slice of the carrier client the sync engine needs.
type tracker interface {
	TrackShipment(ctx context.Context, waybill string) (*econt.ShipmentStatus, error)
	TrackShipments(ctx context.Context, waybills []string) ([]econt.ShipmentStatus, error)
}

type statusNotifier interface {
	ShipmentStatusChanged(ctx context.Context, shipment *models.Shipment) error
}

// SyncResult reports the outcome of a single-shipment reconciliation.
type SyncResult struct {
	Shipment       *models.Shipment     `json:"shipment"`
	StatusChanged  bool                 `json:"status_changed"`
	PreviousStatus enums.ShipmentStatus `json:"previous_status"`
	NewStatus      enums.ShipmentStatus `json:"new_status"`
}

// StatusChange is one entry of the batch change-set handed to the
// notification boundary.
type StatusChange struct {
	ShipmentID     uuid.UUID            `json:"shipment_id"`
	OrderID        *uuid.UUID           `json:"order_id,omitempty"`
	Waybill        string               `json:"waybill"`
	PreviousStatus enums.ShipmentStatus `json:"previous_status"`
	NewStatus      enums.ShipmentStatus `json:"new_status"`
	RecipientName  string               `json:"recipient_name"`
}

// BatchResult reports the outcome of a batch reconciliation. Shipments the
// carrier did not answer for are returned unchanged.
type BatchResult struct {
	Shipments     []models.Shipment `json:"shipments"`
	StatusChanges []StatusChange    `json:"status_changes"`
}

// Service reconciles local shipment records against the carrier's tracking data.
type Service interface {
	SyncOne(ctx context.Context, shipmentID uuid.UUID, force bool) (*SyncResult, error)
	SyncBatch(ctx context.Context, shipmentIDs []uuid.UUID) (*BatchResult, error)
	Candidates(ctx context.Context, limit int) ([]models.Shipment, error)
}

type service struct {
	store    shipmentStore
	tracker  tracker
	notifier statusNotifier
	throttle time.Duration
	logg     *logger.Logger
	now      func() time.Time
}

// Option configures optional service behavior.
type Option func(*service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the status-sync dependencies. A non-positive throttle
// window falls back to the default.
func NewService(store shipmentStore, tracker tracker, notifier statusNotifier, throttle time.Duration, logg *logger.Logger, opts ...Option) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("shipment store required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("carrier tracker required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("status notifier required")
	}
	if throttle <= 0 {
		throttle = DefaultThrottleWindow
	}
	svc := &service{
		store:    store,
		tracker:  tracker,
		notifier: notifier,
		throttle: throttle,
		logg:     logg,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

func (s *service) SyncOne(ctx context.Context, shipmentID uuid.UUID, force bool) (*SyncResult, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	shipment, err := s.store.FindByID(ctx, shipmentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}

	unchanged := &SyncResult{
		Shipment:       shipment,
		PreviousStatus: shipment.Status,
		NewStatus:      shipment.Status,
	}

	// Terminal records and records with no carrier reference are returned
	// as-is, without a remote call.
	if shipment.Status.IsTerminal() {
		return unchanged, nil
	}
	if shipment.WaybillNumber == nil || *shipment.WaybillNumber == "" {
		return unchanged, nil
	}
	if !force && shipment.LastSyncedAt != nil && s.now().Sub(*shipment.LastSyncedAt) < s.throttle {
		return unchanged, nil
	}

	remote, err := s.tracker.TrackShipment(ctx, *shipment.WaybillNumber)
	if err != nil {
		return nil, err
	}

	previous := shipment.Status
	changed, err := s.apply(ctx, shipment, remote)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist tracking snapshot")
	}
	if changed {
		s.notify(ctx, shipment)
	}
	return &SyncResult{
		Shipment:       shipment,
		StatusChanged:  changed,
		PreviousStatus: previous,
		NewStatus:      shipment.Status,
	}, nil
}

// SyncBatch reconciles many shipments in one carrier call. Batch sync is
// always forced; the 15-minute throttle only applies to single syncs.
func (s *service) SyncBatch(ctx context.Context, shipmentIDs []uuid.UUID) (*BatchResult, error) {
	if len(shipmentIDs) == 0 {
		return &BatchResult{}, nil
	}

	loaded := make([]*models.Shipment, 0, len(shipmentIDs))
	byWaybill := make(map[string]*models.Shipment)
	waybills := make([]string, 0, len(shipmentIDs))
	for _, id := range shipmentIDs {
		shipment, err := s.store.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		loaded = append(loaded, shipment)
		if shipment.Status.IsTerminal() {
			continue
		}
		if shipment.WaybillNumber == nil || *shipment.WaybillNumber == "" {
			continue
		}
		byWaybill[*shipment.WaybillNumber] = shipment
		waybills = append(waybills, *shipment.WaybillNumber)
	}

	result := &BatchResult{Shipments: make([]models.Shipment, 0, len(loaded))}
	if len(waybills) == 0 {
		for _, shipment := range loaded {
			result.Shipments = append(result.Shipments, *shipment)
		}
		return result, nil
	}

	remotes, err := s.tracker.TrackShipments(ctx, waybills)
	if err != nil {
		return nil, err
	}

	var persistErr error
	for i := range remotes {
		remote := remotes[i]
		shipment, ok := byWaybill[remote.ShipmentNumber]
		if !ok {
			continue
		}
		previous := shipment.Status
		changed, err := s.apply(ctx, shipment, &remote)
		if err != nil {
			persistErr = multierr.Append(persistErr, fmt.Errorf("shipment %s: %w", shipment.ID, err))
			continue
		}
		if changed {
			result.StatusChanges = append(result.StatusChanges, StatusChange{
				ShipmentID:     shipment.ID,
				OrderID:        shipment.OrderID,
				Waybill:        remote.ShipmentNumber,
				PreviousStatus: previous,
				NewStatus:      shipment.Status,
				RecipientName:  shipment.RecipientName(),
			})
			s.notify(ctx, shipment)
		}
	}

	for _, shipment := range loaded {
		result.Shipments = append(result.Shipments, *shipment)
	}
	return result, persistErr
}

func (s *service) Candidates(ctx context.Context, limit int) ([]models.Shipment, error) {
	shipments, err := s.store.FindSyncCandidates(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sync candidates")
	}
	return shipments, nil
}

// apply persists the tracking snapshot onto the shipment and mutates the
// in-memory record to match. It reports whether the domain status changed.
func (s *service) apply(ctx context.Context, shipment *models.Shipment, remote *econt.ShipmentStatus) (bool, error) {
	raw := remote.ShortDeliveryStatusEn
	if strings.TrimSpace(raw) == "" {
		raw = remote.ShortDeliveryStatus
	}
	newStatus := Normalize(raw)
	changed := newStatus != shipment.Status && !shipment.Status.IsTerminal()

	now := s.now().UTC()
	events := make(types.TrackingEvents, 0, len(remote.TrackingEvents))
	for _, event := range remote.TrackingEvents {
		events = append(events, types.TrackingEvent{
			Time:        parseCarrierTime(event.Time),
			City:        event.CityName,
			OfficeName:  event.OfficeName,
			Description: event.Description,
		})
	}

	updates := map[string]any{
		"short_status":           nullableString(remote.ShortDeliveryStatus),
		"short_status_en":        nullableString(remote.ShortDeliveryStatusEn),
		"tracking_events":        events,
		"delivery_attempts":      remote.DeliveryAttemptCount,
		"expected_delivery_date": parseCarrierTime(remote.ExpectedDeliveryDate),
		"send_time":              parseCarrierTime(remote.SendTime),
		"delivery_time":          parseCarrierTime(remote.DeliveryTime),
		"cod_collected_time":     parseCarrierTime(remote.CODCollectedTime),
		"cod_paid_time":          parseCarrierTime(remote.CODPaidTime),
		"raw_response":           remote.RawResponse,
		"last_synced_at":         now,
	}
	if changed {
		updates["status"] = newStatus
	}
	// A fresh label URL wins; an absent one keeps the previous value.
	if remote.PDFURL != "" {
		updates["label_url"] = remote.PDFURL
	}

	if err := s.store.Update(ctx, shipment.ID, updates); err != nil {
		return false, err
	}

	if changed {
		shipment.Status = newStatus
	}
	shipment.ShortStatus = nullableString(remote.ShortDeliveryStatus)
	shipment.ShortStatusEn = nullableString(remote.ShortDeliveryStatusEn)
	shipment.TrackingEvents = events
	shipment.DeliveryAttempts = remote.DeliveryAttemptCount
	shipment.ExpectedDeliveryDate = parseCarrierTime(remote.ExpectedDeliveryDate)
	shipment.SendTime = parseCarrierTime(remote.SendTime)
	shipment.DeliveryTime = parseCarrierTime(remote.DeliveryTime)
	shipment.CODCollectedTime = parseCarrierTime(remote.CODCollectedTime)
	shipment.CODPaidTime = parseCarrierTime(remote.CODPaidTime)
	if remote.PDFURL != "" {
		pdf := remote.PDFURL
		shipment.LabelURL = &pdf
	}
	if remote.RawResponse != "" {
		rawResp := remote.RawResponse
		shipment.RawResponse = &rawResp
	}
	shipment.LastSyncedAt = &now

	return changed, nil
}

func (s *service) notify(ctx context.Context, shipment *models.Shipment) {
	if err := s.notifier.ShipmentStatusChanged(ctx, shipment); err != nil && s.logg != nil {
		logCtx := s.logg.WithShipmentID(ctx, shipment.ID.String())
		s.logg.Error(logCtx, "statussync.notification_failed", err)
	}
}

// carrierTimeLayouts are tried in order. The carrier is not consistent about
// date formats across endpoints.
var carrierTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseCarrierTime parses a carrier date defensively. Unparseable input
// yields nil, never an error.
func parseCarrierTime(raw string) *time.Time {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "0" {
		return nil
	}
	for _, layout := range carrierTimeLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return &t
		}
	}
	// Some endpoints return epoch milliseconds.
	if millis, err := strconv.ParseInt(trimmed, 10, 64); err == nil && millis > 0 {
		t := time.UnixMilli(millis).UTC()
		return &t
	}
	return nil
}

func nullableString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
