package notifications

import (
	"context"
	"time"

	"github.com/angelmondragon/parcelflow-backend/pkg/db/models"
	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/parcelflow-backend/pkg/errors"
	"github.com/angelmondragon/parcelflow-backend/pkg/logger"
	"github.com/angelmondragon/parcelflow-backend/pkg/pagination"
	"github.com/google/uuid"
)

// Service records customer-facing shipment notifications and exposes the
// read/list surface for the admin UI.
type Service interface {
	ShipmentStatusChanged(ctx context.Context, shipment *models.Shipment) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
}

type service struct {
	repo       Repository
	dispatcher Dispatcher
	logg       *logger.Logger
}

// ListParams configures pagination for notifications.
type ListParams struct {
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository, dispatcher Dispatcher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if dispatcher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification dispatcher required")
	}
	return &service{repo: repo, dispatcher: dispatcher, logg: logg}, nil
}

// ShipmentStatusChanged persists the notification payload for a shipment's
// new status and hands it to the dispatcher. Draft and ready transitions are
// silent. A dispatch failure is logged, never returned: the record already
// exists and the calling transition must not fail because of delivery.
func (s *service) ShipmentStatusChanged(ctx context.Context, shipment *models.Shipment) error {
	if shipment == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipment required")
	}

	notificationType, err := enums.NotificationTypeForStatus(shipment.Status)
	if err != nil {
		return nil
	}

	notification := &models.Notification{
		ShipmentID:           shipment.ID,
		OrderID:              shipment.OrderID,
		Type:                 notificationType,
		Status:               shipment.Status,
		RecipientEmail:       shipment.Email,
		RecipientName:        shipment.RecipientName(),
		WaybillNumber:        shipment.WaybillNumber,
		Destination:          shipment.DestinationDescription(),
		ExpectedDeliveryDate: shipment.ExpectedDeliveryDate,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist notification")
	}

	if err := s.dispatcher.Dispatch(ctx, notification); err != nil && s.logg != nil {
		logCtx := s.logg.WithShipmentID(ctx, shipment.ID.String())
		s.logg.Error(logCtx, "notification.dispatch_failed", err)
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listNotificationsParams{
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  rows,
		Cursor: cursor,
	}, nil
}

func (s *service) ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]models.Notification, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	rows, err := s.repo.ListByShipment(ctx, shipmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipment notifications")
	}
	return rows, nil
}

func (s *service) MarkRead(ctx context.Context, notificationID uuid.UUID) error {
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
