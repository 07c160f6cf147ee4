package notifications

import (
	"context"

	"github.com/angelmondragon/parcelflow-backend/pkg/db/models"
	"github.com/angelmondragon/parcelflow-backend/pkg/logger"
)

// Dispatcher hands a persisted notification to whatever renders and delivers
// the customer-facing message. Rendering and transport live entirely behind
// this boundary; this system only supplies the payload.
type Dispatcher interface {
	Dispatch(ctx context.Context, notification *models.Notification) error
}

// LogDispatcher is the default delivery boundary: it records the payload in
// the structured log and considers it delivered. Deployments with a real
// mail pipeline swap in their own Dispatcher.
type LogDispatcher struct {
	logg *logger.Logger
}

// NewLogDispatcher builds the logging dispatcher.
func NewLogDispatcher(logg *logger.Logger) *LogDispatcher {
	return &LogDispatcher{logg: logg}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, notification *models.Notification) error {
	if d.logg == nil {
		return nil
	}
	fields := map[string]any{
		"notification_id": notification.ID.String(),
		"shipment_id":     notification.ShipmentID.String(),
		"type":            notification.Type,
		"status":          notification.Status,
		"destination":     notification.Destination,
	}
	if notification.RecipientEmail != nil {
		fields["recipient_email"] = *notification.RecipientEmail
	}
	if notification.WaybillNumber != nil {
		fields["waybill"] = *notification.WaybillNumber
	}
	logCtx := d.logg.WithFields(ctx, fields)
	d.logg.Info(logCtx, "notification.dispatched")
	return nil
}
