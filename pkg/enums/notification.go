package enums

import "fmt"

// NotificationType names the shipment transitions worth telling the customer about.
type NotificationType string

const (
	NotificationShipmentRegistered NotificationType = "shipment_registered"
	NotificationShipmentInTransit  NotificationType = "shipment_in_transit"
	NotificationShipmentDelivered  NotificationType = "shipment_delivered"
	NotificationShipmentCancelled  NotificationType = "shipment_cancelled"
)

var validNotificationTypes = []NotificationType{
	NotificationShipmentRegistered,
	NotificationShipmentInTransit,
	NotificationShipmentDelivered,
	NotificationShipmentCancelled,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// NotificationTypeForStatus maps a shipment status to the notification emitted
// on first entry into that status. Draft and ready transitions are silent.
func NotificationTypeForStatus(status ShipmentStatus) (NotificationType, error) {
	switch status {
	case ShipmentStatusRegistered:
		return NotificationShipmentRegistered, nil
	case ShipmentStatusInTransit:
		return NotificationShipmentInTransit, nil
	case ShipmentStatusDelivered:
		return NotificationShipmentDelivered, nil
	case ShipmentStatusCancelled:
		return NotificationShipmentCancelled, nil
	}
	return "", fmt.Errorf("no notification for status %q", status)
}
