package enums

import "fmt"

// ShipmentStatus tracks the lifecycle of a carrier shipment.
type ShipmentStatus string

const (
	ShipmentStatusDraft      ShipmentStatus = "draft"
	ShipmentStatusReady      ShipmentStatus = "ready"
	ShipmentStatusRegistered ShipmentStatus = "registered"
	ShipmentStatusInTransit  ShipmentStatus = "in_transit"
	ShipmentStatusDelivered  ShipmentStatus = "delivered"
	ShipmentStatusCancelled  ShipmentStatus = "cancelled"
	// ShipmentStatusError is reserved for unrecoverable carrier faults.
	// No code path writes it today; the column type already admits it.
	ShipmentStatusError ShipmentStatus = "error"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusDraft,
	ShipmentStatusReady,
	ShipmentStatusRegistered,
	ShipmentStatusInTransit,
	ShipmentStatusDelivered,
	ShipmentStatusCancelled,
	ShipmentStatusError,
}

// SyncCandidateStatuses are the states where polling the carrier can still
// change the record. Terminal states are never re-polled.
var SyncCandidateStatuses = []ShipmentStatus{
	ShipmentStatusReady,
	ShipmentStatusRegistered,
	ShipmentStatusInTransit,
}

// String implements fmt.Stringer.
func (s ShipmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipmentStatus.
func (s ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are expected.
func (s ShipmentStatus) IsTerminal() bool {
	return s == ShipmentStatusDelivered || s == ShipmentStatusCancelled
}

// ParseShipmentStatus converts raw input into a ShipmentStatus.
func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	for _, candidate := range validShipmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment status %q", value)
}
