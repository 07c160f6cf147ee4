package statussync

import (
	"strings"

	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
)

// statusRule is one ordered substring rule. The carrier's status vocabulary
// is free text, so rules are evaluated in precedence order and the first
// match wins.
type statusRule struct {
	phrases []string
	status  enums.ShipmentStatus
}

// statusRules is ordered: terminal phrases are matched before in-progress
// ones so that "delivered to courier's office" still resolves as delivered.
var statusRules = []statusRule{
	{phrases: []string{"delivered"}, status: enums.ShipmentStatusDelivered},
	{phrases: []string{"cancel"}, status: enums.ShipmentStatusCancelled},
	{phrases: []string{"return"}, status: enums.ShipmentStatusCancelled},
	{phrases: []string{"prepared", "accepted in econt"}, status: enums.ShipmentStatusRegistered},
	{phrases: []string{
		"in route",
		"in courier",
		"in pick up",
		"accepted in office",
		"courier's office",
		"arrived in office",
		"departure from hub",
	}, status: enums.ShipmentStatusInTransit},
}

// Normalize maps the carrier's free-text status to the domain status.
// Matching is case-insensitive. Unrecognized text, including empty, is
// treated as still moving: an unknown phrase must never flip a shipment
// into a terminal state.
func Normalize(raw string) enums.ShipmentStatus {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	for _, rule := range statusRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(lowered, phrase) {
				return rule.status
			}
		}
	}
	return enums.ShipmentStatusInTransit
}
