package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TrackingEvent is one row of the carrier's tracking history for a shipment.
type TrackingEvent struct {
	Time        *time.Time `json:"time,omitempty"`
	City        string     `json:"city,omitempty"`
	OfficeName  string     `json:"office_name,omitempty"`
	Description string     `json:"description"`
}

// TrackingEvents stores the carrier tracking history inside a JSONB column,
// most-recent-first as returned by the carrier.
type TrackingEvents []TrackingEvent

// Value serializes the event list to JSON.
func (t TrackingEvents) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

// Scan decodes JSONB into the event list.
func (t *TrackingEvents) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded TrackingEvents
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*t = decoded
	return nil
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported jsonb source type %T", value)
	}
}
