package amqp

import (
	"encoding/json"
	"time"
)

// DegradedEvent reports an aggregation that collapsed to a zero/empty result
// because of an upstream failure. Consumers use it to tell "genuinely zero"
// from "ledger unreachable"; the API response alone cannot.
type DegradedEvent struct {
	Operation string    `json:"operation"`
	Key       string    `json:"key"`
	Cause     string    `json:"cause"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDegradedEvent creates a degraded-aggregation event.
func NewDegradedEvent(operation, key, cause string) *DegradedEvent {
	return &DegradedEvent{
		Operation: operation,
		Key:       key,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *DegradedEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// CacheClearCommand is the administrative full-cache-clear instruction; the
// only invalidation path besides TTL expiry.
type CacheClearCommand struct {
	RequestedBy string    `json:"requestedBy,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// CacheClearCommandFromJSON creates a command from JSON bytes
func CacheClearCommandFromJSON(data []byte) (*CacheClearCommand, error) {
	var cmd CacheClearCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}
