package amqp

import (
	"testing"
	"time"
)

func TestNewDegradedEvent(t *testing.T) {
	event := NewDegradedEvent("project_cost", "cost:Casa Corações", "upstream status 502")

	if event.Operation != "project_cost" || event.Key != "cost:Casa Corações" {
		t.Fatalf("event = %+v", event)
	}
	if event.Timestamp.IsZero() || time.Since(event.Timestamp) > time.Second {
		t.Fatal("timestamp should be recent")
	}
}

func TestDegradedEventJSON(t *testing.T) {
	event := &DegradedEvent{
		Operation: "realized_profit",
		Key:       "profit:Casa:12345678900",
		Cause:     "pagination drain exceeded page cap",
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := event.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	for _, want := range []string{`"operation":"realized_profit"`, `"key":"profit:Casa:12345678900"`} {
		if !containsStr(string(data), want) {
			t.Fatalf("JSON %s missing %s", data, want)
		}
	}
}

func TestCacheClearCommandFromJSON(t *testing.T) {
	cmd, err := CacheClearCommandFromJSON([]byte(`{"requestedBy":"ops","timestamp":"2024-03-01T12:00:00Z"}`))
	if err != nil {
		t.Fatal(err)
	}
	if cmd.RequestedBy != "ops" {
		t.Fatalf("cmd = %+v", cmd)
	}

	if _, err := CacheClearCommandFromJSON([]byte(`{"timestamp": 12}`)); err == nil {
		t.Fatal("invalid JSON should fail")
	}
}

func containsStr(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
