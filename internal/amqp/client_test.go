package amqp

import (
	"testing"
	"time"
)

func TestContributionMessageRoundTrip(t *testing.T) {
	msg := NewContributionMessage(42, 7, 2500)
	if msg.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := ContributionMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ContributionID != 42 || got.EntryID != 7 || got.AmountCents != 2500 {
		t.Fatalf("got %+v, want contribution 42 on entry 7 for 2500", got)
	}
	if !got.Timestamp.Equal(msg.Timestamp.Truncate(time.Nanosecond)) {
		t.Fatalf("timestamp drifted: %v vs %v", got.Timestamp, msg.Timestamp)
	}
}

func TestContributionMessageFromInvalidJSON(t *testing.T) {
	if _, err := ContributionMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if _, err := ContributionMessageFromJSON([]byte(`{"contribution_id": "nope"}`)); err == nil {
		t.Fatal("expected error for wrong field type")
	}
}
