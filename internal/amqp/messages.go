package amqp

import (
	"encoding/json"
	"time"
)

// ContributionMessage announces a committed ledger line. It carries only
// identifiers and the amount; the worker loads the full record from the
// database before exporting it.
type ContributionMessage struct {
	ContributionID int64     `json:"contribution_id"`
	EntryID        int64     `json:"entry_id"`
	AmountCents    int64     `json:"amount_cents"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewContributionMessage(contributionID, entryID, amountCents int64) *ContributionMessage {
	return &ContributionMessage{
		ContributionID: contributionID,
		EntryID:        entryID,
		AmountCents:    amountCents,
		Timestamp:      time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ContributionMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ContributionMessageFromJSON creates a message from JSON bytes
func ContributionMessageFromJSON(data []byte) (*ContributionMessage, error) {
	var msg ContributionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
