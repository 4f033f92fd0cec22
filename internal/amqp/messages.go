package amqp

import (
	"encoding/json"
	"time"
)

// Mail job kinds understood by the worker.
const (
	MailWelcome       = "welcome"
	MailWeeklySummary = "weekly_summary"
	MailHoliday       = "holiday"
)

// TransactionChangedMessage is the stale-data invalidation signal published
// after any transaction mutation. It carries only the affected aggregate key;
// consumers recompute from the store rather than trusting event payloads.
type TransactionChangedMessage struct {
	OwnerID   string    `json:"owner_id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionChangedMessage creates an invalidation signal for one
// (owner, year, month) key.
func NewTransactionChangedMessage(ownerID string, year, month int) *TransactionChangedMessage {
	return &TransactionChangedMessage{
		OwnerID:   ownerID,
		Year:      year,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionChangedMessageFromJSON creates a message from JSON bytes
func TransactionChangedMessageFromJSON(data []byte) (*TransactionChangedMessage, error) {
	var msg TransactionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MailJobMessage queues one outbound email for the worker.
type MailJobMessage struct {
	Kind      string    `json:"kind"`
	Recipient string    `json:"recipient"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMailJobMessage creates a mail job for one recipient.
func NewMailJobMessage(kind, recipient, name, ownerID string) *MailJobMessage {
	return &MailJobMessage{
		Kind:      kind,
		Recipient: recipient,
		Name:      name,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *MailJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MailJobMessageFromJSON creates a message from JSON bytes
func MailJobMessageFromJSON(data []byte) (*MailJobMessage, error) {
	var msg MailJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
