package amqp

import (
	"encoding/json"
	"time"
)

// Event operations carried by TransactionEventMessage.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// TransactionEventMessage is a lightweight export trigger. It carries only
// the transaction id and the operation; the worker fetches the full
// transaction from the database.
type TransactionEventMessage struct {
	ID        string    `json:"id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionEventMessage creates an event message stamped with the
// current time.
func NewTransactionEventMessage(id, op string) *TransactionEventMessage {
	return &TransactionEventMessage{
		ID:        id,
		Op:        op,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON creates a message from JSON bytes.
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
