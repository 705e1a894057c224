package amqp

import (
	"encoding/json"
	"time"
)

// ReminderMessage asks the mail worker to nag one owner about one unpaid
// subscription. It carries ids only; the worker re-fetches the records
// and re-evaluates payment state, so a payment made while the message
// was queued suppresses the email.
type ReminderMessage struct {
	SubscriptionID string    `json:"subscription_id"`
	OwnerID        string    `json:"owner_id"`
	DueDate        time.Time `json:"due_date"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewReminderMessage(subscriptionID, ownerID string, dueDate, now time.Time) *ReminderMessage {
	return &ReminderMessage{
		SubscriptionID: subscriptionID,
		OwnerID:        ownerID,
		DueDate:        dueDate,
		Timestamp:      now,
	}
}

func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
