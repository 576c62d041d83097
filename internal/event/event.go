package event

import "time"

// Event is the canonical input model for one inbound transaction.
// The core never mutates it; wire names match the upstream order feed.
type Event struct {
	ID            string         `json:"orderId"`
	UserID        string         `json:"userId"`
	DeviceID      string         `json:"deviceId"`
	Amount        float64        `json:"amount"`
	IP            string         `json:"ip"`
	PaymentMethod string         `json:"paymentMethod"`
	Timestamp     int64          `json:"timestamp"` // epoch millis, assigned by the producer
	Items         map[string]int `json:"items"`     // SKU → quantity
	ReceivedAt    time.Time      `json:"-"`
}
