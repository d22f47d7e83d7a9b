package kafka

import "time"

// ListingSoldEvent is published after a listing transitions to sold
type ListingSoldEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	ListingID   string    `json:"listing_id"`
	OwnerID     string    `json:"owner_id"`
	AmountCents int64     `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
}

// PaymentCompletedEvent arrives from the payment collaborator when a
// checkout succeeds; consuming it marks the listing sold.
type PaymentCompletedEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	ListingID   string    `json:"listing_id"`
	AmountCents int64     `json:"amount"`
	IntentID    string    `json:"intent_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeListingSold      = "listing.sold"
	EventTypePaymentCompleted = "payment.completed"
)

// Kafka topics
const (
	TopicListingSold      = "listing-sold"
	TopicPaymentCompleted = "payment-completed"
)
