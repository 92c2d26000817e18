package models

import "time"

// PremiumCutoff is the default client id boundary for premium customers.
// Clients with ids below the cutoff are served before everyone else.
const PremiumCutoff int64 = 1000

// Order represents a single pending donut order. A client can have at most
// one pending order at a time; orders are immutable once placed and are
// removed either by the client or when a delivery is finished.
type Order struct {
	ID          int64     `db:"id" json:"orderId"`
	ClientID    int64     `db:"client_id" json:"clientId"`
	Quantity    int       `db:"quantity" json:"quantity"`
	SubmittedAt time.Time `db:"submitted_at" json:"submittedAt"`
}

// IsPriority reports whether the order belongs to a premium customer.
// The flag is derived from the client id on every access and is never
// persisted, so the cutoff can change without a data migration.
func (o Order) IsPriority(cutoff int64) bool {
	return o.ClientID < cutoff
}

// QueueEntry is an order together with its place in the serving queue.
// Position and wait time depend on every order ahead in the queue, so
// entries are recomputed on each read and never stored.
type QueueEntry struct {
	Order
	IsPriority    bool   `json:"isPriority"`
	QueuePosition int    `json:"queuePosition"`
	EstimatedWait string `json:"estimatedWait"`
}
