package redisx

import "time"

const (
	// Expiry alert already sent: expiry_notified:{namespace}:{order_id}
	KeyExpiryNotified = "expiry_notified:%s:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	// Must outlive the alert window; an order past expiry is never alerted again.
	TTLExpiryNotified = 48 * time.Hour
	TTLDedup          = 48 * time.Hour
)
