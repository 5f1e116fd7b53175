package redisx

import "time"

const (
	// Idempotency for checkout attempts: idem:checkout:{attempt_id} -> order_id
	KeyIdemCheckout = "idem:checkout:%s"

	// Cached order status: order_status:{order_id} -> {"status": "...", ...}
	KeyOrderStatus = "order_status:%s"

	// Dedup for event consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Fulfillment checklist per order: hash fulfill:{order_id}, field per step
	KeyFulfillment = "fulfill:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLFulfillment = 14 * 24 * time.Hour
)
