package domain

import "time"

// LowStockEvent is emitted when a sale leaves a product below the
// configured threshold.
type LowStockEvent struct {
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	Threshold  int       `json:"threshold"`
	SellOrder  string    `json:"sell_order_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
