package port

import (
	"context"

	"github.com/rl1809/store-inventory/internal/core/domain"
)

type EventPublisher interface {
	// PublishLowStock hands the event off for delivery; it must not block on the broker
	PublishLowStock(ctx context.Context, event domain.LowStockEvent) error
}
