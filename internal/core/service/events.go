package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/store-inventory/internal/core/domain"
)

func (s *InventoryService) crossedLowStock(before, after int) bool {
	if s.events == nil || s.lowStockThreshold <= 0 {
		return false
	}
	return before >= s.lowStockThreshold && after < s.lowStockThreshold
}

func (s *InventoryService) publishLowStock(ctx context.Context, alerts []domain.LowStockEvent) {
	now := time.Now().UTC()
	for _, ev := range alerts {
		ev.OccurredAt = now
		if err := s.events.PublishLowStock(ctx, ev); err != nil {
			s.logger.Warn("low stock event dropped",
				zap.String("sku", ev.SKU),
				zap.Int("quantity", ev.Quantity),
				zap.Error(err),
			)
		}
	}
}
