package service

import (
	"github.com/shopspring/decimal"

	"github.com/rl1809/store-inventory/internal/core/domain"
)

// Summary is the dashboard view of the product cache.
type Summary struct {
	TotalProducts     int             `json:"total_products"`
	TotalQuantity     int             `json:"total_quantity"`
	TotalValue        decimal.Decimal `json:"total_value"`
	LowStockCount     int             `json:"low_stock_count"`
	LowStockThreshold int             `json:"low_stock_threshold"`
}

// Aggregates are recomputed from the live cache on every call.

func (s *InventoryService) TotalProducts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.products)
}

func (s *InventoryService) TotalQuantity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return totalQuantity(s.products)
}

func (s *InventoryService) TotalValue() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return totalValue(s.products)
}

// LowStockCount counts products with quantity strictly below threshold.
func (s *InventoryService) LowStockCount(threshold int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lowStockCount(s.products, threshold)
}

func (s *InventoryService) Summary(threshold int) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Summary{
		TotalProducts:     len(s.products),
		TotalQuantity:     totalQuantity(s.products),
		TotalValue:        totalValue(s.products),
		LowStockCount:     lowStockCount(s.products, threshold),
		LowStockThreshold: threshold,
	}
}

func totalQuantity(products []domain.Product) int {
	total := 0
	for _, p := range products {
		total += p.Quantity
	}
	return total
}

func totalValue(products []domain.Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Value())
	}
	return total
}

func lowStockCount(products []domain.Product, threshold int) int {
	n := 0
	for _, p := range products {
		if p.Quantity < threshold {
			n++
		}
	}
	return n
}
