package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/store-inventory/internal/core/domain"
	"github.com/rl1809/store-inventory/internal/port"
)

var ErrNotImplemented = errors.New("operation not implemented")

// InventoryService is the in-memory working set of products, suppliers,
// purchase orders and sell orders. Every mutation is applied to the cache
// first and then mirrored to persistence; a failed mirror write is never
// rolled back, so the cache and the persistent store may diverge.
type InventoryService struct {
	mu         sync.RWMutex
	products   []domain.Product
	suppliers  []domain.Supplier
	orders     []domain.Order
	sellOrders []domain.SellOrder

	mirror            port.Mirror
	events            port.EventPublisher
	lowStockThreshold int
	logger            *zap.Logger
}

func NewInventoryService(mirror port.Mirror, logger *zap.Logger) *InventoryService {
	return &InventoryService{
		mirror: mirror,
		logger: logger,
	}
}

// WithLowStockEvents publishes an event whenever a sale takes a product
// from at or above threshold to below it.
func (s *InventoryService) WithLowStockEvents(events port.EventPublisher, threshold int) *InventoryService {
	s.events = events
	s.lowStockThreshold = threshold
	return s
}

// Open replaces the cache with everything currently persisted.
func (s *InventoryService) Open(ctx context.Context) {
	snap := s.mirror.Load(ctx)

	s.mu.Lock()
	s.products = append([]domain.Product(nil), snap.Products...)
	s.suppliers = append([]domain.Supplier(nil), snap.Suppliers...)
	s.orders = append([]domain.Order(nil), snap.Orders...)
	s.sellOrders = append([]domain.SellOrder(nil), snap.SellOrders...)
	s.mu.Unlock()

	s.logger.Info("inventory loaded",
		zap.Bool("persistent", s.mirror.Available()),
		zap.Int("products", len(snap.Products)),
		zap.Int("suppliers", len(snap.Suppliers)),
		zap.Int("orders", len(snap.Orders)),
		zap.Int("sell_orders", len(snap.SellOrders)),
	)
}

// Close releases the persistence connection. Call it once at shutdown.
func (s *InventoryService) Close(ctx context.Context) error {
	return s.mirror.Close(ctx)
}

// Persistent reports whether mutations reach a persistent store.
func (s *InventoryService) Persistent() bool {
	return s.mirror.Available()
}

// Product operations

// AddProduct does not check for an existing sku; duplicates are kept.
func (s *InventoryService) AddProduct(ctx context.Context, p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = append(s.products, p)
	s.mirror.InsertProduct(ctx, p)
}

func (s *InventoryService) GetAllProducts() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append(make([]domain.Product, 0, len(s.products)), s.products...)
}

func (s *InventoryService) FindProductBySKU(sku string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.productIndex(sku); i >= 0 {
		return s.products[i], true
	}
	return domain.Product{}, false
}

// UpdateProduct overwrites quantity and price of the first product with
// sku. An unknown sku is a no-op.
func (s *InventoryService) UpdateProduct(ctx context.Context, sku string, quantity int, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.productIndex(sku)
	if i < 0 {
		return
	}
	s.products[i].Quantity = quantity
	s.products[i].Price = price
	s.mirror.UpdateProduct(ctx, s.products[i])
}

// RemoveProduct drops every cached product with sku and reports whether
// any existed.
func (s *InventoryService) RemoveProduct(ctx context.Context, sku string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.products[:0]
	for _, p := range s.products {
		if p.SKU != sku {
			kept = append(kept, p)
		}
	}
	removed := len(kept) != len(s.products)
	clear(s.products[len(kept):])
	s.products = kept

	if removed {
		s.mirror.DeleteProduct(ctx, sku)
	}
	return removed
}

// SearchProducts matches term case-insensitively against name, sku and
// description.
func (s *InventoryService) SearchProducts(term string) []domain.Product {
	needle := strings.ToLower(term)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0)
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.SKU), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			out = append(out, p)
		}
	}
	return out
}

// Supplier operations

func (s *InventoryService) AddSupplier(ctx context.Context, supplier domain.Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.suppliers = append(s.suppliers, supplier)
	s.mirror.InsertSupplier(ctx, supplier)
}

func (s *InventoryService) GetAllSuppliers() []domain.Supplier {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append(make([]domain.Supplier, 0, len(s.suppliers)), s.suppliers...)
}

func (s *InventoryService) FindSupplierByID(id string) (domain.Supplier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, supplier := range s.suppliers {
		if supplier.ID == id {
			return supplier, true
		}
	}
	return domain.Supplier{}, false
}

// RemoveSupplier is not supported, whether or not id exists.
func (s *InventoryService) RemoveSupplier(ctx context.Context, id string) error {
	return ErrNotImplemented
}

// Order operations

// AddOrder records a purchase order. Product quantities are untouched.
func (s *InventoryService) AddOrder(ctx context.Context, order domain.Order) {
	order = order.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = append(s.orders, order)
	s.mirror.InsertOrder(ctx, order)
}

func (s *InventoryService) GetAllOrders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = o.Clone()
	}
	return out
}

// AddSellOrder records the sale and then decrements each referenced
// product, clamping at zero. Items with an unknown sku are skipped and
// nothing already applied is undone.
func (s *InventoryService) AddSellOrder(ctx context.Context, order domain.SellOrder) {
	order = order.Clone()

	var alerts []domain.LowStockEvent

	s.mu.Lock()
	s.sellOrders = append(s.sellOrders, order)
	s.mirror.InsertSellOrder(ctx, order)

	for _, item := range order.Items {
		i := s.productIndex(item.SKU)
		if i < 0 {
			continue
		}
		p := &s.products[i]
		before := p.Quantity
		p.Quantity = max(0, p.Quantity-item.Quantity)
		s.mirror.UpdateProduct(ctx, *p)

		if s.crossedLowStock(before, p.Quantity) {
			alerts = append(alerts, domain.LowStockEvent{
				SKU:       p.SKU,
				Name:      p.Name,
				Quantity:  p.Quantity,
				Threshold: s.lowStockThreshold,
				SellOrder: order.OrderID,
			})
		}
	}
	s.mu.Unlock()

	s.publishLowStock(ctx, alerts)
}

func (s *InventoryService) GetAllSellOrders() []domain.SellOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SellOrder, len(s.sellOrders))
	for i, o := range s.sellOrders {
		out[i] = o.Clone()
	}
	return out
}

// productIndex returns the first index holding sku or -1. Callers hold mu.
func (s *InventoryService) productIndex(sku string) int {
	for i := range s.products {
		if s.products[i].SKU == sku {
			return i
		}
	}
	return -1
}
