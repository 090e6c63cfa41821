package port

import (
	"context"

	"github.com/rl1809/store-inventory/internal/core/domain"
)

// Snapshot is the full persisted state read once at startup.
type Snapshot struct {
	Products   []domain.Product
	Suppliers  []domain.Supplier
	Orders     []domain.Order
	SellOrders []domain.SellOrder
}

// Mirror receives every inventory mutation after it has been applied in
// memory. Writes are best effort: implementations contain their own
// failures and never report them to the caller.
type Mirror interface {
	Load(ctx context.Context) Snapshot

	InsertProduct(ctx context.Context, p domain.Product)
	UpdateProduct(ctx context.Context, p domain.Product)
	DeleteProduct(ctx context.Context, sku string)
	InsertSupplier(ctx context.Context, s domain.Supplier)
	InsertOrder(ctx context.Context, o domain.Order)
	InsertSellOrder(ctx context.Context, o domain.SellOrder)

	// Available reports whether a persistent store is connected
	Available() bool

	Close(ctx context.Context) error
}
