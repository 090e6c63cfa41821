package gateway

import (
	"context"
	"errors"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rl1809/store-inventory/internal/core/domain"
	"github.com/rl1809/store-inventory/internal/port"
)

const tracerName = "github.com/rl1809/store-inventory/internal/adapter/gateway"

var ErrAlreadyClosed = errors.New("gateway already closed")

// Gateway mirrors inventory mutations into a document store. Write
// failures are logged and counted but never returned. Without a store the
// gateway runs in cache-only mode and every operation is a no-op.
type Gateway struct {
	store    port.DocumentStore
	logger   *zap.Logger
	tracer   trace.Tracer
	failures atomic.Int64
	closed   atomic.Bool
}

var _ port.Mirror = (*Gateway)(nil)

// New returns a gateway over store. A nil store selects cache-only mode.
func New(store port.DocumentStore, logger *zap.Logger) *Gateway {
	g := &Gateway{
		store:  store,
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
	if store == nil {
		logger.Warn("persistence unavailable, running in cache-only mode")
	}
	return g
}

func (g *Gateway) Available() bool {
	return g.store != nil
}

// Failures is the number of contained write or load failures so far.
func (g *Gateway) Failures() int64 {
	return g.failures.Load()
}

func (g *Gateway) Load(ctx context.Context) port.Snapshot {
	if g.store == nil {
		return port.Snapshot{}
	}
	return port.Snapshot{
		Products:   loadCollection(ctx, g, port.CollectionProducts, decodeProduct),
		Suppliers:  loadCollection(ctx, g, port.CollectionSuppliers, decodeSupplier),
		Orders:     loadCollection(ctx, g, port.CollectionOrders, decodeOrder),
		SellOrders: loadCollection(ctx, g, port.CollectionSellOrders, decodeSellOrder),
	}
}

func (g *Gateway) InsertProduct(ctx context.Context, p domain.Product) {
	g.write(ctx, "insert", port.CollectionProducts, p.SKU, func(ctx context.Context) error {
		return g.store.InsertOne(ctx, port.CollectionProducts, productDocument(p))
	})
}

// UpdateProduct sets quantity and price on the first record with p's sku.
func (g *Gateway) UpdateProduct(ctx context.Context, p domain.Product) {
	g.write(ctx, "update", port.CollectionProducts, p.SKU, func(ctx context.Context) error {
		filter := port.Filter{Field: productKey, Value: p.SKU}
		return g.store.UpdateOne(ctx, port.CollectionProducts, filter, productStockFields(p))
	})
}

func (g *Gateway) DeleteProduct(ctx context.Context, sku string) {
	g.write(ctx, "delete", port.CollectionProducts, sku, func(ctx context.Context) error {
		return g.store.DeleteOne(ctx, port.CollectionProducts, port.Filter{Field: productKey, Value: sku})
	})
}

func (g *Gateway) InsertSupplier(ctx context.Context, s domain.Supplier) {
	g.write(ctx, "insert", port.CollectionSuppliers, s.ID, func(ctx context.Context) error {
		return g.store.InsertOne(ctx, port.CollectionSuppliers, supplierDocument(s))
	})
}

func (g *Gateway) InsertOrder(ctx context.Context, o domain.Order) {
	g.write(ctx, "insert", port.CollectionOrders, o.OrderID, func(ctx context.Context) error {
		return g.store.InsertOne(ctx, port.CollectionOrders, orderDocument(o))
	})
}

func (g *Gateway) InsertSellOrder(ctx context.Context, o domain.SellOrder) {
	g.write(ctx, "insert", port.CollectionSellOrders, o.OrderID, func(ctx context.Context) error {
		return g.store.InsertOne(ctx, port.CollectionSellOrders, sellOrderDocument(o))
	})
}

// Close releases the document store. Only the first call does anything.
func (g *Gateway) Close(ctx context.Context) error {
	if !g.closed.CompareAndSwap(false, true) {
		return ErrAlreadyClosed
	}
	if g.store == nil {
		return nil
	}
	return g.store.Close(ctx)
}

func (g *Gateway) write(ctx context.Context, op, collection, key string, fn func(ctx context.Context) error) {
	if g.store == nil || g.closed.Load() {
		return
	}

	ctx, span := g.tracer.Start(ctx, "gateway."+op, trace.WithAttributes(
		attribute.String("db.collection.name", collection),
		attribute.String("inventory.key", key),
	))
	defer span.End()

	if err := fn(ctx); err != nil {
		g.failures.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn("persistence write failed",
			zap.String("op", op),
			zap.String("collection", collection),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// loadCollection skips records that cannot be decoded.
func loadCollection[T any](ctx context.Context, g *Gateway, collection string, decode func(port.Document) (T, error)) []T {
	ctx, span := g.tracer.Start(ctx, "gateway.load", trace.WithAttributes(
		attribute.String("db.collection.name", collection),
	))
	defer span.End()

	docs, err := g.store.FindAll(ctx, collection)
	if err != nil {
		g.failures.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn("persistence load failed", zap.String("collection", collection), zap.Error(err))
		return nil
	}

	out := make([]T, 0, len(docs))
	for i, doc := range docs {
		v, err := decode(doc)
		if err != nil {
			g.failures.Add(1)
			g.logger.Warn("skipping undecodable record",
				zap.String("collection", collection),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		out = append(out, v)
	}
	span.SetAttributes(attribute.Int("inventory.records", len(out)))
	return out
}
