package port

import "context"

// Collection names shared by every document backend.
const (
	CollectionProducts   = "products"
	CollectionSuppliers  = "suppliers"
	CollectionOrders     = "orders"
	CollectionSellOrders = "sell_orders"
)

// Document is a schema-less record. Nested sequences are []any and nested
// records are map[string]any.
type Document map[string]any

// Filter selects records whose Field equals Value exactly.
type Filter struct {
	Field string
	Value string
}

type DocumentStore interface {
	// FindAll returns every record of the collection in insertion order
	FindAll(ctx context.Context, collection string) ([]Document, error)

	// InsertOne appends a record without checking for key collisions
	InsertOne(ctx context.Context, collection string, doc Document) error

	// UpdateOne sets the given fields on the first record matching filter
	UpdateOne(ctx context.Context, collection string, filter Filter, set Document) error

	// DeleteOne removes the first record matching filter
	DeleteOne(ctx context.Context, collection string, filter Filter) error

	// Close releases the underlying connection
	Close(ctx context.Context) error
}
