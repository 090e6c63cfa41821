package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/rl1809/store-inventory/internal/port"
)

type MongoAdapter struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ port.DocumentStore = (*MongoAdapter)(nil)

// ConnectMongo dials uri and verifies the primary is reachable.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoAdapter, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return NewMongoAdapter(client, database), nil
}

func NewMongoAdapter(client *mongo.Client, database string) *MongoAdapter {
	return &MongoAdapter{
		client: client,
		db:     client.Database(database),
	}
}

func (m *MongoAdapter) FindAll(ctx context.Context, collection string) ([]port.Document, error) {
	cur, err := m.db.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}

	docs := make([]port.Document, 0, len(raw))
	for _, r := range raw {
		doc := normalizeBSON(r).(map[string]any)
		delete(doc, "_id")
		docs = append(docs, port.Document(doc))
	}
	return docs, nil
}

func (m *MongoAdapter) InsertOne(ctx context.Context, collection string, doc port.Document) error {
	if _, err := m.db.Collection(collection).InsertOne(ctx, bson.M(doc)); err != nil {
		return fmt.Errorf("insert %s: %w", collection, err)
	}
	return nil
}

func (m *MongoAdapter) UpdateOne(ctx context.Context, collection string, filter port.Filter, set port.Document) error {
	if err := checkField(filter.Field); err != nil {
		return err
	}
	if _, err := sortedFields(set); err != nil {
		return err
	}

	_, err := m.db.Collection(collection).UpdateOne(ctx,
		bson.M{filter.Field: filter.Value},
		bson.M{"$set": bson.M(set)},
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	return nil
}

func (m *MongoAdapter) DeleteOne(ctx context.Context, collection string, filter port.Filter) error {
	if err := checkField(filter.Field); err != nil {
		return err
	}

	if _, err := m.db.Collection(collection).DeleteOne(ctx, bson.M{filter.Field: filter.Value}); err != nil {
		return fmt.Errorf("delete %s: %w", collection, err)
	}
	return nil
}

func (m *MongoAdapter) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// normalizeBSON turns driver document and array types into plain maps and
// slices.
func normalizeBSON(v any) any {
	switch t := v.(type) {
	case bson.M:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalizeBSON(e.Value)
		}
		return out
	case bson.A:
		return normalizeSlice(t)
	case []any:
		return normalizeSlice(t)
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeBSON(v)
	}
	return out
}

func normalizeSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = normalizeBSON(v)
	}
	return out
}
