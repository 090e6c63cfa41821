package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/store-inventory/internal/port"
)

const collectionKeyPrefix = "inventory:"

// Each collection is a list of JSON documents in insertion order.

var updateOneScript = redis.NewScript(`
local key = KEYS[1]
local field = ARGV[1]
local value = ARGV[2]
local set = cjson.decode(ARGV[3])

local docs = redis.call('LRANGE', key, 0, -1)
for i, raw in ipairs(docs) do
	local doc = cjson.decode(raw)
	if doc[field] ~= nil and tostring(doc[field]) == value then
		for k, v in pairs(set) do
			doc[k] = v
		end
		redis.call('LSET', key, i - 1, cjson.encode(doc))
		return 1
	end
end

return 0
`)

var deleteOneScript = redis.NewScript(`
local key = KEYS[1]
local field = ARGV[1]
local value = ARGV[2]

local docs = redis.call('LRANGE', key, 0, -1)
for _, raw in ipairs(docs) do
	local doc = cjson.decode(raw)
	if doc[field] ~= nil and tostring(doc[field]) == value then
		redis.call('LREM', key, 1, raw)
		return 1
	end
end

return 0
`)

type RedisAdapter struct {
	client *redis.Client
}

var _ port.DocumentStore = (*RedisAdapter)(nil)

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) FindAll(ctx context.Context, collection string) ([]port.Document, error) {
	raw, err := r.client.LRange(ctx, collectionKeyPrefix+collection, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", collection, err)
	}

	docs := make([]port.Document, 0, len(raw))
	for i, s := range raw {
		doc, err := decodeJSONDocument([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("decode %s[%d]: %w", collection, i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *RedisAdapter) InsertOne(ctx context.Context, collection string, doc port.Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return r.client.RPush(ctx, collectionKeyPrefix+collection, b).Err()
}

func (r *RedisAdapter) UpdateOne(ctx context.Context, collection string, filter port.Filter, set port.Document) error {
	if err := checkField(filter.Field); err != nil {
		return err
	}
	if _, err := sortedFields(set); err != nil {
		return err
	}
	b, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}

	key := collectionKeyPrefix + collection
	return updateOneScript.Run(ctx, r.client, []string{key}, filter.Field, filter.Value, string(b)).Err()
}

func (r *RedisAdapter) DeleteOne(ctx context.Context, collection string, filter port.Filter) error {
	if err := checkField(filter.Field); err != nil {
		return err
	}

	key := collectionKeyPrefix + collection
	return deleteOneScript.Run(ctx, r.client, []string{key}, filter.Field, filter.Value).Err()
}

func (r *RedisAdapter) Close(ctx context.Context) error {
	return r.client.Close()
}

// decodeJSONDocument keeps numbers as json.Number so integers stay exact.
func decodeJSONDocument(b []byte) (port.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return port.Document(doc), nil
}
