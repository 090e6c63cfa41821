package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/rl1809/store-inventory/internal/port"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id         BIGINT      NOT NULL AUTO_INCREMENT PRIMARY KEY,
	collection VARCHAR(64) NOT NULL,
	body       JSON        NOT NULL,
	created_at TIMESTAMP   NOT NULL DEFAULT CURRENT_TIMESTAMP,
	INDEX idx_documents_collection (collection, id)
)`

// MySQLAdapter stores every collection in one table of JSON documents.
type MySQLAdapter struct {
	db *sqlx.DB
}

var _ port.DocumentStore = (*MySQLAdapter)(nil)

type documentRow struct {
	ID   int64  `db:"id"`
	Body []byte `db:"body"`
}

func NewMySQLAdapter(db *sqlx.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, documentsSchema); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) FindAll(ctx context.Context, collection string) ([]port.Document, error) {
	var rows []documentRow
	err := m.db.SelectContext(ctx, &rows, `
		SELECT id, body FROM documents
		WHERE collection = ?
		ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", collection, err)
	}

	docs := make([]port.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeJSONDocument(row.Body)
		if err != nil {
			return nil, fmt.Errorf("decode %s#%d: %w", collection, row.ID, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (m *MySQLAdapter) InsertOne(ctx context.Context, collection string, doc port.Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO documents (collection, body) VALUES (?, ?)`,
		collection, string(b),
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", collection, err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateOne(ctx context.Context, collection string, filter port.Filter, set port.Document) error {
	if err := checkField(filter.Field); err != nil {
		return err
	}
	keys, err := sortedFields(set)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	assignments := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+3)
	for _, k := range keys {
		expr, arg, err := jsonSetArg(set[k])
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		assignments = append(assignments, "'$."+k+"', "+expr)
		args = append(args, arg)
	}
	args = append(args, collection, "$."+filter.Field, filter.Value)

	query := `
		UPDATE documents
		SET body = JSON_SET(body, ` + strings.Join(assignments, ", ") + `)
		WHERE collection = ? AND JSON_UNQUOTE(JSON_EXTRACT(body, ?)) = ?
		ORDER BY id
		LIMIT 1`
	if _, err := m.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	return nil
}

func (m *MySQLAdapter) DeleteOne(ctx context.Context, collection string, filter port.Filter) error {
	if err := checkField(filter.Field); err != nil {
		return err
	}

	_, err := m.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE collection = ? AND JSON_UNQUOTE(JSON_EXTRACT(body, ?)) = ?
		ORDER BY id
		LIMIT 1`,
		collection, "$."+filter.Field, filter.Value,
	)
	if err != nil {
		return fmt.Errorf("delete %s: %w", collection, err)
	}
	return nil
}

func (m *MySQLAdapter) Close(ctx context.Context) error {
	return m.db.Close()
}

// jsonSetArg binds scalars directly and casts anything else from JSON text.
func jsonSetArg(v any) (string, any, error) {
	switch v.(type) {
	case nil, string, bool, int, int32, int64, float32, float64:
		return "?", v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	return "CAST(? AS JSON)", string(b), nil
}
