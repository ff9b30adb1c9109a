package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    key TEXT NOT NULL,
    value JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (collection, key)
)`

type postgresBackend struct {
	db *sqlx.DB
}

type documentRow struct {
	Key   string `db:"key"`
	Value []byte `db:"value"`
}

// NewPostgres stores every row in the documents table, one JSONB value per (collection, key).
func NewPostgres(db *sqlx.DB) *RowStore {
	return newRowStore(&postgresBackend{db: db})
}

// EnsurePostgresSchema creates the documents table when it does not exist.
func EnsurePostgresSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, documentsSchema); err != nil {
		return fmt.Errorf("ensure documents table: %w", err)
	}
	return nil
}

func (p *postgresBackend) name() string { return "postgres" }

func (p *postgresBackend) loadRow(ctx context.Context, collection, key string) ([]byte, bool, error) {
	var raw []byte
	err := p.db.GetContext(ctx, &raw, `SELECT value FROM documents WHERE collection = $1 AND key = $2`, collection, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("select document: %w", err)
	}
	return raw, true, nil
}

func (p *postgresBackend) listRows(ctx context.Context, collection string) (map[string][]byte, error) {
	var rows []documentRow
	if err := p.db.SelectContext(ctx, &rows, `SELECT key, value FROM documents WHERE collection = $1 ORDER BY key`, collection); err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	out := make(map[string][]byte, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

func (p *postgresBackend) saveRow(ctx context.Context, collection, key string, raw []byte) error {
	const query = `INSERT INTO documents (collection, key, value, updated_at)
VALUES ($1, $2, $3::jsonb, NOW())
ON CONFLICT (collection, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := p.db.ExecContext(ctx, query, collection, key, string(raw)); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (p *postgresBackend) insertRow(ctx context.Context, collection, key string, raw []byte) (bool, error) {
	const query = `INSERT INTO documents (collection, key, value, updated_at)
VALUES ($1, $2, $3::jsonb, NOW())
ON CONFLICT (collection, key) DO NOTHING`
	res, err := p.db.ExecContext(ctx, query, collection, key, string(raw))
	if err != nil {
		return false, fmt.Errorf("insert document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert document rows affected: %w", err)
	}
	return affected == 1, nil
}

func (p *postgresBackend) deleteRow(ctx context.Context, collection, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND key = $2`, collection, key); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (p *postgresBackend) close(context.Context) error {
	return p.db.Close()
}
