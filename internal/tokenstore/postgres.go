package tokenstore

import (
	"context"
	"database/sql"
	"errors"

	"storefront-client/pkg/utils"
)

const createSessionKVTable = `
CREATE TABLE IF NOT EXISTS session_kv (
	namespace  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (namespace, key)
)`

// PostgresBackend stores session values in the session_kv table.
// Multi-key writes and deletes run in one transaction.
type PostgresBackend struct {
	db        *sql.DB
	namespace string
}

func NewPostgresBackend(db *sql.DB, namespace string) *PostgresBackend {
	return &PostgresBackend{db: db, namespace: namespace}
}

// EnsureSchema creates the session_kv table if it does not exist.
func (p *PostgresBackend) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, createSessionKVTable)
	return err
}

func (p *PostgresBackend) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM session_kv WHERE namespace = $1 AND key = $2`
	var v string
	err := p.db.QueryRowContext(ctx, query, p.namespace, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (p *PostgresBackend) Put(ctx context.Context, values map[string]string) error {
	const query = `
		INSERT INTO session_kv (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	return utils.WithTx(ctx, p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for k, v := range values {
			if _, err := tx.ExecContext(ctx, query, p.namespace, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *PostgresBackend) Delete(ctx context.Context, keys ...string) error {
	const query = `DELETE FROM session_kv WHERE namespace = $1 AND key = $2`
	return utils.WithTx(ctx, p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx, query, p.namespace, k); err != nil {
				return err
			}
		}
		return nil
	})
}
