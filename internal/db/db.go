// Package db holds the SQL queries used by the postgres key-value store.
package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type KvEntry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

const getEntry = `-- name: GetEntry :one
SELECT key, value, updated_at
FROM kv_entries
WHERE key = $1
`

func (q *Queries) GetEntry(ctx context.Context, key string) (KvEntry, error) {
	row := q.db.QueryRow(ctx, getEntry, key)
	var i KvEntry
	err := row.Scan(&i.Key, &i.Value, &i.UpdatedAt)
	return i, err
}

const putEntry = `-- name: PutEntry :exec
INSERT INTO kv_entries (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE
    SET value      = EXCLUDED.value,
        updated_at = EXCLUDED.updated_at
`

type PutEntryParams struct {
	Key   string
	Value string
}

func (q *Queries) PutEntry(ctx context.Context, arg PutEntryParams) error {
	_, err := q.db.Exec(ctx, putEntry, arg.Key, arg.Value)
	return err
}
