package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/gomarketplace-cart/internal/db"
)

type Store struct {
	q *db.Queries
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		q: db.New(pool),
	}
}

func NewStoreWithTx(tx pgx.Tx) *Store {
	return &Store{
		q: db.New(tx), // use provided transaction instead
	}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key is empty")
	}

	entry, err := s.q.GetEntry(ctx, key)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("q.GetEntry: %w", err)
	}

	return entry.Value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	err := s.q.PutEntry(ctx, db.PutEntryParams{
		Key:   key,
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("q.PutEntry: %w", err)
	}

	return nil
}
