package cart

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoStore = errors.New("cart store is not attached to the context")

type storeKey struct{}

// WithStore makes the store reachable from everything that receives the returned context.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeKey{}, s)
}

func FromContext(ctx context.Context) (*Store, error) {
	s, ok := ctx.Value(storeKey{}).(*Store)
	if !ok || s == nil {
		return nil, ErrNoStore
	}

	return s, nil
}

// MustFromContext panics when ctx was not derived from WithStore.
func MustFromContext(ctx context.Context) *Store {
	s, err := FromContext(ctx)
	if err != nil {
		panic(fmt.Errorf("cart.MustFromContext must be used within cart.WithStore: %w", err))
	}

	return s
}
