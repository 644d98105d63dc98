package port

import (
	"context"

	"github.com/nikolayk812/gomarketplace-cart/internal/domain"
)

// KeyValueStore is the device storage the cart snapshot lives in.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type CartRepository interface {
	GetItems(ctx context.Context) ([]domain.CartItem, error)
	SaveItems(ctx context.Context, items []domain.CartItem) error
}
