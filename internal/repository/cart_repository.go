package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nikolayk812/gomarketplace-cart/internal/domain"
	"github.com/nikolayk812/gomarketplace-cart/internal/port"
	"github.com/shopspring/decimal"
)

const DefaultKey = "@GoMarketplace:products"

var (
	ErrNotFound  = errors.New("cart snapshot not found")
	ErrMalformed = errors.New("cart snapshot is malformed")
)

type cartRecord struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	ImageURL string      `json:"image_url"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

type cartRepository struct {
	kv  port.KeyValueStore
	key string
}

type Option func(*cartRepository)

// WithKey overrides the storage key the snapshot is written under.
func WithKey(key string) Option {
	return func(r *cartRepository) {
		r.key = key
	}
}

func NewCart(kv port.KeyValueStore, opts ...Option) (port.CartRepository, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv is nil")
	}

	r := &cartRepository{
		kv:  kv,
		key: DefaultKey,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.key == "" {
		return nil, fmt.Errorf("key is empty")
	}

	return r, nil
}

func (r *cartRepository) GetItems(ctx context.Context) ([]domain.CartItem, error) {
	value, found, err := r.kv.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("kv.Get: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}

	var records []cartRecord
	if err := json.Unmarshal([]byte(value), &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	items, err := mapRecordsToDomain(records)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return items, nil
}

func (r *cartRepository) SaveItems(ctx context.Context, items []domain.CartItem) error {
	data, err := json.Marshal(mapDomainToRecords(items))
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if err := r.kv.Set(ctx, r.key, string(data)); err != nil {
		return fmt.Errorf("kv.Set: %w", err)
	}

	return nil
}

func mapRecordToDomain(record cartRecord) (domain.CartItem, error) {
	if record.ID == "" {
		return domain.CartItem{}, fmt.Errorf("id is empty")
	}
	if record.Quantity < 1 {
		return domain.CartItem{}, fmt.Errorf("item[%s] quantity[%d] is below 1", record.ID, record.Quantity)
	}

	price, err := decimal.NewFromString(record.Price.String())
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("item[%s] price[%s] is not valid: %w", record.ID, record.Price, err)
	}

	return domain.CartItem{
		ID:       record.ID,
		Title:    record.Title,
		ImageURL: record.ImageURL,
		Price:    price,
		Quantity: record.Quantity,
	}, nil
}

func mapRecordsToDomain(records []cartRecord) ([]domain.CartItem, error) {
	items := make([]domain.CartItem, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for _, record := range records {
		item, err := mapRecordToDomain(record)
		if err != nil {
			return nil, fmt.Errorf("mapRecordToDomain: %w", err)
		}

		if _, ok := seen[item.ID]; ok {
			return nil, fmt.Errorf("item[%s] is duplicated", item.ID)
		}
		seen[item.ID] = struct{}{}

		items = append(items, item)
	}

	return items, nil
}

func mapDomainToRecords(items []domain.CartItem) []cartRecord {
	// an empty cart is stored as [] rather than null
	records := make([]cartRecord, 0, len(items))

	for _, item := range items {
		records = append(records, cartRecord{
			ID:       item.ID,
			Title:    item.Title,
			ImageURL: item.ImageURL,
			Price:    json.Number(item.Price.String()),
			Quantity: item.Quantity,
		})
	}

	return records
}
