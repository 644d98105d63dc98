// Package cart holds the shopping cart state of a session and mirrors it to device storage.
//
// A Store owns the ordered list of cart items. Mutations are applied atomically to the
// latest state and every accepted mutation is handed to a single background writer,
// so callers never wait for storage and the last logical state is always the last one written.
package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/nikolayk812/gomarketplace-cart/internal/domain"
	"github.com/nikolayk812/gomarketplace-cart/internal/port"
	"github.com/nikolayk812/gomarketplace-cart/internal/repository"
	"go.uber.org/zap"
)

const defaultWriteTimeout = 5 * time.Second

var (
	ErrItemNotFound = errors.New("cart item not found")
	ErrClosed       = errors.New("cart store is closed")
)

type Store struct {
	repo port.CartRepository
	log  *zap.Logger
	w    *writer

	ready   chan struct{}
	closing chan struct{}

	mu sync.Mutex
	// items is replaced on every mutation and never modified in place.
	items   []domain.CartItem
	version uint64
	loaded  bool
	loadErr error
	closed  bool
}

type options struct {
	log          *zap.Logger
	writeTimeout time.Duration
}

type Option func(*options)

func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithWriteTimeout bounds a single storage write.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}

// New creates an empty store and starts its writer. The store accepts mutations only
// after Load has completed. Close must be called to stop the writer.
func New(repo port.CartRepository, opts ...Option) *Store {
	o := options{
		log:          zap.NewNop(),
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{
		repo:    repo,
		log:     o.log,
		ready:   make(chan struct{}),
		closing: make(chan struct{}),
	}
	s.w = newWriter(repo.SaveItems, o.log, o.writeTimeout)

	return s
}

// Open creates a store and loads the persisted cart before returning it.
func Open(ctx context.Context, repo port.CartRepository, opts ...Option) (*Store, error) {
	s := New(repo, opts...)

	if err := s.Load(ctx); err != nil {
		return nil, errors.Join(err, s.Close(ctx))
	}

	return s, nil
}

// Load reads the persisted cart once. An absent or malformed snapshot yields an empty cart;
// a malformed one is reported by LoadErr. A storage failure also leaves the cart empty
// and is returned. Calls after the first are no-ops.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	items, err := s.repo.GetItems(ctx)

	var loadErr, retErr error
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		items = nil
	case errors.Is(err, repository.ErrMalformed):
		s.log.Warn("stored cart is malformed, starting with an empty cart", zap.Error(err))
		items, loadErr = nil, err
	default:
		s.log.Error("load cart", zap.Error(err))
		retErr = fmt.Errorf("repo.GetItems: %w", err)
		items, loadErr = nil, retErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return nil
	}
	s.items = items
	s.loadErr = loadErr
	s.loaded = true
	close(s.ready)

	s.log.Debug("cart loaded", zap.Int("items", len(items)))

	return retErr
}

// Ready is closed once Load has completed.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// LoadErr reports why the persisted cart was discarded, if it was.
func (s *Store) LoadErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Products returns a copy of the cart lines in insertion order.
func (s *Store) Products() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.items == nil {
		return []domain.CartItem{}
	}
	return slices.Clone(s.items)
}

// AddToCart appends the product with quantity 1, or increments it when already present.
// The product's own price and quantity are ignored for an existing line.
func (s *Store) AddToCart(ctx context.Context, product domain.Product) error {
	if product.ID == "" {
		return fmt.Errorf("product id is empty")
	}

	return s.update(ctx, func(items []domain.CartItem) ([]domain.CartItem, error) {
		if i := domain.IndexOf(items, product.ID); i >= 0 {
			items[i].Quantity++
			return items, nil
		}

		return append(items, domain.NewCartItem(product)), nil
	})
}

func (s *Store) Increment(ctx context.Context, id string) error {
	return s.update(ctx, func(items []domain.CartItem) ([]domain.CartItem, error) {
		i := domain.IndexOf(items, id)
		if i < 0 {
			return nil, fmt.Errorf("increment[%s]: %w", id, ErrItemNotFound)
		}

		items[i].Quantity++
		return items, nil
	})
}

// Decrement lowers the quantity of the line, removing it when the quantity is 1.
func (s *Store) Decrement(ctx context.Context, id string) error {
	return s.update(ctx, func(items []domain.CartItem) ([]domain.CartItem, error) {
		i := domain.IndexOf(items, id)
		if i < 0 {
			return nil, fmt.Errorf("decrement[%s]: %w", id, ErrItemNotFound)
		}

		if items[i].Quantity <= 1 {
			return slices.Delete(items, i, i+1), nil
		}

		items[i].Quantity--
		return items, nil
	})
}

// Flush waits until every accepted mutation has been written and returns the
// error of the most recent write.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	version := s.version
	s.mu.Unlock()

	return s.w.wait(ctx, version)
}

// Close rejects further mutations, flushes pending writes and stops the writer.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closing)
	s.mu.Unlock()

	err := s.Flush(ctx)
	s.w.stop()

	return err
}

func (s *Store) update(ctx context.Context, fn func([]domain.CartItem) ([]domain.CartItem, error)) error {
	select {
	case <-s.ready:
	case <-s.closing:
		return ErrClosed
	case <-ctx.Done():
		return fmt.Errorf("wait for cart load: %w", ctx.Err())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	next, err := fn(slices.Clone(s.items))
	if err != nil {
		return err
	}

	s.items = next
	s.version++
	s.w.submit(snapshot{version: s.version, items: next})

	return nil
}
