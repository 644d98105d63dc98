package cart

import (
	"context"
	"sync"
	"time"

	"github.com/nikolayk812/gomarketplace-cart/internal/domain"
	"go.uber.org/zap"
)

type snapshot struct {
	version uint64
	items   []domain.CartItem
}

// writer persists snapshots from a single goroutine.
// Its queue holds at most one snapshot: a newer one replaces an unsent older one.
type writer struct {
	save    func(ctx context.Context, items []domain.CartItem) error
	log     *zap.Logger
	timeout time.Duration

	mu       sync.Mutex
	pending  *snapshot
	written  uint64
	lastErr  error
	progress chan struct{}

	kick     chan struct{}
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func newWriter(save func(context.Context, []domain.CartItem) error, log *zap.Logger, timeout time.Duration) *writer {
	w := &writer{
		save:     save,
		log:      log,
		timeout:  timeout,
		progress: make(chan struct{}),
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	go w.run()

	return w
}

// submit must be called with increasing versions.
func (w *writer) submit(s snapshot) {
	w.mu.Lock()
	w.pending = &s
	w.mu.Unlock()

	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *writer) run() {
	defer close(w.stopped)

	for {
		select {
		case <-w.kick:
			w.drain()
		case <-w.done:
			w.drain()
			return
		}
	}
}

func (w *writer) drain() {
	for {
		w.mu.Lock()
		s := w.pending
		w.pending = nil
		w.mu.Unlock()

		if s == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.save(ctx, s.items)
		cancel()

		if err != nil {
			w.log.Error("persist cart", zap.Uint64("version", s.version), zap.Error(err))
		} else {
			w.log.Debug("cart persisted", zap.Uint64("version", s.version), zap.Int("items", len(s.items)))
		}

		w.mu.Lock()
		w.written = s.version
		w.lastErr = err
		close(w.progress)
		w.progress = make(chan struct{})
		w.mu.Unlock()
	}
}

// wait blocks until a snapshot with at least the given version has been written
// and returns the error of the latest write.
func (w *writer) wait(ctx context.Context, version uint64) error {
	for {
		w.mu.Lock()
		if w.written >= version {
			err := w.lastErr
			w.mu.Unlock()
			return err
		}
		progress := w.progress
		w.mu.Unlock()

		select {
		case <-progress:
		case <-w.stopped:
			w.mu.Lock()
			defer w.mu.Unlock()
			if w.written >= version {
				return w.lastErr
			}
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *writer) stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
	<-w.stopped
}
