package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/gomarketplace-cart/internal/cart"
	"github.com/nikolayk812/gomarketplace-cart/internal/config"
	"github.com/nikolayk812/gomarketplace-cart/internal/logger"
	"github.com/nikolayk812/gomarketplace-cart/internal/port"
	"github.com/nikolayk812/gomarketplace-cart/internal/repository"
	"github.com/nikolayk812/gomarketplace-cart/internal/storage/bolt"
	"github.com/nikolayk812/gomarketplace-cart/internal/storage/memory"
	pgstore "github.com/nikolayk812/gomarketplace-cart/internal/storage/postgres"
	redisstore "github.com/nikolayk812/gomarketplace-cart/internal/storage/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const closeTimeout = 10 * time.Second

type session struct {
	log     *zap.Logger
	store   *cart.Store
	closeKV func() error
}

// close flushes the cart and releases the backend; safe to call on a session that never opened.
func (s *session) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	var errs []error
	if s.store != nil {
		if err := s.store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("store.Close: %w", err))
		}
	}
	if s.closeKV != nil {
		if err := s.closeKV(); err != nil {
			errs = append(errs, fmt.Errorf("closeKV: %w", err))
		}
	}
	if s.log != nil {
		_ = s.log.Sync()
	}

	return errors.Join(errs...)
}

// Execute runs cartctl with the given arguments. The cart store is opened before the
// subcommand runs and is flushed and closed afterwards, even when the subcommand fails.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	sess := &session{}
	defer func() {
		err = errors.Join(err, sess.close())
	}()

	root := newRootCmd(sess)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	return root.ExecuteContext(ctx)
}

func newRootCmd(sess *session) *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "cartctl",
		Short:         "Inspect and change the GoMarketplace cart",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("logger.New: %w", err)
			}
			sess.log = log

			ctx := cmd.Context()

			kv, closeKV, err := openKV(ctx, cfg)
			if err != nil {
				return fmt.Errorf("openKV[%s]: %w", cfg.Backend, err)
			}
			sess.closeKV = closeKV

			repo, err := repository.NewCart(kv, repository.WithKey(cfg.StorageKey))
			if err != nil {
				return fmt.Errorf("repository.NewCart: %w", err)
			}

			store, err := cart.Open(ctx, repo, cart.WithLogger(log))
			if err != nil {
				return fmt.Errorf("cart.Open: %w", err)
			}
			sess.store = store

			if loadErr := store.LoadErr(); loadErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: stored cart was discarded: %v\n", loadErr)
			}

			cmd.SetContext(cart.WithStore(ctx, store))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.Backend, "backend", cfg.Backend, "storage backend: bolt, redis, postgres or memory")
	flags.StringVar(&cfg.BoltPath, "bolt-path", cfg.BoltPath, "bolt database file")
	flags.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis address")
	flags.StringVar(&cfg.RedisPassword, "redis-password", cfg.RedisPassword, "redis password")
	flags.StringVar(&cfg.PostgresURL, "postgres-url", cfg.PostgresURL, "postgres connection string")
	flags.StringVar(&cfg.StorageKey, "key", cfg.StorageKey, "storage key of the cart snapshot")
	flags.StringVar(&cfg.Currency, "currency", cfg.Currency, "ISO currency used to display prices")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	root.AddCommand(
		newListCmd(&cfg),
		newAddCmd(),
		newIncCmd(),
		newDecCmd(),
	)

	return root
}

func openKV(ctx context.Context, cfg config.Config) (port.KeyValueStore, func() error, error) {
	switch cfg.Backend {
	case config.BackendBolt:
		s, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, errors.Join(fmt.Errorf("redis ping: %w", err), client.Close())
		}
		return redisstore.NewStore(client, ""), client.Close, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pool.Ping: %w", err)
		}
		return pgstore.NewStore(pool), func() error {
			pool.Close()
			return nil
		}, nil

	case config.BackendMemory:
		return memory.New(), func() error { return nil }, nil
	}

	return nil, nil, fmt.Errorf("backend[%s] is not supported", cfg.Backend)
}
