package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/cart/cache"
	"github.com/fjod/go_cart/storefront/internal/cart/repository"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	apphttp "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/reconcile"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("port", "", "HTTP listen port")
	cmd.Flags().String("backend-url", "", "base URL of the store backend API")
	_ = a.v.BindPFlag("HTTP_PORT", cmd.Flags().Lookup("port"))
	_ = a.v.BindPFlag("BACKEND_URL", cmd.Flags().Lookup("backend-url"))
	return cmd
}

// storage is the cart and session plumbing for one process.
type storage struct {
	persister cart.Persister
	bus       cart.Broadcaster
	sessions  orders.SessionStore
	closers   []func(context.Context) error
}

func (s *storage) close(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i](ctx)
	}
}

func (a *app) openStorage(ctx context.Context) (*storage, error) {
	if a.cfg.InMemory {
		a.log.Warn("running with in-memory carts and sessions")
		return &storage{
			persister: cart.NewMemoryPersister(),
			bus:       cart.NewLocalBroadcaster(),
			sessions:  orders.NewMemorySessions(),
		}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", a.cfg.RedisAddr, err)
	}
	a.log.Info("connected to Redis", zap.String("addr", a.cfg.RedisAddr))

	db, err := repository.ConnectMongoDB(ctx, a.cfg.MongoURI, a.cfg.MongoDBName)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	a.log.Info("connected to MongoDB", zap.String("database", a.cfg.MongoDBName))

	return &storage{
		persister: cart.NewCachedPersister(repository.NewMongoRepository(db), cache.NewRedisCache(rdb), a.log),
		bus:       cache.NewRedisBroadcaster(rdb),
		sessions:  orders.NewRedisSessions(rdb),
		closers: []func(context.Context) error{
			func(context.Context) error { return rdb.Close() },
			db.Client().Disconnect,
		},
	}, nil
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	log := a.log

	store, err := a.openStorage(ctx)
	if err != nil {
		return err
	}
	defer store.close(context.Background())

	journal, err := a.openLedger()
	if err != nil {
		return fmt.Errorf("open checkout ledger: %w", err)
	}
	defer journal.Close()

	client := backend.NewClient(backend.Config{BaseURL: cfg.BackendURL, Timeout: cfg.BackendTimeout})

	var provider payment.Provider = payment.Unavailable{}
	if cfg.StripeSecretKey != "" {
		provider = payment.NewStripeProvider(cfg.StripeSecretKey)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, card payments are disabled")
	}

	reconciler := reconcile.New(client, log)
	registry := cart.NewRegistry(store.persister, store.bus, log,
		cart.WithIdleTTL(cfg.CartIdleTTL),
		cart.OnEvict(reconciler.Forget))
	router := apphttp.NewRouter(apphttp.Deps{
		Carts:        registry,
		Products:     client,
		Reconciler:   reconciler,
		Accounts:     client,
		Orders:       orders.NewService(client, store.sessions, log),
		Checkout:     checkout.NewOrchestrator(client, registry, provider, journal, log, cfg.Currency),
		Log:          log,
		Timeout:      cfg.RequestTimeout,
		SecureCookie: cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return registry.Run(gctx)
	})

	if len(cfg.KafkaBrokers) > 0 {
		writer := publisher.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...)
		defer writer.Close()
		poller := publisher.NewOutboxPoller(journal, writer, log)
		g.Go(func() error {
			poller.Run(gctx)
			return nil
		})
	} else {
		log.Warn("KAFKA_BROKERS not set, checkout events stay in the outbox")
	}

	g.Go(func() error {
		log.Info("storefront starting", zap.String("addr", srv.Addr), zap.Bool("in_memory", cfg.InMemory))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}
