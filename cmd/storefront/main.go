package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"ChocoStore/internal/cart"
	"ChocoStore/internal/catalog"
	"ChocoStore/internal/config"
	"ChocoStore/internal/contact"
	"ChocoStore/internal/order"
	"ChocoStore/internal/storefront"
	"ChocoStore/pkg/kit"
)

func main() {
	dotenvErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log := kit.NewLogger("storefront", "info")
		log.Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(cfg.Service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if dotenvErr != nil {
		log.Debug(".env not loaded, relying on environment", zap.Error(dotenvErr))
	}

	ctx := context.Background()

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("close failed", zap.Error(err))
			}
		}
	}()

	var db *sql.DB
	if cfg.NeedsPostgres() {
		db, err = openPostgres(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Fatal("postgres init failed", zap.Error(err))
		}
		closers = append(closers, db.Close)
	}

	catalogSrc := catalogSource(cfg, db)
	cat, err := catalog.Load(ctx, catalogSrc)
	if err != nil {
		log.Fatal("catalog load failed", zap.Error(err))
	}
	log.Info("catalog loaded", zap.String("source", cfg.Catalog.Source), zap.Int("products", cat.Len()))

	persister, closePersister, err := cartPersister(ctx, cfg, db)
	if err != nil {
		log.Fatal("cart store init failed", zap.Error(err))
	}
	if closePersister != nil {
		closers = append(closers, closePersister)
	}

	orders, err := orderStore(ctx, cfg, db)
	if err != nil {
		log.Fatal("order store init failed", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := kit.NewMetrics(reg)

	sessions := cart.NewSessions(cat, persister,
		cart.Limits{MaxSessions: cfg.Cart.MaxSessions, IdleTTL: cfg.Cart.SnapshotTTL},
		cart.WithLogger(log.Named("cart")),
		cart.WithObserver(metrics.ObserveCartOp),
	)

	h, err := storefront.NewHandler(
		storefront.Deps{
			Catalog:  cat,
			Sessions: sessions,
			Tokens:   cart.NewTokenMaker(cfg.Cart.TokenSecret, cfg.Cart.TokenTTL),
			Orders:   order.NewService(orders, cat, log.Named("order")),
			Contact:  contact.NewSubmitter(cfg.Contact.Delay, log.Named("contact")),
			Limiter:  kit.NewIPRateLimiter(cfg.Contact.RateLimit, cfg.Contact.RateWindow),
			Checks: []storefront.Check{
				{Name: "catalog", Pinger: catalogSrc},
				{Name: "cart store", Pinger: persister},
				{Name: "order store", Pinger: orders},
			},
		},
		storefront.HTTPDeps{
			Log:            log,
			Service:        cfg.Service,
			Registry:       reg,
			Metrics:        metrics,
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsToken:   cfg.Metrics.Token,
		},
	)
	if err != nil {
		log.Fatal("init storefront handler failed", zap.Error(err))
	}

	err = kit.RunHTTPServer(ctx, kit.ServerConfig{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}, h, log)
	if err != nil {
		log.Error("http server stopped", zap.Error(err))
	}
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func catalogSource(cfg *config.Config, db *sql.DB) catalog.Source {
	if cfg.Catalog.Source == config.DriverPostgres {
		return catalog.NewPostgresSource(db)
	}
	return catalog.NewMemSource()
}

func cartPersister(ctx context.Context, cfg *config.Config, db *sql.DB) (cart.Persister, func() error, error) {
	switch cfg.Cart.Store {
	case config.DriverRedis:
		rdb, err := cart.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		return cart.NewRedisPersister(rdb, cfg.Cart.SnapshotTTL), rdb.Close, nil
	case config.DriverPostgres:
		p := cart.NewPostgresPersister(db)
		if err := p.EnsureSchema(ctx); err != nil {
			return nil, nil, fmt.Errorf("cart schema: %w", err)
		}
		return p, nil, nil
	default:
		return cart.NewMemPersister(), nil, nil
	}
}

func orderStore(ctx context.Context, cfg *config.Config, db *sql.DB) (order.Store, error) {
	if cfg.Orders.Store != config.DriverPostgres {
		return order.NewMemStore(), nil
	}
	s := order.NewPostgresStore(db)
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("order schema: %w", err)
	}
	return s, nil
}
