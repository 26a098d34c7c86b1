package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	products "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/pubsub"
	"github.com/angelmondragon/storefront-backend/pkg/rabbitmq"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/viacep"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.AutoMigrateDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(ctx, "redis not configured; idempotency, rate limiting and address cache disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storeMetrics := metrics.NewStorefrontMetrics(registry)

	notifierDeps := notifications.Deps{Logger: logg}
	switch cfg.Notifications.NormalizedDriver() {
	case config.NotifierDriverPubSub:
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer psClient.Close()
		notifierDeps.PubSub = psClient.OrderConfirmationPublisher()
	case config.NotifierDriverAMQP:
		amqpClient, err := rabbitmq.Dial(ctx, cfg.AMQP, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap amqp", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		notifierDeps.AMQP = amqpClient
	}
	notifier, err := notifications.New(cfg.Notifications, notifierDeps)
	if err != nil {
		logg.Error(ctx, "failed to create notifier", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	ledger := stock.NewLedger(conn)
	productRepo := products.NewRepository(conn)
	couponRepo := coupons.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)

	productService, err := products.NewService(dbClient, productRepo, ledger)
	requireService(ctx, logg, "product", err)

	couponService, err := coupons.NewService(couponRepo)
	requireService(ctx, logg, "coupon", err)

	cartService, err := cart.NewService(cartRepo, productRepo, ledger, couponRepo, nil)
	requireService(ctx, logg, "cart", err)

	checkoutService, err := checkout.NewService(checkout.Params{
		Tx:                  dbClient,
		Carts:               cartRepo,
		Orders:              orderRepo,
		Ledger:              ledger,
		Coupons:             couponRepo,
		Outbox:              outboxService,
		Notifier:            notifier,
		Metrics:             storeMetrics,
		Logger:              logg,
		FailOnInvalidCoupon: cfg.Checkout.FailOnInvalidCoupon(),
	})
	requireService(ctx, logg, "checkout", err)

	ordersService, err := orders.NewService(orderRepo, dbClient, ledger, couponRepo, outboxService, storeMetrics)
	requireService(ctx, logg, "orders", err)

	zipClient := viacep.NewClient(
		viacep.WithBaseURL(cfg.Address.ViaCEPBaseURL),
		viacep.WithTimeout(cfg.Address.Timeout),
	)
	var addressService address.Service
	if redisClient != nil {
		addressService, err = address.NewService(zipClient, redisClient, cfg.Address.CacheTTL, logg)
	} else {
		addressService, err = address.NewService(zipClient, nil, cfg.Address.CacheTTL, logg)
	}
	requireService(ctx, logg, "address", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
		"notifier": cfg.Notifications.NormalizedDriver(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisClient, registry,
			productService, couponService, cartService, checkoutService, ordersService, addressService,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
	logg.Info(ctx, "api server stopped")
}

func requireService(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to create "+name+" service", err)
	os.Exit(1)
}
