package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	cartapp "github.com/ima-69/E-commerce-MERN-sub000/internal/application/cart"
	catalogapp "github.com/ima-69/E-commerce-MERN-sub000/internal/application/catalog"
	orderapp "github.com/ima-69/E-commerce-MERN-sub000/internal/application/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/auth"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/cache"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/config"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/event"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/logger"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/migration"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/mongodb"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/notification"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/payment"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/persistence"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/scheduler"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/telemetry"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/interfaces/http/handler"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/interfaces/http/middleware"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/interfaces/http/router"
	"github.com/ima-69/E-commerce-MERN-sub000/migrations"
)

// application holds what main needs after wiring: the HTTP engine, the
// background reaper and the shutdown hooks for every backing connection.
type application struct {
	engine  *gin.Engine
	reaper  *scheduler.ReaperScheduler
	closers []closer
	logger  *zap.Logger
}

type closer struct {
	name string
	fn   func(ctx context.Context) error
}

func (a *application) onClose(name string, fn func(ctx context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// close releases resources in reverse order of acquisition
func (a *application) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			a.logger.Error("Error during shutdown", zap.String("component", c.name), zap.Error(err))
		}
	}
}

func build(ctx context.Context, cfg *config.Config, log *zap.Logger) (_ *application, err error) {
	app := &application{logger: log}
	defer func() {
		if err != nil {
			app.close(context.Background())
		}
	}()

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, version, log)
	if err != nil {
		return nil, err
	}
	app.onClose("telemetry", tel.Shutdown)

	db, err := persistence.Open(&cfg.Database, logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithParameterizedQueries(cfg.App.Env == "production"),
	))
	if err != nil {
		return nil, err
	}
	app.onClose("postgres", func(context.Context) error { return db.Close() })
	log.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := migrate(db, log); err != nil {
			return nil, err
		}
	}

	dbTelemetry, err := telemetry.InstrumentDB(db.DB, tel.Meter("storefront/db"), telemetry.DBConfig{
		Trace:  cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName: cfg.Database.DBName,
	}, log)
	if err != nil {
		return nil, err
	}
	app.onClose("db-telemetry", func(context.Context) error { return dbTelemetry.Close() })

	stores, err := cache.NewStoreFactory(cfg.Redis, cfg.Cart,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Create(ctx)
	if err != nil {
		return nil, err
	}
	app.onClose("redis", func(context.Context) error { return stores.Close() })

	checks := map[string]handler.HealthCheck{"postgres": db.Ping}
	if stores.Client != nil {
		checks["redis"] = func(ctx context.Context) error { return stores.Client.Ping(ctx).Err() }
	}

	guest, mongoClient, err := guestStorage(ctx, cfg, stores, log)
	if err != nil {
		return nil, err
	}
	if mongoClient != nil {
		app.onClose("mongo", mongoClient.Disconnect)
		checks["mongo"] = func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }
	}

	gateway, err := payment.NewGateway(cfg.Payment, log)
	if err != nil {
		return nil, err
	}
	notifier, err := notification.New(cfg.Notification, log)
	if err != nil {
		return nil, err
	}
	app.onClose("notifier", func(context.Context) error { return notifier.Close() })

	bus := event.NewInMemoryEventBus(log, event.WithAsyncDispatch())

	productRepo := persistence.NewGormProductRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	reservationRepo := persistence.NewGormReservationRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	products := catalogapp.NewProductService(productRepo, log)
	products.SetEventPublisher(bus)

	carts := cartapp.NewCartService(cartRepo, productRepo, stores.CartCache, log)
	guestCarts := cartapp.NewGuestCartService(guest, productRepo, log)
	merger := cartapp.NewMergeService(cartRepo, productRepo, stores.Idempotency, guest, carts, cartapp.MergeConfig{
		Bucket: cfg.Cart.MergeBucket,
		KeyTTL: cfg.Cart.MergeKeyTTL,
	}, log)
	merger.SetEventPublisher(bus)

	policy, err := deliveryPolicy(cfg.Order)
	if err != nil {
		return nil, err
	}
	lifecycle := orderapp.NewLifecycleService(txScope, orderRepo, cartRepo, productRepo, reservationRepo, gateway, carts,
		orderapp.LifecycleConfig{
			PendingTTL:         cfg.Order.PendingTTL,
			ReservationEnabled: cfg.Order.ReservationEnabled,
			Currency:           cfg.Order.Currency,
			DeliveryPolicy:     policy,
		}, log)
	lifecycle.SetEventPublisher(bus)

	reaper := orderapp.NewPendingOrderReaper(txScope, orderRepo, cfg.Order.ReapBatchSize, log)
	reaper.SetEventPublisher(bus)
	app.reaper = scheduler.NewReaperScheduler(reaper, cfg.Order.ReapBatchSize, log, scheduler.ReaperSchedulerConfigFrom(cfg.Order))
	app.onClose("reaper", app.reaper.Stop)

	// Notifications are best effort and deduplicated per event so a redelivery
	// never mails the shopper twice.
	bus.Subscribe(event.NewIdempotentHandler(
		orderapp.NewNotificationHandler(orderRepo, notifier, log),
		stores.Idempotency, "order-notifications", log,
	))
	storeMetrics, err := telemetry.NewStoreMetrics(tel.Meter("storefront"))
	if err != nil {
		return nil, err
	}
	bus.Subscribe(storeMetrics)

	if err := bus.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start event bus: %w", err)
	}
	app.onClose("event-bus", bus.Stop)

	jwtService := auth.NewJWTService(cfg.JWT)
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if stores.Client != nil {
		blacklist = auth.NewRedisTokenBlacklist(stores.Client)
	}

	var limiter middleware.Limiter
	if cfg.HTTP.RateLimitEnabled {
		if stores.Client != nil {
			limiter = middleware.NewRedisRateLimiter(stores.Client, cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		} else {
			local := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
			app.onClose("rate-limiter", func(context.Context) error { local.Stop(); return nil })
			limiter = local
		}
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	app.engine = router.NewEngine(
		router.Config{
			ServiceName: cfg.Telemetry.ServiceName,
			HTTP:        cfg.HTTP,
			Swagger:     cfg.Swagger,
			Tracing:     cfg.Telemetry.Enabled,
			HSTS:        cfg.App.Env == "production",
		},
		router.Security{JWT: jwtService, Blacklist: blacklist, Limiter: limiter},
		router.Handlers{
			System:    handler.NewSystemHandler(cfg.App.Name, version, checks),
			Auth:      handler.NewAuthHandler(blacklist, log),
			Product:   handler.NewProductHandler(products),
			Cart:      handler.NewCartHandler(carts, merger),
			GuestCart: handler.NewGuestCartHandler(guestCarts),
			Order:     handler.NewOrderHandler(lifecycle),
		},
		log,
	)
	return app, nil
}

func migrate(db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, migration.FromFS(migrations.FS), log)
	if err != nil {
		return err
	}
	return m.Up()
}

// guestStorage picks where anonymous carts live. Mongo is used only when
// configured; the redis stores fall back to process memory on their own.
func guestStorage(ctx context.Context, cfg *config.Config, stores *cache.Stores, log *zap.Logger) (cart.GuestCartStorage, *mongo.Client, error) {
	switch cfg.Cart.GuestStore {
	case "mongo":
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
		defer cancel()
		client, db, err := mongodb.Connect(connectCtx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		storage := mongodb.NewGuestCartStorage(db.Collection(cfg.Mongo.GuestCollection), cfg.Cart.GuestTTL)
		if err := storage.CreateIndexes(connectCtx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		log.Info("Guest carts stored in MongoDB", zap.String("collection", cfg.Mongo.GuestCollection))
		return storage, client, nil
	case "memory":
		return cache.NewInMemoryGuestCartStorage(), nil, nil
	default:
		return stores.Guest, nil, nil
	}
}

func deliveryPolicy(cfg config.OrderConfig) (order.DeliveryPolicy, error) {
	policy := order.DefaultDeliveryPolicy()
	if cfg.MinLeadDays > 0 {
		policy.MinLeadDays = cfg.MinLeadDays
	}
	if len(cfg.TimeSlots) > 0 {
		policy.TimeSlots = cfg.TimeSlots
	}
	if len(cfg.ClosedWeekdays) > 0 {
		days, err := cfg.Weekdays()
		if err != nil {
			return policy, err
		}
		policy.ClosedWeekdays = days
	}
	if cfg.TimeZone != "" {
		loc, err := cfg.Location()
		if err != nil {
			return policy, err
		}
		policy.Location = loc
	}
	return policy, nil
}
