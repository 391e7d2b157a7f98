package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"                                  // request ids
	"github.com/joho/godotenv"                                // .env loader
	"github.com/labstack/echo/v4"                             // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"           // Echo built-in middlewares
	"github.com/prometheus/client_golang/prometheus/promhttp" // /metrics exposition
	"github.com/redis/go-redis/v9"                            // Redis client

	"github.com/ashroots/table-reservation/internal/config"     // Internal config loader
	"github.com/ashroots/table-reservation/internal/database"   // Connection pool and schema
	"github.com/ashroots/table-reservation/internal/email"      // SMTP confirmations
	"github.com/ashroots/table-reservation/internal/handler"    // HTTP handlers
	"github.com/ashroots/table-reservation/internal/logging"    // zerolog setup
	"github.com/ashroots/table-reservation/internal/metrics"    // Prometheus collectors
	"github.com/ashroots/table-reservation/internal/middleware" // Auth, cache, rate limit
	"github.com/ashroots/table-reservation/internal/queue"      // RabbitMQ publisher and consumer
	"github.com/ashroots/table-reservation/internal/repository" // MySQL repositories
	"github.com/ashroots/table-reservation/internal/router"     // Internal router setup
	"github.com/ashroots/table-reservation/internal/service"    // Booking core
)

func main() {
	_ = godotenv.Load()                       // .env is optional; real env wins
	cfg := config.Load()                      // Load environment config
	log := logging.New(cfg.Env, cfg.LogLevel) // Structured logger
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("migrate schema")
		}
	}
	if n, err := database.SeedTables(ctx, db, cfg.TableSeed); err != nil {
		log.Fatal().Err(err).Msg("seed dining tables")
	} else if n > 0 {
		log.Info().Int("tables", n).Msg("seeded dining tables")
	}
	iso, err := database.ParseIsolation(cfg.DBIsolation)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid DB_TX_ISOLATION")
	}
	gw := database.NewGateway(db, iso) // Single pool for the process
	defer func() { _ = gw.Close() }()

	users := repository.NewUserRepo(db)
	tables := repository.NewTableRepo(db)
	reservations := repository.NewReservationRepo(db)
	menu := repository.NewMenuRepo(db)

	deps := service.BookingDeps{
		Tx:            gw,
		Identity:      service.NewIdentityResolver(users, cfg.BcryptCost, log),
		Tables:        tables,
		Reservations:  reservations,
		Log:           log,
		StepTimeout:   cfg.DBStepTimeout,
		NotifyTimeout: cfg.NotifyTimeout,
	}
	if cfg.AMQPURL != "" {
		deps.Notifier = queue.NewPublisher(cfg.AMQPURL, log)
	} else {
		log.Warn().Msg("RABBITMQ_URL not set; confirmations disabled")
	}
	booking := service.NewBookingService(deps)
	avail := service.NewAvailabilityService(tables, reservations, cfg.DBStepTimeout)
	accounts := service.NewAccountService(users, cfg.BcryptCost, log, cfg.DBStepTimeout)
	menus := service.NewMenuService(menu, log, cfg.DBStepTimeout)
	orders := service.NewOrderService(service.OrderDeps{
		Tx:          gw,
		Menu:        menu,
		Orders:      repository.NewOrderRepo(db),
		Log:         log,
		StepTimeout: cfg.DBStepTimeout,
	})
	reviews := service.NewReviewService(repository.NewReviewRepo(db), cfg.DBStepTimeout)
	if err := accounts.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("seed admin account")
	}

	// Redis is optional: cache and rate limit pass through without it
	var rdb *redis.Client
	if c, err := config.NewRedisClient(ctx, config.LoadRedisConfig()); err != nil {
		log.Warn().Err(err).Msg("redis unavailable; cache and rate limit disabled")
	} else {
		rdb = c
		defer func() { _ = rdb.Close() }()
	}

	if cfg.AMQPURL != "" && cfg.SMTPHost != "" {
		sender, err := email.NewSender(email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("build smtp client")
		}
		consumer := queue.NewConsumer(cfg.AMQPURL, sender, 30*time.Second, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("confirmation consumer stopped")
			}
		}()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	e.Pre(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(metrics.Middleware())
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	router.RegisterRoutes(e, router.Deps{ // Register application routes
		Reservations: handler.NewReservationHandler(booking, avail, log),
		Users:        handler.NewUserHandler(accounts, log),
		Auth:         handler.NewAuthHandler(accounts, cfg.JWTSecret, cfg.AccessTTLMin, log),
		Menu:         handler.NewMenuHandler(menus, log),
		Orders:       handler.NewOrderHandler(orders, log),
		Reviews:      handler.NewReviewHandler(reviews, log),
		DB:           gw,
		JWTSecret:    cfg.JWTSecret,
		Cache:        middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		RateLimit:    middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	if err := booking.Drain(shutdownCtx); err != nil { // confirmations still in flight
		log.Warn().Err(err).Msg("confirmations not drained")
	}
	log.Info().Msg("stopped")
}
