package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/aldermere/storefront/internal"
	"github.com/aldermere/storefront/internal/auth"
	"github.com/aldermere/storefront/internal/cache"
	"github.com/aldermere/storefront/internal/domain"
	"github.com/aldermere/storefront/internal/handler"
	"github.com/aldermere/storefront/internal/middleware"
	"github.com/aldermere/storefront/internal/router"
	"github.com/aldermere/storefront/internal/routes"
	"github.com/aldermere/storefront/internal/service"
	"github.com/aldermere/storefront/internal/store"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize Sentry error tracking
	if cfg.Sentry.Enabled && cfg.Sentry.DSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		})
		if err != nil {
			return fmt.Errorf("sentry initialization failed: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
		logger.Info("Sentry error tracking enabled", "environment", cfg.Sentry.Environment)
	}

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for the document store
	db, err := store.Open(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	defer db.Close()

	products, err := store.NewPostgres[*domain.Product](db, store.CollectionProducts)
	if err != nil {
		return fmt.Errorf("failed to initialize products collection: %w", err)
	}
	users, err := store.NewPostgres[*domain.User](db, store.CollectionUsers)
	if err != nil {
		return fmt.Errorf("failed to initialize users collection: %w", err)
	}

	// Optional redis cache for product reads
	var productCache *cache.Products
	if cfg.RedisAddr != "" {
		client, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer client.Close()
		productCache = cache.NewProducts(client, cache.DefaultTTL)
		logger.Info("Product cache enabled", "addr", cfg.RedisAddr)
	}

	// Initialize services
	tokens := auth.NewTokenIssuer(cfg.TokenSecret)
	catalogService := service.NewCatalog(products, productCache)
	reviewService := service.NewReviews(products, users, productCache)
	cartService := service.NewCarts(users, products)
	accountService := service.NewAccounts(users, tokens)

	// Initialize Prometheus metrics
	metrics := middleware.NewMetrics("storefront")

	// Create router and register routes
	r := router.New(
		middleware.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		middleware.WithRequestLogger(logger),
	)

	routes.RegisterAPIRoutes(r, routes.APIDeps{
		Auth:     handler.NewAuthHandler(accountService),
		Products: handler.NewProductHandler(catalogService, reviewService),
		Users:    handler.NewUserHandler(cartService),
		Tokens:   tokens,
		Metrics:  metrics,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting server", "address", addr)

	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
