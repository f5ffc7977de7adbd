// Package main is the entry point for the retailpos API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"retailpos/internal/config"
	"retailpos/internal/domain/auth"
	"retailpos/internal/domain/catalogs/currency"
	"retailpos/internal/domain/catalogs/product"
	"retailpos/internal/domain/inventory"
	"retailpos/internal/domain/purchases"
	"retailpos/internal/domain/reports"
	"retailpos/internal/domain/sales"
	"retailpos/internal/domain/settings"
	"retailpos/internal/infrastructure/cache"
	v1 "retailpos/internal/infrastructure/http/v1"
	"retailpos/internal/infrastructure/storage/postgres"
	"retailpos/internal/infrastructure/storage/postgres/auth_repo"
	"retailpos/internal/infrastructure/storage/postgres/catalog_repo"
	"retailpos/internal/infrastructure/storage/postgres/document_repo"
	"retailpos/internal/infrastructure/storage/postgres/register_repo"
	"retailpos/internal/infrastructure/storage/postgres/report_repo"
	"retailpos/pkg/logger"
	"retailpos/pkg/numerator"
)

const version = "0.1.0"

// devJWTSecret signs tokens when no secret is configured outside production.
const devJWTSecret = "retailpos-development-secret-do-not-use"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting retailpos server", "environment", cfg.Server.Environment, "version", version)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.DSN)
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns
	poolCfg.MaxConnLifetime = cfg.DB.MaxConnLifetime
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)

	auditService, err := postgres.NewAuditService(txm)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	// --- Redis (optional) ---
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warnw("redis unavailable, continuing without cache and locks", "addr", cfg.Redis.Addr, "error", err)
			rdb = nil
		} else {
			defer rdb.Close()
			log.Infow("redis connection established", "addr", cfg.Redis.Addr)
		}
	}

	// --- Repositories ---
	productRepo := catalog_repo.NewProductRepo(txm)
	currencyRepo := catalog_repo.NewCurrencyRepo(txm)
	movementRepo := register_repo.NewMovementRepo(txm)
	invoiceRepo := document_repo.NewInvoiceRepo(txm)
	purchaseRepo := document_repo.NewPurchaseRepo(txm)
	userRepo := auth_repo.NewUserRepo(txm)
	reportRepo := report_repo.NewReportRepo(txm)

	var settingsStore settings.Store = catalog_repo.NewSettingsRepo(txm)
	var locker sales.Locker = sales.NopLocker{}
	if rdb != nil {
		settingsStore = cache.NewSettingsCache(settingsStore, rdb, cfg.Redis.SettingsTTL)
		locker = cache.NewRedisLocker(rdb, cfg.Sales.DuplicateLockTTL)
	}
	settingsReader := settings.NewStoreReader(settingsStore)

	skus := numerator.NewWithProvider(
		func(ctx context.Context) numerator.Querier { return txm.GetQuerier(ctx) },
		numerator.WithAttemptRunner(txm.RunInSavepoint),
	)

	// --- Services ---
	jwtSecret := cfg.JWT.Secret
	if jwtSecret == "" {
		log.Warn("jwt secret not configured, using the development secret")
		jwtSecret = devJWTSecret
	}
	jwtConfig := auth.DefaultJWTConfig(jwtSecret)
	jwtConfig.Issuer = cfg.JWT.Issuer
	jwtConfig.AccessTokenTTL = cfg.JWT.Expiry
	jwtService := auth.NewJWTService(jwtConfig)
	authService := auth.NewService(userRepo, txm, jwtService, auth.DefaultServiceConfig())

	currencyService := currency.NewService(currencyRepo)
	inventoryService := inventory.NewService(productRepo, movementRepo, txm)
	productService := product.NewService(productRepo, txm, skus, inventoryService, auditService)
	purchaseService := purchases.NewService(purchaseRepo, productRepo, inventoryService, txm, auditService)
	salesService := sales.NewService(sales.Deps{
		Repo:            invoiceRepo,
		Products:        productRepo,
		Movements:       inventoryService,
		Rates:           currencyService,
		Settings:        settingsReader,
		Users:           authService,
		TxManager:       txm,
		Audit:           auditService,
		History:         auditService,
		Locker:          locker,
		DuplicateWindow: cfg.Sales.DuplicateWindow,
	})
	settingsService := settings.NewService(settingsStore)
	reportService := reports.NewService(reportRepo, settingsReader)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		Environment:    cfg.Server.Environment,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Version:        version,
		Database:       pool,
		JWTValidator:   jwtService,
		Idempotency:    postgres.NewIdempotencyStore(txm, cfg.Server.IdempotencyTTL),
		Auth:           authService,
		Products:       productService,
		Inventory:      inventoryService,
		Purchases:      purchaseService,
		Sales:          salesService,
		Currencies:     currencyService,
		Settings:       settingsService,
		Reports:        reportService,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	postgres.LogPoolStats(shutdownCtx, pool)
	log.Info("server stopped")
}
