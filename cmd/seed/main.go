// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"retailpos/internal/config"
	"retailpos/internal/core/apperror"
	appctx "retailpos/internal/core/context"
	"retailpos/internal/core/security"
	"retailpos/internal/domain/auth"
	"retailpos/internal/domain/catalogs/currency"
	"retailpos/internal/domain/catalogs/product"
	"retailpos/internal/domain/inventory"
	"retailpos/internal/infrastructure/storage/postgres"
	"retailpos/internal/infrastructure/storage/postgres/auth_repo"
	"retailpos/internal/infrastructure/storage/postgres/catalog_repo"
	"retailpos/internal/infrastructure/storage/postgres/register_repo"
	"retailpos/pkg/logger"
	"retailpos/pkg/numerator"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DB.DSN))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	txm := postgres.NewTxManager(pool)

	log.Info("connected to database")

	admin, err := seedAdminUser(ctx, txm, log)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	adminCtx := appctx.WithUser(ctx, &appctx.UserContext{
		UserID:      admin.ID.String(),
		Email:       admin.Email,
		Role:        admin.Role,
		Permissions: admin.Permissions(),
		IsAdmin:     true,
	})

	if err := seedRates(adminCtx, txm, log); err != nil {
		log.Fatalw("failed to seed currency rates", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoProducts(adminCtx, txm, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, txm *postgres.TxManager, log *logger.Logger) (*auth.User, error) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@retailpos.local"
	}
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	users := auth_repo.NewUserRepo(txm)
	existing, err := users.GetByEmail(ctx, auth.NormalizeEmail(adminEmail))
	if err == nil {
		log.Infow("admin user already exists", "email", existing.Email, "user_id", existing.ID)
		return existing, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("check admin exists: %w", err)
	}

	// No user in ctx: CreateUser takes the bootstrap path.
	svc := auth.NewService(users, txm, nil, auth.DefaultServiceConfig())
	admin, err := svc.CreateUser(ctx, auth.CreateUserRequest{
		Email:    adminEmail,
		FullName: "System Administrator",
		Password: adminPassword,
		Role:     security.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}

	log.Infow("admin user created", "email", admin.Email, "user_id", admin.ID)
	return admin, nil
}

func seedRates(ctx context.Context, txm *postgres.TxManager, log *logger.Logger) error {
	svc := currency.NewService(catalog_repo.NewCurrencyRepo(txm))

	rates := map[string]string{currency.BaseCode: "1"}
	if ves := os.Getenv("SEED_VES_RATE"); ves != "" {
		rates["VES"] = ves
	}
	for code, raw := range rates {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("parse %s rate: %w", code, err)
		}
		if _, err := svc.UpdateRate(ctx, code, rate); err != nil {
			return err
		}
		log.Infow("currency rate seeded", "currency", code, "rate_to_usd", rate.String())
	}
	return nil
}

func seedDemoProducts(ctx context.Context, txm *postgres.TxManager, log *logger.Logger) error {
	log.Info("seeding demo products...")

	products := catalog_repo.NewProductRepo(txm)
	stock := inventory.NewService(products, register_repo.NewMovementRepo(txm), txm)
	skus := numerator.NewWithProvider(
		func(ctx context.Context) numerator.Querier { return txm.GetQuerier(ctx) },
		numerator.WithAttemptRunner(txm.RunInSavepoint),
	)
	audit, err := postgres.NewAuditService(txm)
	if err != nil {
		return err
	}
	svc := product.NewService(products, txm, skus, stock, audit)

	demo := []product.Product{
		{Name: "Rin aleación 15", ProductType: "Rin", Brand: "Ridax", Model: "R15", MeasureQuantity: decimal.NewFromInt(15), MeasureUnit: "in", CostUSD: d("45"), RetailPrice: d("80"), WholesalePrice: d("70"), FinalCustomerPrice: d("85"), BasePrice: d("75"), Stock: 12},
		{Name: "Aceite 20W50", ProductType: "Aceite", Brand: "Ridax", Model: "20W50", MeasureQuantity: decimal.NewFromInt(1), MeasureUnit: "L", CostUSD: d("4.5"), RetailPrice: d("8"), WholesalePrice: d("7"), FinalCustomerPrice: d("8.5"), BasePrice: d("7.5"), Stock: 40},
		{Name: "Batería 12V", ProductType: "Bateria", Brand: "Duncan", Model: "NS40", MeasureQuantity: decimal.NewFromInt(12), MeasureUnit: "V", CostUSD: d("60"), RetailPrice: d("95"), WholesalePrice: d("85"), FinalCustomerPrice: d("100"), BasePrice: d("90"), Stock: 3},
	}
	for i := range demo {
		p, err := svc.Create(ctx, &demo[i])
		if err != nil {
			return fmt.Errorf("create %s: %w", demo[i].Name, err)
		}
		log.Infow("product seeded", "sku", p.SKU, "name", p.Name, "stock", p.Stock)
	}
	return nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }
