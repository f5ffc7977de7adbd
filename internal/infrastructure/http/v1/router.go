// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"retailpos/internal/config"
	"retailpos/internal/core/security"
	"retailpos/internal/domain/auth"
	"retailpos/internal/domain/catalogs/currency"
	"retailpos/internal/domain/catalogs/product"
	"retailpos/internal/domain/inventory"
	"retailpos/internal/domain/purchases"
	"retailpos/internal/domain/reports"
	"retailpos/internal/domain/sales"
	"retailpos/internal/domain/settings"
	"retailpos/internal/infrastructure/http/v1/dto"
	"retailpos/internal/infrastructure/http/v1/handlers"
	"retailpos/internal/infrastructure/http/v1/middleware"
	"retailpos/pkg/logger"
)

// RouterConfig holds the router dependencies.
type RouterConfig struct {
	Logger *logger.Logger

	// Environment selects gin mode and the CORS policy.
	Environment    string
	AllowedOrigins []string
	Version        string

	// Database is pinged by the readiness probe.
	Database handlers.Pinger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Idempotency replays POST /sales and POST /purchases retries.
	// Nil disables X-Idempotency-Key handling.
	Idempotency middleware.IdempotencyStore

	Auth       *auth.Service
	Products   *product.Service
	Inventory  *inventory.Service
	Purchases  *purchases.Service
	Sales      *sales.Service
	Currencies *currency.Service
	Settings   *settings.Service
	Reports    *reports.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := dto.RegisterValidators(); err != nil {
		cfg.Logger.Fatalw("register request validators", "error", err)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if c, ok := corsMiddleware(cfg); ok {
		router.Use(c)
	}
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Database, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	api := router.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(base, cfg.Auth)
	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))
	authHandler.RegisterRoutes(api.Group("/auth"), protectedAuth)

	protected := api.Group("")
	protected.Use(middleware.Auth(cfg.JWTValidator))

	idem := func(c *gin.Context) { c.Next() }
	if cfg.Idempotency != nil {
		idem = middleware.Idempotency(cfg.Idempotency)
	}

	users := protected.Group("/users")
	{
		users.GET("", middleware.RequirePermission(security.PermSettingsView), authHandler.ListUsers)
		users.POST("", middleware.RequirePermission(security.PermSettingsWrite), authHandler.CreateUser)
	}

	productHandler := handlers.NewProductHandler(base, cfg.Products)
	inventoryHandler := handlers.NewInventoryHandler(base, cfg.Inventory)
	products := protected.Group("/products")
	RegisterResourceRoutes(products, productHandler, security.PermArticlesView, security.PermArticlesWrite)
	products.GET("/:id/movements", middleware.RequirePermission(security.PermInventoryView), inventoryHandler.ProductMovements)

	inv := protected.Group("/inventory")
	{
		inv.GET("", middleware.RequirePermission(security.PermInventoryView), inventoryHandler.Overview)
		inv.GET("/movements", middleware.RequirePermission(security.PermInventoryView), inventoryHandler.Movements)
		inv.POST("/adjustments", middleware.RequirePermission(security.PermInventoryWrite), inventoryHandler.Adjust)
	}

	purchaseHandler := handlers.NewPurchaseHandler(base, cfg.Purchases)
	purch := protected.Group("/purchases")
	{
		purch.GET("", middleware.RequirePermission(security.PermPurchasesView), purchaseHandler.List)
		purch.POST("", middleware.RequirePermission(security.PermPurchasesWrite), idem, purchaseHandler.Create)
	}

	salesHandler := handlers.NewSalesHandler(base, cfg.Sales)
	sale := protected.Group("/sales")
	{
		sale.GET("", middleware.RequirePermission(security.PermSalesView), salesHandler.List)
		sale.POST("", middleware.RequirePermission(security.PermSalesWrite), idem, salesHandler.Create)
		sale.POST("/void", middleware.RequirePermission(security.PermSalesWrite), salesHandler.VoidMany)
		sale.GET("/:code", middleware.RequirePermission(security.PermSalesView), salesHandler.Get)
		sale.PUT("/:code", middleware.RequirePermission(security.PermSalesWrite), salesHandler.Edit)
		sale.POST("/:code/void", middleware.RequirePermission(security.PermSalesWrite), salesHandler.Void)
		sale.GET("/:code/history", middleware.RequirePermission(security.PermSalesView), salesHandler.History)
	}

	currencyHandler := handlers.NewCurrencyHandler(base, cfg.Currencies)
	cur := protected.Group("/currencies")
	{
		readRates := middleware.RequireAnyPermission(security.PermSalesView, security.PermArticlesView, security.PermPurchasesView)
		cur.GET("", readRates, currencyHandler.List)
		cur.GET("/convert", readRates, currencyHandler.Convert)
		cur.PUT("/:code", middleware.RequirePermission(security.PermSettingsWrite), currencyHandler.UpdateRate)
	}

	settingsHandler := handlers.NewSettingsHandler(base, cfg.Settings)
	set := protected.Group("/settings")
	{
		set.GET("", middleware.RequirePermission(security.PermSettingsView), settingsHandler.List)
		set.GET("/:key", middleware.RequirePermission(security.PermSettingsView), settingsHandler.Get)
		set.PUT("", middleware.RequirePermission(security.PermSettingsWrite), settingsHandler.Update)
	}

	reportsHandler := handlers.NewReportsHandler(base, cfg.Reports)
	rep := protected.Group("/reports")
	rep.Use(middleware.RequirePermission(security.PermReportsView))
	{
		rep.GET("/range", reportsHandler.Range)
		rep.GET("/range/export", reportsHandler.Export)
		rep.GET("/commissions", reportsHandler.Commissions)
		rep.GET("/kpis", reportsHandler.KPIs)
		rep.GET("/daily", reportsHandler.Daily)
	}

	dash := protected.Group("/dashboard")
	dash.Use(middleware.RequirePermission(security.PermDashboardView))
	{
		dash.GET("/summary", reportsHandler.Dashboard)
		dash.GET("/timeseries", reportsHandler.Timeseries)
	}

	return router
}

// corsMiddleware allows any origin outside production. Production requires an
// explicit allowlist; without one no CORS headers are sent.
func corsMiddleware(cfg RouterConfig) (gin.HandlerFunc, bool) {
	corsConfig := cors.DefaultConfig()
	switch {
	case len(cfg.AllowedOrigins) > 0:
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	case cfg.Environment != config.EnvProduction:
		corsConfig.AllowAllOrigins = true
	default:
		return nil, false
	}
	corsConfig.AddAllowHeaders("Authorization", middleware.HeaderIdempotencyKey)
	corsConfig.AddExposeHeaders("Content-Disposition", middleware.HeaderRequestID, middleware.HeaderTraceID, middleware.HeaderIdempotentReplay)
	return cors.New(corsConfig), true
}
