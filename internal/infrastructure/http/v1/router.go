// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"workshop/internal/domain/codebook"
	"workshop/internal/domain/codebooks/currency"
	"workshop/internal/domain/codebooks/hourly"
	"workshop/internal/domain/codebooks/simple"
	"workshop/internal/domain/codebooks/status"
	"workshop/internal/domain/codebooks/vat"
	"workshop/internal/domain/orders"
	"workshop/internal/domain/reports"
	"workshop/internal/domain/warehouse"
	"workshop/internal/infrastructure/http/v1/handlers"
	"workshop/internal/infrastructure/http/v1/middleware"
	"workshop/internal/infrastructure/storage/postgres"
	"workshop/pkg/logger"
)

// RouterConfig carries the wired services into the router. Services are
// built once at startup; every request shares them.
type RouterConfig struct {
	Logger *logger.Logger
	Pool   *postgres.Pool

	// MetricsEnabled mounts /metrics and the per-request counters.
	MetricsEnabled bool

	// Codebooks.
	Brands         *codebook.Service[*simple.Row]
	Units          *codebook.Service[*simple.Row]
	Positions      *codebook.Service[*simple.Row]
	PaymentMethods *codebook.Service[*simple.Row]
	CustomerGroups *codebook.Service[*simple.Group]
	VATRates       *vat.Service
	HourlyRates    *hourly.Service
	Currencies     *currency.Service
	OrderStatuses  *status.Service

	// Warehouse.
	Items      *warehouse.ItemService
	ItemCSV    *codebook.Service[*warehouse.Item]
	Categories *warehouse.CategoryService
	Suppliers  *warehouse.SupplierService
	Ledger     *warehouse.Ledger
	Alerts     *warehouse.AlertEngine

	// Orders.
	Customers *orders.CustomerService
	Vehicles  *orders.VehicleService
	Orders    *orders.Engine

	// Cross-cutting.
	Reports    *reports.Service
	Backup     *codebook.Backup
	Registry   *codebook.Registry
	RateSource currency.RateSource
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics())
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		registerCodebookRoutes(v1, cfg)
		registerWarehouseRoutes(v1, cfg)
		registerOrderRoutes(v1, cfg)
		registerReportRoutes(v1, cfg)
		registerAdminRoutes(v1, cfg)
	}

	return router
}

// registerCodebookRoutes mounts the generic CRUD surface of every
// codebook, plus the currency extras.
func registerCodebookRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	codebooks := rg.Group("/codebooks")
	base := handlers.NewBaseHandler()

	newRow := func() *simple.Row { return &simple.Row{} }

	handlers.RegisterCodebookRoutes(codebooks.Group("/brands"),
		handlers.NewCodebookHandler(base, cfg.Brands, newRow))
	handlers.RegisterCodebookRoutes(codebooks.Group("/units"),
		handlers.NewCodebookHandler(base, cfg.Units, newRow))
	handlers.RegisterCodebookRoutes(codebooks.Group("/positions"),
		handlers.NewCodebookHandler(base, cfg.Positions, newRow))
	handlers.RegisterCodebookRoutes(codebooks.Group("/payment-methods"),
		handlers.NewCodebookHandler(base, cfg.PaymentMethods, newRow))
	handlers.RegisterCodebookRoutes(codebooks.Group("/customer-groups"),
		handlers.NewCodebookHandler(base, cfg.CustomerGroups, func() *simple.Group { return &simple.Group{} }))

	handlers.RegisterCodebookRoutes(codebooks.Group("/vat-rates"),
		handlers.NewCodebookHandler(base, cfg.VATRates.Service, func() *vat.Rate { return &vat.Rate{} }))
	handlers.RegisterCodebookRoutes(codebooks.Group("/hourly-rates"),
		handlers.NewCodebookHandler(base, cfg.HourlyRates.Service, func() *hourly.Rate { return &hourly.Rate{} }))
	handlers.RegisterCodebookRoutes(codebooks.Group("/order-statuses"),
		handlers.NewCodebookHandler(base, cfg.OrderStatuses.Service, func() *status.Status { return &status.Status{} }))

	// Currencies carry the FX operations on top of the generic routes.
	currencies := codebooks.Group("/currencies")
	handlers.RegisterCodebookRoutes(currencies,
		handlers.NewCodebookHandler(base, cfg.Currencies.Service, func() *currency.Currency { return &currency.Currency{} }))

	currencyHandler := handlers.NewCurrencyHandler(base, cfg.Currencies, cfg.RateSource)
	currencies.GET("/convert", currencyHandler.Convert)
	currencies.GET("/base", currencyHandler.Base)
	currencies.POST("/refresh-rates", currencyHandler.RefreshRates)
}

// registerWarehouseRoutes mounts the item master, categories, suppliers,
// the movement ledger and the alert scan.
func registerWarehouseRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	wh := rg.Group("/warehouse")
	base := handlers.NewBaseHandler()

	itemHandler := handlers.NewItemHandler(base, cfg.Items, cfg.Ledger, cfg.ItemCSV)
	items := wh.Group("/items")
	{
		items.GET("", itemHandler.List)
		items.POST("", itemHandler.Create)
		items.GET("/export.csv", itemHandler.ExportCSV)
		items.POST("/import.csv", itemHandler.ImportCSV)
		items.GET(":id", itemHandler.Get)
		items.PUT(":id", itemHandler.Update)
		items.DELETE(":id", itemHandler.Delete)
		items.POST(":id/deactivate", itemHandler.Deactivate)
		items.POST(":id/receipt", itemHandler.Receipt)
		items.POST(":id/issue", itemHandler.Issue)
		items.POST(":id/inventory", itemHandler.Inventory)
		items.GET(":id/movements", itemHandler.History)
	}
	wh.POST("/movements/:id/reverse", itemHandler.Reverse)

	categoryHandler := handlers.NewCategoryHandler(base, cfg.Categories)
	categories := wh.Group("/categories")
	{
		categories.GET("", categoryHandler.Tree)
		categories.POST("", categoryHandler.Create)
		categories.GET(":id", categoryHandler.Get)
		categories.PUT(":id", categoryHandler.Update)
		categories.DELETE(":id", categoryHandler.Delete)
	}

	supplierHandler := handlers.NewSupplierHandler(base, cfg.Suppliers)
	suppliers := wh.Group("/suppliers")
	{
		suppliers.GET("", supplierHandler.List)
		suppliers.POST("", supplierHandler.Create)
		suppliers.GET(":id", supplierHandler.Get)
		suppliers.PUT(":id", supplierHandler.Update)
		suppliers.DELETE(":id", supplierHandler.Delete)
	}

	alertHandler := handlers.NewAlertHandler(base, cfg.Alerts)
	wh.POST("/alerts/run", alertHandler.Run)
}

// registerOrderRoutes mounts customers, vehicles and the order lifecycle.
func registerOrderRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	base := handlers.NewBaseHandler()

	customerHandler := handlers.NewCustomerHandler(base, cfg.Customers)
	customers := rg.Group("/customers")
	{
		customers.GET("", customerHandler.List)
		customers.POST("", customerHandler.Create)
		customers.GET(":id", customerHandler.Get)
		customers.PUT(":id", customerHandler.Update)
		customers.DELETE(":id", customerHandler.Delete)
		customers.POST(":id/deactivate", customerHandler.Deactivate)
	}

	vehicleHandler := handlers.NewVehicleHandler(base, cfg.Vehicles)
	vehicles := rg.Group("/vehicles")
	{
		vehicles.GET("", vehicleHandler.List)
		vehicles.POST("", vehicleHandler.Create)
		vehicles.GET("/by-plate/:plate", vehicleHandler.GetByPlate)
		vehicles.GET(":id", vehicleHandler.Get)
		vehicles.PUT(":id", vehicleHandler.Update)
		vehicles.DELETE(":id", vehicleHandler.Delete)
	}

	orderHandler := handlers.NewOrderHandler(base, cfg.Orders)
	ordersGroup := rg.Group("/orders")
	{
		ordersGroup.GET("", orderHandler.List)
		ordersGroup.POST("", orderHandler.Create)
		ordersGroup.GET("/by-number/:number", orderHandler.GetByNumber)
		ordersGroup.GET(":id", orderHandler.Get)
		ordersGroup.POST(":id/transition", orderHandler.Transition)
		ordersGroup.GET(":id/lines", orderHandler.Lines)
		ordersGroup.POST(":id/lines", orderHandler.AddLine)
		ordersGroup.GET(":id/document", orderHandler.Document)
	}
	rg.PUT("/lines/:id", orderHandler.UpdateLine)
	rg.DELETE("/lines/:id", orderHandler.RemoveLine)
}

// registerReportRoutes mounts the derived read-only views.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	base := handlers.NewBaseHandler()
	reportHandler := handlers.NewReportHandler(base, cfg.Reports)

	reportsGroup := rg.Group("/reports")
	{
		reportsGroup.GET("/below-minimum", reportHandler.BelowMinimum)
		reportsGroup.GET("/abc", reportHandler.ABC)
		reportsGroup.GET("/movements", reportHandler.Movements)
		reportsGroup.GET("/price-list", reportHandler.PriceList)
		reportsGroup.GET("/orders", reportHandler.OrderHistory)
	}
}

// registerAdminRoutes mounts the whole-registry operations.
func registerAdminRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	base := handlers.NewBaseHandler()
	adminHandler := handlers.NewAdminHandler(base, cfg.Backup, cfg.Registry)

	rg.GET("/backup", adminHandler.ExportBackup)
	rg.POST("/backup", adminHandler.RestoreBackup)
	rg.GET("/codebooks", adminHandler.Codebooks)
	rg.POST("/codebooks/seed-defaults", adminHandler.SeedDefaults)
}
