// Package app wires the application: pool, repositories, services and
// the codebook registry. The HTTP server and the CLI share one build.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"workshop/internal/config"
	"workshop/internal/domain/codebook"
	"workshop/internal/domain/codebooks/currency"
	"workshop/internal/domain/codebooks/hourly"
	"workshop/internal/domain/codebooks/simple"
	"workshop/internal/domain/codebooks/status"
	"workshop/internal/domain/codebooks/vat"
	"workshop/internal/domain/orders"
	"workshop/internal/domain/reports"
	"workshop/internal/domain/warehouse"
	"workshop/internal/infrastructure/fx"
	v1 "workshop/internal/infrastructure/http/v1"
	"workshop/internal/infrastructure/mail"
	"workshop/internal/infrastructure/storage/postgres"
	"workshop/internal/infrastructure/storage/postgres/codebook_repo"
	"workshop/internal/infrastructure/storage/postgres/orders_repo"
	"workshop/internal/infrastructure/storage/postgres/reports_repo"
	"workshop/internal/infrastructure/storage/postgres/warehouse_repo"
	"workshop/pkg/logger"
)

// App is the wired application.
type App struct {
	Config config.Config
	Logger *logger.Logger

	Pool      *postgres.Pool
	TxManager *postgres.TxManager

	Registry *codebook.Registry
	Backup   *codebook.Backup

	Brands         *codebook.Service[*simple.Row]
	Units          *codebook.Service[*simple.Row]
	Positions      *codebook.Service[*simple.Row]
	PaymentMethods *codebook.Service[*simple.Row]
	CustomerGroups *codebook.Service[*simple.Group]
	VATRates       *vat.Service
	HourlyRates    *hourly.Service
	Currencies     *currency.Service
	OrderStatuses  *status.Service

	Items      *warehouse.ItemService
	ItemCSV    *codebook.Service[*warehouse.Item]
	Categories *warehouse.CategoryService
	Suppliers  *warehouse.SupplierService
	Ledger     *warehouse.Ledger
	Alerts     *warehouse.AlertEngine

	Customers *orders.CustomerService
	Vehicles  *orders.VehicleService
	Orders    *orders.Engine

	Reports *reports.Service
	FX      *fx.Client
	Mailer  *mail.Mailer

	releaseOwnership func()
}

// New connects to the database and wires every service. The connection
// claims the single-writer advisory lock; a second instance on the same
// database is refused.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, error) {
	costing := warehouse.CostingPolicy(cfg.Warehouse.CostingPolicy)
	switch costing {
	case "", warehouse.CostingLast, warehouse.CostingWeightedAverage:
	default:
		return nil, fmt.Errorf("unknown costing policy %q", cfg.Warehouse.CostingPolicy)
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Postgres.DSN))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	release, err := pool.AcquireOwnership(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}

	txm := postgres.NewTxManager(pool)

	a := &App{
		Config:           cfg,
		Logger:           log,
		Pool:             pool,
		TxManager:        txm,
		releaseOwnership: release,
	}

	a.wireCodebooks(txm)
	a.wireWarehouse(txm, costing)
	a.wireOrders(txm)

	a.Reports = reports.NewService(reports_repo.New(txm), txm)
	a.FX = fx.NewClient(cfg.FX.URL, cfg.FX.Timeout, cfg.FX.InsecureSkipTLS)

	return a, nil
}

// wireCodebooks builds the codebook services and the registry.
// Registration order doubles as restore order, so referenced codebooks
// come before their referrers.
func (a *App) wireCodebooks(txm *postgres.TxManager) {
	a.Brands = codebook.NewService(simple.Brands(), codebook_repo.New(txm, simple.Brands()), txm)
	a.Units = codebook.NewService(simple.Units(), codebook_repo.New(txm, simple.Units()), txm)
	a.Positions = codebook.NewService(simple.Positions(), codebook_repo.New(txm, simple.Positions()), txm)
	a.PaymentMethods = codebook.NewService(simple.PaymentMethods(), codebook_repo.New(txm, simple.PaymentMethods()), txm)
	a.CustomerGroups = codebook.NewService(simple.CustomerGroups(), codebook_repo.New(txm, simple.CustomerGroups()), txm)

	a.VATRates = vat.NewService(codebook_repo.New(txm, vat.Descriptor()), txm)
	a.HourlyRates = hourly.NewService(codebook_repo.New(txm, hourly.Descriptor()), txm)
	a.Currencies = currency.NewService(codebook_repo.New(txm, currency.Descriptor()), txm)
	a.OrderStatuses = status.NewService(codebook_repo.New(txm, status.Descriptor()), txm)

	a.Registry = codebook.NewRegistry()
	a.Registry.Register(a.Brands)
	a.Registry.Register(a.Units)
	a.Registry.Register(a.Positions)
	a.Registry.Register(a.CustomerGroups)
	a.Registry.Register(a.PaymentMethods)
	a.Registry.Register(a.VATRates)
	a.Registry.Register(a.HourlyRates)
	a.Registry.Register(a.Currencies)
	a.Registry.Register(a.OrderStatuses)

	a.Backup = codebook.NewBackup(a.Registry, txm)
}

func (a *App) wireWarehouse(txm *postgres.TxManager, costing warehouse.CostingPolicy) {
	itemRepo := warehouse_repo.NewItemRepo(txm)

	a.Items = warehouse.NewItemService(itemRepo, txm)
	a.ItemCSV = codebook.NewService(warehouse.ItemDescriptor(), codebook_repo.New(txm, warehouse.ItemDescriptor()), txm)
	a.Categories = warehouse.NewCategoryService(warehouse_repo.NewCategoryRepo(txm), txm)
	a.Suppliers = warehouse.NewSupplierService(warehouse_repo.NewSupplierRepo(txm), txm)
	a.Ledger = warehouse.NewLedger(itemRepo, warehouse_repo.NewMovementRepo(txm), txm, costing)
	a.Alerts = warehouse.NewAlertEngine(itemRepo, warehouse_repo.NewAlertRepo(txm), txm)
}

func (a *App) wireOrders(txm *postgres.TxManager) {
	customerRepo := orders_repo.NewCustomerRepo(txm)
	vehicleRepo := orders_repo.NewVehicleRepo(txm)

	a.Customers = orders.NewCustomerService(customerRepo, txm)
	a.Vehicles = orders.NewVehicleService(vehicleRepo, txm)

	var notifier orders.Notifier
	if a.Config.SMTP.Enabled {
		a.Mailer = mail.New(mail.Config{
			Host:       a.Config.SMTP.Host,
			Port:       a.Config.SMTP.Port,
			Username:   a.Config.SMTP.Username,
			Password:   a.Config.SMTP.Password,
			From:       a.Config.SMTP.From,
			Recipients: a.Config.SMTP.Recipients,
		})
		notifier = a.Mailer
	}

	a.Orders = orders.NewEngine(orders.EngineDeps{
		Orders:    orders_repo.NewOrderRepo(txm),
		Lines:     orders_repo.NewLineRepo(txm),
		Customers: customerRepo,
		Vehicles:  vehicleRepo,
		Statuses:  a.OrderStatuses,
		Numbers:   postgres.NewSequenceAllocator(txm),
		VAT:       a.VATRates,
		Labor:     a.HourlyRates,
		Stock:     orders.WarehouseStock{Items: a.Items, Ledger: a.Ledger},
		Notifier:  notifier,
		Tx:        txm,
	})
}

// Router builds the HTTP router over the wired services.
func (a *App) Router() *gin.Engine {
	return v1.NewRouter(v1.RouterConfig{
		Logger:         a.Logger,
		Pool:           a.Pool,
		MetricsEnabled: a.Config.Metrics.Enabled,

		Brands:         a.Brands,
		Units:          a.Units,
		Positions:      a.Positions,
		PaymentMethods: a.PaymentMethods,
		CustomerGroups: a.CustomerGroups,
		VATRates:       a.VATRates,
		HourlyRates:    a.HourlyRates,
		Currencies:     a.Currencies,
		OrderStatuses:  a.OrderStatuses,

		Items:      a.Items,
		ItemCSV:    a.ItemCSV,
		Categories: a.Categories,
		Suppliers:  a.Suppliers,
		Ledger:     a.Ledger,
		Alerts:     a.Alerts,

		Customers: a.Customers,
		Vehicles:  a.Vehicles,
		Orders:    a.Orders,

		Reports:    a.Reports,
		Backup:     a.Backup,
		Registry:   a.Registry,
		RateSource: a.FX,
	})
}

// Close releases the ownership lock and the pool.
func (a *App) Close() {
	if a.releaseOwnership != nil {
		a.releaseOwnership()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
