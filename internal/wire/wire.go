// Package wire provides dependency injection for the brickline application.
// It creates singleton services with lazy initialization.
package wire

import (
	"io"
	"log"
	"os"
	"sync"

	cliadapter "github.com/example/brickline/internal/adapters/cli"
	"github.com/example/brickline/internal/adapters/sqlite"
	"github.com/example/brickline/internal/app"
	"github.com/example/brickline/internal/db"
	"github.com/example/brickline/internal/ports/primary"
	"github.com/example/brickline/internal/ports/secondary"
)

var (
	catalogService primary.CatalogService
	stockService   primary.StockService
	orderService   primary.OrderService
	activityLog    secondary.ActivityLog
	once           sync.Once
)

// CatalogService returns the singleton CatalogService instance.
func CatalogService() primary.CatalogService {
	once.Do(initServices)
	return catalogService
}

// StockService returns the singleton StockService instance.
func StockService() primary.StockService {
	once.Do(initServices)
	return stockService
}

// OrderService returns the singleton OrderService instance.
func OrderService() primary.OrderService {
	once.Do(initServices)
	return orderService
}

// ActivityLog returns the singleton activity log.
func ActivityLog() secondary.ActivityLog {
	once.Do(initServices)
	return activityLog
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	// Get database connection
	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	catalogRepo := sqlite.NewCatalogRepository(database)
	stockRepo := sqlite.NewStockRepository(database)
	orderRepo := sqlite.NewOrderRepository(database)
	activityLog = sqlite.NewActivityLogRepository(database)

	// Create services (primary ports implementation)
	catalogService = app.NewCatalogService(catalogRepo, activityLog)
	stockService = app.NewStockService(catalogRepo, stockRepo, orderRepo, activityLog)
	orderService = app.NewOrderService(catalogRepo, stockRepo, orderRepo, activityLog)
}

// CatalogAdapter returns a new CatalogAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func CatalogAdapter() *cliadapter.CatalogAdapter {
	return CatalogAdapterWithOutput(os.Stdout)
}

// CatalogAdapterWithOutput returns a new CatalogAdapter writing to the given output.
// This variant allows testing or alternate output destinations.
func CatalogAdapterWithOutput(out io.Writer) *cliadapter.CatalogAdapter {
	once.Do(initServices)
	return cliadapter.NewCatalogAdapter(catalogService, out)
}

// StockAdapter returns a new StockAdapter writing to stdout.
func StockAdapter() *cliadapter.StockAdapter {
	return StockAdapterWithOutput(os.Stdout)
}

// StockAdapterWithOutput returns a new StockAdapter writing to the given output.
func StockAdapterWithOutput(out io.Writer) *cliadapter.StockAdapter {
	once.Do(initServices)
	return cliadapter.NewStockAdapter(stockService, out)
}

// OrderAdapter returns a new OrderAdapter writing to stdout.
func OrderAdapter() *cliadapter.OrderAdapter {
	return OrderAdapterWithOutput(os.Stdout)
}

// OrderAdapterWithOutput returns a new OrderAdapter writing to the given output.
func OrderAdapterWithOutput(out io.Writer) *cliadapter.OrderAdapter {
	once.Do(initServices)
	return cliadapter.NewOrderAdapter(orderService, out)
}
