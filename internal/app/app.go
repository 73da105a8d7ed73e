// Package app wires configuration, storage, clients, and services into a
// running application core.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cmorneau/maple/internal/clients/exchangerate"
	"github.com/cmorneau/maple/internal/clients/finnhub"
	"github.com/cmorneau/maple/internal/clients/yahoo"
	"github.com/cmorneau/maple/internal/common"
	"github.com/cmorneau/maple/internal/interfaces"
	"github.com/cmorneau/maple/internal/services/finance"
	"github.com/cmorneau/maple/internal/services/quote"
	"github.com/cmorneau/maple/internal/services/rates"
	"github.com/cmorneau/maple/internal/storage/surrealdb"
)

// App holds all initialized services and clients. It is the shared core
// behind cmd/maple-server.
type App struct {
	Config         *common.Config
	Logger         *common.Logger
	Storage        interfaces.StorageManager
	RateService    interfaces.RateService
	QuoteService   interfaces.QuoteService
	FinanceService interfaces.FinanceService
	StartupTime    time.Time

	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Load configuration - check provided path, MAPLE_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("MAPLE_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "maple.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/maple.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative log file path to binary directory
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := surrealdb.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Initialize API clients
	var searchClient interfaces.SymbolSearchClient
	if config.Clients.Finnhub.APIKey != "" {
		searchClient = finnhub.NewClient(config.Clients.Finnhub.APIKey,
			finnhub.WithBaseURL(config.Clients.Finnhub.BaseURL),
			finnhub.WithLogger(logger),
			finnhub.WithRateLimit(config.Clients.Finnhub.RateLimit),
			finnhub.WithTimeout(config.Clients.Finnhub.GetTimeout()),
		)
	} else {
		logger.Warn().Msg("Finnhub API key not configured - symbol search will return empty results")
	}

	quoteClient := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
	)

	rateClient := exchangerate.NewClient(
		exchangerate.WithBaseURL(config.Clients.ExchangeRate.BaseURL),
		exchangerate.WithLogger(logger),
		exchangerate.WithTimeout(config.Clients.ExchangeRate.GetTimeout()),
	)

	// Initialize services
	rateService := rates.NewService(rateClient, logger)
	seedRatesFromCache(context.Background(), rateService, storageManager.InternalStore(), logger)
	quoteService := quote.NewService(searchClient, quoteClient, logger)
	financeService := finance.NewService(storageManager, rateService, quoteService, logger)
	financeService.SetSaveDebounce(config.Engine.GetSaveDebounce())

	a := &App{
		Config:         config,
		Logger:         logger,
		Storage:        storageManager,
		RateService:    rateService,
		QuoteService:   quoteService,
		FinanceService: financeService,
		StartupTime:    startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: cancel scheduler, flush pending saves, close storage.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.FinanceService != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.FinanceService.Flush(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to flush pending saves on shutdown")
		}
		cancel()
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}

// StartRatesScheduler launches the background FX refresh goroutine.
func (a *App) StartRatesScheduler() {
	var store interfaces.InternalStore
	if a.Storage != nil {
		store = a.Storage.InternalStore()
	}

	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	a.schedulerCancel = schedulerCancel
	go startRatesScheduler(schedulerCtx, a.RateService, store, a.Config.Engine.GetRatesRefreshInterval(), a.Logger)
}
