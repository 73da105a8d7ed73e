package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cmorneau/maple/internal/common"
	"github.com/cmorneau/maple/internal/interfaces"
	"github.com/cmorneau/maple/internal/models"
)

// ratesCacheKey is the system KV entry holding the last refreshed FX table.
const ratesCacheKey = "fx_rates"

// startRatesScheduler refreshes FX rates on a fixed interval. The first
// refresh runs immediately so conversions leave the fallback table as soon
// as the upstream is reachable. Failures are logged and retried next tick.
func startRatesScheduler(ctx context.Context, rateService interfaces.RateService, store interfaces.InternalStore, interval time.Duration, logger *common.Logger) {
	refreshRates(ctx, rateService, store, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Rates scheduler: stopped")
			return
		case <-ticker.C:
			refreshRates(ctx, rateService, store, logger)
		}
	}
}

func refreshRates(ctx context.Context, rateService interfaces.RateService, store interfaces.InternalStore, logger *common.Logger) {
	start := time.Now()

	refreshCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := rateService.Refresh(refreshCtx); err != nil {
		logger.Warn().Err(err).Msg("Rates refresh: failed, previous table kept")
		return
	}

	cacheRates(refreshCtx, rateService, store, logger)

	logger.Info().Dur("elapsed", time.Since(start)).Msg("Rates refresh: complete")
}

// cacheRates persists the refreshed table to system KV so the next process
// start can seed from recent live rates instead of the hardcoded fallbacks.
func cacheRates(ctx context.Context, rateService interfaces.RateService, store interfaces.InternalStore, logger *common.Logger) {
	if store == nil {
		return
	}

	data, err := json.Marshal(rateService.Rates())
	if err != nil {
		return
	}
	if err := store.SetSystemKV(ctx, ratesCacheKey, string(data)); err != nil {
		logger.Warn().Err(err).Msg("Rates refresh: cache write failed")
	}
}

// seedRatesFromCache loads the table cached by a previous run. A missing or
// unreadable entry leaves the service on its fallback table.
func seedRatesFromCache(ctx context.Context, rateService interfaces.RateService, store interfaces.InternalStore, logger *common.Logger) {
	if store == nil {
		return
	}

	raw, err := store.GetSystemKV(ctx, ratesCacheKey)
	if err != nil {
		return
	}

	var rates map[models.Currency]float64
	if err := json.Unmarshal([]byte(raw), &rates); err != nil {
		logger.Warn().Err(err).Msg("Discarding unreadable rates cache")
		return
	}

	rateService.Seed(rates)
	logger.Info().Int("currencies", len(rates)).Msg("Rates seeded from cached table")
}
