// Package finance is the computation engine: it owns per-user ledgers and
// applies every mutation through them.
package finance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cmorneau/maple/internal/common"
	"github.com/cmorneau/maple/internal/interfaces"
	"github.com/cmorneau/maple/internal/models"
)

const DefaultSaveDebounce = 2 * time.Second

// userLedger pairs a loaded ledger with its mutation lock and dirty-save
// state. HTTP handlers are the only mutators; the lock serializes them.
type userLedger struct {
	mu     sync.Mutex
	ledger *models.Ledger
	dirty  bool
	timer  *time.Timer
}

// Service implements FinanceService.
type Service struct {
	storage  interfaces.StorageManager
	rates    interfaces.RateService
	quotes   interfaces.QuoteService
	logger   *common.Logger
	debounce time.Duration

	mu      sync.Mutex
	ledgers map[string]*userLedger
}

// NewService creates the finance engine.
func NewService(storage interfaces.StorageManager, rates interfaces.RateService, quotes interfaces.QuoteService, logger *common.Logger) *Service {
	return &Service{
		storage:  storage,
		rates:    rates,
		quotes:   quotes,
		logger:   logger,
		debounce: DefaultSaveDebounce,
		ledgers:  make(map[string]*userLedger),
	}
}

// SetSaveDebounce overrides the save debounce interval (config wiring).
func (s *Service) SetSaveDebounce(d time.Duration) {
	if d > 0 {
		s.debounce = d
	}
}

// ledgerFor returns the user's ledger container, loading the snapshot from
// storage on first touch.
func (s *Service) ledgerFor(ctx context.Context, userID string) (*userLedger, error) {
	s.mu.Lock()
	ul, ok := s.ledgers[userID]
	if !ok {
		ul = &userLedger{}
		s.ledgers[userID] = ul
	}
	s.mu.Unlock()

	ul.mu.Lock()
	defer ul.mu.Unlock()
	if ul.ledger == nil {
		ledger, err := s.storage.LedgerStore().Load(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load ledger for %s: %w", userID, err)
		}
		ul.ledger = ledger
	}
	return ul, nil
}

// withLedger runs fn with the user's ledger locked. When fn succeeds and
// mutate is set, the ledger is marked dirty and the debounced save rearmed.
// A failed fn leaves the ledger untouched only because every operation
// validates before mutating.
func (s *Service) withLedger(ctx context.Context, userID string, mutate bool, fn func(*models.Ledger) error) error {
	ul, err := s.ledgerFor(ctx, userID)
	if err != nil {
		return err
	}

	ul.mu.Lock()
	defer ul.mu.Unlock()

	if err := fn(ul.ledger); err != nil {
		return err
	}
	if mutate {
		ul.ledger.UpdatedAt = time.Now()
		s.markDirty(userID, ul)
	}
	return nil
}

// markDirty rearms the user's save timer. Called with ul.mu held.
func (s *Service) markDirty(userID string, ul *userLedger) {
	ul.dirty = true
	if ul.timer != nil {
		ul.timer.Stop()
	}
	ul.timer = time.AfterFunc(s.debounce, func() {
		s.flushUser(context.Background(), userID, ul)
	})
}

// flushUser persists the ledger if dirty. Save failure is logged and
// dropped; the in-memory ledger stays authoritative and dirty so a later
// edit retries.
func (s *Service) flushUser(ctx context.Context, userID string, ul *userLedger) {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	if !ul.dirty || ul.ledger == nil {
		return
	}
	if err := s.storage.LedgerStore().Save(ctx, ul.ledger); err != nil {
		s.logger.Error().Err(err).Str("user", userID).Msg("Ledger save failed")
		return
	}
	ul.dirty = false
	s.logger.Debug().Str("user", userID).Msg("Ledger saved")
}

// Flush forces any pending debounced saves to storage. Used at shutdown.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	users := make(map[string]*userLedger, len(s.ledgers))
	for id, ul := range s.ledgers {
		users[id] = ul
	}
	s.mu.Unlock()

	for id, ul := range users {
		ul.mu.Lock()
		if ul.timer != nil {
			ul.timer.Stop()
		}
		ul.mu.Unlock()
		s.flushUser(ctx, id, ul)
	}
	return nil
}

// Ledger returns a deep-enough copy of the user's snapshot: slices are
// cloned so readers can't race later mutations.
func (s *Service) Ledger(ctx context.Context, userID string) (*models.Ledger, error) {
	var snapshot *models.Ledger
	err := s.withLedger(ctx, userID, false, func(l *models.Ledger) error {
		snapshot = cloneLedger(l)
		return nil
	})
	return snapshot, err
}

func cloneLedger(l *models.Ledger) *models.Ledger {
	out := *l
	out.Accounts = append([]models.Account{}, l.Accounts...)
	out.Debts = append([]models.Debt{}, l.Debts...)
	out.Portfolio = append([]models.Holding{}, l.Portfolio...)
	out.Belongings = append([]models.Belonging{}, l.Belongings...)
	out.TFSA = make([]models.TFSAYear, len(l.TFSA))
	for i, rec := range l.TFSA {
		rec.Contributions = append([]float64{}, rec.Contributions...)
		rec.Withdrawals = append([]float64{}, rec.Withdrawals...)
		out.TFSA[i] = rec
	}
	return &out
}

// Ensure Service implements FinanceService
var _ interfaces.FinanceService = (*Service)(nil)
