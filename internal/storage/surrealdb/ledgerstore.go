package surrealdb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/cmorneau/maple/internal/common"
	"github.com/cmorneau/maple/internal/models"
)

// LedgerStore persists whole per-user ledgers, one record per user.
type LedgerStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewLedgerStore(db *surrealdb.DB, logger *common.Logger) *LedgerStore {
	return &LedgerStore{
		db:     db,
		logger: logger,
	}
}

// Load returns the user's ledger. A user with no stored record gets a fresh
// empty ledger. Nil entity lists and unsorted TFSA records from older
// snapshots are normalized on the way out.
func (s *LedgerStore) Load(ctx context.Context, userID string) (*models.Ledger, error) {
	ledger, err := surrealdb.Select[models.Ledger](ctx, s.db, surrealmodels.NewRecordID("ledger", userID))
	if err != nil {
		return nil, fmt.Errorf("failed to select ledger: %w", err)
	}
	if ledger == nil {
		return models.NewLedger(userID), nil
	}

	normalize(ledger)
	ledger.UserID = userID
	return ledger, nil
}

// Save upserts the full snapshot.
func (s *LedgerStore) Save(ctx context.Context, ledger *models.Ledger) error {
	ledger.UpdatedAt = time.Now()

	sql := "UPSERT type::record('ledger', $id) CONTENT $ledger"
	vars := map[string]any{"id": ledger.UserID, "ledger": ledger}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Ledger](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save ledger after retries: %w", err)
		}
	}
	return nil
}

func (s *LedgerStore) Delete(ctx context.Context, userID string) error {
	_, err := surrealdb.Delete[models.Ledger](ctx, s.db, surrealmodels.NewRecordID("ledger", userID))
	if err != nil {
		return fmt.Errorf("failed to delete ledger: %w", err)
	}
	return nil
}

func (s *LedgerStore) Close() error {
	return nil
}

func normalize(l *models.Ledger) {
	if l.Accounts == nil {
		l.Accounts = []models.Account{}
	}
	if l.Debts == nil {
		l.Debts = []models.Debt{}
	}
	if l.Portfolio == nil {
		l.Portfolio = []models.Holding{}
	}
	if l.Belongings == nil {
		l.Belongings = []models.Belonging{}
	}
	if l.TFSA == nil {
		l.TFSA = []models.TFSAYear{}
	}
	sort.Slice(l.TFSA, func(i, j int) bool { return l.TFSA[i].Year < l.TFSA[j].Year })
}
