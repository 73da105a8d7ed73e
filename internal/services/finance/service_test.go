package finance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmorneau/maple/internal/common"
	"github.com/cmorneau/maple/internal/interfaces"
	"github.com/cmorneau/maple/internal/models"
)

// --- Mocks ---

type memLedgerStore struct {
	mu      sync.Mutex
	ledgers map[string]*models.Ledger
	saves   int
}

func newMemLedgerStore() *memLedgerStore {
	return &memLedgerStore{ledgers: make(map[string]*models.Ledger)}
}

func (m *memLedgerStore) Load(_ context.Context, userID string) (*models.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.ledgers[userID]; ok {
		return l, nil
	}
	return models.NewLedger(userID), nil
}

func (m *memLedgerStore) Save(_ context.Context, ledger *models.Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledgers[ledger.UserID] = ledger
	m.saves++
	return nil
}

func (m *memLedgerStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ledgers, userID)
	return nil
}

func (m *memLedgerStore) Close() error { return nil }

func (m *memLedgerStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

type memInternalStore struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	users    map[string]*models.User
	kv       map[string]string
}

func newMemInternalStore() *memInternalStore {
	return &memInternalStore{
		profiles: make(map[string]*models.Profile),
		users:    make(map[string]*models.User),
		kv:       make(map[string]string),
	}
}

func (m *memInternalStore) GetUser(_ context.Context, userID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func (m *memInternalStore) SaveUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.UserID] = user
	return nil
}

func (m *memInternalStore) DeleteUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
	return nil
}

func (m *memInternalStore) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[userID], nil
}

func (m *memInternalStore) SaveProfile(_ context.Context, profile *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.UserID] = profile
	return nil
}

func (m *memInternalStore) DeleteProfile(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, userID)
	return nil
}

func (m *memInternalStore) GetSystemKV(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.kv[key]; ok {
		return v, nil
	}
	return "", errors.New("system KV not found")
}

func (m *memInternalStore) SetSystemKV(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}

func (m *memInternalStore) Close() error { return nil }

type memStorage struct {
	ledgers  *memLedgerStore
	internal *memInternalStore
}

func newMemStorage() *memStorage {
	return &memStorage{ledgers: newMemLedgerStore(), internal: newMemInternalStore()}
}

func (m *memStorage) LedgerStore() interfaces.LedgerStore     { return m.ledgers }
func (m *memStorage) InternalStore() interfaces.InternalStore { return m.internal }
func (m *memStorage) Close() error                            { return nil }

// stubRates converts with the built-in fallback table.
type stubRates struct{}

func (stubRates) ToHome(amount float64, ccy models.Currency) float64 {
	rate := models.FallbackRates[models.NormalizeCurrency(ccy)]
	if rate == 0 {
		return amount
	}
	return amount / rate
}
func (stubRates) Rates() map[models.Currency]float64 { return models.FallbackRates }
func (stubRates) Refresh(_ context.Context) error    { return nil }
func (stubRates) Seed(map[models.Currency]float64)   {}

// stubQuotes serves prices from a fixed map.
type stubQuotes struct {
	prices map[string]float64
}

func (s *stubQuotes) Search(_ context.Context, _ string) []models.SymbolMatch {
	return []models.SymbolMatch{}
}

func (s *stubQuotes) Price(_ context.Context, symbol string) *models.Quote {
	return &models.Quote{Symbol: symbol, Price: s.prices[symbol]}
}

func (s *stubQuotes) RefreshHoldings(_ context.Context, _ string, holdings []models.Holding) (bool, error) {
	changed := false
	for i := range holdings {
		if p, ok := s.prices[holdings[i].Symbol]; ok && p != holdings[i].CurrentPrice {
			holdings[i].CurrentPrice = p
			holdings[i].Reprice()
			changed = true
		}
	}
	return changed, nil
}

func newTestService(storage *memStorage, quotes *stubQuotes) *Service {
	if quotes == nil {
		quotes = &stubQuotes{prices: map[string]float64{}}
	}
	return NewService(storage, stubRates{}, quotes, common.NewSilentLogger())
}

// --- Tests ---

func TestAddAccountRejectsBlankName(t *testing.T) {
	svc := newTestService(newMemStorage(), nil)
	ctx := context.Background()

	_, err := svc.AddAccount(ctx, "u1", models.Account{Balance: 100})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}

	ledger, err := svc.Ledger(ctx, "u1")
	if err != nil {
		t.Fatalf("Ledger failed: %v", err)
	}
	if len(ledger.Accounts) != 0 {
		t.Errorf("rejected add mutated state: %d accounts", len(ledger.Accounts))
	}
}

func TestAccountCRUD(t *testing.T) {
	svc := newTestService(newMemStorage(), nil)
	ctx := context.Background()

	acct, err := svc.AddAccount(ctx, "u1", models.Account{Name: "Chequing", Balance: 1000})
	if err != nil {
		t.Fatalf("AddAccount failed: %v", err)
	}
	if acct.ID == "" {
		t.Error("expected generated ID")
	}
	if acct.Currency != models.CurrencyCAD {
		t.Errorf("expected default currency CAD, got %s", acct.Currency)
	}

	updated, err := svc.UpdateAccount(ctx, "u1", acct.ID, models.Account{Name: "Chequing", Balance: 1500, Currency: models.CurrencyUSD})
	if err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}
	if updated.Balance != 1500 || updated.Currency != models.CurrencyUSD {
		t.Errorf("update not applied: %+v", updated)
	}

	if _, err := svc.UpdateAccount(ctx, "u1", "missing", models.Account{Name: "X", Balance: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}

	if err := svc.DeleteAccount(ctx, "u1", acct.ID); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	ledger, _ := svc.Ledger(ctx, "u1")
	if len(ledger.Accounts) != 0 {
		t.Errorf("expected empty accounts after delete, got %d", len(ledger.Accounts))
	}
}

func TestDebtStoredAsMagnitude(t *testing.T) {
	svc := newTestService(newMemStorage(), nil)
	ctx := context.Background()

	debt, err := svc.AddDebt(ctx, "u1", models.Debt{Name: "Card", Balance: -500})
	if err != nil {
		t.Fatalf("AddDebt failed: %v", err)
	}
	if debt.Balance != 500 {
		t.Errorf("expected magnitude 500, got %v", debt.Balance)
	}
}

func TestNetWorth(t *testing.T) {
	svc := newTestService(newMemStorage(), nil)
	ctx := context.Background()

	if _, err := svc.AddAccount(ctx, "u1", models.Account{Name: "Chequing", Balance: 1000, Currency: models.CurrencyCAD}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddDebt(ctx, "u1", models.Debt{Name: "Card", Balance: 500}); err != nil {
		t.Fatal(err)
	}

	summary, err := svc.NetWorth(ctx, "u1")
	if err != nil {
		t.Fatalf("NetWorth failed: %v", err)
	}
	if summary.AccountsTotal != 1000 {
		t.Errorf("AccountsTotal = %v, want 1000", summary.AccountsTotal)
	}
	if summary.DebtsTotal != 500 {
		t.Errorf("DebtsTotal = %v, want 500", summary.DebtsTotal)
	}
	if summary.NetWorth != 500 {
		t.Errorf("NetWorth = %v, want 500", summary.NetWorth)
	}
	if summary.Currency != "CAD" {
		t.Errorf("Currency = %s, want CAD", summary.Currency)
	}
}

func TestNetWorthConvertsForeignAccounts(t *testing.T) {
	svc := newTestService(newMemStorage(), nil)
	ctx := context.Background()

	if _, err := svc.AddAccount(ctx, "u1", models.Account{Name: "US Savings", Balance: 135, Currency: models.CurrencyUSD}); err != nil {
		t.Fatal(err)
	}

	summary, err := svc.NetWorth(ctx, "u1")
	if err != nil {
		t.Fatalf("NetWorth failed: %v", err)
	}
	// 135 USD at fallback rate 1.35 converts to 100 home units
	if summary.AccountsTotal != 100 {
		t.Errorf("AccountsTotal = %v, want 100", summary.AccountsTotal)
	}
}

func TestAddTradeMergesPosition(t *testing.T) {
	quotes := &stubQuotes{prices: map[string]float64{"TD.TO": 115}}
	svc := newTestService(newMemStorage(), quotes)
	ctx := context.Background()

	first, err := svc.AddTrade(ctx, "u1", models.TradeRequest{Name: "TD Bank", Symbol: "TD:TO", Shares: 10, Price: 100})
	if err != nil {
		t.Fatalf("AddTrade failed: %v", err)
	}
	if first.Symbol != "TD.TO" {
		t.Errorf("expected Yahoo dot symbol, got %s", first.Symbol)
	}
	if first.CurrentPrice != 115 {
		t.Errorf("expected quoted price 115, got %v", first.CurrentPrice)
	}

	merged, err := svc.AddTrade(ctx, "u1", models.TradeRequest{Symbol: "TD:TO", Shares: 10, Price: 120})
	if err != nil {
		t.Fatalf("second AddTrade failed: %v", err)
	}
	if merged.Shares != 20 {
		t.Errorf("Shares = %v, want 20", merged.Shares)
	}
	if merged.AvgCost != 110.00 {
		t.Errorf("AvgCost = %v, want 110.00", merged.AvgCost)
	}
	if merged.ID != first.ID {
		t.Error("merge must keep the original position, not open a new one")
	}

	holdings, _, err := svc.Portfolio(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(holdings) != 1 {
		t.Errorf("expected single merged position, got %d", len(holdings))
	}
}

func TestAddTradeFallsBackToTradePrice(t *testing.T) {
	svc := newTestService(newMemStorage(), &stubQuotes{prices: map[string]float64{}})
	ctx := context.Background()

	h, err := svc.AddTrade(ctx, "u1", models.TradeRequest{Symbol: "XYZ", Shares: 5, Price: 40})
	if err != nil {
		t.Fatalf("AddTrade failed: %v", err)
	}
	if h.CurrentPrice != 40 {
		t.Errorf("expected trade price fallback 40, got %v", h.CurrentPrice)
	}
	if h.Value != 200 {
		t.Errorf("Value = %v, want 200", h.Value)
	}
}

func TestAddTradeRejections(t *testing.T) {
	svc := newTestService(newMemStorage(), nil)
	ctx := context.Background()

	cases := []models.TradeRequest{
		{Symbol: "", Shares: 1, Price: 1},
		{Symbol: "TD.TO", Shares: 0, Price: 1},
		{Symbol: "TD.TO", Shares: -5, Price: 1},
		{Symbol: "TD.TO", Shares: 1, Price: -1},
	}
	for _, req := range cases {
		if _, err := svc.AddTrade(ctx, "u1", req); !errors.Is(err, ErrRejected) {
			t.Errorf("expected ErrRejected for %+v, got %v", req, err)
		}
	}
}

func TestUpdateHoldingRepricesWithoutRefetch(t *testing.T) {
	quotes := &stubQuotes{prices: map[string]float64{"TD.TO": 100}}
	svc := newTestService(newMemStorage(), quotes)
	ctx := context.Background()

	h, err := svc.AddTrade(ctx, "u1", models.TradeRequest{Symbol: "TD.TO", Shares: 10, Price: 90})
	if err != nil {
		t.Fatal(err)
	}

	// Quote feed moves, but a direct edit must use the held price
	quotes.prices["TD.TO"] = 200

	updated, err := svc.UpdateHolding(ctx, "u1", h.ID, models.Holding{Shares: 4, AvgCost: 25.333})
	if err != nil {
		t.Fatalf("UpdateHolding failed: %v", err)
	}
	if updated.CurrentPrice != 100 {
		t.Errorf("CurrentPrice = %v, want held 100", updated.CurrentPrice)
	}
	if updated.Value != 400 {
		t.Errorf("Value = %v, want 400", updated.Value)
	}
	if updated.AvgCost != 25.33 {
		t.Errorf("AvgCost = %v, want 25.33", updated.AvgCost)
	}
}

func TestRefreshPortfolioAppliesNewPrices(t *testing.T) {
	quotes := &stubQuotes{prices: map[string]float64{"TD.TO": 100}}
	svc := newTestService(newMemStorage(), quotes)
	ctx := context.Background()

	if _, err := svc.AddTrade(ctx, "u1", models.TradeRequest{Symbol: "TD.TO", Shares: 10, Price: 100}); err != nil {
		t.Fatal(err)
	}

	quotes.prices["TD.TO"] = 110
	if err := svc.RefreshPortfolio(ctx, "u1"); err != nil {
		t.Fatalf("RefreshPortfolio failed: %v", err)
	}

	holdings, summary, err := svc.Portfolio(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if holdings[0].CurrentPrice != 110 {
		t.Errorf("CurrentPrice = %v, want 110", holdings[0].CurrentPrice)
	}
	if summary.TotalValue != 1100 {
		t.Errorf("TotalValue = %v, want 1100", summary.TotalValue)
	}
}

func setProfile(t *testing.T, storage *memStorage, userID, dob string) {
	t.Helper()
	err := storage.internal.SaveProfile(context.Background(), &models.Profile{
		UserID:      userID,
		FirstName:   "Ada",
		LastName:    "Tremblay",
		DateOfBirth: dob,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestTFSARequiresBirthYear(t *testing.T) {
	svc := newTestService(newMemStorage(), nil)
	ctx := context.Background()

	if _, _, err := svc.TFSA(ctx, "u1"); !errors.Is(err, ErrBirthYearUnavailable) {
		t.Errorf("expected ErrBirthYearUnavailable, got %v", err)
	}
	if _, err := svc.AddTFSAYear(ctx, "u1", 2024); !errors.Is(err, ErrBirthYearUnavailable) {
		t.Errorf("expected ErrBirthYearUnavailable, got %v", err)
	}
}

func TestAddTFSAYearRejections(t *testing.T) {
	storage := newMemStorage()
	setProfile(t, storage, "u1", "2000-06-15")
	svc := newTestService(storage, nil)
	ctx := context.Background()

	// 2008 predates the program entirely
	if _, err := svc.AddTFSAYear(ctx, "u1", 2008); !errors.Is(err, ErrRejected) {
		t.Errorf("expected ErrRejected for 2008, got %v", err)
	}
	// Born 2000: eligible from 2018, so 2015 is before eligibility
	if _, err := svc.AddTFSAYear(ctx, "u1", 2015); !errors.Is(err, ErrRejected) {
		t.Errorf("expected ErrRejected for pre-eligibility year, got %v", err)
	}
	// Beyond the defined table
	if _, err := svc.AddTFSAYear(ctx, "u1", 2031); !errors.Is(err, ErrRejected) {
		t.Errorf("expected ErrRejected for undefined year, got %v", err)
	}

	records, _, err := svc.TFSA(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("rejected adds mutated state: %d records", len(records))
	}
}

func TestAddTFSAYearDuplicate(t *testing.T) {
	storage := newMemStorage()
	setProfile(t, storage, "u1", "2000-06-15")
	svc := newTestService(storage, nil)
	ctx := context.Background()

	if _, err := svc.AddTFSAYear(ctx, "u1", 2024); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddTFSAYear(ctx, "u1", 2024); !errors.Is(err, ErrDuplicateYear) {
		t.Errorf("expected ErrDuplicateYear, got %v", err)
	}
}

func TestTFSARoomScenario(t *testing.T) {
	storage := newMemStorage()
	setProfile(t, storage, "u1", "2000-06-15")
	svc := newTestService(storage, nil)
	ctx := context.Background()

	for _, year := range []int{2020, 2021} {
		if _, err := svc.AddTFSAYear(ctx, "u1", year); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.AddContribution(ctx, "u1", 2020, 3000); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddWithdrawal(ctx, "u1", 2020, 1000); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddContribution(ctx, "u1", 2021, 500); err != nil {
		t.Fatal(err)
	}

	_, summary, err := svc.TFSA(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	// Born 2000: eligible 2018-2025, limits 5500 + 4x6000 + 6500 + 7000 + 7000
	if summary.TotalRoom != 50000 {
		t.Errorf("TotalRoom = %v, want 50000", summary.TotalRoom)
	}
	if summary.Contributed != 3500 {
		t.Errorf("Contributed = %v, want 3500", summary.Contributed)
	}
	if summary.WithdrawnPriorYears != 1000 {
		t.Errorf("WithdrawnPriorYears = %v, want 1000", summary.WithdrawnPriorYears)
	}
	if summary.AvailableRoom != 50000-2500 {
		t.Errorf("AvailableRoom = %v, want %v", summary.AvailableRoom, 50000-2500)
	}
}

func TestTFSAAmountRejections(t *testing.T) {
	storage := newMemStorage()
	setProfile(t, storage, "u1", "2000-06-15")
	svc := newTestService(storage, nil)
	ctx := context.Background()

	if _, err := svc.AddTFSAYear(ctx, "u1", 2024); err != nil {
		t.Fatal(err)
	}
	for _, amount := range []float64{0, -10} {
		if _, err := svc.AddContribution(ctx, "u1", 2024, amount); !errors.Is(err, ErrRejected) {
			t.Errorf("expected ErrRejected for contribution %v, got %v", amount, err)
		}
		if _, err := svc.AddWithdrawal(ctx, "u1", 2024, amount); !errors.Is(err, ErrRejected) {
			t.Errorf("expected ErrRejected for withdrawal %v, got %v", amount, err)
		}
	}
	if _, err := svc.AddContribution(ctx, "u1", 2019, 100); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for untracked year, got %v", err)
	}
}

func TestDeleteAmountsByIndex(t *testing.T) {
	storage := newMemStorage()
	setProfile(t, storage, "u1", "2000-06-15")
	svc := newTestService(storage, nil)
	ctx := context.Background()

	if _, err := svc.AddTFSAYear(ctx, "u1", 2024); err != nil {
		t.Fatal(err)
	}
	for _, amount := range []float64{100, 200, 300} {
		if _, err := svc.AddContribution(ctx, "u1", 2024, amount); err != nil {
			t.Fatal(err)
		}
	}

	rec, err := svc.DeleteContribution(ctx, "u1", 2024, 1)
	if err != nil {
		t.Fatalf("DeleteContribution failed: %v", err)
	}
	if len(rec.Contributions) != 2 || rec.Contributions[0] != 100 || rec.Contributions[1] != 300 {
		t.Errorf("Contributions = %v, want [100 300]", rec.Contributions)
	}

	if _, err := svc.DeleteContribution(ctx, "u1", 2024, 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for out-of-range index, got %v", err)
	}
	if _, err := svc.DeleteWithdrawal(ctx, "u1", 2024, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty withdrawals, got %v", err)
	}
}

func TestDeleteTFSAYearRemovesAmounts(t *testing.T) {
	storage := newMemStorage()
	setProfile(t, storage, "u1", "2000-06-15")
	svc := newTestService(storage, nil)
	ctx := context.Background()

	if _, err := svc.AddTFSAYear(ctx, "u1", 2024); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddContribution(ctx, "u1", 2024, 1000); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteTFSAYear(ctx, "u1", 2024); err != nil {
		t.Fatalf("DeleteTFSAYear failed: %v", err)
	}

	records, summary, err := svc.TFSA(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
	if summary.Contributed != 0 {
		t.Errorf("Contributed = %v, want 0 after year delete", summary.Contributed)
	}
}

func TestProfileStates(t *testing.T) {
	storage := newMemStorage()
	svc := newTestService(storage, nil)
	ctx := context.Background()

	state, err := svc.Profile(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if state.Status != models.ProfileAbsent {
		t.Errorf("Status = %s, want absent", state.Status)
	}

	if _, err := svc.SaveProfile(ctx, "u1", models.Profile{FirstName: "Ada", DateOfBirth: "1990-01-02"}); !errors.Is(err, ErrRejected) {
		t.Errorf("expected ErrRejected for incomplete profile, got %v", err)
	}

	saved, err := svc.SaveProfile(ctx, "u1", models.Profile{FirstName: "Ada", LastName: "Tremblay", DateOfBirth: "1990-01-02"})
	if err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	if saved.UserID != "u1" {
		t.Errorf("UserID = %s, want u1", saved.UserID)
	}

	state, err = svc.Profile(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if state.Status != models.ProfilePresent || state.Profile == nil {
		t.Errorf("expected present profile, got %+v", state)
	}
}

func TestDeleteUserDataWipesEverything(t *testing.T) {
	storage := newMemStorage()
	svc := newTestService(storage, nil)
	ctx := context.Background()

	if _, err := svc.AddAccount(ctx, "u1", models.Account{Name: "Chequing", Balance: 100}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SaveProfile(ctx, "u1", models.Profile{FirstName: "Ada", LastName: "Tremblay", DateOfBirth: "1990-01-02"}); err != nil {
		t.Fatal(err)
	}
	if err := storage.internal.SaveUser(ctx, &models.User{UserID: "u1"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Flush(ctx); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteUserData(ctx, "u1"); err != nil {
		t.Fatalf("DeleteUserData failed: %v", err)
	}

	state, err := svc.Profile(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if state.Status != models.ProfileAbsent {
		t.Errorf("Status = %s, want absent after deletion", state.Status)
	}

	ledger, err := svc.Ledger(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ledger.Accounts) != 0 {
		t.Errorf("expected empty ledger after deletion, got %d accounts", len(ledger.Accounts))
	}

	if _, err := storage.internal.GetUser(ctx, "u1"); err == nil {
		t.Error("expected user record to be removed")
	}
}

func TestDeleteUserDataDropsPendingSave(t *testing.T) {
	storage := newMemStorage()
	svc := newTestService(storage, nil)
	svc.SetSaveDebounce(20 * time.Millisecond)
	ctx := context.Background()

	if _, err := svc.AddAccount(ctx, "u1", models.Account{Name: "Chequing", Balance: 100}); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteUserData(ctx, "u1"); err != nil {
		t.Fatalf("DeleteUserData failed: %v", err)
	}

	// The debounced save armed by the add must not resurrect the ledger.
	time.Sleep(60 * time.Millisecond)
	ledger, err := svc.Ledger(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ledger.Accounts) != 0 {
		t.Errorf("pending save resurrected deleted data: %d accounts", len(ledger.Accounts))
	}
}

func TestDebouncedSave(t *testing.T) {
	storage := newMemStorage()
	svc := newTestService(storage, nil)
	svc.SetSaveDebounce(20 * time.Millisecond)
	ctx := context.Background()

	if _, err := svc.AddAccount(ctx, "u1", models.Account{Name: "Chequing", Balance: 100}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddAccount(ctx, "u1", models.Account{Name: "Savings", Balance: 200}); err != nil {
		t.Fatal(err)
	}

	if storage.ledgers.saveCount() != 0 {
		t.Error("save should be debounced, not immediate")
	}

	deadline := time.Now().Add(2 * time.Second)
	for storage.ledgers.saveCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := storage.ledgers.saveCount(); n != 1 {
		t.Errorf("expected 1 coalesced save, got %d", n)
	}
}

func TestFlushForcesPendingSave(t *testing.T) {
	storage := newMemStorage()
	svc := newTestService(storage, nil)
	svc.SetSaveDebounce(time.Hour)
	ctx := context.Background()

	if _, err := svc.AddAccount(ctx, "u1", models.Account{Name: "Chequing", Balance: 100}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if storage.ledgers.saveCount() != 1 {
		t.Errorf("expected forced save, got %d", storage.ledgers.saveCount())
	}
}

func TestAllocationChartEmptyPortfolio(t *testing.T) {
	svc := newTestService(newMemStorage(), nil)

	_, err := svc.AllocationChartPNG(context.Background(), "u1")
	if !errors.Is(err, ErrEmptyPortfolio) {
		t.Errorf("expected ErrEmptyPortfolio, got %v", err)
	}
}

func TestAllocationChartRendersPNG(t *testing.T) {
	quotes := &stubQuotes{prices: map[string]float64{"TD.TO": 100}}
	svc := newTestService(newMemStorage(), quotes)
	ctx := context.Background()

	if _, err := svc.AddTrade(ctx, "u1", models.TradeRequest{Symbol: "TD.TO", Shares: 10, Price: 90}); err != nil {
		t.Fatal(err)
	}

	png, err := svc.AllocationChartPNG(ctx, "u1")
	if err != nil {
		t.Fatalf("AllocationChartPNG failed: %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Error("expected PNG magic bytes")
	}
}
