package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/cmorneau/maple/internal/common"
	"github.com/cmorneau/maple/internal/models"
)

// fakeRateService records what the scheduler plumbing does with it.
type fakeRateService struct {
	rates      map[models.Currency]float64
	seeded     map[models.Currency]float64
	refreshErr error
}

func (f *fakeRateService) ToHome(amount float64, _ models.Currency) float64 { return amount }

func (f *fakeRateService) Rates() map[models.Currency]float64 { return f.rates }

func (f *fakeRateService) Refresh(_ context.Context) error { return f.refreshErr }

func (f *fakeRateService) Seed(rates map[models.Currency]float64) { f.seeded = rates }

// fakeKVStore implements interfaces.InternalStore with only the system KV
// surface doing real work.
type fakeKVStore struct {
	mu sync.Mutex
	kv map[string]string
}

func newFakeKVStore() *fakeKVStore {
	return &fakeKVStore{kv: make(map[string]string)}
}

func (f *fakeKVStore) GetUser(_ context.Context, _ string) (*models.User, error) {
	return nil, errors.New("user not found")
}

func (f *fakeKVStore) SaveUser(_ context.Context, _ *models.User) error { return nil }

func (f *fakeKVStore) DeleteUser(_ context.Context, _ string) error { return nil }

func (f *fakeKVStore) GetProfile(_ context.Context, _ string) (*models.Profile, error) {
	return nil, nil
}

func (f *fakeKVStore) SaveProfile(_ context.Context, _ *models.Profile) error { return nil }

func (f *fakeKVStore) DeleteProfile(_ context.Context, _ string) error { return nil }

func (f *fakeKVStore) GetSystemKV(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.kv[key]; ok {
		return v, nil
	}
	return "", errors.New("system KV not found")
}

func (f *fakeKVStore) SetSystemKV(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kv[key] = value
	return nil
}

func (f *fakeKVStore) Close() error { return nil }

func TestCacheRatesWritesTable(t *testing.T) {
	svc := &fakeRateService{rates: map[models.Currency]float64{
		models.CurrencyCAD: 1,
		models.CurrencyUSD: 1.42,
	}}
	store := newFakeKVStore()

	cacheRates(context.Background(), svc, store, common.NewSilentLogger())

	raw, err := store.GetSystemKV(context.Background(), ratesCacheKey)
	if err != nil {
		t.Fatalf("expected cached table, got %v", err)
	}
	var got map[models.Currency]float64
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("cached table is not JSON: %v", err)
	}
	if got[models.CurrencyUSD] != 1.42 {
		t.Errorf("cached USD rate = %v, want 1.42", got[models.CurrencyUSD])
	}
}

func TestSeedRatesFromCache(t *testing.T) {
	store := newFakeKVStore()
	store.kv[ratesCacheKey] = `{"CAD":1,"USD":1.42}`
	svc := &fakeRateService{}

	seedRatesFromCache(context.Background(), svc, store, common.NewSilentLogger())

	if svc.seeded == nil {
		t.Fatal("expected service to be seeded from cache")
	}
	if svc.seeded[models.CurrencyUSD] != 1.42 {
		t.Errorf("seeded USD rate = %v, want 1.42", svc.seeded[models.CurrencyUSD])
	}
}

func TestSeedRatesFromCacheMissingEntry(t *testing.T) {
	svc := &fakeRateService{}

	seedRatesFromCache(context.Background(), svc, newFakeKVStore(), common.NewSilentLogger())

	if svc.seeded != nil {
		t.Errorf("expected no seed without a cache entry, got %v", svc.seeded)
	}
}

func TestSeedRatesFromCacheDiscardsGarbage(t *testing.T) {
	store := newFakeKVStore()
	store.kv[ratesCacheKey] = "{not json"
	svc := &fakeRateService{}

	seedRatesFromCache(context.Background(), svc, store, common.NewSilentLogger())

	if svc.seeded != nil {
		t.Errorf("expected garbage cache to be discarded, got %v", svc.seeded)
	}
}

func TestRefreshRatesSkipsCacheOnFailure(t *testing.T) {
	svc := &fakeRateService{refreshErr: errors.New("upstream down")}
	store := newFakeKVStore()

	refreshRates(context.Background(), svc, store, common.NewSilentLogger())

	if _, err := store.GetSystemKV(context.Background(), ratesCacheKey); err == nil {
		t.Error("failed refresh must not overwrite the cached table")
	}
}
