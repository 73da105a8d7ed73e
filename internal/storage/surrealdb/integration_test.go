package surrealdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cmorneau/maple/internal/common"
	"github.com/cmorneau/maple/internal/models"
)

// These tests run against a real SurrealDB instance in Docker. Enable with
// MAPLE_TEST_DOCKER=true; without it they skip so the unit suite stays fast.

var (
	surrealOnce sync.Once
	surrealAddr string
	surrealErr  error
)

// surrealAddress starts a shared SurrealDB container for the test run.
// Uses sync.Once so only one container is created per process.
func surrealAddress(t *testing.T) string {
	t.Helper()

	if os.Getenv("MAPLE_TEST_DOCKER") != "true" {
		t.Skip("Docker tests disabled (set MAPLE_TEST_DOCKER=true to enable)")
	}

	surrealOnce.Do(func() {
		ctx := context.Background()

		req := testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--user", "root", "--pass", "root"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("8000/tcp"),
				wait.ForLog("Started web server"),
			).WithDeadline(60 * time.Second),
		}

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			surrealErr = fmt.Errorf("start SurrealDB container: %w", err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			container.Terminate(ctx)
			surrealErr = fmt.Errorf("get SurrealDB host: %w", err)
			return
		}

		mappedPort, err := container.MappedPort(ctx, "8000/tcp")
		if err != nil {
			container.Terminate(ctx)
			surrealErr = fmt.Errorf("get SurrealDB port: %w", err)
			return
		}

		surrealAddr = fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port())
	})

	if surrealErr != nil {
		t.Fatalf("SurrealDB container failed: %v", surrealErr)
	}
	return surrealAddr
}

// newTestManager connects to the shared container with a fresh database so
// tests never see each other's records.
func newTestManager(t *testing.T) *Manager {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Storage.Address = surrealAddress(t)
	cfg.Storage.Username = "root"
	cfg.Storage.Password = "root"
	cfg.Storage.Namespace = "maple_test"
	cfg.Storage.Database = fmt.Sprintf("t%d", time.Now().UnixNano())

	m, err := NewManager(common.NewSilentLogger(), cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestLedgerLoadAbsentReturnsEmptyLists(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	ledger, err := m.LedgerStore().Load(ctx, "nobody")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ledger.UserID != "nobody" {
		t.Errorf("UserID = %q, want nobody", ledger.UserID)
	}
	if ledger.Accounts == nil || ledger.Debts == nil || ledger.Portfolio == nil ||
		ledger.Belongings == nil || ledger.TFSA == nil {
		t.Errorf("expected non-nil entity lists, got %+v", ledger)
	}
	if len(ledger.Accounts) != 0 || len(ledger.TFSA) != 0 {
		t.Errorf("expected empty lists for an unknown user, got %+v", ledger)
	}
}

func TestLedgerSaveLoadRoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	ledger := models.NewLedger("u1")
	ledger.Accounts = []models.Account{{ID: "a1", Name: "Chequing", Balance: 1234.56, Currency: models.CurrencyCAD}}
	ledger.Debts = []models.Debt{{ID: "d1", Name: "Visa", Balance: 500}}
	ledger.Portfolio = []models.Holding{{ID: "h1", Symbol: "TD.TO", Shares: 10, AvgCost: 85.5, CurrentPrice: 90, Value: 900}}
	// Saved out of order; Load must hand the records back sorted.
	ledger.TFSA = []models.TFSAYear{
		{Year: 2024, Limit: 7000, Contributions: []float64{1000}},
		{Year: 2020, Limit: 6000, Withdrawals: []float64{250}},
	}

	if err := m.LedgerStore().Save(ctx, ledger); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := m.LedgerStore().Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got.Accounts) != 1 || got.Accounts[0].Balance != 1234.56 {
		t.Errorf("accounts did not round-trip: %+v", got.Accounts)
	}
	if len(got.Portfolio) != 1 || got.Portfolio[0].Symbol != "TD.TO" {
		t.Errorf("portfolio did not round-trip: %+v", got.Portfolio)
	}
	if len(got.TFSA) != 2 || got.TFSA[0].Year != 2020 || got.TFSA[1].Year != 2024 {
		t.Errorf("expected TFSA records sorted by year, got %+v", got.TFSA)
	}
	if got.TFSA[0].Withdrawals[0] != 250 {
		t.Errorf("withdrawal amounts did not round-trip: %+v", got.TFSA[0])
	}
	if got.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be stamped by Save")
	}
}

func TestLedgerSaveUpserts(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	ledger := models.NewLedger("u1")
	ledger.Accounts = []models.Account{{ID: "a1", Name: "Chequing", Balance: 100}}
	if err := m.LedgerStore().Save(ctx, ledger); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	ledger.Accounts[0].Balance = 999
	if err := m.LedgerStore().Save(ctx, ledger); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := m.LedgerStore().Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got.Accounts) != 1 || got.Accounts[0].Balance != 999 {
		t.Errorf("expected last write to win, got %+v", got.Accounts)
	}
}

func TestLedgerDelete(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	ledger := models.NewLedger("u1")
	ledger.Accounts = []models.Account{{ID: "a1", Name: "Chequing", Balance: 100}}
	if err := m.LedgerStore().Save(ctx, ledger); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := m.LedgerStore().Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := m.LedgerStore().Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got.Accounts) != 0 {
		t.Errorf("expected empty ledger after delete, got %+v", got.Accounts)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	got, err := m.InternalStore().GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil profile before save, got %+v", got)
	}

	profile := &models.Profile{
		UserID:      "u1",
		FirstName:   "Ada",
		LastName:    "Tremblay",
		DateOfBirth: "1990-01-02",
	}
	if err := m.InternalStore().SaveProfile(ctx, profile); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	got, err = m.InternalStore().GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got == nil || got.FirstName != "Ada" || got.DateOfBirth != "1990-01-02" {
		t.Errorf("profile did not round-trip: %+v", got)
	}

	if err := m.InternalStore().DeleteProfile(ctx, "u1"); err != nil {
		t.Fatalf("DeleteProfile failed: %v", err)
	}
	got, err = m.InternalStore().GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil profile after delete, got %+v", got)
	}
}

func TestUserLifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.InternalStore().GetUser(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}

	user := &models.User{UserID: "u1", Email: "ada@example.com", Name: "Ada"}
	if err := m.InternalStore().SaveUser(ctx, user); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	got, err := m.InternalStore().GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Email != "ada@example.com" {
		t.Errorf("user did not round-trip: %+v", got)
	}

	if err := m.InternalStore().DeleteUser(ctx, "u1"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := m.InternalStore().GetUser(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSystemKVRoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.InternalStore().GetSystemKV(ctx, "fx_rates"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unset key, got %v", err)
	}

	if err := m.InternalStore().SetSystemKV(ctx, "fx_rates", `{"CAD":1}`); err != nil {
		t.Fatalf("SetSystemKV failed: %v", err)
	}
	if err := m.InternalStore().SetSystemKV(ctx, "fx_rates", `{"CAD":1,"USD":1.42}`); err != nil {
		t.Fatalf("SetSystemKV overwrite failed: %v", err)
	}

	got, err := m.InternalStore().GetSystemKV(ctx, "fx_rates")
	if err != nil {
		t.Fatalf("GetSystemKV failed: %v", err)
	}
	if got != `{"CAD":1,"USD":1.42}` {
		t.Errorf("GetSystemKV = %q, want latest value", got)
	}
}
