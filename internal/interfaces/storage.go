package interfaces

import (
	"context"

	"github.com/cmorneau/maple/internal/models"
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	LedgerStore() LedgerStore
	InternalStore() InternalStore

	// Lifecycle
	Close() error
}

// LedgerStore persists per-user finance snapshots.
type LedgerStore interface {
	// Load returns the user's ledger. A user with no stored record gets a
	// fresh ledger with empty lists, not an error.
	Load(ctx context.Context, userID string) (*models.Ledger, error)

	// Save upserts the full snapshot (merge-style: last write wins).
	Save(ctx context.Context, ledger *models.Ledger) error

	// Delete removes the user's snapshot.
	Delete(ctx context.Context, userID string) error

	Close() error
}

// InternalStore manages user identities, profiles, and system-level KV.
type InternalStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, userID string) error

	// GetProfile returns the user's profile, or nil when none was saved.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	SaveProfile(ctx context.Context, profile *models.Profile) error
	DeleteProfile(ctx context.Context, userID string) error

	// System key-value (non-user-scoped)
	GetSystemKV(ctx context.Context, key string) (string, error)
	SetSystemKV(ctx context.Context, key, value string) error

	Close() error
}
