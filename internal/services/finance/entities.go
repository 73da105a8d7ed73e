package finance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cmorneau/maple/internal/models"
)

// Accounts, debts, and belongings share the same shape of list CRUD:
// validate, then append/replace/remove by ID. Validation happens before any
// mutation so a rejection leaves the list unchanged.

func validateAccount(acct *models.Account) error {
	if acct.Name == "" {
		return fmt.Errorf("%w: account name is required", ErrRejected)
	}
	if !models.IsFinite(acct.Balance) {
		return fmt.Errorf("%w: account balance must be finite", ErrRejected)
	}
	acct.Currency = models.NormalizeCurrency(acct.Currency)
	if !models.ValidCurrency(acct.Currency) {
		return fmt.Errorf("%w: unsupported currency %q", ErrRejected, acct.Currency)
	}
	return nil
}

func (s *Service) AddAccount(ctx context.Context, userID string, acct models.Account) (*models.Account, error) {
	if err := validateAccount(&acct); err != nil {
		return nil, err
	}
	acct.ID = uuid.NewString()
	acct.CreatedAt = time.Now()
	acct.UpdatedAt = acct.CreatedAt

	err := s.withLedger(ctx, userID, true, func(l *models.Ledger) error {
		l.Accounts = append(l.Accounts, acct)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func (s *Service) UpdateAccount(ctx context.Context, userID, id string, acct models.Account) (*models.Account, error) {
	if err := validateAccount(&acct); err != nil {
		return nil, err
	}

	var updated models.Account
	err := s.withLedger(ctx, userID, true, func(l *models.Ledger) error {
		for i := range l.Accounts {
			if l.Accounts[i].ID != id {
				continue
			}
			acct.ID = id
			acct.CreatedAt = l.Accounts[i].CreatedAt
			acct.UpdatedAt = time.Now()
			l.Accounts[i] = acct
			updated = acct
			return nil
		}
		return fmt.Errorf("%w: account %s", ErrNotFound, id)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) DeleteAccount(ctx context.Context, userID, id string) error {
	return s.withLedger(ctx, userID, true, func(l *models.Ledger) error {
		for i := range l.Accounts {
			if l.Accounts[i].ID == id {
				l.Accounts = append(l.Accounts[:i], l.Accounts[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: account %s", ErrNotFound, id)
	})
}

func validateDebt(debt *models.Debt) error {
	if debt.Name == "" {
		return fmt.Errorf("%w: debt name is required", ErrRejected)
	}
	if !models.IsFinite(debt.Balance) {
		return fmt.Errorf("%w: debt balance must be finite", ErrRejected)
	}
	// Debts are stored as non-negative magnitudes whatever sign they were
	// entered with.
	debt.Balance = math.Abs(debt.Balance)
	return nil
}

func (s *Service) AddDebt(ctx context.Context, userID string, debt models.Debt) (*models.Debt, error) {
	if err := validateDebt(&debt); err != nil {
		return nil, err
	}
	debt.ID = uuid.NewString()
	debt.CreatedAt = time.Now()
	debt.UpdatedAt = debt.CreatedAt

	err := s.withLedger(ctx, userID, true, func(l *models.Ledger) error {
		l.Debts = append(l.Debts, debt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &debt, nil
}

func (s *Service) UpdateDebt(ctx context.Context, userID, id string, debt models.Debt) (*models.Debt, error) {
	if err := validateDebt(&debt); err != nil {
		return nil, err
	}

	var updated models.Debt
	err := s.withLedger(ctx, userID, true, func(l *models.Ledger) error {
		for i := range l.Debts {
			if l.Debts[i].ID != id {
				continue
			}
			debt.ID = id
			debt.CreatedAt = l.Debts[i].CreatedAt
			debt.UpdatedAt = time.Now()
			l.Debts[i] = debt
			updated = debt
			return nil
		}
		return fmt.Errorf("%w: debt %s", ErrNotFound, id)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) DeleteDebt(ctx context.Context, userID, id string) error {
	return s.withLedger(ctx, userID, true, func(l *models.Ledger) error {
		for i := range l.Debts {
			if l.Debts[i].ID == id {
				l.Debts = append(l.Debts[:i], l.Debts[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: debt %s", ErrNotFound, id)
	})
}

func validateBelonging(b *models.Belonging) error {
	if b.Name == "" {
		return fmt.Errorf("%w: belonging name is required", ErrRejected)
	}
	if !models.IsFinite(b.Value) {
		return fmt.Errorf("%w: belonging value must be finite", ErrRejected)
	}
	return nil
}

func (s *Service) AddBelonging(ctx context.Context, userID string, b models.Belonging) (*models.Belonging, error) {
	if err := validateBelonging(&b); err != nil {
		return nil, err
	}
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt

	err := s.withLedger(ctx, userID, true, func(l *models.Ledger) error {
		l.Belongings = append(l.Belongings, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Service) UpdateBelonging(ctx context.Context, userID, id string, b models.Belonging) (*models.Belonging, error) {
	if err := validateBelonging(&b); err != nil {
		return nil, err
	}

	var updated models.Belonging
	err := s.withLedger(ctx, userID, true, func(l *models.Ledger) error {
		for i := range l.Belongings {
			if l.Belongings[i].ID != id {
				continue
			}
			b.ID = id
			b.CreatedAt = l.Belongings[i].CreatedAt
			b.UpdatedAt = time.Now()
			l.Belongings[i] = b
			updated = b
			return nil
		}
		return fmt.Errorf("%w: belonging %s", ErrNotFound, id)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) DeleteBelonging(ctx context.Context, userID, id string) error {
	return s.withLedger(ctx, userID, true, func(l *models.Ledger) error {
		for i := range l.Belongings {
			if l.Belongings[i].ID == id {
				l.Belongings = append(l.Belongings[:i], l.Belongings[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: belonging %s", ErrNotFound, id)
	})
}
