package finance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cmorneau/maple/internal/models"
)

// birthYear resolves the user's birth year from their stored profile.
// An unresolvable year is an explicit cannot-compute condition.
func (s *Service) birthYear(ctx context.Context, userID string) (int, error) {
	profile, err := s.storage.InternalStore().GetProfile(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve profile: %w", err)
	}
	year, ok := profile.BirthYear()
	if !ok {
		return 0, ErrBirthYearUnavailable
	}
	return year, nil
}

// TFSA returns the tracked year records and the room summary derived from
// them. Requires a resolvable birth year.
func (s *Service) TFSA(ctx context.Context, userID string) ([]models.TFSAYear, *models.RoomSummary, error) {
	birthYear, err := s.birthYear(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	var records []models.TFSAYear
	err = s.withLedger(ctx, userID, false, func(l *models.Ledger) error {
		records = make([]models.TFSAYear, len(l.TFSA))
		for i, rec := range l.TFSA {
			rec.Contributions = append([]float64{}, rec.Contributions...)
			rec.Withdrawals = append([]float64{}, rec.Withdrawals...)
			records[i] = rec
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	summary := models.ComputeRoom(birthYear, records)
	return records, &summary, nil
}

// AddTFSAYear starts tracking a calendar year. The year must fall in the
// user's eligible range and not already be tracked; its statutory limit is
// captured at add time.
func (s *Service) AddTFSAYear(ctx context.Context, userID string, year int) (*models.TFSAYear, error) {
	birthYear, err := s.birthYear(ctx, userID)
	if err != nil {
		return nil, err
	}

	limit := models.ContributionLimit(year)
	if limit == 0 {
		return nil, fmt.Errorf("%w: %d is not a valid contribution year", ErrRejected, year)
	}
	if year < models.EligibilityStartYear(birthYear) {
		return nil, fmt.Errorf("%w: %d is before eligibility start", ErrRejected, year)
	}
	if year > models.LatestDefinedYear {
		return nil, fmt.Errorf("%w: %d is beyond the defined limit table", ErrRejected, year)
	}

	record := models.TFSAYear{
		Year:          year,
		Limit:         limit,
		Contributions: []float64{},
		Withdrawals:   []float64{},
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	err = s.withLedger(ctx, userID, true, func(l *models.Ledger) error {
		if l.TFSAYearIndex(year) >= 0 {
			return fmt.Errorf("%w: %d", ErrDuplicateYear, year)
		}
		l.TFSA = append(l.TFSA, record)
		sort.Slice(l.TFSA, func(i, j int) bool { return l.TFSA[i].Year < l.TFSA[j].Year })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteTFSAYear removes a year record and all its amounts atomically.
func (s *Service) DeleteTFSAYear(ctx context.Context, userID string, year int) error {
	return s.withLedger(ctx, userID, true, func(l *models.Ledger) error {
		i := l.TFSAYearIndex(year)
		if i < 0 {
			return fmt.Errorf("%w: year %d", ErrNotFound, year)
		}
		l.TFSA = append(l.TFSA[:i], l.TFSA[i+1:]...)
		return nil
	})
}

func validAmount(amount float64) error {
	if !models.IsFinite(amount) || amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrRejected)
	}
	return nil
}

func (s *Service) AddContribution(ctx context.Context, userID string, year int, amount float64) (*models.TFSAYear, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	return s.mutateYear(ctx, userID, year, func(rec *models.TFSAYear) error {
		rec.Contributions = append(rec.Contributions, amount)
		return nil
	})
}

func (s *Service) AddWithdrawal(ctx context.Context, userID string, year int, amount float64) (*models.TFSAYear, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	return s.mutateYear(ctx, userID, year, func(rec *models.TFSAYear) error {
		rec.Withdrawals = append(rec.Withdrawals, amount)
		return nil
	})
}

func (s *Service) DeleteContribution(ctx context.Context, userID string, year, index int) (*models.TFSAYear, error) {
	return s.mutateYear(ctx, userID, year, func(rec *models.TFSAYear) error {
		if index < 0 || index >= len(rec.Contributions) {
			return fmt.Errorf("%w: contribution %d of year %d", ErrNotFound, index, year)
		}
		rec.Contributions = append(rec.Contributions[:index], rec.Contributions[index+1:]...)
		return nil
	})
}

func (s *Service) DeleteWithdrawal(ctx context.Context, userID string, year, index int) (*models.TFSAYear, error) {
	return s.mutateYear(ctx, userID, year, func(rec *models.TFSAYear) error {
		if index < 0 || index >= len(rec.Withdrawals) {
			return fmt.Errorf("%w: withdrawal %d of year %d", ErrNotFound, index, year)
		}
		rec.Withdrawals = append(rec.Withdrawals[:index], rec.Withdrawals[index+1:]...)
		return nil
	})
}

// mutateYear applies fn to the record for year and returns a copy of the
// result.
func (s *Service) mutateYear(ctx context.Context, userID string, year int, fn func(*models.TFSAYear) error) (*models.TFSAYear, error) {
	var out models.TFSAYear
	err := s.withLedger(ctx, userID, true, func(l *models.Ledger) error {
		i := l.TFSAYearIndex(year)
		if i < 0 {
			return fmt.Errorf("%w: year %d", ErrNotFound, year)
		}
		if err := fn(&l.TFSA[i]); err != nil {
			return err
		}
		l.TFSA[i].UpdatedAt = time.Now()
		out = l.TFSA[i]
		out.Contributions = append([]float64{}, l.TFSA[i].Contributions...)
		out.Withdrawals = append([]float64{}, l.TFSA[i].Withdrawals...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
