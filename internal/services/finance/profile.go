package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmorneau/maple/internal/models"
)

// Profile resolves the user's profile as a tagged state so callers never
// have to guess what a nil profile means.
func (s *Service) Profile(ctx context.Context, userID string) (*models.ProfileState, error) {
	profile, err := s.storage.InternalStore().GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		state := models.AbsentProfile()
		return &state, nil
	}
	state := models.PresentProfile(profile)
	return &state, nil
}

// SaveProfile stores the user's onboarding details. All three fields are
// required and the date of birth must carry a parseable year.
func (s *Service) SaveProfile(ctx context.Context, userID string, p models.Profile) (*models.Profile, error) {
	p.UserID = userID
	if !p.Complete() {
		return nil, fmt.Errorf("%w: first name, last name, and date of birth are required", ErrRejected)
	}

	existing, err := s.storage.InternalStore().GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	now := time.Now()
	if existing != nil {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if err := s.storage.InternalStore().SaveProfile(ctx, &p); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return &p, nil
}

// DeleteUserData removes everything stored for the user: the ledger
// snapshot, the profile, and the user record. The in-memory ledger is
// dropped first so a pending debounced save cannot resurrect the data.
func (s *Service) DeleteUserData(ctx context.Context, userID string) error {
	s.mu.Lock()
	ul, ok := s.ledgers[userID]
	if ok {
		delete(s.ledgers, userID)
	}
	s.mu.Unlock()

	if ok {
		ul.mu.Lock()
		if ul.timer != nil {
			ul.timer.Stop()
		}
		ul.dirty = false
		ul.ledger = nil
		ul.mu.Unlock()
	}

	if err := s.storage.LedgerStore().Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete ledger for %s: %w", userID, err)
	}
	if err := s.storage.InternalStore().DeleteProfile(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete profile for %s: %w", userID, err)
	}
	if err := s.storage.InternalStore().DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user for %s: %w", userID, err)
	}

	s.logger.Info().Str("user", userID).Msg("User data deleted")
	return nil
}
