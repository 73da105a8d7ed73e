package models

import (
	"strconv"
	"time"
)

// Profile holds the user's personal details collected at onboarding.
// DateOfBirth is stored as "YYYY-MM-DD".
type Profile struct {
	UserID      string    `json:"user_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DateOfBirth string    `json:"date_of_birth"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BirthYear extracts the birth year from the date of birth.
// Returns (0, false) when the date is missing or unparseable — the caller
// must treat that as "cannot compute", never assume an age.
func (p *Profile) BirthYear() (int, bool) {
	if p == nil || len(p.DateOfBirth) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(p.DateOfBirth[:4])
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

// Complete reports whether the profile carries everything onboarding requires.
func (p *Profile) Complete() bool {
	if p == nil {
		return false
	}
	_, ok := p.BirthYear()
	return p.FirstName != "" && p.LastName != "" && ok
}

// ProfileStatus distinguishes "still loading" from "definitely absent" so
// callers never have to guess what a nil profile means.
type ProfileStatus string

const (
	ProfileLoading ProfileStatus = "loading"
	ProfileAbsent  ProfileStatus = "absent"
	ProfilePresent ProfileStatus = "present"
)

// ProfileState is a tagged variant of the profile resolution outcome.
// Profile is non-nil only when Status is ProfilePresent.
type ProfileState struct {
	Status  ProfileStatus `json:"status"`
	Profile *Profile      `json:"profile,omitempty"`
}

// LoadingProfile returns the not-yet-resolved state.
func LoadingProfile() ProfileState {
	return ProfileState{Status: ProfileLoading}
}

// AbsentProfile returns the resolved-but-missing state.
func AbsentProfile() ProfileState {
	return ProfileState{Status: ProfileAbsent}
}

// PresentProfile wraps a resolved profile.
func PresentProfile(p *Profile) ProfileState {
	return ProfileState{Status: ProfilePresent, Profile: p}
}
