package models

import "time"

const (
	// FirstTableYear is the first year the statutory limit table defines (TFSA inception).
	FirstTableYear = 2009

	// LatestDefinedYear is the newest year the statutory table covers.
	LatestDefinedYear = 2025

	// EligibilityAge is the age from which contribution room accrues.
	EligibilityAge = 18
)

// ContributionLimit returns the statutory TFSA contribution ceiling for a
// year, or 0 when the year is outside the defined table. A zero limit marks
// the year as not a valid contribution year.
func ContributionLimit(year int) float64 {
	switch {
	case year >= 2009 && year <= 2012:
		return 5000
	case year == 2013 || year == 2014:
		return 5500
	case year == 2015:
		return 10000
	case year >= 2016 && year <= 2018:
		return 5500
	case year >= 2019 && year <= 2022:
		return 6000
	case year == 2023:
		return 6500
	case year >= 2024:
		return 7000
	default:
		return 0
	}
}

// TFSAYear records the contributions and withdrawals entered for one
// calendar year. Limit is looked up from the statutory table when the year
// is added and immutable afterwards.
type TFSAYear struct {
	Year          int       `json:"year"`
	Limit         float64   `json:"limit"`
	Contributions []float64 `json:"contributions"`
	Withdrawals   []float64 `json:"withdrawals"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TotalContributed sums the year's contributions.
func (t TFSAYear) TotalContributed() float64 {
	var sum float64
	for _, v := range t.Contributions {
		sum += v
	}
	return sum
}

// TotalWithdrawn sums the year's withdrawals.
func (t TFSAYear) TotalWithdrawn() float64 {
	var sum float64
	for _, v := range t.Withdrawals {
		sum += v
	}
	return sum
}

// EligibilityStartYear returns the first year a person born in birthYear
// accrues room: the year they turn 18, floored at the table's first year.
func EligibilityStartYear(birthYear int) int {
	start := birthYear + EligibilityAge
	if start < FirstTableYear {
		return FirstTableYear
	}
	return start
}

// EligibleYears lists every year from the eligibility start through the
// latest defined year that carries a non-zero statutory limit.
func EligibleYears(birthYear int) []int {
	var years []int
	for y := EligibilityStartYear(birthYear); y <= LatestDefinedYear; y++ {
		if ContributionLimit(y) > 0 {
			years = append(years, y)
		}
	}
	return years
}

// RoomSummary holds the lifetime contribution-room figures for a person.
type RoomSummary struct {
	BirthYear           int     `json:"birth_year"`
	EligibilityStart    int     `json:"eligibility_start"`
	EligibleYears       []int   `json:"eligible_years"`
	TotalRoom           float64 `json:"total_room"`
	Contributed         float64 `json:"contributed"`
	WithdrawnPriorYears float64 `json:"withdrawn_prior_years"`
	AvailableRoom       float64 `json:"available_room"`
}

// ComputeRoom derives the contribution-room summary from a birth year and
// the entered year records. Records must be sorted by year ascending; only
// records whose year falls in the eligible range count.
//
// Withdrawals restore room starting the following calendar year, modeled by
// crediting each record with the summed withdrawals of all records sorted
// before it. The credit is accumulated per record, so a withdrawal followed
// by several later records is counted once for each of them — the tracker's
// historical behavior, kept deliberately (see DESIGN.md).
func ComputeRoom(birthYear int, records []TFSAYear) RoomSummary {
	summary := RoomSummary{
		BirthYear:        birthYear,
		EligibilityStart: EligibilityStartYear(birthYear),
		EligibleYears:    EligibleYears(birthYear),
	}

	eligible := make(map[int]bool, len(summary.EligibleYears))
	for _, y := range summary.EligibleYears {
		summary.TotalRoom += ContributionLimit(y)
		eligible[y] = true
	}

	tracked := make([]TFSAYear, 0, len(records))
	for _, rec := range records {
		if eligible[rec.Year] {
			tracked = append(tracked, rec)
		}
	}

	var withdrawnBefore float64
	for _, rec := range tracked {
		summary.Contributed += rec.TotalContributed()
		summary.WithdrawnPriorYears += withdrawnBefore
		withdrawnBefore += rec.TotalWithdrawn()
	}

	summary.AvailableRoom = summary.TotalRoom + summary.WithdrawnPriorYears - summary.Contributed
	return summary
}
