package finance

import "errors"

// Sentinel errors the HTTP layer maps to status codes. Rejections never
// mutate state.
var (
	// ErrRejected marks malformed input (blank names, non-finite amounts,
	// out-of-range years). Maps to 400.
	ErrRejected = errors.New("input rejected")

	// ErrNotFound marks a missing entity, record, or amount index. Maps to 404.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateYear marks an attempt to add a TFSA year that is already
	// tracked. Maps to 409.
	ErrDuplicateYear = errors.New("year already tracked")

	// ErrBirthYearUnavailable marks a contribution-room request without a
	// resolvable birth year. The engine never guesses an age. Maps to 409.
	ErrBirthYearUnavailable = errors.New("birth year unavailable")

	// ErrEmptyPortfolio marks a chart request with nothing to draw. Maps to 404.
	ErrEmptyPortfolio = errors.New("portfolio is empty")
)
