package contracts

import "errors"

// Pipeline error taxonomy. Per-identifier errors are absorbed at the scan boundary.
var (
	// ErrInsufficientData means a security cannot be scored (missing or short series)
	ErrInsufficientData = errors.New("insufficient data")

	// ErrSourceUnavailable means a network call failed or returned no usable payload
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRateLimited means a source refused the request for quota reasons
	ErrRateLimited = errors.New("rate limited")

	// ErrComputation marks a single check that could not be evaluated
	ErrComputation = errors.New("computation error")

	// ErrTaskTimeout means a worker task exceeded its time ceiling
	ErrTaskTimeout = errors.New("task timeout")
)
