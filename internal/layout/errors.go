package layout

import "errors"

// Sentinel error kinds for this package. Returned errors wrap one of these
// so callers can match with errors.Is.
var (
	// ErrInvalidGeometry is returned when a pixel dimension, column count or
	// slot increment that is about to be divided by is not positive.
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrInvalidPeriod is returned when a period does not end after it starts.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrMalformedOccurrence is returned when an occurrence ends before it starts.
	ErrMalformedOccurrence = errors.New("malformed occurrence")
)
