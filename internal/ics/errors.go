package ics

import "errors"

var (
	// ErrEmptyBody is returned by ParseICS for an empty payload.
	ErrEmptyBody = errors.New("empty ICS body")
	// ErrNotModifiedNoCache is returned when a server answers 304 but no
	// cached body exists on disk.
	ErrNotModifiedNoCache = errors.New("304 Not Modified without cached body")
	// ErrInvalidRange is returned by ExpandOccurrences when RangeEnd is
	// before RangeStart.
	ErrInvalidRange = errors.New("range end before range start")
)
