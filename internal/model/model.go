package model

import (
	"strings"
	"time"
)

// Occurrence represents a single concrete instance of an event
// (after recurrence expansion and timezone normalization). It is the unit
// the day layout works on.
type Occurrence struct {
	SourceID string // calendar source ID
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, typically derived from the local start time.
	InstanceKey string

	Summary     string
	Description string
	Location    string

	AllDay bool

	// Start / End are in the configured display timezone. End == Start is
	// a valid zero-length occurrence.
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (o Occurrence) Duration() time.Duration {
	return o.End.Sub(o.Start)
}

// Malformed reports whether the occurrence ends before it starts.
func (o Occurrence) Malformed() bool {
	return o.End.Before(o.Start)
}

// Intersects reports whether o and other share any instant of their
// half-open [Start, End) ranges.
func (o Occurrence) Intersects(other Occurrence) bool {
	return o.Start.Before(other.End) && other.Start.Before(o.End)
}

// Key returns a stable identity for logging and DTOs.
func (o Occurrence) Key() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{o.SourceID, o.UID, o.InstanceKey} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}
