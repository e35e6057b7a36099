package layout

import (
	"fmt"
	"time"

	"dayview/internal/model"
)

// Period is a contiguous [Start, End) time range, e.g. a whole day or the
// visible part of it.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod returns the period [start, end). It fails with ErrInvalidPeriod
// unless end is after start.
func NewPeriod(start, end time.Time) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// DayPeriod returns the local calendar day containing t, in loc.
func DayPeriod(t time.Time, loc *time.Location) Period {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return Period{Start: start, End: start.AddDate(0, 0, 1)}
}

func (p Period) validate() error {
	if !p.End.After(p.Start) {
		return fmt.Errorf("layout: period %s..%s: %w",
			p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339), ErrInvalidPeriod)
	}
	return nil
}

// Duration returns End - Start.
func (p Period) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// Seconds returns the length of the period in whole seconds. Layout ratios
// are computed at this granularity.
func (p Period) Seconds() int64 {
	return wholeSeconds(p.Duration())
}

// TimeSlot returns the sub-period [a, b) clamped to p. A slot that falls
// entirely outside p collapses to a zero-length period at the nearest edge.
func (p Period) TimeSlot(a, b time.Time) Period {
	a = clampTime(a, p.Start, p.End)
	b = clampTime(b, p.Start, p.End)
	if b.Before(a) {
		b = a
	}
	return Period{Start: a, End: b}
}

// Overlaps reports whether [start, end) intersects p.
func (p Period) Overlaps(start, end time.Time) bool {
	return start.Before(p.End) && p.Start.Before(end)
}

// Contains reports whether t lies in [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Occurrences returns the occurrences intersecting p, in input order.
// Zero-length occurrences are kept when their instant lies inside p.
func (p Period) Occurrences(occs []model.Occurrence) []model.Occurrence {
	out := make([]model.Occurrence, 0, len(occs))
	for _, o := range occs {
		if p.Overlaps(o.Start, o.End) || (o.Start.Equal(o.End) && p.Contains(o.Start)) {
			out = append(out, o)
		}
	}
	return out
}

func clampTime(t, lo, hi time.Time) time.Time {
	if t.Before(lo) {
		return lo
	}
	if t.After(hi) {
		return hi
	}
	return t
}

// wholeSeconds truncates d toward zero to whole seconds.
func wholeSeconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
