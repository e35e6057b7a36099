package layout

import (
	"fmt"
	"time"

	"dayview/internal/model"
)

// DayOptions describes the fixed-size day grid.
type DayOptions struct {
	// Width is the full table width in pixels, time ruler included.
	Width int
	// SlotWidth is the width of the time ruler column on the left.
	SlotWidth int
	// Height is the table height in pixels.
	Height int

	// StartHour and EndHour bound the visible part of the day as wall-clock
	// hours on the day's date, so 8 is 08:00 local time even when a DST
	// transition shortens or lengthens the day.
	StartHour int
	EndHour   int

	// IncrementMinutes is the length of one ruler slot.
	IncrementMinutes int

	// Classifier labels packed occurrences. Nil means ClassifyOccurrence.
	Classifier Classifier
}

// DayTable is a laid out day view.
type DayTable struct {
	// Period is the visible part of the day.
	Period Period

	Occurrences []LayoutResult
	Slots       []Slot
	// AllDay holds all-day occurrences intersecting the day. They are not
	// part of the timed grid.
	AllDay []model.Occurrence

	Width           int
	SlotWidth       int
	OccurrenceWidth int
	Height          int
}

// BuildDay lays out one day. The visible window runs from StartHour to
// EndHour wall clock on day.Start's date, clamped to day; timed occurrences
// intersecting it are packed into the area right of the ruler, and the
// window is partitioned into ruler slots.
func BuildDay(day Period, occs []model.Occurrence, opts DayOptions) (DayTable, error) {
	if err := day.validate(); err != nil {
		return DayTable{}, err
	}
	if opts.EndHour <= opts.StartHour {
		return DayTable{}, fmt.Errorf("layout: day window %d..%d h: %w", opts.StartHour, opts.EndHour, ErrInvalidPeriod)
	}
	occWidth := opts.Width - opts.SlotWidth
	if opts.SlotWidth < 0 || occWidth <= 0 {
		return DayTable{}, fmt.Errorf("layout: table width %d with ruler %d: %w", opts.Width, opts.SlotWidth, ErrInvalidGeometry)
	}

	part := day.TimeSlot(wallClock(day.Start, opts.StartHour), wallClock(day.Start, opts.EndHour))

	var timed, allDay []model.Occurrence
	for i, o := range occs {
		if o.Malformed() {
			return DayTable{}, fmt.Errorf("layout: occurrence %d %q ends before it starts: %w", i, o.Key(), ErrMalformedOccurrence)
		}
		if o.AllDay {
			if day.Overlaps(o.Start, o.End) {
				allDay = append(allDay, o)
			}
			continue
		}
		timed = append(timed, o)
	}
	timed = part.Occurrences(timed)

	packed, err := Pack(part, timed, occWidth, opts.Height, WithClassifier(opts.Classifier))
	if err != nil {
		return DayTable{}, err
	}
	slots, err := Partition(part, opts.IncrementMinutes, opts.Width, opts.Height)
	if err != nil {
		return DayTable{}, err
	}

	return DayTable{
		Period:          part,
		Occurrences:     packed,
		Slots:           slots,
		AllDay:          allDay,
		Width:           opts.Width,
		SlotWidth:       opts.SlotWidth,
		OccurrenceWidth: occWidth,
		Height:          opts.Height,
	}, nil
}

// wallClock returns the instant hours after t on t's wall clock. time.Date
// normalizes 24 to the next midnight and resolves DST gaps.
func wallClock(t time.Time, hours int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+hours, t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
