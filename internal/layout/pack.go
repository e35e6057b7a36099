package layout

import (
	"fmt"
	"time"

	"dayview/internal/model"
)

// columnGutter is the horizontal gap in pixels left between adjacent columns.
const columnGutter = 2

// Box is pixel geometry relative to the top-left corner of the drawing area.
type Box struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// Bottom returns Top + Height.
func (b Box) Bottom() int { return b.Top + b.Height }

// LayoutResult is the computed placement of one occurrence. Index is the
// occurrence's position in the slice given to Pack.
type LayoutResult struct {
	Index      int
	Occurrence model.Occurrence
	Level      int
	MaxColumns int
	Box        Box
	Class      string
}

// Pack places occurrences into columns so that overlapping occurrences never
// share one, and converts each occurrence into a pixel box inside a
// width x height area spanning period.
//
// Occurrences are processed in input order: each one takes the lowest column
// whose latest occupant has ended by the time it starts, or opens a new
// column. This is greedy, so the column count depends on input order.
//
// The number of columns an occurrence is drawn with is the smallest overlap
// count found among the occurrences intersecting it (itself included). With
// chained overlaps this may be fewer columns than are simultaneously in use.
//
// Results are returned in input order. The input slice is not modified.
func Pack(period Period, occs []model.Occurrence, width, height int, opts ...Option) ([]LayoutResult, error) {
	if err := period.validate(); err != nil {
		return nil, err
	}
	periodSec := period.Seconds()
	if periodSec <= 0 {
		return nil, fmt.Errorf("layout: period shorter than one second: %w", ErrInvalidPeriod)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("layout: pack area %dx%d: %w", width, height, ErrInvalidGeometry)
	}
	for i, o := range occs {
		if o.Malformed() {
			return nil, fmt.Errorf("layout: occurrence %d %q ends before it starts: %w", i, o.Key(), ErrMalformedOccurrence)
		}
	}

	po := defaultPackOptions()
	for _, opt := range opts {
		opt(&po)
	}

	levels := assignLevels(occs)
	columns := columnCounts(occs)

	results := make([]LayoutResult, len(occs))
	for i, o := range occs {
		box, err := placeBox(period.Start, periodSec, o, levels[i], columns[i], width, height)
		if err != nil {
			return nil, fmt.Errorf("layout: occurrence %d %q: %w", i, o.Key(), err)
		}
		results[i] = LayoutResult{
			Index:      i,
			Occurrence: o,
			Level:      levels[i],
			MaxColumns: columns[i],
			Box:        box,
			Class:      po.classifier(period, o),
		}
	}
	return results, nil
}

// assignLevels returns the column index of every occurrence using greedy
// earliest fit. lastEnd[k] is the end of the latest occurrence placed in
// column k.
func assignLevels(occs []model.Occurrence) []int {
	levels := make([]int, len(occs))
	lastEnd := make([]time.Time, 0, 4)

	for i, o := range occs {
		level := -1
		for k, end := range lastEnd {
			if !end.After(o.Start) {
				level = k
				break
			}
		}
		if level == -1 {
			level = len(lastEnd)
			lastEnd = append(lastEnd, o.End)
		} else {
			lastEnd[level] = o.End
		}
		levels[i] = level
	}
	return levels
}

// columnCounts returns, for every occurrence, the minimum raw overlap count
// over the occurrences intersecting it. An occurrence always counts itself,
// so zero-length occurrences get at least one column.
func columnCounts(occs []model.Occurrence) []int {
	n := len(occs)
	overlaps := func(i, j int) bool {
		return i == j || occs[i].Intersects(occs[j])
	}

	raw := make([]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if overlaps(i, j) {
				raw[i]++
			}
		}
	}

	counts := make([]int, n)
	for i := 0; i < n; i++ {
		m := raw[i]
		for j := 0; j < n; j++ {
			if overlaps(i, j) && raw[j] < m {
				m = raw[j]
			}
		}
		counts[i] = m
	}
	return counts
}

// placeBox computes the pixel box for one occurrence. Vertical positions
// are proportional at whole-second granularity and rounded down; the box is
// trimmed so it never extends below the bottom edge.
func placeBox(origin time.Time, periodSec int64, o model.Occurrence, level, maxColumns, width, height int) (Box, error) {
	if maxColumns <= 0 {
		return Box{}, fmt.Errorf("%d columns: %w", maxColumns, ErrInvalidGeometry)
	}
	if width <= 0 || height <= 0 {
		return Box{}, fmt.Errorf("area %dx%d: %w", width, height, ErrInvalidGeometry)
	}

	col := width / maxColumns
	top := scale(height, wholeSeconds(o.Start.Sub(origin)), periodSec)
	h := scale(height, wholeSeconds(o.Duration()), periodSec)
	if h > height-top {
		h = height - top
	}

	return Box{
		Left:   col * level,
		Top:    top,
		Width:  col - columnGutter,
		Height: h,
	}, nil
}

// scale returns floor(px * num / den) for den > 0.
func scale(px int, num, den int64) int {
	return int(floorDiv(int64(px)*num, den))
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
