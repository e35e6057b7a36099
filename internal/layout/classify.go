package layout

import (
	"strings"

	"dayview/internal/model"
)

// Style classes produced by ClassifyOccurrence.
const (
	ClassWithin    = "within"    // starts and ends inside the period
	ClassStarts    = "starts"    // starts inside, ends after
	ClassEnds      = "ends"      // starts before, ends inside
	ClassContinues = "continues" // covers the whole period
	ClassHighlight = "highlight"
)

// Classifier returns the style class for an occurrence shown in a period.
type Classifier func(p Period, o model.Occurrence) string

// ClassifyOccurrence is the default Classifier. It labels an occurrence by
// where it starts and ends relative to the period.
func ClassifyOccurrence(p Period, o model.Occurrence) string {
	started := p.Contains(o.Start)
	ended := o.End.After(p.Start) && !o.End.After(p.End)
	switch {
	case started && ended:
		return ClassWithin
	case started:
		return ClassStarts
	case ended:
		return ClassEnds
	default:
		return ClassContinues
	}
}

// HighlightKeywords wraps next and appends ClassHighlight when the
// occurrence summary contains one of keywords (case-insensitive).
func HighlightKeywords(next Classifier, keywords []string) Classifier {
	if next == nil {
		next = ClassifyOccurrence
	}
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			lowered = append(lowered, strings.ToLower(k))
		}
	}
	return func(p Period, o model.Occurrence) string {
		cls := next(p, o)
		summary := strings.ToLower(o.Summary)
		for _, k := range lowered {
			if strings.Contains(summary, k) {
				return cls + " " + ClassHighlight
			}
		}
		return cls
	}
}
