package layout_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"dayview/internal/layout"
	"dayview/internal/model"
)

func TestPeriod(t *testing.T) {
	Convey("Given a period from 9 to 12", t, func() {
		p := mustPeriod(at(9, 0), at(12, 0))

		Convey("TimeSlot clamps to the parent bounds", func() {
			s := p.TimeSlot(at(8, 0), at(10, 0))
			So(s.Start, ShouldEqual, at(9, 0))
			So(s.End, ShouldEqual, at(10, 0))

			s = p.TimeSlot(at(13, 0), at(14, 0))
			So(s.Start, ShouldEqual, at(12, 0))
			So(s.Duration(), ShouldEqual, time.Duration(0))
		})

		Convey("Seconds uses whole seconds", func() {
			So(p.Seconds(), ShouldEqual, 3*3600)
		})

		Convey("Occurrences keeps intersecting ones in input order", func() {
			occs := []model.Occurrence{
				occ("after", at(12, 0), at(13, 0)),
				occ("inside", at(10, 0), at(11, 0)),
				occ("before", at(8, 0), at(9, 0)),
				occ("instant", at(11, 0), at(11, 0)),
				occ("spanning", at(8, 0), at(13, 0)),
			}
			got := p.Occurrences(occs)
			So(got, ShouldHaveLength, 3)
			So(got[0].UID, ShouldEqual, "inside")
			So(got[1].UID, ShouldEqual, "instant")
			So(got[2].UID, ShouldEqual, "spanning")
		})
	})

	Convey("DayPeriod covers the local calendar day", t, func() {
		loc := time.FixedZone("KST", 9*3600)
		p := layout.DayPeriod(time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC), loc)
		So(p.Start, ShouldEqual, time.Date(2025, 3, 11, 0, 0, 0, 0, loc))
		So(p.Duration(), ShouldEqual, 24*time.Hour)
	})
}

func TestClassifyOccurrence(t *testing.T) {
	Convey("Given a period from 9 to 12", t, func() {
		p := mustPeriod(at(9, 0), at(12, 0))

		So(layout.ClassifyOccurrence(p, occ("x", at(9, 0), at(12, 0))), ShouldEqual, layout.ClassWithin)
		So(layout.ClassifyOccurrence(p, occ("x", at(11, 0), at(13, 0))), ShouldEqual, layout.ClassStarts)
		So(layout.ClassifyOccurrence(p, occ("x", at(8, 0), at(10, 0))), ShouldEqual, layout.ClassEnds)
		So(layout.ClassifyOccurrence(p, occ("x", at(8, 0), at(13, 0))), ShouldEqual, layout.ClassContinues)

		Convey("HighlightKeywords appends the highlight class on a match", func() {
			c := layout.HighlightKeywords(nil, []string{"Holiday", " "})
			o := occ("x", at(9, 0), at(10, 0))
			o.Summary = "Team holiday lunch"
			So(c(p, o), ShouldEqual, layout.ClassWithin+" "+layout.ClassHighlight)

			o.Summary = "Standup"
			So(c(p, o), ShouldEqual, layout.ClassWithin)
		})
	})
}
