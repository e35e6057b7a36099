package layout_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"dayview/internal/layout"
	"dayview/internal/model"
)

var day = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func occ(uid string, start, end time.Time) model.Occurrence {
	return model.Occurrence{UID: uid, Summary: uid, Start: start, End: end}
}

func mustPeriod(start, end time.Time) layout.Period {
	p, err := layout.NewPeriod(start, end)
	if err != nil {
		panic(err)
	}
	return p
}

func TestPack(t *testing.T) {
	Convey("Given a morning period of three hours drawn at 300x600", t, func() {
		period := mustPeriod(at(9, 0), at(12, 0))

		Convey("When two occurrences overlap and a third starts as the first ends", func() {
			occs := []model.Occurrence{
				occ("a", at(9, 0), at(10, 0)),
				occ("b", at(9, 30), at(10, 30)),
				occ("c", at(10, 0), at(11, 0)),
			}
			res, err := layout.Pack(period, occs, 300, 600)
			So(err, ShouldBeNil)
			So(res, ShouldHaveLength, 3)

			Convey("Then the third reuses the first column", func() {
				So(res[0].Level, ShouldEqual, 0)
				So(res[1].Level, ShouldEqual, 1)
				So(res[2].Level, ShouldEqual, 0)
			})

			Convey("And every occurrence is drawn with two columns", func() {
				for _, r := range res {
					So(r.MaxColumns, ShouldEqual, 2)
				}
			})

			Convey("And the boxes match the fixed table", func() {
				So(res[0].Box, ShouldResemble, layout.Box{Left: 0, Top: 0, Width: 148, Height: 200})
				So(res[1].Box, ShouldResemble, layout.Box{Left: 150, Top: 100, Width: 148, Height: 200})
				So(res[2].Box, ShouldResemble, layout.Box{Left: 0, Top: 200, Width: 148, Height: 200})
			})

			Convey("And results keep input order and identity", func() {
				for i, r := range res {
					So(r.Index, ShouldEqual, i)
					So(r.Occurrence, ShouldResemble, occs[i])
					So(r.Class, ShouldEqual, layout.ClassWithin)
				}
			})
		})

		Convey("When the same occurrences arrive in a different order", func() {
			occs := []model.Occurrence{
				occ("c", at(10, 0), at(11, 0)),
				occ("a", at(9, 0), at(10, 0)),
				occ("b", at(9, 30), at(10, 30)),
			}
			res, err := layout.Pack(period, occs, 300, 600)
			So(err, ShouldBeNil)

			Convey("Then the greedy placement opens a third column", func() {
				So(res[0].Level, ShouldEqual, 0)
				So(res[1].Level, ShouldEqual, 1)
				So(res[2].Level, ShouldEqual, 2)
				So(res[2].Box.Left, ShouldEqual, 300)
			})
		})

		Convey("When occurrences share a start time", func() {
			occs := []model.Occurrence{
				occ("first", at(9, 0), at(10, 0)),
				occ("second", at(9, 0), at(9, 30)),
			}
			res, err := layout.Pack(period, occs, 300, 600)
			So(err, ShouldBeNil)

			Convey("Then input order decides the columns", func() {
				So(res[0].Level, ShouldEqual, 0)
				So(res[1].Level, ShouldEqual, 1)
			})
		})

		Convey("When an occurrence has zero length", func() {
			res, err := layout.Pack(period, []model.Occurrence{occ("z", at(10, 0), at(10, 0))}, 300, 600)
			So(err, ShouldBeNil)

			Convey("Then it still gets a column and a zero height", func() {
				So(res[0].Level, ShouldEqual, 0)
				So(res[0].MaxColumns, ShouldEqual, 1)
				So(res[0].Box, ShouldResemble, layout.Box{Left: 0, Top: 200, Width: 298, Height: 0})
			})
		})

		Convey("When a zero-length occurrence sits inside a longer one", func() {
			occs := []model.Occurrence{
				occ("long", at(9, 0), at(11, 0)),
				occ("z", at(10, 0), at(10, 0)),
			}
			res, err := layout.Pack(period, occs, 300, 600)
			So(err, ShouldBeNil)

			Convey("Then they do not share a column", func() {
				So(res[1].Level, ShouldNotEqual, res[0].Level)
				So(res[1].Box.Height, ShouldEqual, 0)
			})
		})

		Convey("When an occurrence runs past the end of the period", func() {
			res, err := layout.Pack(period, []model.Occurrence{occ("late", at(11, 0), at(13, 0))}, 300, 600)
			So(err, ShouldBeNil)

			Convey("Then its height is trimmed at the bottom edge", func() {
				So(res[0].Box.Top, ShouldEqual, 400)
				So(res[0].Box.Height, ShouldEqual, 200)
				So(res[0].Class, ShouldEqual, layout.ClassStarts)
			})
		})

		Convey("When an occurrence starts before the period", func() {
			res, err := layout.Pack(period, []model.Occurrence{occ("early", at(8, 0), at(9, 30))}, 300, 600)
			So(err, ShouldBeNil)

			Convey("Then it is placed above the top edge rather than rejected", func() {
				So(res[0].Box.Top, ShouldEqual, -200)
				So(res[0].Box.Height, ShouldEqual, 300)
				So(res[0].Class, ShouldEqual, layout.ClassEnds)
			})
		})

		Convey("When no occurrences are given", func() {
			res, err := layout.Pack(period, nil, 300, 600)
			So(err, ShouldBeNil)
			So(res, ShouldBeEmpty)
		})

		Convey("When a custom classifier is injected", func() {
			res, err := layout.Pack(period, []model.Occurrence{occ("a", at(9, 0), at(10, 0))}, 300, 600,
				layout.WithClassifier(func(layout.Period, model.Occurrence) string { return "past" }))
			So(err, ShouldBeNil)
			So(res[0].Class, ShouldEqual, "past")
		})
	})
}

func TestPackChainedOverlap(t *testing.T) {
	Convey("Given three mutually overlapping occurrences and a fourth overlapping only the first", t, func() {
		period := mustPeriod(at(9, 0), at(13, 0))
		occs := []model.Occurrence{
			occ("a", at(9, 0), at(13, 0)),
			occ("b", at(9, 0), at(10, 0)),
			occ("c", at(9, 0), at(10, 0)),
			occ("d", at(12, 0), at(13, 0)),
		}
		res, err := layout.Pack(period, occs, 300, 400)
		So(err, ShouldBeNil)

		Convey("Then column counts take the cluster minimum", func() {
			So(res[0].MaxColumns, ShouldEqual, 2)
			So(res[1].MaxColumns, ShouldEqual, 3)
			So(res[2].MaxColumns, ShouldEqual, 3)
			So(res[3].MaxColumns, ShouldEqual, 2)
		})

		Convey("And levels follow earliest fit", func() {
			So(res[0].Level, ShouldEqual, 0)
			So(res[1].Level, ShouldEqual, 1)
			So(res[2].Level, ShouldEqual, 2)
			So(res[3].Level, ShouldEqual, 1)
		})

		Convey("And the boxes reflect the under-allocated first column", func() {
			So(res[0].Box, ShouldResemble, layout.Box{Left: 0, Top: 0, Width: 148, Height: 400})
			So(res[1].Box, ShouldResemble, layout.Box{Left: 100, Top: 0, Width: 98, Height: 100})
			So(res[2].Box, ShouldResemble, layout.Box{Left: 200, Top: 0, Width: 98, Height: 100})
			So(res[3].Box, ShouldResemble, layout.Box{Left: 150, Top: 300, Width: 148, Height: 100})
		})
	})
}

func TestPackErrors(t *testing.T) {
	Convey("Given a valid period", t, func() {
		period := mustPeriod(at(9, 0), at(12, 0))
		occs := []model.Occurrence{occ("a", at(9, 0), at(10, 0))}

		Convey("When the width is zero", func() {
			_, err := layout.Pack(period, occs, 0, 600)
			So(errors.Is(err, layout.ErrInvalidGeometry), ShouldBeTrue)
		})

		Convey("When the height is negative", func() {
			_, err := layout.Pack(period, occs, 300, -1)
			So(errors.Is(err, layout.ErrInvalidGeometry), ShouldBeTrue)
		})

		Convey("When an occurrence ends before it starts", func() {
			bad := append(occs, occ("bad", at(11, 0), at(10, 0)))
			_, err := layout.Pack(period, bad, 300, 600)
			So(errors.Is(err, layout.ErrMalformedOccurrence), ShouldBeTrue)
		})
	})

	Convey("Given a period that does not end after it starts", t, func() {
		_, err := layout.NewPeriod(at(12, 0), at(12, 0))
		So(errors.Is(err, layout.ErrInvalidPeriod), ShouldBeTrue)

		_, err = layout.Pack(layout.Period{Start: at(12, 0), End: at(9, 0)}, nil, 300, 600)
		So(errors.Is(err, layout.ErrInvalidPeriod), ShouldBeTrue)
	})
}

func TestPackProperties(t *testing.T) {
	Convey("Given randomly generated occurrences", t, func() {
		rnd := rand.New(rand.NewSource(42))
		period := mustPeriod(at(8, 0), at(20, 0))

		occs := make([]model.Occurrence, 0, 60)
		for i := 0; i < 60; i++ {
			start := at(6, 0).Add(time.Duration(rnd.Intn(15*60)) * time.Minute)
			end := start.Add(time.Duration(rnd.Intn(180)) * time.Minute)
			occs = append(occs, occ("r", start, end))
		}

		first, err := layout.Pack(period, occs, 700, 900)
		So(err, ShouldBeNil)

		Convey("Then overlapping occurrences never share a level", func() {
			for i := range first {
				for j := i + 1; j < len(first); j++ {
					if occs[i].Intersects(occs[j]) {
						So(first[i].Level, ShouldNotEqual, first[j].Level)
					}
				}
			}
		})

		Convey("Then no box extends below the bottom edge", func() {
			for _, r := range first {
				So(r.MaxColumns, ShouldBeGreaterThanOrEqualTo, 1)
				So(r.Box.Bottom(), ShouldBeLessThanOrEqualTo, 900)
			}
		})

		Convey("Then a second pass is identical", func() {
			second, err := layout.Pack(period, occs, 700, 900)
			So(err, ShouldBeNil)
			So(second, ShouldResemble, first)
		})
	})
}
