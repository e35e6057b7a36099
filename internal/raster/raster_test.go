package raster

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"dayview/internal/layout"
	"dayview/internal/model"
)

func TestDrawDay(t *testing.T) {
	Convey("Given a laid out day with a plain and a highlighted occurrence", t, func() {
		start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
		day, err := layout.NewPeriod(start, start.AddDate(0, 0, 1))
		So(err, ShouldBeNil)

		occs := []model.Occurrence{
			{UID: "a", Summary: "Planning", Start: start.Add(9 * time.Hour), End: start.Add(10 * time.Hour)},
			{UID: "b", Summary: "Holiday party", Start: start.Add(14 * time.Hour), End: start.Add(16 * time.Hour)},
		}
		table, err := layout.BuildDay(day, occs, layout.DayOptions{
			Width: 200, SlotWidth: 40, Height: 240,
			StartHour: 8, EndHour: 20, IncrementMinutes: 60,
			Classifier: layout.HighlightKeywords(nil, []string{"holiday"}),
		})
		So(err, ShouldBeNil)

		img, err := DrawDay(table)
		So(err, ShouldBeNil)

		Convey("Then the image has the table size", func() {
			So(img.Bounds().Dx(), ShouldEqual, 200)
			So(img.Bounds().Dy(), ShouldEqual, 240)
		})

		Convey("Then slot lines and the ruler rule are drawn", func() {
			So(img.NRGBAAt(10, 20), ShouldResemble, colorGrid)
			So(img.NRGBAAt(39, 5), ShouldResemble, colorBlack)
			So(img.NRGBAAt(10, 25), ShouldResemble, colorWhite)
		})

		Convey("Then occurrence boxes are offset by the ruler", func() {
			r := table.Occurrences[0].Box
			So(img.NRGBAAt(40+r.Left, r.Top+5), ShouldResemble, colorBlack)
			So(img.NRGBAAt(40+r.Left+5, r.Top+5), ShouldResemble, colorFill)
		})

		Convey("Then highlighted occurrences are red", func() {
			r := table.Occurrences[1].Box
			So(img.NRGBAAt(40+r.Left, r.Top+5), ShouldResemble, colorRed)
			So(img.NRGBAAt(40+r.Left+5, r.Top+5), ShouldResemble, colorTint)
		})

		Convey("Then the PNG round-trips", func() {
			var buf bytes.Buffer
			So(EncodePNG(&buf, table), ShouldBeNil)
			decoded, err := png.Decode(&buf)
			So(err, ShouldBeNil)
			So(decoded.Bounds(), ShouldResemble, img.Bounds())
		})
	})

	Convey("Given an empty table", t, func() {
		_, err := DrawDay(layout.DayTable{})
		So(errors.Is(err, layout.ErrInvalidGeometry), ShouldBeTrue)
	})
}
