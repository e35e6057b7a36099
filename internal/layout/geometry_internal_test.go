package layout

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"dayview/internal/model"
)

func TestPlaceBox(t *testing.T) {
	Convey("Given an occurrence one hour into a three hour period", t, func() {
		origin := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
		o := model.Occurrence{Start: origin.Add(time.Hour), End: origin.Add(90 * time.Minute)}

		Convey("When the column count is zero", func() {
			_, err := placeBox(origin, 3*3600, o, 0, 0, 300, 600)
			So(errors.Is(err, ErrInvalidGeometry), ShouldBeTrue)
		})

		Convey("When three columns are requested", func() {
			box, err := placeBox(origin, 3*3600, o, 2, 3, 300, 600)
			So(err, ShouldBeNil)
			So(box, ShouldResemble, Box{Left: 200, Top: 200, Width: 98, Height: 100})
		})

		Convey("When the offset has a fractional second", func() {
			o.Start = o.Start.Add(900 * time.Millisecond)
			box, err := placeBox(origin, 3*3600, o, 0, 1, 300, 600)
			So(err, ShouldBeNil)
			So(box.Top, ShouldEqual, 200)
		})
	})
}

func TestFloorDiv(t *testing.T) {
	Convey("floorDiv rounds toward negative infinity", t, func() {
		So(floorDiv(7, 2), ShouldEqual, 3)
		So(floorDiv(-7, 2), ShouldEqual, -4)
		So(floorDiv(-6, 2), ShouldEqual, -3)
		So(floorDiv(0, 5), ShouldEqual, 0)
	})
}
