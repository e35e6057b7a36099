package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given a config path that does not exist yet", t, func() {
		path := filepath.Join(t.TempDir(), "nested", "config.yaml")

		Convey("When it is loaded", func() {
			cfg, err := Load(path)
			So(err, ShouldBeNil)

			Convey("Then the defaults are returned and written with 0600", func() {
				So(cfg.DayView, ShouldResemble, DefaultDayView())
				info, statErr := os.Stat(path)
				So(statErr, ShouldBeNil)
				So(info.Mode().Perm(), ShouldEqual, os.FileMode(0o600))
			})

			Convey("Then loading it again yields the same config", func() {
				again, err := Load(path)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, cfg)
			})
		})
	})

	Convey("Given a partial YAML file", t, func() {
		path := filepath.Join(t.TempDir(), "config.yaml")
		yml := "timezone: Asia/Seoul\n" +
			"ics:\n" +
			"  - url: https://example.com/a.ics\n" +
			"    name: work\n"
		So(os.WriteFile(path, []byte(yml), 0o600), ShouldBeNil)

		cfg, err := Load(path)
		So(err, ShouldBeNil)

		Convey("Then missing sections get defaults", func() {
			So(cfg.Listen, ShouldEqual, defaultListen)
			So(cfg.DayView.StartHour, ShouldEqual, 8)
			So(cfg.DayView.EndHour, ShouldEqual, 20)
			So(cfg.DayView.IncrementMinutes, ShouldEqual, 30)
			So(cfg.ICS[0].SourceID(), ShouldEqual, "work")
			So(cfg.Location().String(), ShouldEqual, "Asia/Seoul")
		})
	})

	Convey("Given a day view whose window is inverted", t, func() {
		path := filepath.Join(t.TempDir(), "config.yaml")
		yml := "day_view:\n" +
			"  width: 600\n" +
			"  slot_width: 60\n" +
			"  height: 720\n" +
			"  start_hour: 20\n" +
			"  end_hour: 8\n"
		So(os.WriteFile(path, []byte(yml), 0o600), ShouldBeNil)

		_, err := Load(path)
		So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "start < end")
	})

	Convey("Given an empty path", t, func() {
		_, err := Load("")
		So(err, ShouldNotBeNil)
	})
}

func TestValidate(t *testing.T) {
	Convey("Given the default config", t, func() {
		cfg := DefaultConfig()
		So(cfg.Validate(), ShouldBeNil)

		Convey("When the ruler is as wide as the table", func() {
			cfg.DayView.SlotWidth = cfg.DayView.Width
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When a source has no URL", func() {
			cfg.ICS = append(cfg.ICS, ICSConfig{ID: "empty"})
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the timezone is unknown", func() {
			cfg.Timezone = "Mars/Olympus"
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestSave(t *testing.T) {
	Convey("Given a nil config", t, func() {
		So(Save(filepath.Join(t.TempDir(), "c.yaml"), nil), ShouldNotBeNil)
	})
}
