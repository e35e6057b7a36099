package metrics

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"dayview/internal/layout"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on a fresh registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithRegistry(registry))
		So(m.Registry(), ShouldEqual, registry)

		Convey("When layout passes succeed and fail", func() {
			m.ObserveLayout("day", time.Millisecond, 3, nil)
			m.ObserveLayout("day", 0, 0, fmt.Errorf("wrapped: %w", layout.ErrInvalidGeometry))

			Convey("Then passes and error reasons are counted", func() {
				body := scrape(m)
				So(body, ShouldContainSubstring, `dayview_layout_passes_total{kind="day"} 2`)
				So(body, ShouldContainSubstring, `dayview_layout_errors_total{reason="invalid_geometry"} 1`)
			})
		})

		Convey("When a refresh completes", func() {
			m.ObserveRefresh("ok", 12)
			body := scrape(m)
			So(body, ShouldContainSubstring, `dayview_feed_refreshes_total{outcome="ok"} 1`)
			So(body, ShouldContainSubstring, "dayview_feed_snapshot_occurrences 12")
		})

		Convey("When requests are observed", func() {
			m.ObserveRequest("/api/day", 200)
			m.ObserveRequest("/api/day", 200)
			So(scrape(m), ShouldContainSubstring, `dayview_http_requests_total{code="200",route="/api/day"} 2`)
		})
	})

	Convey("Given a nil manager", t, func() {
		var m *Manager
		So(func() {
			m.ObserveLayout("day", 0, 0, nil)
			m.ObserveRefresh("ok", 0)
			m.ObserveRequest("/", 200)
		}, ShouldNotPanic)
		So(m.Handler(), ShouldNotBeNil)
	})
}

func TestLayoutErrorReason(t *testing.T) {
	Convey("LayoutErrorReason classifies sentinel errors", t, func() {
		So(LayoutErrorReason(layout.ErrInvalidPeriod), ShouldEqual, "invalid_period")
		So(LayoutErrorReason(layout.ErrMalformedOccurrence), ShouldEqual, "malformed_occurrence")
		So(LayoutErrorReason(errors.New("boom")), ShouldEqual, "other")
	})
}

func scrape(m *Manager) string {
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	return rec.Body.String()
}
