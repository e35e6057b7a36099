package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"dayview/internal/config"
	"dayview/internal/layout"
	appLog "dayview/internal/log"
	"dayview/internal/metrics"
	"dayview/internal/model"
	"dayview/internal/raster"
)

//go:embed templates/day.html
var templateFS embed.FS

var dayTemplate = template.Must(template.New("day.html").Funcs(template.FuncMap{
	"clock": func(t time.Time) string { return t.Format("15:04") },
	"add":   func(a, b int) int { return a + b },
}).ParseFS(templateFS, "templates/day.html"))

// DayProvider supplies the occurrences of one local day.
type DayProvider interface {
	Day(date time.Time) (layout.Period, []model.Occurrence)
	Location() *time.Location
}

// Server provides the HTTP API and pages for the day view.
type Server struct {
	cfg     *config.Config
	days    DayProvider
	metrics *metrics.Manager
	mux     *http.ServeMux
	now     func() time.Time

	classifier layout.Classifier
}

// NewServer constructs a new Server. m may be nil.
func NewServer(cfg *config.Config, days DayProvider, m *metrics.Manager) *Server {
	s := &Server{
		cfg:        cfg,
		days:       days,
		metrics:    m,
		mux:        http.NewServeMux(),
		now:        time.Now,
		classifier: layout.HighlightKeywords(layout.ClassifyOccurrence, cfg.HighlightRed),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured with both
// a username and a password.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health and /metrics.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="dayview", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Listen binds the configured address. Once it returns, connections are
// queued by the kernel even before Serve starts accepting them.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("web: listen %s: %w", s.cfg.Listen, err)
	}
	return ln, nil
}

// Serve handles connections on ln until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.handle("/health", s.handleHealth)
	s.handle("/api/day", s.handleDayJSON)
	s.handle("/day", s.handleDayHTML)
	s.handle("/day.png", s.handleDayPNG)
	s.handle("/preview.png", s.handlePreview)
	s.mux.Handle("/metrics", s.metrics.Handler())
}

// handle registers h and counts its responses by route and status.
func (s *Server) handle(route string, h http.HandlerFunc) {
	s.mux.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.ObserveRequest(route, rec.status)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// BuildDay lays out the local day containing date with the configured
// day view.
func (s *Server) BuildDay(date time.Time) (layout.DayTable, error) {
	day, occs := s.days.Day(date)
	if !s.cfg.ShowAllDay {
		timed := occs[:0:0]
		for _, o := range occs {
			if !o.AllDay {
				timed = append(timed, o)
			}
		}
		occs = timed
	}

	dv := s.cfg.DayView
	started := time.Now()
	table, err := layout.BuildDay(day, occs, layout.DayOptions{
		Width:            dv.Width,
		SlotWidth:        dv.SlotWidth,
		Height:           dv.Height,
		StartHour:        dv.StartHour,
		EndHour:          dv.EndHour,
		IncrementMinutes: dv.IncrementMinutes,
		Classifier:       s.classifier,
	})
	s.metrics.ObserveLayout("day", time.Since(started), len(table.Occurrences), err)
	if err != nil {
		appLog.Error("day layout failed", err, "date", date.Format(time.DateOnly), "occurrences", len(occs))
		return layout.DayTable{}, err
	}
	return table, nil
}

// dayFromRequest resolves the requested date and lays it out, writing an
// error response on failure.
func (s *Server) dayFromRequest(w http.ResponseWriter, r *http.Request) (time.Time, layout.DayTable, bool) {
	loc := s.days.Location()
	date, err := parseDate(r.URL.Query(), loc, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return time.Time{}, layout.DayTable{}, false
	}
	table, err := s.BuildDay(date)
	if err != nil {
		writeError(w, statusForLayoutError(err), err.Error())
		return time.Time{}, layout.DayTable{}, false
	}
	return date, table, true
}

func statusForLayoutError(err error) int {
	switch {
	case errors.Is(err, layout.ErrInvalidGeometry),
		errors.Is(err, layout.ErrInvalidPeriod),
		errors.Is(err, layout.ErrMalformedOccurrence):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// occurrenceDTO is a JSON-friendly view of occurrences.
type occurrenceDTO struct {
	SourceID    string    `json:"source_id"`
	UID         string    `json:"uid"`
	InstanceKey string    `json:"instance_key"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	AllDay      bool      `json:"all_day"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// placedDTO is an occurrence with its computed geometry.
type placedDTO struct {
	occurrenceDTO
	Level      int    `json:"level"`
	MaxColumns int    `json:"max_columns"`
	Left       int    `json:"left"`
	Top        int    `json:"top"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Class      string `json:"class"`
}

type slotDTO struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Top    int       `json:"top"`
	Height int       `json:"height"`
}

// dayResponse is the JSON response shape for /api/day.
type dayResponse struct {
	Date            string          `json:"date"`
	DisplayTimeZone string          `json:"display_timezone"`
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	Width           int             `json:"width"`
	SlotWidth       int             `json:"slot_width"`
	OccurrenceWidth int             `json:"occurrence_width"`
	Height          int             `json:"height"`
	Occurrences     []placedDTO     `json:"occurrences"`
	Slots           []slotDTO       `json:"slots"`
	AllDay          []occurrenceDTO `json:"all_day"`
	Prev            string          `json:"prev"`
	Next            string          `json:"next"`
}

func toOccurrenceDTO(o model.Occurrence) occurrenceDTO {
	return occurrenceDTO{
		SourceID:    o.SourceID,
		UID:         o.UID,
		InstanceKey: o.InstanceKey,
		Summary:     o.Summary,
		Description: o.Description,
		Location:    o.Location,
		AllDay:      o.AllDay,
		Start:       o.Start,
		End:         o.End,
	}
}

func newDayResponse(date time.Time, table layout.DayTable) dayResponse {
	resp := dayResponse{
		Date:            date.Format(time.DateOnly),
		DisplayTimeZone: date.Location().String(),
		PeriodStart:     table.Period.Start,
		PeriodEnd:       table.Period.End,
		Width:           table.Width,
		SlotWidth:       table.SlotWidth,
		OccurrenceWidth: table.OccurrenceWidth,
		Height:          table.Height,
		Occurrences:     make([]placedDTO, 0, len(table.Occurrences)),
		Slots:           make([]slotDTO, 0, len(table.Slots)),
		AllDay:          make([]occurrenceDTO, 0, len(table.AllDay)),
		Prev:            QueryForDate(date.AddDate(0, 0, -1), 3),
		Next:            QueryForDate(date.AddDate(0, 0, 1), 3),
	}
	for _, r := range table.Occurrences {
		resp.Occurrences = append(resp.Occurrences, placedDTO{
			occurrenceDTO: toOccurrenceDTO(r.Occurrence),
			Level:         r.Level,
			MaxColumns:    r.MaxColumns,
			Left:          r.Box.Left,
			Top:           r.Box.Top,
			Width:         r.Box.Width,
			Height:        r.Box.Height,
			Class:         r.Class,
		})
	}
	for _, sl := range table.Slots {
		resp.Slots = append(resp.Slots, slotDTO{Start: sl.Start, End: sl.End, Top: sl.Top, Height: sl.Height})
	}
	for _, o := range table.AllDay {
		resp.AllDay = append(resp.AllDay, toOccurrenceDTO(o))
	}
	return resp
}

// handleDayJSON returns the laid out day.
//
// GET /api/day?date=2025-03-10
// GET /api/day?year=2025&month=3&day=10
func (s *Server) handleDayJSON(w http.ResponseWriter, r *http.Request) {
	date, table, ok := s.dayFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newDayResponse(date, table))
}

// handleDayHTML renders the day grid as a standalone page. The root element
// carries data-ready="true" for headless capture.
func (s *Server) handleDayHTML(w http.ResponseWriter, r *http.Request) {
	date, table, ok := s.dayFromRequest(w, r)
	if !ok {
		return
	}

	data := struct {
		Title  string
		Table  layout.DayTable
		AllDay []model.Occurrence
		Prev   string
		Next   string
	}{
		Title:  date.Format("Monday, 2 January 2006"),
		Table:  table,
		AllDay: table.AllDay,
		Prev:   QueryForDate(date.AddDate(0, 0, -1), 3),
		Next:   QueryForDate(date.AddDate(0, 0, 1), 3),
	}

	// Render into a buffer so a template error still yields a clean 500.
	var buf bytes.Buffer
	if err := dayTemplate.Execute(&buf, data); err != nil {
		appLog.Error("day template failed", err)
		writeError(w, http.StatusInternalServerError, "failed to render day")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleDayPNG renders the day grid server-side without a browser.
func (s *Server) handleDayPNG(w http.ResponseWriter, r *http.Request) {
	_, table, ok := s.dayFromRequest(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf, table); err != nil {
		appLog.Error("day png failed", err)
		writeError(w, http.StatusInternalServerError, "failed to render png")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handlePreview serves the last Chromium capture from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.Preview.Path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
