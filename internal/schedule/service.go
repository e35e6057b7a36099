// Package schedule keeps an in-memory snapshot of expanded occurrences and
// refreshes it from the configured ICS feeds on a cron schedule.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"dayview/internal/config"
	"dayview/internal/ics"
	"dayview/internal/layout"
	appLog "dayview/internal/log"
	"dayview/internal/metrics"
	"dayview/internal/model"
)

const maxOccurrencesPerEvent = 5000

// Fetcher is the part of ics.Fetcher the service needs.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []ics.Source) ([]ics.FetchResult, error)
}

// Snapshot is the result of one refresh.
type Snapshot struct {
	Occurrences []model.Occurrence
	RangeStart  time.Time
	RangeEnd    time.Time
	Truncated   []string
	UpdatedAt   time.Time
}

// Service owns the current Snapshot.
type Service struct {
	cfg     *config.Config
	loc     *time.Location
	fetcher Fetcher
	metrics *metrics.Manager
	now     func() time.Time

	mu   sync.RWMutex
	snap Snapshot

	hooksMu sync.Mutex
	hooks   []func(context.Context, Snapshot)

	// refreshMu serializes refreshes started by cron and by callers.
	refreshMu sync.Mutex

	cron   *cron.Cron
	cancel context.CancelFunc
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records refresh outcomes on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service for cfg. The snapshot is empty until Refresh.
func New(cfg *config.Config, fetcher Fetcher, opts ...Option) *Service {
	s := &Service{
		cfg:     cfg,
		loc:     cfg.Location(),
		fetcher: fetcher,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location is the display timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Sources converts the configured ICS entries into fetch sources.
func (s *Service) Sources() []ics.Source {
	sources := make([]ics.Source, 0, len(s.cfg.ICS))
	for _, c := range s.cfg.ICS {
		if c.URL == "" {
			continue
		}
		sources = append(sources, ics.Source{ID: c.SourceID(), URL: c.URL})
	}
	return sources
}

// OnRefresh registers fn to run after every snapshot swap.
func (s *Service) OnRefresh(fn func(context.Context, Snapshot)) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Snapshot returns the current snapshot.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Day returns the local calendar day containing date and the snapshot
// occurrences intersecting it, ordered as in the snapshot.
func (s *Service) Day(date time.Time) (layout.Period, []model.Occurrence) {
	day := layout.DayPeriod(date, s.loc)
	snap := s.Snapshot()
	return day, day.Occurrences(snap.Occurrences)
}

// Refresh fetches, parses and expands all sources, then swaps the
// snapshot. Per-source failures are logged and returned joined; the
// snapshot is kept unchanged only when no source produced a body.
func (s *Service) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	sources := s.Sources()
	now := s.now().In(s.loc)
	today := layout.DayPeriod(now, s.loc).Start
	rangeStart := today.AddDate(0, 0, -1)
	rangeEnd := today.AddDate(0, 0, s.cfg.HorizonDays+1)

	var errs []error
	var parsed []ics.ParsedEvent
	if len(sources) > 0 {
		results, err := s.fetcher.FetchAll(ctx, sources)
		if err != nil {
			errs = append(errs, err)
		}
		if len(results) == 0 && err != nil {
			s.metrics.ObserveRefresh("failed", len(s.Snapshot().Occurrences))
			return fmt.Errorf("schedule: refresh: %w", err)
		}
		for _, res := range results {
			events, err := ics.ParseICS(res.Source, res.Body)
			if err != nil {
				appLog.Error("refresh: parse failed", err, "id", res.Source.ID)
				errs = append(errs, err)
				continue
			}
			parsed = append(parsed, events...)
		}
	}

	expanded, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{
		DisplayLocation:        s.loc,
		RangeStart:             rangeStart,
		RangeEnd:               rangeEnd,
		MaxOccurrencesPerEvent: maxOccurrencesPerEvent,
	})
	if err != nil {
		s.metrics.ObserveRefresh("failed", len(s.Snapshot().Occurrences))
		return fmt.Errorf("schedule: refresh: %w", err)
	}

	snap := Snapshot{
		Occurrences: expanded.Occurrences,
		RangeStart:  rangeStart,
		RangeEnd:    rangeEnd,
		Truncated:   expanded.TruncatedEvents,
		UpdatedAt:   s.now(),
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	outcome := "ok"
	if len(errs) > 0 {
		outcome = "partial"
	}
	s.metrics.ObserveRefresh(outcome, len(snap.Occurrences))
	appLog.Info("refresh completed",
		"outcome", outcome,
		"sources", len(sources),
		"occurrences", len(snap.Occurrences),
		"range_start", rangeStart.Format(time.RFC3339),
		"range_end", rangeEnd.Format(time.RFC3339),
	)

	s.hooksMu.Lock()
	hooks := append([]func(context.Context, Snapshot){}, s.hooks...)
	s.hooksMu.Unlock()
	for _, h := range hooks {
		h(ctx, snap)
	}

	if len(errs) > 0 {
		return fmt.Errorf("schedule: refresh: %w", errors.Join(errs...))
	}
	return nil
}

// Start schedules Refresh on the configured cron spec. It does not run an
// initial refresh.
func (s *Service) Start(ctx context.Context) error {
	if s.cron != nil {
		return errors.New("schedule: already started")
	}
	runCtx, cancel := context.WithCancel(ctx)

	c := cron.New(cron.WithLocation(s.loc))
	_, err := c.AddFunc(s.cfg.RefreshCron, func() {
		if err := s.Refresh(runCtx); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("schedule: cron spec %q: %w", s.cfg.RefreshCron, err)
	}
	c.Start()

	s.cron = c
	s.cancel = cancel
	appLog.Info("refresh scheduled", "cron", s.cfg.RefreshCron, "timezone", s.loc.String())
	return nil
}

// Stop cancels in-flight refreshes and waits for the running job.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
	}
}
