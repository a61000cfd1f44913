// Package series owns the lifecycle of recurring series: authoring rules,
// materializing occurrences for queried windows and detaching single
// occurrences from the template.
package series

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Leganyst/event-series/internal/materializer"
	"github.com/Leganyst/event-series/internal/model"
	"github.com/Leganyst/event-series/internal/recurrence"
	"github.com/Leganyst/event-series/internal/repository"
)

const (
	defaultMaxOccurrences = 5000
	defaultSeriesWorkers  = 4
)

type Service struct {
	store repository.SeriesStore
	mat   *materializer.Materializer
	log   zerolog.Logger

	// coalesces concurrent materializations of the same series and window
	flight singleflight.Group

	maxOccurrences  int
	defaultTimeZone string
	seriesWorkers   int
	now             func() time.Time
}

type Option func(*Service)

// WithMaxOccurrences caps the dates generated for one series per call.
func WithMaxOccurrences(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxOccurrences = n
		}
	}
}

// WithDefaultTimeZone sets the zone of events created without one.
func WithDefaultTimeZone(tz string) Option {
	return func(s *Service) {
		if tz != "" {
			s.defaultTimeZone = tz
		}
	}
}

// WithSeriesWorkers bounds how many series FindInDateRange expands at once.
func WithSeriesWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.seriesWorkers = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store repository.SeriesStore, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:           store,
		mat:             materializer.New(store, log),
		log:             log.With().Str("component", "series").Logger(),
		maxOccurrences:  defaultMaxOccurrences,
		defaultTimeZone: "UTC",
		seriesWorkers:   defaultSeriesWorkers,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// loaded is a series template with its decoded rule.
type loaded struct {
	tpl  *model.Event
	row  *model.RecurrenceRule
	rule recurrence.Rule
}

func (l *loaded) templateDate() civil.Date {
	return civil.DateOf(l.tpl.LocalStart())
}

func (s *Service) loadSeries(ctx context.Context, store repository.SeriesStore, id uuid.UUID) (*loaded, error) {
	tpl, err := store.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get series %s: %w", id, err)
	}
	if tpl.Kind != model.EventKindSeries {
		return nil, ErrNotRecurring
	}
	row, err := store.GetRule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get rule of %s: %w", id, err)
	}
	rule, err := row.Rule()
	if err != nil {
		return nil, fmt.Errorf("decode rule of %s: %w", id, err)
	}
	return &loaded{tpl: tpl, row: row, rule: rule}, nil
}

func (s *Service) validateEvent(ev *model.Event) error {
	ev.Title = strings.TrimSpace(ev.Title)
	if ev.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if ev.StartsAt.IsZero() || ev.EndsAt.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidEvent)
	}
	if ev.EndsAt.Before(ev.StartsAt) {
		return fmt.Errorf("%w: end must not be before start", ErrInvalidEvent)
	}
	if ev.TimeZone == "" {
		ev.TimeZone = s.defaultTimeZone
	}
	if _, err := time.LoadLocation(ev.TimeZone); err != nil {
		return fmt.Errorf("%w: unknown time zone %q", ErrInvalidEvent, ev.TimeZone)
	}
	return nil
}

func audit(ctx context.Context, store repository.SeriesStore, typ model.AuditType, seriesID uuid.UUID, instanceID *uuid.UUID, details string) error {
	err := store.AppendAudit(ctx, &model.AuditEntry{
		Type:       typ,
		SeriesID:   seriesID,
		InstanceID: instanceID,
		Details:    details,
	})
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// CreateEvent stores a one-off event.
func (s *Service) CreateEvent(ctx context.Context, ev *model.Event) (*model.Event, error) {
	if err := s.validateEvent(ev); err != nil {
		return nil, err
	}
	ev.Kind = model.EventKindStandalone
	ev.Status = model.EventStatusScheduled
	ev.SeriesStatus = ""
	ev.ParentEventID = nil
	ev.OriginalStartDate = nil

	if err := s.store.CreateEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return ev, nil
}

// CreateSeries stores tpl as the template of a new draft series governed by
// rule. Nothing is materialized until the series is activated.
func (s *Service) CreateSeries(ctx context.Context, tpl *model.Event, rule recurrence.Rule) (*model.Event, error) {
	if err := s.validateEvent(tpl); err != nil {
		return nil, err
	}
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	tpl.Kind = model.EventKindSeries
	tpl.Status = model.EventStatusScheduled
	tpl.SeriesStatus = model.SeriesStatusDraft
	tpl.ParentEventID = nil
	tpl.OriginalStartDate = nil

	row, err := model.NewRecurrenceRule(uuid.Nil, rule)
	if err != nil {
		return nil, fmt.Errorf("encode rule: %w", err)
	}

	err = s.store.WithinTx(ctx, func(tx repository.SeriesStore) error {
		if err := tx.CreateSeries(ctx, tpl, row); err != nil {
			return fmt.Errorf("create series: %w", err)
		}
		return audit(ctx, tx, model.AuditSeriesCreated, tpl.ID, nil, string(rule.Frequency))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("series_id", tpl.ID.String()).
		Str("frequency", string(rule.Frequency)).
		Msg("series created")
	return tpl, nil
}

// ActivateSeries moves a draft series to active. Activating an active series
// is a no-op.
func (s *Service) ActivateSeries(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var tpl *model.Event
	err := s.store.WithinTx(ctx, func(tx repository.SeriesStore) error {
		l, err := s.loadSeries(ctx, tx, id)
		if err != nil {
			return err
		}
		tpl = l.tpl

		switch tpl.SeriesStatus {
		case model.SeriesStatusCancelled:
			return ErrSeriesCancelled
		case model.SeriesStatusActive:
			return nil
		}

		tpl.SeriesStatus = model.SeriesStatusActive
		if err := tx.UpdateEvent(ctx, tpl); err != nil {
			return fmt.Errorf("activate series: %w", err)
		}
		return audit(ctx, tx, model.AuditSeriesActivated, id, nil, "")
	})
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

// GetSeries returns the template and rule of a series.
func (s *Service) GetSeries(ctx context.Context, id uuid.UUID) (*model.Event, recurrence.Rule, error) {
	l, err := s.loadSeries(ctx, s.store, id)
	if err != nil {
		return nil, recurrence.Rule{}, err
	}
	return l.tpl, l.rule, nil
}

// History lists the audit trail of a series, oldest first.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]model.AuditEntry, error) {
	entries, err := s.store.ListAudit(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	return entries, nil
}

// IsNotFound reports whether err means a missing event or rule.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
