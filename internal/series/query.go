package series

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/Leganyst/event-series/internal/materializer"
	"github.com/Leganyst/event-series/internal/model"
	"github.com/Leganyst/event-series/internal/recurrence"
)

// GenerateRecurringInstances materializes the missing occurrences of an
// active series inside [windowStart, windowEnd] and returns every instance of
// the series overlapping that window, generated and modified alike, ordered
// by start. Cancelled occurrences are left out. Draft and cancelled series
// only return what is already stored.
//
// When single occurrences fail to persist, the instances that could be read
// are returned together with an error carrying one
// *materializer.OccurrenceError per failed date.
func (s *Service) GenerateRecurringInstances(ctx context.Context, parentID uuid.UUID, windowStart, windowEnd time.Time) ([]model.Event, error) {
	if windowEnd.Before(windowStart) {
		return []model.Event{}, nil
	}

	l, err := s.loadSeries(ctx, s.store, parentID)
	if err != nil {
		return nil, err
	}

	var partial error
	if l.tpl.SeriesStatus == model.SeriesStatusActive {
		if _, err := s.materializeWindow(ctx, l, windowStart, windowEnd); err != nil {
			if len(materializer.Errors(err)) == 0 {
				return nil, err
			}
			partial = err
		}
	}

	instances, err := s.store.ListInstances(ctx, parentID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	return withoutCancelled(instances), partial
}

func withoutCancelled(events []model.Event) []model.Event {
	return slices.DeleteFunc(events, func(ev model.Event) bool {
		return ev.Status == model.EventStatusCancelled
	})
}

// FindInDateRange returns standalone events and instances of every active or
// cancelled series overlapping [windowStart, windowEnd], materializing active
// series on demand. Cancelled events are left out here as well. Per-occurrence failures
// are reported as in GenerateRecurringInstances.
func (s *Service) FindInDateRange(ctx context.Context, windowStart, windowEnd time.Time) ([]model.Event, error) {
	if windowEnd.Before(windowStart) {
		return []model.Event{}, nil
	}

	standalone, err := s.store.ListStandalone(ctx, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("list standalone events: %w", err)
	}
	templates, err := s.store.ListSeries(ctx, model.SeriesStatusActive, model.SeriesStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}

	var (
		mu      sync.Mutex
		partial error
	)
	perSeries := make([][]model.Event, len(templates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.seriesWorkers)
	for i, tpl := range templates {
		g.Go(func() error {
			evs, err := s.GenerateRecurringInstances(gctx, tpl.ID, windowStart, windowEnd)
			if err != nil {
				if len(materializer.Errors(err)) == 0 {
					return fmt.Errorf("series %s: %w", tpl.ID, err)
				}
				mu.Lock()
				partial = multierr.Append(partial, err)
				mu.Unlock()
			}
			perSeries[i] = evs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.Event, 0, len(standalone))
	out = append(out, standalone...)
	for _, evs := range perSeries {
		out = append(out, evs...)
	}
	out = withoutCancelled(out)
	slices.SortFunc(out, func(a, b model.Event) int {
		if c := a.StartsAt.Compare(b.StartsAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out, partial
}

// Refresh materializes [from, to] for every active series and returns the
// number of instances created. It keeps going past failing series.
func (s *Service) Refresh(ctx context.Context, from, to time.Time) (int, error) {
	templates, err := s.store.ListSeries(ctx, model.SeriesStatusActive)
	if err != nil {
		return 0, fmt.Errorf("list series: %w", err)
	}

	var (
		created int
		errs    error
	)
	for _, tpl := range templates {
		if err := ctx.Err(); err != nil {
			return created, multierr.Append(errs, err)
		}
		l, err := s.loadSeries(ctx, s.store, tpl.ID)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		n, err := s.materializeWindow(ctx, l, from, to)
		created += n
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("series %s: %w", tpl.ID, err))
		}
	}
	return created, errs
}

type flightResult struct {
	created int
}

func (s *Service) materializeWindow(ctx context.Context, l *loaded, windowStart, windowEnd time.Time) (int, error) {
	key := fmt.Sprintf("%s|%d|%d", l.tpl.ID, windowStart.UnixNano(), windowEnd.UnixNano())
	v, err, shared := s.flight.Do(key, func() (any, error) {
		n, err := s.materialize(ctx, l, windowStart, windowEnd)
		return flightResult{created: n}, err
	})
	if shared {
		s.log.Debug().Str("series_id", l.tpl.ID.String()).Msg("materialization shared with a concurrent call")
	}
	res, _ := v.(flightResult)
	return res.created, err
}

func (s *Service) materialize(ctx context.Context, l *loaded, windowStart, windowEnd time.Time) (int, error) {
	// occurrences that started before the window may still overlap it
	genStart := windowStart.Add(-l.tpl.Duration())

	stored, err := s.store.ListInstances(ctx, l.tpl.ID, genStart, windowEnd)
	if err != nil {
		return 0, fmt.Errorf("list instances: %w", err)
	}
	existing := make([]civil.Date, 0, len(stored))
	for _, inst := range stored {
		if d, ok := inst.OriginalDate(); ok {
			existing = append(existing, d)
		}
	}

	gen := recurrence.GenerateResult(l.rule, l.tpl.LocalStart(), genStart, windowEnd,
		recurrence.WithExisting(existing...),
		recurrence.WithMaxOccurrences(s.maxOccurrences),
	)
	if gen.Truncated {
		s.log.Warn().
			Str("series_id", l.tpl.ID.String()).
			Int("max_occurrences", s.maxOccurrences).
			Msg("occurrence expansion truncated")
	}

	res, err := s.mat.Materialize(ctx, l.tpl, gen.Dates)
	if len(res.Created) > 0 {
		s.log.Info().
			Str("series_id", l.tpl.ID.String()).
			Int("created", len(res.Created)).
			Time("window_start", windowStart).
			Time("window_end", windowEnd).
			Msg("instances materialized")
	}
	return len(res.Created), err
}
