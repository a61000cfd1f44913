// Package materializer persists occurrence dates of a series as event
// instances. Every write is insert-if-absent under a deterministic id, so
// repeated or concurrent calls over the same dates never duplicate rows.
package materializer

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/Leganyst/event-series/internal/model"
	"github.com/Leganyst/event-series/internal/repository"
)

// Namespace seeds instance ids; changing it orphans every stored instance.
var Namespace = uuid.MustParse("6f2c4b1e-9a7d-5c3e-8b21-4d0e7f9a1c55")

// InstanceID is the id of the instance materialized for parent on date d.
func InstanceID(parentID uuid.UUID, d civil.Date) uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(parentID.String()+"/"+d.String()))
}

// OccurrenceError reports a failed write for one occurrence date.
type OccurrenceError struct {
	Date civil.Date
	Err  error
}

func (e *OccurrenceError) Error() string {
	return fmt.Sprintf("materialize %s: %v", e.Date, e.Err)
}

func (e *OccurrenceError) Unwrap() error { return e.Err }

// Result of one Materialize call.
type Result struct {
	// Instances written by this call.
	Created []model.Event
	// Dates already covered by a modified or previously materialized instance.
	Skipped []civil.Date
	// Dates whose write failed; details are in the returned error.
	Failed []civil.Date
}

type Materializer struct {
	store repository.SeriesStore
	log   zerolog.Logger
}

func New(store repository.SeriesStore, log zerolog.Logger) *Materializer {
	return &Materializer{store: store, log: log.With().Str("component", "materializer").Logger()}
}

// With returns a materializer writing through store, e.g. a transaction.
func (m *Materializer) With(store repository.SeriesStore) *Materializer {
	return &Materializer{store: store, log: m.log}
}

// Materialize writes an instance of template for each date that is neither
// mapped by a ModifiedOccurrence nor already stored. Failures are collected
// per date as *OccurrenceError and combined into the returned error; the
// other dates are still written. Context cancellation stops the loop between
// writes.
func (m *Materializer) Materialize(ctx context.Context, template *model.Event, dates []civil.Date) (Result, error) {
	var res Result
	if len(dates) == 0 {
		return res, nil
	}

	mods, err := m.store.ListModifiedOccurrences(ctx, template.ID)
	if err != nil {
		return res, fmt.Errorf("list modified occurrences: %w", err)
	}
	modified := make(map[civil.Date]struct{}, len(mods))
	for _, mo := range mods {
		modified[model.CivilDate(mo.OccurrenceDate)] = struct{}{}
	}

	var errs error
	for i, d := range dates {
		if err := ctx.Err(); err != nil {
			res.Failed = append(res.Failed, dates[i:]...)
			errs = multierr.Append(errs, err)
			break
		}
		if _, ok := modified[d]; ok {
			res.Skipped = append(res.Skipped, d)
			continue
		}

		inst := Build(template, d)
		created, err := m.store.InsertInstance(ctx, inst)
		if err != nil {
			res.Failed = append(res.Failed, d)
			errs = multierr.Append(errs, &OccurrenceError{Date: d, Err: err})
			continue
		}
		if !created {
			res.Skipped = append(res.Skipped, d)
			continue
		}
		res.Created = append(res.Created, *inst)
	}

	if errs != nil {
		m.log.Warn().
			Err(errs).
			Str("series_id", template.ID.String()).
			Int("failed", len(res.Failed)).
			Msg("materialization incomplete")
	}
	m.log.Debug().
		Str("series_id", template.ID.String()).
		Int("created", len(res.Created)).
		Int("skipped", len(res.Skipped)).
		Msg("materialized")
	return res, errs
}

// Build returns the instance of template for date d: same wall-clock start
// in the template's zone and same duration.
func Build(template *model.Event, d civil.Date) *model.Event {
	loc := template.Loc()
	ls := template.LocalStart()
	start := time.Date(d.Year, d.Month, d.Day, ls.Hour(), ls.Minute(), ls.Second(), ls.Nanosecond(), loc)

	parentID := template.ID
	orig := model.DateOf(d)
	return &model.Event{
		ID:                InstanceID(parentID, d),
		Kind:              model.EventKindInstance,
		Title:             template.Title,
		Description:       template.Description,
		Location:          template.Location,
		Color:             template.Color,
		TimeZone:          template.TimeZone,
		StartsAt:          start,
		EndsAt:            start.Add(template.Duration()),
		Status:            model.EventStatusScheduled,
		ParentEventID:     &parentID,
		OriginalStartDate: &orig,
	}
}

// Errors unpacks the per-date failures of an error returned by Materialize.
func Errors(err error) []*OccurrenceError {
	var out []*OccurrenceError
	for _, e := range multierr.Errors(err) {
		if oe, ok := e.(*OccurrenceError); ok {
			out = append(out, oe)
		}
	}
	return out
}
