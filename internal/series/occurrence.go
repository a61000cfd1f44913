package series

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/Leganyst/event-series/internal/materializer"
	"github.com/Leganyst/event-series/internal/model"
	"github.com/Leganyst/event-series/internal/repository"
	"github.com/Leganyst/event-series/internal/recurrence"
)

// Patch lists the fields of one occurrence to change; nil fields are kept.
type Patch struct {
	Title       *string
	Description *string
	Location    *string
	StartsAt    *time.Time
	EndsAt      *time.Time
}

func (p Patch) apply(ev *model.Event) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return fmt.Errorf("%w: title is required", ErrInvalidEvent)
		}
		ev.Title = title
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Location != nil {
		ev.Location = *p.Location
	}
	if p.StartsAt != nil {
		ev.StartsAt = *p.StartsAt
	}
	if p.EndsAt != nil {
		ev.EndsAt = *p.EndsAt
	}
	if ev.EndsAt.Before(ev.StartsAt) {
		return fmt.Errorf("%w: end must not be before start", ErrInvalidEvent)
	}
	return nil
}

func modifiedInstance(mods []model.ModifiedOccurrence, d civil.Date) (uuid.UUID, bool) {
	for _, m := range mods {
		if model.CivilDate(m.OccurrenceDate) == d {
			return m.InstanceID, true
		}
	}
	return uuid.Nil, false
}

// EditOccurrence detaches the occurrence of date d from the template and
// applies patch to it. The occurrence is materialized first if needed; from
// then on generation never recreates or overwrites it.
func (s *Service) EditOccurrence(ctx context.Context, parentID uuid.UUID, d civil.Date, patch Patch) (*model.Event, error) {
	var inst *model.Event
	err := s.store.WithinTx(ctx, func(tx repository.SeriesStore) error {
		l, err := s.loadSeries(ctx, tx, parentID)
		if err != nil {
			return err
		}
		switch l.tpl.SeriesStatus {
		case model.SeriesStatusCancelled:
			return ErrSeriesCancelled
		case model.SeriesStatusDraft:
			return ErrSeriesDraft
		}

		mods, err := tx.ListModifiedOccurrences(ctx, parentID)
		if err != nil {
			return fmt.Errorf("list modified occurrences: %w", err)
		}

		if id, ok := modifiedInstance(mods, d); ok {
			if inst, err = tx.GetEvent(ctx, id); err != nil {
				return fmt.Errorf("get modified instance: %w", err)
			}
		} else {
			if !recurrence.OccursOn(l.rule, l.templateDate(), d) {
				return fmt.Errorf("%w: %s", ErrNotOccurrence, d)
			}
			if inst, err = s.ensureInstance(ctx, tx, l, d); err != nil {
				return err
			}
		}

		if err := patch.apply(inst); err != nil {
			return err
		}
		inst.IsModified = true
		if err := tx.UpdateEvent(ctx, inst); err != nil {
			return fmt.Errorf("update instance: %w", err)
		}
		err = tx.PutModifiedOccurrence(ctx, &model.ModifiedOccurrence{
			ParentEventID:  parentID,
			OccurrenceDate: model.DateOf(d),
			InstanceID:     inst.ID,
		})
		if err != nil {
			return fmt.Errorf("record modified occurrence: %w", err)
		}
		return audit(ctx, tx, model.AuditOccurrenceModified, parentID, &inst.ID, d.String())
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// ensureInstance returns the generated instance of d, writing it when absent.
func (s *Service) ensureInstance(ctx context.Context, tx repository.SeriesStore, l *loaded, d civil.Date) (*model.Event, error) {
	id := materializer.InstanceID(l.tpl.ID, d)
	inst, err := tx.GetEvent(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		if _, err := s.mat.With(tx).Materialize(ctx, l.tpl, []civil.Date{d}); err != nil {
			return nil, err
		}
		inst, err = tx.GetEvent(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get instance: %w", err)
	}
	if !inst.IsInstance() || *inst.ParentEventID != l.tpl.ID {
		return nil, fmt.Errorf("%w: %s", ErrIDConflict, id)
	}
	return inst, nil
}

// CancelOccurrence adds d to the series exceptions and removes the
// generated instance of d unless it was modified; a modified instance is
// kept and marked cancelled. Cancelling an excepted date is a no-op.
func (s *Service) CancelOccurrence(ctx context.Context, parentID uuid.UUID, d civil.Date) error {
	return s.store.WithinTx(ctx, func(tx repository.SeriesStore) error {
		l, err := s.loadSeries(ctx, tx, parentID)
		if err != nil {
			return err
		}
		if l.tpl.SeriesStatus == model.SeriesStatusCancelled {
			return ErrSeriesCancelled
		}
		if l.rule.IsException(d) {
			return nil
		}

		mods, err := tx.ListModifiedOccurrences(ctx, parentID)
		if err != nil {
			return fmt.Errorf("list modified occurrences: %w", err)
		}
		var instanceID *uuid.UUID
		if id, ok := modifiedInstance(mods, d); ok {
			inst, err := tx.GetEvent(ctx, id)
			if err != nil {
				return fmt.Errorf("get modified instance: %w", err)
			}
			inst.Status = model.EventStatusCancelled
			if err := tx.UpdateEvent(ctx, inst); err != nil {
				return fmt.Errorf("cancel modified instance: %w", err)
			}
			instanceID = &inst.ID
		} else if !recurrence.OccursOn(l.rule, l.templateDate(), d) {
			return fmt.Errorf("%w: %s", ErrNotOccurrence, d)
		}

		if err := s.addException(ctx, tx, l, d); err != nil {
			return err
		}
		if _, err := tx.DeleteUnmodifiedInstances(ctx, parentID, []uuid.UUID{materializer.InstanceID(parentID, d)}); err != nil {
			return fmt.Errorf("delete instance: %w", err)
		}
		return audit(ctx, tx, model.AuditOccurrenceCancelled, parentID, instanceID, d.String())
	})
}

// DeleteInstance removes one instance and its modified-occurrence mapping.
// Its original date becomes an exception so it is never generated again.
func (s *Service) DeleteInstance(ctx context.Context, instanceID uuid.UUID) error {
	return s.store.WithinTx(ctx, func(tx repository.SeriesStore) error {
		inst, err := tx.GetEvent(ctx, instanceID)
		if err != nil {
			return fmt.Errorf("get instance: %w", err)
		}
		if !inst.IsInstance() {
			return ErrNotInstance
		}
		parentID := *inst.ParentEventID

		if err := tx.DeleteEvent(ctx, instanceID); err != nil {
			return fmt.Errorf("delete instance: %w", err)
		}
		if err := tx.DeleteModifiedOccurrence(ctx, instanceID); err != nil {
			return fmt.Errorf("delete modified occurrence: %w", err)
		}

		details := ""
		if d, ok := inst.OriginalDate(); ok {
			l, err := s.loadSeries(ctx, tx, parentID)
			if err != nil {
				return err
			}
			if err := s.addException(ctx, tx, l, d); err != nil {
				return err
			}
			details = d.String()
		}
		return audit(ctx, tx, model.AuditInstanceDeleted, parentID, &instanceID, details)
	})
}

func (s *Service) addException(ctx context.Context, tx repository.SeriesStore, l *loaded, d civil.Date) error {
	l.rule = l.rule.WithException(d)
	if err := l.row.SetRule(l.rule); err != nil {
		return fmt.Errorf("encode rule: %w", err)
	}
	if err := tx.SaveRule(ctx, l.row); err != nil {
		return fmt.Errorf("save rule: %w", err)
	}
	return nil
}
