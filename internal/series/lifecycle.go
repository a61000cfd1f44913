package series

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/Leganyst/event-series/internal/ics"
	"github.com/Leganyst/event-series/internal/model"
	"github.com/Leganyst/event-series/internal/recurrence"
	"github.com/Leganyst/event-series/internal/repository"
)

// UpdateRule replaces the rule of a series. Exceptions already recorded are
// kept. Unmodified instances from now on that the new rule no longer
// produces are removed; modified instances are never touched.
func (s *Service) UpdateRule(ctx context.Context, parentID uuid.UUID, rule recurrence.Rule) (recurrence.Rule, error) {
	if err := rule.Validate(); err != nil {
		return recurrence.Rule{}, fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}

	var (
		merged recurrence.Rule
		pruned int64
	)
	err := s.store.WithinTx(ctx, func(tx repository.SeriesStore) error {
		l, err := s.loadSeries(ctx, tx, parentID)
		if err != nil {
			return err
		}
		if l.tpl.SeriesStatus == model.SeriesStatusCancelled {
			return ErrSeriesCancelled
		}

		merged = rule
		for _, ex := range l.rule.Exceptions {
			merged = merged.WithException(ex)
		}
		if err := l.row.SetRule(merged); err != nil {
			return fmt.Errorf("encode rule: %w", err)
		}
		if err := tx.SaveRule(ctx, l.row); err != nil {
			return fmt.Errorf("save rule: %w", err)
		}

		future, err := tx.ListInstances(ctx, parentID, s.now(), time.Time{})
		if err != nil {
			return fmt.Errorf("list instances: %w", err)
		}
		stale := staleInstances(merged, l.templateDate(), future)
		if pruned, err = tx.DeleteUnmodifiedInstances(ctx, parentID, stale); err != nil {
			return fmt.Errorf("prune instances: %w", err)
		}
		return audit(ctx, tx, model.AuditRuleUpdated, parentID, nil, fmt.Sprintf("pruned=%d", pruned))
	})
	if err != nil {
		return recurrence.Rule{}, err
	}

	s.log.Info().
		Str("series_id", parentID.String()).
		Int64("pruned", pruned).
		Msg("rule updated")
	return merged, nil
}

// staleInstances returns the unmodified instances whose original date is no
// longer an occurrence of rule.
func staleInstances(rule recurrence.Rule, templateDate civil.Date, instances []model.Event) []uuid.UUID {
	var last civil.Date
	for _, inst := range instances {
		if d, ok := inst.OriginalDate(); ok && d.After(last) {
			last = d
		}
	}

	live := make(map[civil.Date]struct{})
	for d := range recurrence.Candidates(rule, templateDate) {
		if d.After(last) {
			break
		}
		if !rule.IsException(d) {
			live[d] = struct{}{}
		}
	}

	var stale []uuid.UUID
	for _, inst := range instances {
		if inst.IsModified {
			continue
		}
		d, ok := inst.OriginalDate()
		if !ok {
			continue
		}
		if _, ok := live[d]; !ok {
			stale = append(stale, inst.ID)
		}
	}
	return stale
}

// CancelSeries stops a series as of asOf: no further occurrences are
// materialized and unmodified instances starting at or after asOf are
// removed. Modified instances and earlier instances stay. It returns the
// number of removed instances; cancelling twice is a no-op.
func (s *Service) CancelSeries(ctx context.Context, parentID uuid.UUID, asOf time.Time) (int64, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}

	var removed int64
	err := s.store.WithinTx(ctx, func(tx repository.SeriesStore) error {
		l, err := s.loadSeries(ctx, tx, parentID)
		if err != nil {
			return err
		}
		if l.tpl.SeriesStatus == model.SeriesStatusCancelled {
			return nil
		}

		l.tpl.SeriesStatus = model.SeriesStatusCancelled
		if err := tx.UpdateEvent(ctx, l.tpl); err != nil {
			return fmt.Errorf("cancel series: %w", err)
		}

		future, err := tx.ListInstances(ctx, parentID, asOf, time.Time{})
		if err != nil {
			return fmt.Errorf("list instances: %w", err)
		}
		var ids []uuid.UUID
		for _, inst := range future {
			if !inst.IsModified && !inst.StartsAt.Before(asOf) {
				ids = append(ids, inst.ID)
			}
		}
		if removed, err = tx.DeleteUnmodifiedInstances(ctx, parentID, ids); err != nil {
			return fmt.Errorf("delete future instances: %w", err)
		}
		return audit(ctx, tx, model.AuditSeriesCancelled, parentID, nil,
			fmt.Sprintf("as_of=%s removed=%d", asOf.UTC().Format(time.RFC3339), removed))
	})
	if err != nil {
		return 0, err
	}

	s.log.Info().
		Str("series_id", parentID.String()).
		Int64("removed", removed).
		Msg("series cancelled")
	return removed, nil
}

// ExportICS renders the series as an iCalendar document.
func (s *Service) ExportICS(ctx context.Context, parentID uuid.UUID) (string, error) {
	l, err := s.loadSeries(ctx, s.store, parentID)
	if err != nil {
		return "", err
	}
	instances, err := s.store.ListInstances(ctx, parentID, time.Time{}, time.Time{})
	if err != nil {
		return "", fmt.Errorf("list instances: %w", err)
	}
	return ics.ExportSeries(l.tpl, l.rule, instances, ics.Options{
		MaxOccurrences: s.maxOccurrences,
		Now:            s.now(),
	})
}
