// Package storetest is a compliance suite shared by every SeriesStore
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/Leganyst/event-series/internal/model"
	"github.com/Leganyst/event-series/internal/recurrence"
	"github.com/Leganyst/event-series/internal/repository"
)

// Run exercises the suite; makeStore must return a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) repository.SeriesStore) {
	t.Helper()

	t.Run("Events", func(t *testing.T) { testEvents(t, makeStore(t)) })
	t.Run("Series", func(t *testing.T) { testSeries(t, makeStore(t)) })
	t.Run("Instances", func(t *testing.T) { testInstances(t, makeStore(t)) })
	t.Run("ModifiedOccurrences", func(t *testing.T) { testModified(t, makeStore(t)) })
	t.Run("Audit", func(t *testing.T) { testAudit(t, makeStore(t)) })
	t.Run("WithinTx", func(t *testing.T) { testWithinTx(t, makeStore(t)) })
}

func at(hour int, day int) time.Time {
	return time.Date(2024, time.March, day, hour, 0, 0, 0, time.UTC)
}

func standalone(title string, start time.Time, d time.Duration) *model.Event {
	return &model.Event{
		Kind:     model.EventKindStandalone,
		Title:    title,
		TimeZone: "UTC",
		StartsAt: start,
		EndsAt:   start.Add(d),
		Status:   model.EventStatusScheduled,
	}
}

func seriesTemplate(title string, start time.Time) *model.Event {
	ev := standalone(title, start, time.Hour)
	ev.Kind = model.EventKindSeries
	ev.SeriesStatus = model.SeriesStatusActive
	return ev
}

func instanceOf(parent *model.Event, d civil.Date) *model.Event {
	orig := model.DateOf(d)
	start := d.In(time.UTC).Add(10 * time.Hour)
	return &model.Event{
		ID:                uuid.New(),
		Kind:              model.EventKindInstance,
		Title:             parent.Title,
		TimeZone:          "UTC",
		StartsAt:          start,
		EndsAt:            start.Add(time.Hour),
		Status:            model.EventStatusScheduled,
		ParentEventID:     &parent.ID,
		OriginalStartDate: &orig,
	}
}

func mustCreateSeries(t *testing.T, s repository.SeriesStore, title string) *model.Event {
	t.Helper()
	tpl := seriesTemplate(title, at(10, 1))
	rule, err := model.NewRecurrenceRule(uuid.Nil, recurrence.Rule{Frequency: recurrence.FreqDaily, Interval: 1})
	if err != nil {
		t.Fatalf("NewRecurrenceRule: %v", err)
	}
	if err := s.CreateSeries(context.Background(), tpl, rule); err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}
	return tpl
}

func testEvents(t *testing.T, s repository.SeriesStore) {
	ctx := context.Background()

	ev := standalone("standup", at(9, 5), 30*time.Minute)
	if err := s.CreateEvent(ctx, ev); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if ev.ID == uuid.Nil {
		t.Fatalf("CreateEvent: id not assigned")
	}
	if err := s.CreateEvent(ctx, ev); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("CreateEvent twice: want ErrDuplicate, got %v", err)
	}

	got, err := s.GetEvent(ctx, ev.ID)
	if err != nil || got.Title != "standup" || !got.StartsAt.Equal(ev.StartsAt) {
		t.Fatalf("GetEvent: got=%+v err=%v", got, err)
	}

	got.Title = "daily standup"
	if err := s.UpdateEvent(ctx, got); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if got, _ = s.GetEvent(ctx, ev.ID); got.Title != "daily standup" {
		t.Fatalf("UpdateEvent: title not saved: %q", got.Title)
	}
	missing := standalone("ghost", at(9, 5), time.Hour)
	missing.ID = uuid.New()
	if err := s.UpdateEvent(ctx, missing); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("UpdateEvent missing: want ErrNotFound, got %v", err)
	}

	later := standalone("review", at(14, 20), time.Hour)
	if err := s.CreateEvent(ctx, later); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	lst, err := s.ListStandalone(ctx, at(0, 1), at(0, 10))
	if err != nil || len(lst) != 1 || lst[0].ID != ev.ID {
		t.Fatalf("ListStandalone: n=%d err=%v", len(lst), err)
	}
	// closed window: touching the end still overlaps
	lst, err = s.ListStandalone(ctx, ev.EndsAt, at(0, 25))
	if err != nil || len(lst) != 2 || lst[0].ID != ev.ID || lst[1].ID != later.ID {
		t.Fatalf("ListStandalone ordered: n=%d err=%v", len(lst), err)
	}

	if err := s.DeleteEvent(ctx, ev.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if _, err := s.GetEvent(ctx, ev.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetEvent deleted: want ErrNotFound, got %v", err)
	}
	if err := s.DeleteEvent(ctx, ev.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("DeleteEvent twice: want ErrNotFound, got %v", err)
	}
}

func testSeries(t *testing.T, s repository.SeriesStore) {
	ctx := context.Background()

	end := civil.Date{Year: 2024, Month: time.December, Day: 31}
	rule := recurrence.Rule{
		Frequency:  recurrence.FreqWeekly,
		Interval:   2,
		DaysOfWeek: []int{1, 3},
		EndDate:    &end,
		Exceptions: []civil.Date{{Year: 2024, Month: time.March, Day: 4}},
	}

	tpl := seriesTemplate("gym", at(18, 4))
	tpl.SeriesStatus = model.SeriesStatusDraft
	row, err := model.NewRecurrenceRule(uuid.Nil, rule)
	if err != nil {
		t.Fatalf("NewRecurrenceRule: %v", err)
	}
	if err := s.CreateSeries(ctx, tpl, row); err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}
	if tpl.ID == uuid.Nil || row.EventID != tpl.ID {
		t.Fatalf("CreateSeries: ids not linked: tpl=%s rule.event=%s", tpl.ID, row.EventID)
	}

	stored, err := s.GetRule(ctx, tpl.ID)
	if err != nil {
		t.Fatalf("GetRule: %v", err)
	}
	back, err := stored.Rule()
	if err != nil {
		t.Fatalf("Rule(): %v", err)
	}
	if back.Frequency != recurrence.FreqWeekly || back.Interval != 2 || len(back.DaysOfWeek) != 2 ||
		back.EndDate == nil || *back.EndDate != end || len(back.Exceptions) != 1 || back.Exceptions[0] != rule.Exceptions[0] {
		t.Fatalf("GetRule round trip: %+v", back)
	}

	extra := civil.Date{Year: 2024, Month: time.March, Day: 6}
	if err := stored.SetRule(back.WithException(extra)); err != nil {
		t.Fatalf("SetRule: %v", err)
	}
	if err := s.SaveRule(ctx, stored); err != nil {
		t.Fatalf("SaveRule: %v", err)
	}
	stored, err = s.GetRule(ctx, tpl.ID)
	if err != nil {
		t.Fatalf("GetRule after save: %v", err)
	}
	if back, _ = stored.Rule(); !back.IsException(extra) {
		t.Fatalf("SaveRule: exception not persisted: %+v", back.Exceptions)
	}

	if _, err := s.GetRule(ctx, uuid.New()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetRule missing: want ErrNotFound, got %v", err)
	}

	active := mustCreateSeries(t, s, "standup")
	all, err := s.ListSeries(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListSeries: n=%d err=%v", len(all), err)
	}
	onlyActive, err := s.ListSeries(ctx, model.SeriesStatusActive)
	if err != nil || len(onlyActive) != 1 || onlyActive[0].ID != active.ID {
		t.Fatalf("ListSeries(active): n=%d err=%v", len(onlyActive), err)
	}
}

func testInstances(t *testing.T, s repository.SeriesStore) {
	ctx := context.Background()
	parent := mustCreateSeries(t, s, "standup")
	other := mustCreateSeries(t, s, "retro")

	d1 := civil.Date{Year: 2024, Month: time.March, Day: 1}
	d2 := civil.Date{Year: 2024, Month: time.March, Day: 2}

	i1 := instanceOf(parent, d1)
	created, err := s.InsertInstance(ctx, i1)
	if err != nil || !created {
		t.Fatalf("InsertInstance: created=%v err=%v", created, err)
	}
	if created, err = s.InsertInstance(ctx, i1); err != nil || created {
		t.Fatalf("InsertInstance same id: created=%v err=%v", created, err)
	}
	// same (parent, date) under another id is still a no-op
	if created, err = s.InsertInstance(ctx, instanceOf(parent, d1)); err != nil || created {
		t.Fatalf("InsertInstance same date: created=%v err=%v", created, err)
	}

	i2 := instanceOf(parent, d2)
	if _, err := s.InsertInstance(ctx, i2); err != nil {
		t.Fatalf("InsertInstance d2: %v", err)
	}
	if _, err := s.InsertInstance(ctx, instanceOf(other, d1)); err != nil {
		t.Fatalf("InsertInstance other series: %v", err)
	}

	all, err := s.ListInstances(ctx, parent.ID, time.Time{}, time.Time{})
	if err != nil || len(all) != 2 || all[0].ID != i1.ID || all[1].ID != i2.ID {
		t.Fatalf("ListInstances unbounded: n=%d err=%v", len(all), err)
	}
	if d, ok := all[1].OriginalDate(); !ok || d != d2 {
		t.Fatalf("ListInstances: original date %v ok=%v", d, ok)
	}

	lst, err := s.ListInstances(ctx, parent.ID, at(0, 2), at(23, 2))
	if err != nil || len(lst) != 1 || lst[0].ID != i2.ID {
		t.Fatalf("ListInstances window: n=%d err=%v", len(lst), err)
	}

	i2.IsModified = true
	i2.Title = "moved"
	if err := s.UpdateEvent(ctx, i2); err != nil {
		t.Fatalf("UpdateEvent instance: %v", err)
	}

	n, err := s.DeleteUnmodifiedInstances(ctx, parent.ID, []uuid.UUID{i1.ID, i2.ID})
	if err != nil || n != 1 {
		t.Fatalf("DeleteUnmodifiedInstances: n=%d err=%v", n, err)
	}
	left, _ := s.ListInstances(ctx, parent.ID, time.Time{}, time.Time{})
	if len(left) != 1 || left[0].ID != i2.ID {
		t.Fatalf("modified instance must survive: %+v", left)
	}
	// the deleted date can be materialized again
	if created, err = s.InsertInstance(ctx, instanceOf(parent, d1)); err != nil || !created {
		t.Fatalf("InsertInstance after delete: created=%v err=%v", created, err)
	}
	if n, err := s.DeleteUnmodifiedInstances(ctx, parent.ID, nil); err != nil || n != 0 {
		t.Fatalf("DeleteUnmodifiedInstances(nil): n=%d err=%v", n, err)
	}
}

func testModified(t *testing.T, s repository.SeriesStore) {
	ctx := context.Background()
	parent := mustCreateSeries(t, s, "standup")

	d1 := civil.Date{Year: 2024, Month: time.March, Day: 3}
	d2 := civil.Date{Year: 2024, Month: time.March, Day: 1}
	inst1, inst2, inst3 := uuid.New(), uuid.New(), uuid.New()

	for _, m := range []*model.ModifiedOccurrence{
		{ParentEventID: parent.ID, OccurrenceDate: model.DateOf(d1), InstanceID: inst1},
		{ParentEventID: parent.ID, OccurrenceDate: model.DateOf(d2), InstanceID: inst2},
	} {
		if err := s.PutModifiedOccurrence(ctx, m); err != nil {
			t.Fatalf("PutModifiedOccurrence: %v", err)
		}
	}

	lst, err := s.ListModifiedOccurrences(ctx, parent.ID)
	if err != nil || len(lst) != 2 {
		t.Fatalf("ListModifiedOccurrences: n=%d err=%v", len(lst), err)
	}
	if model.CivilDate(lst[0].OccurrenceDate) != d2 || model.CivilDate(lst[1].OccurrenceDate) != d1 {
		t.Fatalf("ListModifiedOccurrences: not ordered by date: %+v", lst)
	}

	// same date replaces the mapping
	if err := s.PutModifiedOccurrence(ctx, &model.ModifiedOccurrence{
		ParentEventID: parent.ID, OccurrenceDate: model.DateOf(d1), InstanceID: inst3,
	}); err != nil {
		t.Fatalf("PutModifiedOccurrence replace: %v", err)
	}
	lst, _ = s.ListModifiedOccurrences(ctx, parent.ID)
	if len(lst) != 2 || lst[1].InstanceID != inst3 {
		t.Fatalf("PutModifiedOccurrence replace: %+v", lst)
	}

	if err := s.DeleteModifiedOccurrence(ctx, inst2); err != nil {
		t.Fatalf("DeleteModifiedOccurrence: %v", err)
	}
	lst, _ = s.ListModifiedOccurrences(ctx, parent.ID)
	if len(lst) != 1 || lst[0].InstanceID != inst3 {
		t.Fatalf("DeleteModifiedOccurrence: %+v", lst)
	}

	if other, _ := s.ListModifiedOccurrences(ctx, uuid.New()); len(other) != 0 {
		t.Fatalf("ListModifiedOccurrences unknown series: %+v", other)
	}

	// mappings of another series live next to these
	second := mustCreateSeries(t, s, "retro")
	for _, d := range []civil.Date{d1, d2} {
		if err := s.PutModifiedOccurrence(ctx, &model.ModifiedOccurrence{
			ParentEventID: second.ID, OccurrenceDate: model.DateOf(d), InstanceID: uuid.New(),
		}); err != nil {
			t.Fatalf("PutModifiedOccurrence second series %s: %v", d, err)
		}
	}
	if lst, _ := s.ListModifiedOccurrences(ctx, second.ID); len(lst) != 2 {
		t.Fatalf("ListModifiedOccurrences second series: %+v", lst)
	}
	if lst, _ := s.ListModifiedOccurrences(ctx, parent.ID); len(lst) != 1 {
		t.Fatalf("ListModifiedOccurrences first series after second: %+v", lst)
	}
}

func testAudit(t *testing.T, s repository.SeriesStore) {
	ctx := context.Background()
	seriesID := uuid.New()
	inst := uuid.New()

	first := &model.AuditEntry{Type: model.AuditSeriesCreated, SeriesID: seriesID, CreatedAt: at(8, 1)}
	second := &model.AuditEntry{Type: model.AuditOccurrenceCancelled, SeriesID: seriesID, InstanceID: &inst, Details: "2024-03-02", CreatedAt: at(9, 1)}
	for _, e := range []*model.AuditEntry{first, second, {Type: model.AuditSeriesCreated, SeriesID: uuid.New(), CreatedAt: at(8, 1)}} {
		if err := s.AppendAudit(ctx, e); err != nil {
			t.Fatalf("AppendAudit: %v", err)
		}
	}

	lst, err := s.ListAudit(ctx, seriesID)
	if err != nil || len(lst) != 2 {
		t.Fatalf("ListAudit: n=%d err=%v", len(lst), err)
	}
	if lst[0].Type != model.AuditSeriesCreated || lst[1].Type != model.AuditOccurrenceCancelled {
		t.Fatalf("ListAudit order: %+v", lst)
	}
	if lst[1].InstanceID == nil || *lst[1].InstanceID != inst || lst[1].Details != "2024-03-02" {
		t.Fatalf("ListAudit fields: %+v", lst[1])
	}
}

func testWithinTx(t *testing.T, s repository.SeriesStore) {
	ctx := context.Background()
	parent := mustCreateSeries(t, s, "standup")
	d := civil.Date{Year: 2024, Month: time.March, Day: 9}

	err := s.WithinTx(ctx, func(tx repository.SeriesStore) error {
		inst := instanceOf(parent, d)
		if _, err := tx.InsertInstance(ctx, inst); err != nil {
			return err
		}
		return tx.PutModifiedOccurrence(ctx, &model.ModifiedOccurrence{
			ParentEventID: parent.ID, OccurrenceDate: model.DateOf(d), InstanceID: inst.ID,
		})
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}

	insts, _ := s.ListInstances(ctx, parent.ID, time.Time{}, time.Time{})
	mods, _ := s.ListModifiedOccurrences(ctx, parent.ID)
	if len(insts) != 1 || len(mods) != 1 || mods[0].InstanceID != insts[0].ID {
		t.Fatalf("WithinTx: insts=%d mods=%d", len(insts), len(mods))
	}

	boom := errors.New("boom")
	if err := s.WithinTx(ctx, func(repository.SeriesStore) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("WithinTx error: want boom, got %v", err)
	}

	// a failing transaction leaves nothing behind
	rolledBack := civil.Date{Year: 2024, Month: time.March, Day: 10}
	err = s.WithinTx(ctx, func(tx repository.SeriesStore) error {
		inst := instanceOf(parent, rolledBack)
		if _, err := tx.InsertInstance(ctx, inst); err != nil {
			return err
		}
		if err := tx.PutModifiedOccurrence(ctx, &model.ModifiedOccurrence{
			ParentEventID: parent.ID, OccurrenceDate: model.DateOf(rolledBack), InstanceID: inst.ID,
		}); err != nil {
			return err
		}
		if err := tx.AppendAudit(ctx, &model.AuditEntry{Type: model.AuditOccurrenceModified, SeriesID: parent.ID}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx rollback: want boom, got %v", err)
	}
	insts, _ = s.ListInstances(ctx, parent.ID, time.Time{}, time.Time{})
	mods, _ = s.ListModifiedOccurrences(ctx, parent.ID)
	audit, _ := s.ListAudit(ctx, parent.ID)
	if len(insts) != 1 || len(mods) != 1 || len(audit) != 0 {
		t.Fatalf("WithinTx rollback: insts=%d mods=%d audit=%d", len(insts), len(mods), len(audit))
	}
}
